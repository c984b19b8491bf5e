package nexustest

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lgulliver/nexus3-cli/pkg/types"
)

func (s *Server) handleListRepositories() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		names := make([]string, 0, len(s.repositories))
		for name := range s.repositories {
			names = append(names, name)
		}
		sort.Strings(names)

		summaries := make([]types.RepositorySummary, 0, len(names))
		for _, name := range names {
			summaries = append(summaries, types.RepositorySummary{
				Name:   name,
				Format: s.formatLocked(name),
				Type:   s.typeLocked(name),
				URL:    s.URL + "/repository/" + name,
			})
		}
		c.JSON(http.StatusOK, summaries)
	}
}

// page slices items according to the continuationToken query parameter
func (s *Server) page(c *gin.Context, total int) (start, end int, next *string) {
	start, _ = strconv.Atoi(c.Query("continuationToken"))
	if start < 0 || start > total {
		start = total
	}
	end = start + s.pageSize
	if end >= total {
		return start, total, nil
	}
	token := strconv.Itoa(end)
	return start, end, &token
}

func (s *Server) handleListAssets() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		repository := c.Query("repository")
		if _, ok := s.repositories[repository]; !ok {
			c.String(http.StatusNotFound, "Repository not found")
			return
		}

		stored := s.assets[repository]
		start, end, next := s.page(c, len(stored))
		items := make([]types.Asset, 0, end-start)
		for _, a := range stored[start:end] {
			items = append(items, a.asset)
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "continuationToken": next})
	}
}

func (s *Server) handleDeleteAsset() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		id := c.Param("id")
		for repository, stored := range s.assets {
			for i, a := range stored {
				if a.asset.ID == id {
					s.assets[repository] = append(stored[:i], stored[i+1:]...)
					c.Status(http.StatusNoContent)
					return
				}
			}
		}
		c.String(http.StatusNotFound, "Asset not found")
	}
}

func (s *Server) handleUploadComponent() gin.HandlerFunc {
	return func(c *gin.Context) {
		repository := c.Query("repository")

		s.mu.Lock()
		defer s.mu.Unlock()

		if _, ok := s.repositories[repository]; !ok {
			c.String(http.StatusNotFound, "Repository not found")
			return
		}
		if s.typeLocked(repository) != "hosted" {
			c.String(http.StatusBadRequest, "Repository does not allow uploading components")
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			c.String(http.StatusBadRequest, "invalid multipart form: %v", err)
			return
		}

		format := s.formatLocked(repository)
		if format == "raw" {
			directory := firstValue(form.Value["raw.directory"])
			if directory == "" {
				c.String(http.StatusBadRequest, "Missing required component field 'Directory'")
				return
			}
			for field, files := range form.File {
				if !strings.HasPrefix(field, "raw.asset") || len(files) == 0 {
					continue
				}
				filename := firstValue(form.Value[field+".filename"])
				if filename == "" {
					c.String(http.StatusBadRequest, "Missing required asset field 'Filename' on '%s'", field)
					return
				}
				content, err := readFormFile(files[0])
				if err != nil {
					c.String(http.StatusBadRequest, "%v", err)
					return
				}
				s.putAssetLocked(repository, strings.Trim(directory, "/")+"/"+filename, content)
			}
			c.Status(http.StatusNoContent)
			return
		}

		files := form.File[format+".asset"]
		if len(files) == 0 {
			c.String(http.StatusBadRequest, "Missing required field '%s.asset'", format)
			return
		}
		content, err := readFormFile(files[0])
		if err != nil {
			c.String(http.StatusBadRequest, "%v", err)
			return
		}
		s.putAssetLocked(repository, files[0].Filename, content)
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleContentGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		content, ok := s.Asset(c.Param("name"), c.Param("path"))
		if !ok {
			c.String(http.StatusNotFound, "Not Found")
			return
		}
		c.Data(http.StatusOK, "application/octet-stream", content)
	}
}

func (s *Server) handleContentPut() gin.HandlerFunc {
	return func(c *gin.Context) {
		repository := c.Param("name")
		content, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, "%v", err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.repositories[repository]; !ok {
			c.String(http.StatusNotFound, "Not Found")
			return
		}
		if s.typeLocked(repository) != "hosted" {
			c.String(http.StatusBadRequest, "Repository is read-only")
			return
		}
		s.putAssetLocked(repository, c.Param("path"), content)
		c.Status(http.StatusOK)
	}
}

func (s *Server) handleListScripts() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		names := make([]string, 0, len(s.scripts))
		for name := range s.scripts {
			names = append(names, name)
		}
		sort.Strings(names)
		scripts := make([]types.Script, 0, len(names))
		for _, name := range names {
			scripts = append(scripts, s.scripts[name])
		}
		c.JSON(http.StatusOK, scripts)
	}
}

func (s *Server) handleGetScript() gin.HandlerFunc {
	return func(c *gin.Context) {
		script, ok := s.Script(c.Param("name"))
		if !ok {
			c.String(http.StatusNotFound, "Script not found")
			return
		}
		c.JSON(http.StatusOK, script)
	}
}

func (s *Server) handleCreateScript() gin.HandlerFunc {
	return func(c *gin.Context) {
		var script types.Script
		if err := c.ShouldBindJSON(&script); err != nil || script.Name == "" {
			c.String(http.StatusBadRequest, "invalid script")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if _, exists := s.scripts[script.Name]; exists {
			c.String(http.StatusBadRequest, "Script with name '%s' already exists", script.Name)
			return
		}
		s.scripts[script.Name] = script
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleUpdateScript() gin.HandlerFunc {
	return func(c *gin.Context) {
		var script types.Script
		if err := c.ShouldBindJSON(&script); err != nil {
			c.String(http.StatusBadRequest, "invalid script")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		name := c.Param("name")
		if _, exists := s.scripts[name]; !exists {
			c.String(http.StatusNotFound, "Script not found")
			return
		}
		script.Name = name
		s.scripts[name] = script
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleDeleteScript() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		name := c.Param("name")
		if _, exists := s.scripts[name]; !exists {
			c.String(http.StatusNotFound, "Script not found")
			return
		}
		delete(s.scripts, name)
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleRunScript() gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, "%v", err)
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if _, ok := s.scripts[name]; !ok {
			c.String(http.StatusNotFound, "Script not found")
			return
		}

		result, err := s.runScriptLocked(name, string(body))
		if err != nil {
			c.JSON(http.StatusBadRequest, types.ScriptResult{Name: name, Result: err.Error()})
			return
		}
		c.JSON(http.StatusOK, types.ScriptResult{Name: name, Result: result})
	}
}

// runScriptLocked emulates the groovy scripts shipped with the client
func (s *Server) runScriptLocked(name, args string) (string, error) {
	switch name {
	case "nexus3-cli-repository-create":
		var cfg map[string]any
		if err := json.Unmarshal([]byte(args), &cfg); err != nil {
			return "", fmt.Errorf("javax.script.ScriptException: %v", err)
		}
		repoName, _ := cfg["name"].(string)
		if recipe, _ := cfg["recipeName"].(string); repoName == "" || recipe == "" {
			return "", fmt.Errorf("java.lang.IllegalArgumentException: name and recipeName are required")
		}
		if _, exists := s.repositories[repoName]; exists {
			return "", fmt.Errorf("java.lang.IllegalStateException: Repository with name '%s' already exists", repoName)
		}
		s.repositories[repoName] = cfg
		return mustJSON(cfg), nil

	case "nexus3-cli-repository-get":
		cfg, ok := s.repositories[strings.TrimSpace(args)]
		if !ok {
			return "null", nil
		}
		return mustJSON(cfg), nil

	case "nexus3-cli-repository-delete":
		repoName := strings.TrimSpace(args)
		if _, ok := s.repositories[repoName]; !ok {
			return "null", nil
		}
		delete(s.repositories, repoName)
		delete(s.assets, repoName)
		return repoName, nil

	case "nexus3-cli-cleanup-policy":
		var policy map[string]any
		if err := json.Unmarshal([]byte(args), &policy); err != nil {
			return "", fmt.Errorf("javax.script.ScriptException: %v", err)
		}
		policyName, _ := policy["name"].(string)
		if policyName == "" {
			return "", fmt.Errorf("java.lang.IllegalArgumentException: name is required")
		}
		s.cleanupPolicies[policyName] = policy
		return mustJSON(policy), nil

	case "nexus3-cli-cleanup-policy-get":
		policy, ok := s.cleanupPolicies[strings.TrimSpace(args)]
		if !ok {
			return "null", nil
		}
		return mustJSON(policy), nil

	case "nexus3-cli-cleanup-policy-list":
		names := make([]string, 0, len(s.cleanupPolicies))
		for policyName := range s.cleanupPolicies {
			names = append(names, policyName)
		}
		sort.Strings(names)
		policies := make([]map[string]any, 0, len(names))
		for _, policyName := range names {
			policies = append(policies, s.cleanupPolicies[policyName])
		}
		return mustJSON(policies), nil
	}

	return args, nil
}

func (s *Server) handleListTasks() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		ids := make([]string, 0, len(s.tasks))
		for id := range s.tasks {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		start, end, next := s.page(c, len(ids))
		items := make([]types.Task, 0, end-start)
		for _, id := range ids[start:end] {
			items = append(items, s.tasks[id].task)
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "continuationToken": next})
	}
}

func (s *Server) handleGetTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		task, ok := s.Task(c.Param("id"))
		if !ok {
			c.String(http.StatusNotFound, "Task not found")
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func (s *Server) handleRunTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		t, ok := s.tasks[c.Param("id")]
		if !ok {
			c.String(http.StatusNotFound, "Task not found")
			return
		}
		if !t.enabled {
			c.String(http.StatusMethodNotAllowed, "Task is disabled")
			return
		}
		t.task.CurrentState = "RUNNING"
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleStopTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		t, ok := s.tasks[c.Param("id")]
		if !ok {
			c.String(http.StatusNotFound, "Task not found")
			return
		}
		if t.task.CurrentState != "RUNNING" {
			c.String(http.StatusConflict, "Unable to stop task")
			return
		}
		t.task.CurrentState = "WAITING"
		t.task.LastRunResult = "CANCELED"
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleListBlobStores() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		names := make([]string, 0, len(s.blobStores))
		for name := range s.blobStores {
			names = append(names, name)
		}
		sort.Strings(names)
		stores := make([]types.BlobStore, 0, len(names))
		for _, name := range names {
			stores = append(stores, s.blobStores[name].summary)
		}
		c.JSON(http.StatusOK, stores)
	}
}

func (s *Server) handleCreateBlobStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		switch c.Param("type") {
		case "file":
			var store types.FileBlobStore
			if err := c.ShouldBindJSON(&store); err != nil || store.Name == "" || store.Path == "" {
				c.String(http.StatusBadRequest, "name and path are required")
				return
			}
			if _, exists := s.blobStores[store.Name]; exists {
				c.String(http.StatusBadRequest, "Blob store %s already exists", store.Name)
				return
			}
			s.blobStores[store.Name] = &storedBlobStore{
				summary: types.BlobStore{Name: store.Name, Type: "File", SoftQuota: store.SoftQuota},
				path:    store.Path,
			}
		case "s3":
			var store types.S3BlobStore
			if err := c.ShouldBindJSON(&store); err != nil || store.Name == "" || store.BucketConfiguration.Bucket.Name == "" {
				c.String(http.StatusBadRequest, "name and bucket are required")
				return
			}
			if _, exists := s.blobStores[store.Name]; exists {
				c.String(http.StatusBadRequest, "Blob store %s already exists", store.Name)
				return
			}
			s.blobStores[store.Name] = &storedBlobStore{
				summary: types.BlobStore{Name: store.Name, Type: "S3", SoftQuota: store.SoftQuota},
				s3:      &store,
			}
		default:
			c.String(http.StatusNotFound, "Not Found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleGetBlobStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		first, second := c.Param("first"), c.Param("second")
		if second == "quota-status" {
			store, ok := s.blobStores[first]
			if !ok {
				c.String(http.StatusNotFound, "Blob store not found")
				return
			}
			status := types.QuotaStatus{BlobStoreName: first, Message: "Blob store " + first + " is not violating its quota"}
			if q := store.summary.SoftQuota; q != nil && q.Type == "spaceUsedQuota" && store.summary.TotalSizeInBytes > q.Limit {
				status.IsViolation = true
				status.Message = "Blob store " + first + " is violating its quota"
			}
			c.JSON(http.StatusOK, status)
			return
		}

		store, ok := s.blobStores[second]
		if !ok || !strings.EqualFold(store.summary.Type, first) {
			c.String(http.StatusNotFound, "Blob store not found")
			return
		}
		if store.s3 != nil {
			c.JSON(http.StatusOK, store.s3)
			return
		}
		c.JSON(http.StatusOK, types.FileBlobStore{Path: store.path, SoftQuota: store.summary.SoftQuota})
	}
}

func (s *Server) handleDeleteBlobStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()

		name := c.Param("name")
		if _, ok := s.blobStores[name]; !ok {
			c.String(http.StatusNotFound, "Blob store not found")
			return
		}
		for repoName, cfg := range s.repositories {
			attributes, _ := cfg["attributes"].(map[string]any)
			storage, _ := attributes["storage"].(map[string]any)
			if storage["blobStoreName"] == name {
				c.String(http.StatusBadRequest, "Blob store %s is in use by repository %s", name, repoName)
				return
			}
		}
		delete(s.blobStores, name)
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleAvailableRealms() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.JSON(http.StatusOK, s.realms)
	}
}

func (s *Server) handleActiveRealms() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, s.ActiveRealms())
	}
}

func (s *Server) handleSetActiveRealms() gin.HandlerFunc {
	return func(c *gin.Context) {
		var ids []string
		if err := c.ShouldBindJSON(&ids); err != nil {
			c.String(http.StatusBadRequest, "invalid realm list")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		known := map[string]bool{}
		for _, r := range s.realms {
			known[r.ID] = true
		}
		for _, id := range ids {
			if !known[id] {
				c.String(http.StatusBadRequest, "Unknown realm %s", id)
				return
			}
		}
		s.activeRealms = ids
		c.Status(http.StatusNoContent)
	}
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open form file: %w", err)
	}
	defer f.Close()
	return io.ReadAll(f)
}
