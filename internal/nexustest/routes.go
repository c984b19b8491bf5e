package nexustest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.recordMiddleware())
	router.Use(s.serverHeaderMiddleware())
	router.Use(s.basicAuthMiddleware())

	router.HEAD("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "Nexus Repository Manager") })

	// repository content
	router.GET("/repository/:name/*path", s.handleContentGet())
	router.PUT("/repository/:name/*path", s.handleContentPut())

	for _, version := range []string{"v1", "beta"} {
		api := router.Group("/service/rest/" + version)
		s.setupRESTRoutes(api)
	}

	return router
}

func (s *Server) setupRESTRoutes(api *gin.RouterGroup) {
	api.GET("/repositories", s.handleListRepositories())

	api.GET("/assets", s.handleListAssets())
	api.DELETE("/assets/:id", s.handleDeleteAsset())
	api.POST("/components", s.handleUploadComponent())

	scripts := api.Group("/script")
	{
		scripts.GET("", s.handleListScripts())
		scripts.POST("", s.handleCreateScript())
		scripts.GET("/:name", s.handleGetScript())
		scripts.PUT("/:name", s.handleUpdateScript())
		scripts.DELETE("/:name", s.handleDeleteScript())
		scripts.POST("/:name/run", s.handleRunScript())
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("", s.handleListTasks())
		tasks.GET("/:id", s.handleGetTask())
		tasks.POST("/:id/run", s.handleRunTask())
		tasks.POST("/:id/stop", s.handleStopTask())
	}

	blobstores := api.Group("/blobstores")
	{
		blobstores.GET("", s.handleListBlobStores())
		blobstores.POST("/:type", s.handleCreateBlobStore())
		blobstores.GET("/:first/:second", s.handleGetBlobStore())
		blobstores.DELETE("/:name", s.handleDeleteBlobStore())
	}

	realms := api.Group("/security/realms")
	{
		realms.GET("/available", s.handleAvailableRealms())
		realms.GET("/active", s.handleActiveRealms())
		realms.PUT("/active", s.handleSetActiveRealms())
	}
}

func (s *Server) recordMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.requests = append(s.requests, c.Request.Method+" "+c.Request.URL.RequestURI())
		s.mu.Unlock()
		c.Next()
	}
}

func (s *Server) serverHeaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		version := s.version
		s.mu.Unlock()
		if version != "" {
			c.Header("Server", "Nexus/"+version+" (OSS)")
		}
		c.Next()
	}
}

// basicAuthMiddleware rejects requests without the expected credentials
func (s *Server) basicAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok || user != Username || pass != Password {
			c.String(http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}
		c.Next()
	}
}
