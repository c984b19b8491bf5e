package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"path/filepath"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/lgulliver/nexus3-cli/internal/storage"
	"github.com/lgulliver/nexus3-cli/pkg/nexus"
)

// UploadSubdirectory returns the remote directory for a file found at
// relPath below the upload source. With flatten every file lands in dstDir.
func UploadSubdirectory(dstDir, relPath string, flatten bool) string {
	if flatten {
		return nexus.JoinRemotePath(dstDir)
	}
	subdir := path.Dir(filepath.ToSlash(relPath))
	if subdir == "." {
		subdir = ""
	}
	return nexus.JoinRemotePath(dstDir, subdir)
}

// UploadFile uploads the local file src to dstDir/dstFile in r. An empty
// dstFile keeps the local file name.
func (c *Collection) UploadFile(ctx context.Context, r *Repository, src, dstDir, dstFile string) error {
	if !r.SupportsUpload() {
		return fmt.Errorf("%w: %s repository %s", ErrUploadNotSupported, r.RecipeName(), r.Name)
	}
	if dstFile == "" {
		dstFile = filepath.Base(src)
	}

	local := storage.NewLocalStorage(filepath.Dir(src))
	content, size, err := local.Open(ctx, filepath.Base(src))
	if err != nil {
		return err
	}
	defer content.Close()

	return c.upload(ctx, r, content, size, nexus.JoinRemotePath(dstDir), dstFile)
}

// UploadDirectory uploads the files below srcDir to dstDir in r and returns
// how many were uploaded. The first failure stops the upload.
func (c *Collection) UploadDirectory(ctx context.Context, r *Repository, srcDir, dstDir string, recurse, flatten bool) (int, error) {
	if !r.SupportsUpload() {
		return 0, fmt.Errorf("%w: %s repository %s", ErrUploadNotSupported, r.RecipeName(), r.Name)
	}

	local := storage.NewLocalStorage(srcDir)
	files, err := local.List(ctx, "", recurse)
	if err != nil {
		return 0, err
	}

	uploaded := 0
	for _, relPath := range files {
		err := func() error {
			content, size, err := local.Open(ctx, relPath)
			if err != nil {
				return err
			}
			defer content.Close()
			return c.upload(ctx, r, content, size, UploadSubdirectory(dstDir, relPath, flatten), path.Base(relPath))
		}()
		if err != nil {
			return uploaded, fmt.Errorf("failed to upload %s: %w", local.FullPath(relPath), err)
		}
		uploaded++
	}
	return uploaded, nil
}

func (c *Collection) upload(ctx context.Context, r *Repository, content io.Reader, size int64, dstDir, dstFile string) error {
	var err error
	switch r.Kind.Upload {
	case UploadRaw:
		if dstDir == "" {
			return fmt.Errorf("%w: raw uploads need a destination directory", nexus.ErrInvalidRepositoryPath)
		}
		err = c.postComponent(ctx, r.Name, content, size, "raw.asset1", dstFile, map[string]string{
			"raw.directory":       dstDir,
			"raw.asset1.filename": dstFile,
		})
	case UploadPut:
		err = c.putContent(ctx, r.Name, content, size, dstDir, dstFile)
	case UploadComponent:
		err = c.postComponent(ctx, r.Name, content, size, r.Kind.Recipe+".asset", dstFile, nil)
	default:
		return fmt.Errorf("%w: %s repository %s", ErrUploadNotSupported, r.RecipeName(), r.Name)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("repository", r.Name).
		Str("path", nexus.JoinRemotePath(dstDir, dstFile)).
		Int64("size", size).
		Msg("file uploaded")
	return nil
}

// replayable returns a function yielding a fresh reader over content for
// every request attempt. Readers without ReadAt are buffered.
func replayable(content io.Reader, size int64) (func() io.Reader, error) {
	if ra, ok := content.(io.ReaderAt); ok {
		return func() io.Reader { return io.NewSectionReader(ra, 0, size) }, nil
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload content: %w", err)
	}
	return func() io.Reader { return bytes.NewReader(data) }, nil
}

// lenReader reports its length so the request carries a Content-Length
type lenReader struct {
	io.Reader
	n int64
}

func (r lenReader) Len() int {
	return int(r.n)
}

// postComponent streams a multipart upload to the components endpoint
func (c *Collection) postComponent(ctx context.Context, repository string, content io.Reader, size int64, field, filename string, fields map[string]string) error {
	open, err := replayable(content, size)
	if err != nil {
		return err
	}

	form := multipart.NewWriter(io.Discard)
	boundary := form.Boundary()
	body := retryablehttp.ReaderFunc(func() (io.Reader, error) {
		pr, pw := io.Pipe()
		mw := multipart.NewWriter(pw)
		if err := mw.SetBoundary(boundary); err != nil {
			return nil, err
		}
		go func() {
			pw.CloseWithError(writeForm(mw, fields, field, filename, open()))
		}()
		return pr, nil
	})

	resp, err := c.client.Request(ctx, http.MethodPost, "components", url.Values{"repository": {repository}}, body, form.FormDataContentType())
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nexus.CheckResponse(resp, http.StatusNoContent)
}

func writeForm(mw *multipart.Writer, fields map[string]string, field, filename string, content io.Reader) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("failed to read upload content: %w", err)
	}
	return mw.Close()
}

// putContent streams content to the repository content URL
func (c *Collection) putContent(ctx context.Context, repository string, content io.Reader, size int64, dstDir, dstFile string) error {
	open, err := replayable(content, size)
	if err != nil {
		return err
	}
	body := retryablehttp.ReaderFunc(func() (io.Reader, error) {
		return lenReader{Reader: open(), n: size}, nil
	})

	resp, err := c.client.DoURL(ctx, http.MethodPut, c.client.RepositoryURL(repository, dstDir, dstFile), body, "application/octet-stream")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nexus.CheckResponse(resp)
}
