// Package asset lists, downloads and deletes the files stored in a
// repository.
package asset

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lgulliver/nexus3-cli/internal/storage"
	"github.com/lgulliver/nexus3-cli/pkg/nexus"
	"github.com/lgulliver/nexus3-cli/pkg/types"
	"github.com/lgulliver/nexus3-cli/pkg/utils"
)

// Client works with the assets of a server
type Client struct {
	client *nexus.Client
}

// NewClient returns an asset client using c
func NewClient(c *nexus.Client) *Client {
	return &Client{client: c}
}

// List returns the assets found at repositoryPath, given as
// "repository/dir/file". An asset matches when its path equals the
// requested path or lies below it.
func (a *Client) List(ctx context.Context, repositoryPath string) ([]types.Asset, error) {
	repository, directory, file, err := nexus.SplitComponentPath(repositoryPath)
	if err != nil {
		return nil, err
	}
	prefix := nexus.JoinRemotePath(directory, file)

	var assets []types.Asset
	err = a.client.Paginate(ctx, "assets", url.Values{"repository": {repository}}, func(items json.RawMessage) error {
		var page []types.Asset
		if err := json.Unmarshal(items, &page); err != nil {
			return fmt.Errorf("failed to decode assets: %w", err)
		}
		for _, asset := range page {
			if Matches(asset.Path, prefix) {
				assets = append(assets, asset)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", repositoryPath, err)
	}

	log.Debug().
		Str("repository", repository).
		Str("prefix", prefix).
		Int("count", len(assets)).
		Msg("assets listed")
	return assets, nil
}

// Matches reports whether assetPath is prefix or lies below it
func Matches(assetPath, prefix string) bool {
	assetPath = strings.TrimLeft(assetPath, nexus.RemotePathSeparator)
	if prefix == "" || assetPath == prefix {
		return true
	}
	return strings.HasPrefix(assetPath, prefix+nexus.RemotePathSeparator)
}

// SplitDestination decides where downloads land. A destination ending in a
// separator or naming an existing directory receives files under their
// remote names; otherwise its last element renames the downloaded file.
func SplitDestination(dst string) (dir, file string) {
	if dst == "" {
		return ".", ""
	}
	if strings.HasSuffix(dst, string(os.PathSeparator)) || strings.HasSuffix(dst, "/") {
		return filepath.Clean(dst), ""
	}
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		return dst, ""
	}
	return filepath.Dir(dst), filepath.Base(dst)
}

// LocalPath returns the slash separated path, relative to the destination
// directory, that the asset at assetPath is written to. With flatten the
// remote directories are dropped; a non-empty dstFile replaces the file name.
func LocalPath(assetPath, dstFile string, flatten bool) string {
	rel := strings.TrimLeft(assetPath, nexus.RemotePathSeparator)
	if flatten {
		rel = path.Base(rel)
	}
	if dstFile != "" {
		rel = path.Join(path.Dir(rel), dstFile)
	}
	return rel
}

// Download fetches the assets at repositoryPath into dst. With cache set,
// local files whose sha256 matches the server checksum are not fetched again.
func (a *Client) Download(ctx context.Context, repositoryPath, dst string, flatten, cache bool) (*types.TransferStats, error) {
	assets, err := a.List(ctx, repositoryPath)
	if err != nil {
		return nil, err
	}

	stats := &types.TransferStats{}
	dstDir, dstFile := SplitDestination(dst)
	if len(assets) > 1 {
		// several files cannot share one name
		dstDir, dstFile = filepath.Join(dstDir, dstFile), ""
	}
	local := storage.NewLocalStorage(dstDir)

	for _, asset := range assets {
		rel := LocalPath(asset.Path, dstFile, flatten)
		target := local.FullPath(rel)
		source := asset.Repository + nexus.RemotePathSeparator + asset.Path

		if cache && utils.SHA256Matches(target, asset.Checksum.SHA256) {
			log.Debug().Str("asset", source).Str("dst", target).Msg("skipping cached asset")
			stats.Add(types.FileStat{Source: source, Destination: target, Status: types.StatusSkip, Size: asset.FileSize})
			continue
		}

		size, err := a.download(ctx, local, asset, rel)
		if err != nil {
			stats.Add(types.FileStat{Source: source, Destination: target, Status: types.StatusFail, Error: err.Error()})
			return stats, fmt.Errorf("failed to download %s: %w", source, err)
		}
		stats.Add(types.FileStat{Source: source, Destination: target, Status: types.StatusSuccess, Size: size})
	}

	log.Info().
		Str("path", repositoryPath).
		Int("downloaded", stats.Count(types.StatusSuccess)).
		Int("skipped", stats.Count(types.StatusSkip)).
		Msg("download finished")
	return stats, nil
}

func (a *Client) download(ctx context.Context, local *storage.LocalStorage, asset types.Asset, rel string) (int64, error) {
	resp, err := a.client.DoURL(ctx, http.MethodGet, asset.DownloadURL, nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := nexus.CheckResponse(resp, http.StatusOK); err != nil {
		return 0, err
	}

	size, _, err := local.Store(ctx, rel, resp.Body, utils.SHA256Digest(asset.Checksum.SHA256))
	return size, err
}

// Delete removes every asset found at repositoryPath and returns how many
// were deleted
func (a *Client) Delete(ctx context.Context, repositoryPath string) (int, error) {
	assets, err := a.List(ctx, repositoryPath)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, asset := range assets {
		resp, err := a.client.Delete(ctx, "assets/"+url.PathEscape(asset.ID))
		if err != nil {
			return deleted, err
		}
		err = nexus.CheckResponse(resp, http.StatusNoContent)
		resp.Body.Close()
		if err != nil {
			return deleted, fmt.Errorf("failed to delete %s/%s: %w", asset.Repository, asset.Path, err)
		}
		log.Info().Str("repository", asset.Repository).Str("path", asset.Path).Msg("asset deleted")
		deleted++
	}
	return deleted, nil
}
