package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lgulliver/nexus3-cli/pkg/nexus"
	"github.com/lgulliver/nexus3-cli/pkg/nexus/asset"
	"github.com/lgulliver/nexus3-cli/pkg/nexus/repository"
	"github.com/lgulliver/nexus3-cli/pkg/types"
	"github.com/lgulliver/nexus3-cli/pkg/utils"
)

// NewListCmd lists the assets under a repository path
func NewListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "list REPOSITORY_PATH",
		Aliases: []string{"ls"},
		Short:   "List all files within a path in the repository",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			assets, err := asset.NewClient(client).List(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			lines := make([]string, len(assets))
			for i, a := range assets {
				lines[i] = a.Repository + nexus.RemotePathSeparator + a.Path
			}
			if err := out.Lines(lines, assets); err != nil {
				return err
			}
			if len(assets) == 0 {
				return fmt.Errorf("%w: nothing found at %s", ErrNoFiles, args[0])
			}
			return nil
		},
	}
}

// NewUploadCmd uploads a file or directory into a repository
func NewUploadCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var flatten, recurse bool

	cmd := &cobra.Command{
		Use:     "upload SOURCE REPOSITORY_PATH",
		Aliases: []string{"up"},
		Short:   "Upload local file(s) into a repository",
		Long: `Uploads SOURCE to REPOSITORY_PATH, which has the form
repository/directory/file. A trailing slash uploads under the source name.
Directories are walked, keeping their structure unless --flatten is set.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()
			src, dst := args[0], args[1]

			repoName, dstDir, dstFile, err := nexus.SplitComponentPath(dst)
			if err != nil {
				return err
			}

			repos := repository.NewCollection(client)
			repo, err := repos.Get(cmd.Context(), repoName)
			if err != nil {
				return err
			}

			info, err := os.Stat(src)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrUsage, err)
			}

			uploaded := 1
			if info.IsDir() {
				uploaded, err = repos.UploadDirectory(cmd.Context(), repo, src, nexus.JoinRemotePath(dstDir, dstFile), recurse, flatten)
			} else {
				err = repos.UploadFile(cmd.Context(), repo, src, dstDir, dstFile)
			}
			if err != nil {
				return err
			}
			if uploaded == 0 {
				return fmt.Errorf("%w: nothing to upload in %s", ErrNoFiles, src)
			}

			out.Success(fmt.Sprintf("Uploaded %d file(s) to %s", uploaded, dst))
			return nil
		},
	}

	cmd.Flags().BoolVar(&flatten, "flatten", false, "Do not keep the source directory structure")
	cmd.Flags().BoolVar(&recurse, "recurse", true, "Upload directories recursively")

	return cmd
}

// NewDownloadCmd downloads assets to the local file system
func NewDownloadCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var flatten, cache bool

	cmd := &cobra.Command{
		Use:     "download REPOSITORY_PATH [DESTINATION]",
		Aliases: []string{"dl"},
		Short:   "Download files from a repository",
		Long: `Downloads every asset under REPOSITORY_PATH into DESTINATION, the
current directory by default. The remote path is recreated locally unless
--flatten is set. Files whose sha256 already matches are skipped.`,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			dst := "." + string(os.PathSeparator)
			if len(args) == 2 {
				dst = args[1]
			}

			stats, err := asset.NewClient(client).Download(cmd.Context(), args[0], dst, flatten, cache)
			if stats != nil {
				if perr := printTransferStats(out, stats); perr != nil && err == nil {
					err = perr
				}
			}
			if err != nil {
				return err
			}

			done := stats.Count(types.StatusSuccess)
			skipped := stats.Count(types.StatusSkip)
			if done+skipped == 0 {
				return fmt.Errorf("%w: nothing found at %s", ErrNoFiles, args[0])
			}
			out.Success(fmt.Sprintf("Downloaded %d file(s) to %s, skipped %d", done, dst, skipped))
			return nil
		},
	}

	cmd.Flags().BoolVar(&flatten, "flatten", false, "Do not recreate the remote directory structure")
	cmd.Flags().BoolVar(&cache, "cache", true, "Skip files whose local checksum matches the server")

	return cmd
}

func printTransferStats(out *Output, stats *types.TransferStats) error {
	rows := make([][]string, len(stats.FileStats))
	for i, f := range stats.FileStats {
		rows[i] = []string{f.Source, f.Destination, string(f.Status), utils.FormatBytes(f.Size)}
	}
	return out.Print([]string{"SOURCE", "DESTINATION", "STATUS", "SIZE"}, rows, stats)
}

// NewDeleteCmd removes assets from a repository
func NewDeleteCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "delete REPOSITORY_PATH",
		Aliases: []string{"del"},
		Short:   "Delete artefacts from a repository",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			deleted, err := asset.NewClient(client).Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if deleted == 0 {
				return fmt.Errorf("%w: nothing found at %s", ErrNoFiles, args[0])
			}
			out.Success("Deleted " + strconv.Itoa(deleted) + " file(s)")
			return nil
		},
	}
}
