package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lgulliver/nexus3-cli/pkg/nexus/cleanup"
)

var cleanupHeaders = []string{"NAME", "FORMAT", "MODE", "BLOB UPDATED", "DOWNLOADED", "REGEX", "NOTES"}

func cleanupRow(p cleanup.Policy) []string {
	days := func(d *int) string {
		if d == nil {
			return ""
		}
		return strconv.Itoa(*d)
	}
	return []string{
		p.Name,
		p.Format,
		p.Mode,
		days(p.Criteria.LastBlobUpdated),
		days(p.Criteria.LastDownloaded),
		p.Criteria.Regex,
		p.Notes,
	}
}

// NewCleanupPolicyCmd creates the command group for cleanup policies
func NewCleanupPolicyCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cleanup-policy",
		Aliases: []string{"cleanup"},
		Short:   "Manage cleanup policies",
	}

	cmd.AddCommand(
		newCleanupListCmd(clientFn, outputFn),
		newCleanupShowCmd(clientFn, outputFn),
		newCleanupCreateCmd(clientFn, outputFn),
	)

	return cmd
}

func newCleanupListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all cleanup policies",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			policies, err := cleanup.NewClient(client).List(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(policies))
			for i, p := range policies {
				rows[i] = cleanupRow(p)
			}
			return out.Print(cleanupHeaders, rows, policies)
		},
	}
}

func newCleanupShowCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show a cleanup policy",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			p, err := cleanup.NewClient(client).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return out.Print(cleanupHeaders, [][]string{cleanupRow(*p)}, p)
		},
	}
}

func newCleanupCreateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var policy cleanup.Policy
	var blobUpdated, downloaded int

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create or update a cleanup policy",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			policy.Name = args[0]
			if cmd.Flags().Changed("last-blob-updated") {
				policy.Criteria.LastBlobUpdated = &blobUpdated
			}
			if cmd.Flags().Changed("last-downloaded") {
				policy.Criteria.LastDownloaded = &downloaded
			}

			if err := cleanup.NewClient(client).CreateOrUpdate(cmd.Context(), policy); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Cleanup policy saved: %s", policy.Name))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&policy.Format, "format", cleanup.FormatAll, "Repository format the policy applies to")
	fs.StringVar(&policy.Notes, "notes", "", "Free text notes")
	fs.StringVar(&policy.Mode, "mode", cleanup.ModeDelete, "Cleanup mode")
	fs.IntVar(&blobUpdated, "last-blob-updated", 0, "Remove components not updated in this many days")
	fs.IntVar(&downloaded, "last-downloaded", 0, "Remove components not downloaded in this many days")
	fs.StringVar(&policy.Criteria.Regex, "regex", "", "Remove components whose path matches")

	return cmd
}
