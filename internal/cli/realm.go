package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lgulliver/nexus3-cli/pkg/nexus/realm"
)

// NewRealmCmd creates the command group for security realms
func NewRealmCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realm",
		Short: "Manage security realms",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List the available realms",
			Args:    exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := clientFn()
				if err != nil {
					return err
				}
				out := outputFn()

				realms, err := realm.NewClient(client).List(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, len(realms))
				for i, r := range realms {
					rows[i] = []string{r.ID, r.Name}
				}
				return out.Print([]string{"ID", "NAME"}, rows, realms)
			},
		},
		&cobra.Command{
			Use:   "active",
			Short: "List the active realms in order",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := clientFn()
				if err != nil {
					return err
				}
				out := outputFn()

				active, err := realm.NewClient(client).Active(cmd.Context())
				if err != nil {
					return err
				}
				return out.Lines(active, active)
			},
		},
		newRealmToggleCmd("activate", "Append a realm to the active list", (*realm.Client).Activate, "Realm activated", clientFn, outputFn),
		newRealmToggleCmd("deactivate", "Remove a realm from the active list", (*realm.Client).Deactivate, "Realm deactivated", clientFn, outputFn),
	)

	return cmd
}

func newRealmToggleCmd(use, short string, action func(*realm.Client, context.Context, string) error, done string, clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			if err := action(realm.NewClient(client), cmd.Context(), args[0]); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("%s: %s", done, args[0]))
			return nil
		},
	}
}
