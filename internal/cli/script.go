package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lgulliver/nexus3-cli/pkg/nexus/script"
	"github.com/lgulliver/nexus3-cli/pkg/types"
)

// NewScriptCmd creates the command group for managing groovy scripts
func NewScriptCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "script",
		Short: "Manage scripts",
	}

	cmd.AddCommand(
		newScriptListCmd(clientFn, outputFn),
		newScriptShowCmd(clientFn, outputFn),
		newScriptCreateCmd(clientFn, outputFn),
		newScriptRunCmd(clientFn, outputFn),
		newScriptDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newScriptListCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all scripts",
		Args:    exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			scripts, err := script.NewClient(client).List(cmd.Context())
			if err != nil {
				return err
			}

			rows := make([][]string, len(scripts))
			for i, s := range scripts {
				rows[i] = []string{s.Name, s.Type}
			}
			return out.Print([]string{"NAME", "TYPE"}, rows, scripts)
		},
	}
}

func newScriptShowCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show the content of a script",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			s, err := script.NewClient(client).Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out.Structured() {
				return out.Data(s)
			}
			out.Text(s.Content)
			return nil
		},
	}
}

func newScriptCreateCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var scriptType string
	var update bool

	cmd := &cobra.Command{
		Use:   "create NAME FILE",
		Short: "Upload a script from a file",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			content, err := os.ReadFile(filepath.Clean(args[1]))
			if err != nil {
				return fmt.Errorf("%w: %w", ErrUsage, err)
			}

			s := types.Script{Name: args[0], Content: string(content), Type: scriptType}
			scripts := script.NewClient(client)
			if update {
				err = scripts.Update(cmd.Context(), s)
			} else {
				err = scripts.Create(cmd.Context(), s)
			}
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Script saved: %s", s.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&scriptType, "script-type", script.TypeGroovy, "Script language")
	cmd.Flags().BoolVar(&update, "update", false, "Replace an existing script")

	return cmd
}

func newScriptRunCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	var scriptArgs string

	cmd := &cobra.Command{
		Use:   "run NAME",
		Short: "Run a stored script",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			result, err := script.NewClient(client).Run(cmd.Context(), args[0], scriptArgs)
			if err != nil {
				return err
			}
			if out.Structured() {
				return out.Data(result)
			}
			out.Text(strings.TrimRight(result.Result, "\n"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&scriptArgs, "args", "a", "", "Arguments passed to the script as its request body")

	return cmd
}

func newScriptDeleteCmd(clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"del", "rm"},
		Short:   "Delete a script",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFn()
			if err != nil {
				return err
			}
			out := outputFn()

			if err := script.NewClient(client).Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Script deleted: %s", args[0]))
			return nil
		},
	}
}
