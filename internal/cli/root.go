package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/lgulliver/nexus3-cli/pkg/config"
	"github.com/lgulliver/nexus3-cli/pkg/nexus"
)

// ClientFunc returns a client for the configured server
type ClientFunc func() (*nexus.Client, error)

// OutputFunc returns the output selected with --output
type OutputFunc func() *Output

// ConfigFunc returns the settings selected with --config
type ConfigFunc func() (*config.Config, error)

// NewRootCmd builds the nexus3 command tree
func NewRootCmd(version string) *cobra.Command {
	var configPath string
	var format string

	cobra.EnablePrefixMatching = true

	root := &cobra.Command{
		Use:           "nexus3",
		Short:         "Command line interface for Sonatype Nexus Repository Manager 3",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoggingFromEnv().SetupLogging()
			return validFormat(format)
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Settings file, also read from NEXUS3_CONFIG")
	root.PersistentFlags().StringVarP(&format, "output", "o", FormatTable, "Output format: table, json or yaml")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	configFn := func() (*config.Config, error) { return loadConfig(configPath) }
	clientFn := func() (*nexus.Client, error) {
		cfg, err := configFn()
		if err != nil {
			return nil, err
		}
		return nexus.NewClient(cfg)
	}
	outputFn := func() *Output { return NewOutput(format, root.OutOrStdout(), root.ErrOrStderr()) }

	root.AddCommand(
		NewLoginCmd(configFn, outputFn),
		NewListCmd(clientFn, outputFn),
		NewUploadCmd(clientFn, outputFn),
		NewDownloadCmd(clientFn, outputFn),
		NewDeleteCmd(clientFn, outputFn),
		NewRepositoryCmd(clientFn, outputFn),
		NewScriptCmd(clientFn, outputFn),
		NewTaskCmd(clientFn, outputFn),
		NewBlobStoreCmd(clientFn, outputFn),
		NewCleanupPolicyCmd(clientFn, outputFn),
		NewRealmCmd(clientFn, outputFn),
		NewVersionCmd(version, clientFn, outputFn),
	)

	return root
}

// loadConfig reads the settings file. Without one the defaults apply,
// overridden by NEXUS3_* environment variables.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrNotFound) {
		log.Debug().Str("path", path).Msg("no settings file, using defaults")
		cfg = config.LoadFromEnv(config.New(path))
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err != nil && !errors.Is(err, config.ErrInvalid) {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return cfg, err
}

func wrapArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		return nil
	}
}

func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return wrapArgs(cobra.RangeArgs(lo, hi))
}
