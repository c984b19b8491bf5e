package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lgulliver/nexus3-cli/pkg/config"
	"github.com/lgulliver/nexus3-cli/pkg/nexus"
	"github.com/lgulliver/nexus3-cli/pkg/nexus/repository"
)

// NewLoginCmd verifies credentials against the server and saves them
func NewLoginCmd(configFn ConfigFunc, outputFn OutputFunc) *cobra.Command {
	var serverURL, username, password string
	var x509Verify bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Test login credentials and save them to the settings file",
		Long: `Prompts for any setting not given as a flag, checks that the server
accepts the credentials and writes the settings file together with a
shell environment file next to it.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			current, err := configFn()
			if err != nil && !errors.Is(err, config.ErrInvalid) {
				return err
			}
			if current == nil {
				current = config.New(cmd.Flag("config").Value.String())
			}

			p := newPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			cfg := config.New(current.Path())
			cfg.APIVersion = current.APIVersion
			cfg.Timeout = current.Timeout
			cfg.Retries = current.Retries

			if cfg.URL, err = promptUnless(cmd, "url", serverURL, func() (string, error) {
				return p.ask("Nexus OSS URL", current.URL)
			}); err != nil {
				return err
			}
			if cfg.Username, err = promptUnless(cmd, "username", username, func() (string, error) {
				return p.ask("Nexus admin username", current.Username)
			}); err != nil {
				return err
			}
			if cfg.Password, err = promptUnless(cmd, "password", password, func() (string, error) {
				return p.askPassword("Nexus admin password")
			}); err != nil {
				return err
			}
			cfg.X509Verify = x509Verify
			if !cmd.Flags().Changed("x509-verify") {
				if cfg.X509Verify, err = p.confirm("Verify server certificate", current.X509Verify); err != nil {
					return err
				}
			}

			client, err := nexus.NewClient(cfg)
			if err != nil {
				return err
			}
			if _, err := repository.NewCollection(client).List(cmd.Context()); err != nil {
				return fmt.Errorf("login to %s failed: %w", cfg.BaseURL(), err)
			}
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("%w: %w", ErrConfig, err)
			}

			out.Success(fmt.Sprintf("Login successful. Configuration saved to %s, %s", cfg.Path(), cfg.EnvFile()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&serverURL, "url", "U", "", "Nexus OSS URL")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Nexus admin username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Nexus admin password")
	cmd.Flags().BoolVar(&x509Verify, "x509-verify", true, "Verify the server TLS certificate")

	return cmd
}

func promptUnless(cmd *cobra.Command, flag, value string, prompt func() (string, error)) (string, error) {
	if cmd.Flags().Changed(flag) {
		return value, nil
	}
	return prompt()
}

type prompter struct {
	raw    io.Reader
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{raw: in, reader: bufio.NewReader(in), out: out}
}

// ask reads a line, returning def when it is empty
func (p *prompter) ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return def, nil
	}
	return line, nil
}

// confirm reads a yes/no answer, returning def when it is empty
func (p *prompter) confirm(label string, def bool) (bool, error) {
	hint := "y/N"
	if def {
		hint = "Y/n"
	}
	for {
		fmt.Fprintf(p.out, "%s [%s]: ", label, hint)
		line, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "":
			return def, nil
		case "y", "yes", "true":
			return true, nil
		case "n", "no", "false":
			return false, nil
		}
		fmt.Fprintf(p.out, "Please answer yes or no\n")
	}
}

// askPassword reads without echo when attached to a terminal
func (p *prompter) askPassword(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if f, ok := p.raw.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return p.readLine()
}

func (p *prompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
