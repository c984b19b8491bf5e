package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// VersionInfo is printed by the version command
type VersionInfo struct {
	Client string `json:"client"`
	Server string `json:"server"`
}

// NewVersionCmd prints the client version and, when reachable, the server's
func NewVersionCmd(version string, clientFn ClientFunc, outputFn OutputFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the client and server versions",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			info := VersionInfo{Client: version, Server: "unknown"}

			client, err := clientFn()
			if err == nil {
				v, verr := client.ServerVersion(cmd.Context())
				switch {
				case verr != nil:
					log.Debug().Err(verr).Msg("server version unavailable")
				case v != nil:
					info.Server = v.String()
				}
			} else {
				log.Debug().Err(err).Msg("no client configured")
			}

			return out.Print([]string{"CLIENT", "SERVER"}, [][]string{{info.Client, info.Server}}, info)
		},
	}
}
