// nexus3 is a command line client for Sonatype Nexus Repository Manager 3.
//
// Usage:
//
//	nexus3 [--config FILE] [-o table|json|yaml] <command> [flags]
//
// Commands:
//
//	login           Save and verify server credentials
//	list            List files in a repository
//	upload          Upload files into a repository
//	download        Download files from a repository
//	delete          Delete files from a repository
//	repository      Manage repositories
//	script          Manage groovy scripts
//	task            Manage scheduled tasks
//	blobstore       Manage blob stores
//	cleanup-policy  Manage cleanup policies
//	realm           Manage security realms
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lgulliver/nexus3-cli/internal/cli"
)

// version is set with ldflags at build time
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCmd(version).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
