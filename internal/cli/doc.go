// Package cli implements the nexus3 command line tool.
//
// # Overview
//
// Every command group is built by a factory (NewRepositoryCmd,
// NewTaskCmd, ...) that receives clientFn and outputFn. Both are closures
// evaluated after persistent flags are parsed, so --config and --output
// apply to every command.
//
// Data goes to stdout as a table, JSON or YAML depending on --output.
// Progress and status messages go to stderr, which keeps pipes such as
//
//	nexus3 repository list -o json | jq .
//
// usable.
//
// # Exit codes
//
// ExitCode maps errors returned by commands onto the process exit status:
//
//	0  success
//	1  no files were listed, transferred or deleted
//	2  the server answered with an unexpected status
//	3  invalid credentials
//	4  configuration error
//	5  the server is too old for the operation
//	6  the requested object does not exist
//	7  invalid repository path, option or usage
package cli
