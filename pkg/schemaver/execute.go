package schemaver

import "github.com/osvaldoandrade/schemaver/internal/cli"

// Execute runs the schemaver CLI entrypoint.
func Execute() int {
	return cli.Execute()
}
