package cli

import (
	"github.com/spf13/cobra"

	"github.com/pqgraph-dev/pqgraph/internal/nav"
	"github.com/pqgraph-dev/pqgraph/internal/server"
)

// RunServe exposes one catalog directory to MCP clients on stdin/stdout. Logs stay on
// stderr so they never corrupt the protocol stream.
func RunServe(cmd *cobra.Command, args []string) error {
	explicit, err := OptionalStringFlag(cmd, "dir")
	if err != nil {
		return err
	}
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	dir, err := nav.ResolveDir(explicit, cfg.Out)
	if err != nil {
		return err
	}

	return server.New(dir, toolVersion).Run(commandContext(cmd))
}
