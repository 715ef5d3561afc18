package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pqgraph-dev/pqgraph/internal/config"
	"github.com/pqgraph-dev/pqgraph/internal/fileutil"
	"github.com/pqgraph-dev/pqgraph/internal/ignore"
	"github.com/pqgraph-dev/pqgraph/internal/style"
)

const ignoreTemplate = `# Paths skipped when a directory is extracted (gitignore syntax).
# Report directories and VCS metadata are always skipped.
archive/
*.bak.pq
`

// RunInit writes the default config and ignore files. Existing files are left alone.
func RunInit(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	files := []struct {
		name string
		data string
	}{
		{config.FileName, config.Template},
		{ignore.FileName, ignoreTemplate},
	}
	for _, file := range files {
		created, err := fileutil.WriteIfMissing(filepath.Join(rootPath, file.name), []byte(file.data), 0644)
		if err != nil {
			return err
		}
		if created {
			style.Fprintok(out, "created %s", file.name)
		} else {
			style.Fprintwarn(out, "kept existing %s", file.name)
		}
	}
	return nil
}
