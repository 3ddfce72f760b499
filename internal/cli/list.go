package cli

import (
	"github.com/RevCBH/veeamjob/internal/jobspec"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command
func NewListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the names of all configured backup jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runRequest(cmd, jobspec.Request{Type: jobspec.TypeList})
		},
	}
}
