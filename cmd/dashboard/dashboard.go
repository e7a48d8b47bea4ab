// Package dashboard runs the live terminal dashboard against a running
// service.
package dashboard

import (
	"github.com/spf13/cobra"

	"github.com/complyops/sentinel/internal/ui"
)

var serverURL string

// NewDashboardCommand creates the dashboard command.
func NewDashboardCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Watch a running service in the terminal",
		Example: `  # Watch the local service
  sentinel dashboard

  # Watch a remote service
  sentinel dashboard --server http://sentinel.internal:8080`,
		RunE: func(*cobra.Command, []string) error {
			return ui.NewDashboard(ui.NewClient(serverURL)).Run()
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the running service")
	return cmd
}
