package cli

import (
	"github.com/spf13/cobra"

	"github.com/adanyl0v/go-todo-planner/internal/app"
	"github.com/adanyl0v/go-todo-planner/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	if config.Global().Mirror.Enabled {
		app.MustConnectPostgres()
		defer app.DisconnectPostgres()
	}

	st := app.MustOpenStore(cmd.Context())
	defer app.CloseStore(st)

	app.MustListenAndServeHTTP(st)
	return nil
}
