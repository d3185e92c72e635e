package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adanyl0v/go-todo-planner/internal/app"
)

var (
	configPath string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "planner",
		Short: "Personal task planner with subtasks, notes and completion history",
		PersistentPreRun: func(*cobra.Command, []string) {
			app.MustReadConfig(configPath)
			app.MustInitApplicationLogger()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (yaml, json, toml or env); environment variables override it")
}

// Execute runs the root command
func Execute() error {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(exportCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
