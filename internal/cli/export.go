package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/adanyl0v/go-todo-planner/internal/app"
	"github.com/adanyl0v/go-todo-planner/internal/snapshot"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the persisted tasks and completion history",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringP("format", "f", formatJSON, "Output format: json, yaml")
}

func runExport(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")

	snaps := app.MustOpenSnapshotter()
	defer snaps.Close()

	state, err := snaps.Load(cmd.Context())
	if err != nil {
		return err
	}
	return writeState(cmd.OutOrStdout(), state, format)
}

func writeState(w io.Writer, state *snapshot.State, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(state); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: expected %s or %s", format, formatJSON, formatYAML)
	}
}
