package cmd

import (
	"fmt"

	"github.com/AnyUserName/imgconv/internal/encoder"
	"github.com/AnyUserName/imgconv/internal/format"
	"github.com/spf13/cobra"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List output formats and whether this machine can encode them",
	Args:  cobra.NoArgs,
	RunE:  runFormats,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

func runFormats(_ *cobra.Command, _ []string) error {
	registry := encoder.NewRegistry()

	fmt.Println()
	fmt.Printf("  %-6s  %-10s  %-12s  %s\n", "CODE", "LABEL", "RELIABILITY", "ENCODER")
	for _, d := range format.List() {
		fmt.Printf("  %-6s  %-10s  %-12s  %s\n", d.Code, d.Label, d.Reliability, encoderStatus(registry, d.Code))
	}
	fmt.Println()
	return nil
}

func encoderStatus(r *encoder.Registry, code format.Code) string {
	if code == format.SVG {
		return "built in (png wrapped in svg)"
	}
	if b := r.Backend(code); b != "" {
		return b
	}
	return "unavailable"
}
