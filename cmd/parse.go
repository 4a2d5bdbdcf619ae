package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/sitecms/internal/frontmatter"
)

var parseFormat string

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Print the fields and body read from a content file",
	Long: `Print the fields and body exactly as the site reads them from a content
file. Useful to see what a hand-edited file really contains.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runParse(cmd, args[0]); err != nil {
			fail(cmd, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	// Shadows the persistent report --format for this command.
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "json", "Output format (json|yaml)")
}

func runParse(cmd *cobra.Command, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	doc := frontmatter.Parse(string(raw))
	out := cmd.OutOrStdout()

	switch parseFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("invalid format: %s. Must be 'json' or 'yaml'", parseFormat)
	}
}
