package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/sitecms/internal/format"
)

var (
	fmtCheck bool
	fmtWrite bool
	fmtDiff  bool
	fmtKind  string
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [paths...]",
	Short: "Format content files canonically",
	Long: `Format content files with canonical style.

FORMATTING RULES:

  Frontmatter:
  - Normalize field order per kind (page: titre, sous_titre, nom, role...;
    value: titre, icone, description, ordre; news: titre, date, resume),
    then alphabetical
  - Quote values only where the reader needs it
  - Exactly one blank line after the block

  Body:
  - Trim trailing whitespace from lines
  - End the file with exactly one newline

Files whose block is unclosed, or holds lists, nested keys or repeated
fields, are left untouched and reported.

USAGE MODES:

  sitecms fmt                    # Print formatted files to stdout
  sitecms fmt --write            # Write changes in place
  sitecms fmt --diff FILE        # Show what would change
  sitecms fmt --check            # Exit 1 if files need formatting (CI)`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		needs, err := runFmt(cmd, args)
		if err != nil {
			fail(cmd, err)
			return
		}
		if fmtCheck && needs > 0 {
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().BoolVar(&fmtCheck, "check", false, "Exit 1 if files would change (for CI)")
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Write changes in place")
	fmtCmd.Flags().BoolVar(&fmtDiff, "diff", false, "Show diff of what would change")
	fmtCmd.Flags().StringVarP(&fmtKind, "kind", "k", "", "Force content kind (page|value|news|settings)")
	fmtCmd.MarkFlagsMutuallyExclusive("check", "write", "diff")
}

// runFmt formats the selected files and returns how many need changes.
func runFmt(cmd *cobra.Command, args []string) (int, error) {
	cfg, err := loadConfig()
	if err != nil {
		return 0, err
	}
	log := newLogger(cfg, "fmt")
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	sel := selection{kind: fmtKind, paths: args}
	files, _, err := collectFiles(cmd.Context(), sel, cfg.Root, cfg.FollowSymlinks, errOut)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("no files to format")
	}

	needsFormatting := 0
	for _, f := range files {
		formatted, err := format.NewFormatter(f.Kind).Format(f.Contents)
		if err != nil {
			if !cfg.Quiet {
				fmt.Fprintf(errOut, "Error formatting %s: %v\n", f.RelPath, err)
			}
			continue
		}

		if formatted == f.Contents {
			if cfg.Verbose {
				fmt.Fprintf(out, "%s already formatted\n", f.RelPath)
			}
			continue
		}
		needsFormatting++

		switch {
		case fmtCheck:
			if !cfg.Quiet {
				fmt.Fprintf(out, "%s needs formatting\n", f.RelPath)
			}
		case fmtDiff:
			fmt.Fprint(out, format.Diff(f.Contents, formatted, f.RelPath))
		case fmtWrite:
			info, err := os.Stat(f.Path)
			if err != nil {
				return needsFormatting, fmt.Errorf("error writing %s: %w", f.Path, err)
			}
			if err := os.WriteFile(f.Path, []byte(formatted), info.Mode().Perm()); err != nil {
				return needsFormatting, fmt.Errorf("error writing %s: %w", f.Path, err)
			}
			log.Debug().Str("path", f.RelPath).Msg("formatted")
			if !cfg.Quiet {
				fmt.Fprintf(out, "Formatted %s\n", f.RelPath)
			}
		default:
			fmt.Fprint(out, formatted)
		}
	}

	if !cfg.Quiet && len(files) > 1 && (fmtCheck || fmtWrite) {
		switch {
		case needsFormatting == 0:
			fmt.Fprintf(out, "\nAll %d files already formatted\n", len(files))
		case fmtWrite:
			fmt.Fprintf(out, "\nFormatted %d of %d files\n", needsFormatting, len(files))
		default:
			fmt.Fprintf(out, "\n%d of %d files need formatting\n", needsFormatting, len(files))
		}
	}

	return needsFormatting, nil
}
