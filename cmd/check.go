package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dotcommander/sitecms/internal/baseline"
	"github.com/dotcommander/sitecms/internal/lint"
	"github.com/dotcommander/sitecms/internal/output"
)

var (
	checkStaged         bool
	checkChanged        bool
	checkKind           string
	checkBaseline       bool
	checkCreateBaseline bool
	checkBaselinePath   string
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Check content files for problems",
	Long: `Check content files for what the site would silently drop or misread:
unclosed frontmatter blocks, repeated or ignored fields, YAML that other tools
read differently, schema violations and missing pages.

With no paths, every content file is checked, followed by site-wide checks.
Paths may be files or directories.

BASELINE:

  sitecms check --create-baseline   Record current findings
  sitecms check --baseline          Report only findings not recorded`,
	Args: cobra.ArbitraryArgs,
	Run:  runCheckCommand,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addCheckFlags(checkCmd)
}

// addCheckFlags registers the check flags; root and check share them.
func addCheckFlags(c *cobra.Command) {
	c.Flags().BoolVar(&checkStaged, "staged", false, "Check only files staged for commit")
	c.Flags().BoolVar(&checkChanged, "changed", false, "Check only files changed since HEAD, untracked included")
	c.Flags().StringVarP(&checkKind, "kind", "k", "", "Force content kind (page|value|news|settings)")
	c.Flags().BoolVar(&checkBaseline, "baseline", false, "Ignore findings recorded in the baseline")
	c.Flags().BoolVar(&checkCreateBaseline, "create-baseline", false, "Record current findings as the baseline")
	c.Flags().StringVar(&checkBaselinePath, "baseline-path", baseline.DefaultFile, "Baseline file, relative to the site root")
	c.MarkFlagsMutuallyExclusive("staged", "changed")
	c.MarkFlagsMutuallyExclusive("baseline", "create-baseline")
}

func runCheckCommand(cmd *cobra.Command, args []string) {
	failed, err := runCheck(cmd, args)
	if err != nil {
		fail(cmd, err)
		return
	}
	if failed {
		exitFunc(1)
	}
}

// runCheck lints the selected files and reports whether the fail-on
// threshold was reached.
func runCheck(cmd *cobra.Command, args []string) (bool, error) {
	cfg, err := loadConfig()
	if err != nil {
		return false, err
	}
	log := newLogger(cfg, "check")
	out := cmd.OutOrStdout()

	sel := selection{staged: checkStaged, changed: checkChanged, kind: checkKind, paths: args}
	files, whole, err := collectFiles(cmd.Context(), sel, cfg.Root, cfg.FollowSymlinks, cmd.ErrOrStderr())
	if err != nil {
		return false, err
	}

	linter, err := lint.New(log)
	if err != nil {
		return false, fmt.Errorf("error loading schemas: %w", err)
	}
	var summary *lint.LintSummary
	if whole {
		summary = linter.LintSite(cfg.Root, files)
	} else {
		summary = linter.LintFiles(cfg.Root, files)
	}

	baselineFile := checkBaselinePath
	if !filepath.IsAbs(baselineFile) {
		baselineFile = filepath.Join(cfg.Root, baselineFile)
	}

	if checkCreateBaseline {
		return false, createBaseline(out, cfg.Quiet, baselineFile, summary)
	}

	if checkBaseline {
		b, err := baseline.Load(baselineFile)
		if err != nil {
			log.Warn().Err(err).Msg("baseline not applied")
		}
		if b == nil && err == nil {
			log.Warn().Str("path", baselineFile).Msg("baseline file not found")
		}
		summary.FilterBaseline(b)
	}

	formatter, err := output.New(cfg.Format, output.Options{
		Quiet:       cfg.Quiet,
		Verbose:     cfg.Verbose,
		Output:      cfg.Output,
		Writer:      out,
		Color:       isStdout(out),
		ToolVersion: Version,
	})
	if err != nil {
		return false, err
	}
	if err := formatter.Format(summary); err != nil {
		return false, fmt.Errorf("error formatting output: %w", err)
	}

	return summary.Fails(cfg.FailOn)
}

// createBaseline saves every current finding. The run then succeeds, accepting
// the current state.
func createBaseline(out io.Writer, quiet bool, path string, summary *lint.LintSummary) error {
	b := baseline.Create(summary.Issues(), time.Now())
	if err := b.Save(path); err != nil {
		return fmt.Errorf("failed to save baseline: %w", err)
	}
	if !quiet {
		fmt.Fprintf(out, "Baseline created: %s (%d issues)\n", path, b.Len())
	}
	return nil
}
