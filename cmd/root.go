package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dotcommander/sitecms/internal/config"
	"github.com/dotcommander/sitecms/internal/logging"
	"github.com/dotcommander/sitecms/internal/project"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// exitFunc is replaced in tests.
var exitFunc = os.Exit

var (
	rootPath     string
	quiet        bool
	verbose      bool
	outputFormat string
	outputFile   string
	failOn       string
	logLevel     string
	logFormat    string
)

var rootCmd = &cobra.Command{
	Use:   "sitecms [paths...]",
	Short: "Check, format, export and serve the site's content files",
	Long: `sitecms works on the site's content tree: Markdown pages, values and news
under content/, and flat YAML settings under data/settings/.

Run without a subcommand, sitecms checks every content file, exactly like
"sitecms check".

USAGE MODES:

  sitecms                      Check all content
  sitecms content/pages        Check one directory
  sitecms --staged             Check files staged for commit
  sitecms fmt --write          Rewrite files canonically
  sitecms build                Export public/content.json
  sitecms serve                Serve the content API with live reload

EXAMPLES:

  # Fail CI on warnings too
  sitecms --fail-on warning

  # JSON report for tooling
  sitecms --format json --output report.json`,
	Version: Version,
	Args:    cobra.ArbitraryArgs,
	Run:     runCheckCommand,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitFunc(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootPath, "root", "r", "", "Site root directory (default: current directory)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "console", "Output format for reports (console|json|markdown)")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Output file for reports, or the manifest for build")
	rootCmd.PersistentFlags().StringVar(&failOn, "fail-on", "error", "Fail on specified level (error|warning|suggestion)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console|json)")

	bindFlag("quiet", "quiet")
	bindFlag("verbose", "verbose")
	bindFlag("format", "format")
	bindFlag("output", "output")
	bindFlag("failOn", "fail-on")
	bindFlag("logLevel", "log-level")
	bindFlag("logFormat", "log-format")

	addCheckFlags(rootCmd)
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

// loadConfig reads the configuration for the current invocation. Without
// --root or a configured root, the site is looked up from the working
// directory upwards.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(rootPath)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	if rootPath != "" {
		return cfg, nil
	}

	cwd, err := filepath.Abs(".")
	if err != nil || cfg.Root != cwd {
		return cfg, nil
	}
	found, err := project.FindSiteRoot(cwd)
	if err != nil || found == cwd {
		return cfg, nil
	}
	cfg, err = config.LoadConfig(found)
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	return cfg, nil
}

// newLogger writes diagnostics to stderr; reports go to stdout. An empty
// component leaves the logger unscoped.
func newLogger(cfg *config.Config, component string) zerolog.Logger {
	l := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Out:    os.Stderr,
	})
	if component == "" {
		return l
	}
	return logging.Component(l, component)
}

// fail reports err and exits.
func fail(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitFunc(1)
}

// isStdout reports whether w is the process's standard output.
func isStdout(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && f == os.Stdout
}
