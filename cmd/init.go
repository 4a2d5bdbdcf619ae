package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dotcommander/sitecms/internal/config"
	"github.com/dotcommander/sitecms/internal/project"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a .sitecmsrc.json with the current settings",
	Long: `Write the effective configuration (defaults, environment and flags) to
.sitecmsrc.json in the site root, as a starting point for editing.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runInit(cmd); err != nil {
			fail(cmd, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
}

func runInit(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if info, err := project.Detect(cfg.Root); err == nil && !info.HasContent && !info.HasSettings && !cfg.Quiet {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s has no content/ or data/settings/ directory\n", info.Root)
	}

	path := filepath.Join(cfg.Root, config.ConfigFiles[0])
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	// The root is implied by the file's location.
	saved := *cfg
	saved.Root = "."
	if err := config.SaveConfig(&saved, path); err != nil {
		return err
	}
	if !cfg.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	}
	return nil
}
