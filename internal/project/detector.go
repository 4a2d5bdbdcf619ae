// Package project locates the site a command works on.
package project

import (
	"os"
	"path/filepath"

	"github.com/dotcommander/sitecms/internal/config"
)

// Markers that identify a site root, relative to it.
var siteDirs = []string{"content", filepath.Join("data", "settings")}

// Info describes a site directory.
type Info struct {
	Root        string
	HasGit      bool
	HasContent  bool
	HasSettings bool
	// ConfigFile is the first config file found in Root, or "".
	ConfigFile string
	Markers    []string
}

// IsSite reports whether any site marker was found.
func (i *Info) IsSite() bool {
	return i.HasContent || i.HasSettings || i.ConfigFile != ""
}

// FindSiteRoot climbs from startPath to the nearest directory holding
// content/, data/settings/ or a config file. The search stops at a git
// repository root. When nothing is found, startPath itself is returned.
func FindSiteRoot(startPath string) (string, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return "", err
	}

	currentDir := absPath
	for {
		if isSiteRoot(currentDir) {
			return currentDir, nil
		}
		if isDir(filepath.Join(currentDir, ".git")) {
			break
		}
		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		currentDir = parent
	}

	return absPath, nil
}

func isSiteRoot(path string) bool {
	for _, dir := range siteDirs {
		if isDir(filepath.Join(path, dir)) {
			return true
		}
	}
	return configFile(path) != ""
}

// Detect describes the site at rootPath.
func Detect(rootPath string) (*Info, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Root:        absRoot,
		HasGit:      isDir(filepath.Join(absRoot, ".git")),
		HasContent:  isDir(filepath.Join(absRoot, "content")),
		HasSettings: isDir(filepath.Join(absRoot, "data", "settings")),
		ConfigFile:  configFile(absRoot),
	}

	if info.HasGit {
		info.Markers = append(info.Markers, ".git/")
	}
	if info.HasContent {
		info.Markers = append(info.Markers, "content/")
	}
	if info.HasSettings {
		info.Markers = append(info.Markers, "data/settings/")
	}
	if info.ConfigFile != "" {
		info.Markers = append(info.Markers, info.ConfigFile)
	}

	return info, nil
}

func configFile(dir string) string {
	for _, name := range config.ConfigFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return name
		}
	}
	return ""
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
