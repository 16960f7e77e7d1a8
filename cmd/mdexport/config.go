package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)

// loadConfig resolves and loads a configuration. An empty nameOrPath
// yields the library defaults. If nameOrPath contains a path separator
// it is treated as a file path; otherwise it is searched by name in the
// current directory and the user config directory.
func loadConfig(nameOrPath string) (mdexport.Config, error) {
	cfg := mdexport.DefaultConfig()
	if nameOrPath == "" {
		return cfg, nil
	}

	var configPath string
	var err error
	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/mdexport/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "mdexport", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// applyFlagOverrides layers explicitly-passed flags over cfg.
func applyFlagOverrides(cfg mdexport.Config, flags *cliFlags) mdexport.Config {
	if flags.format != "" {
		cfg.DefaultFormat = flags.format
	}
	if flags.mermaidLinkText != "" {
		cfg.MermaidLinkText = flags.mermaidLinkText
	}
	if flags.includeTypeSet {
		cfg.IncludeMermaidType = flags.includeType
	}
	if flags.codeFont != "" {
		cfg.CodeBlockFont = flags.codeFont
	}
	if flags.codeBackground != "" {
		cfg.CodeBlockBackground = flags.codeBackground
	}
	if flags.languageLabelSet {
		cfg.IncludeLanguageLabel = flags.languageLabel
	}
	if flags.imageHandling != "" {
		cfg.ImageHandling = flags.imageHandling
	}
	if flags.keepWikilinksSet {
		cfg.RemoveObsidianLinks = !flags.keepWikilinks
	}
	if flags.openSet {
		cfg.OpenAfterExport = flags.open
	}
	return cfg
}
