package core

import (
	"os"
	"path/filepath"
	"strings"
)

// PathResolver provides a resolving service for paths that turns a relative or
// paths with '~' type symbols into absolute paths.
type PathResolver struct {
	configDir string // config directory used to set relative path roots
}

func NewPathResolver(configDir string) PathResolver {
	return PathResolver{configDir: configDir}
}

func (pr PathResolver) Resolve(ip string) (string, error) {
	// Handle home directory expansion
	if ip == "~" || strings.HasPrefix(ip, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		ip = filepath.Join(homeDir, strings.TrimPrefix(ip, "~"))
	}

	if filepath.IsAbs(ip) {
		return filepath.Clean(ip), nil
	}

	if pr.configDir != "" {
		return filepath.Join(pr.configDir, ip), nil
	}

	// Fallback to absolute path from current directory
	absPath, err := filepath.Abs(ip)
	if err != nil {
		return "", err
	}

	return absPath, nil
}
