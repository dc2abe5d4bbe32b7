package collector

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/akatools/aka/internal/domain"
)

// Collector implements domain.AliasParser over the user's shell
// configuration files.
type Collector struct {
	homeDir string
	logger  *zap.Logger
}

// NewCollector creates a collector rooted at the user's home directory.
func NewCollector(logger *zap.Logger) *Collector {
	home, _ := os.UserHomeDir()
	return &Collector{homeDir: home, logger: logger}
}

// NewCollectorWithHome creates a collector with a custom home (for testing).
func NewCollectorWithHome(home string, logger *zap.Logger) *Collector {
	return &Collector{homeDir: home, logger: logger}
}

// DefaultConfigFiles returns the configuration files scanned for a shell,
// in enumeration order. Later files overwrite earlier ones on merge.
func (c *Collector) DefaultConfigFiles(shell domain.Shell) []string {
	switch shell {
	case domain.ShellBash:
		return []string{
			filepath.Join(c.homeDir, ".bashrc"),
			filepath.Join(c.homeDir, ".bash_profile"),
			filepath.Join(c.homeDir, ".bash_aliases"),
			filepath.Join(c.homeDir, ".profile"),
		}
	case domain.ShellZsh:
		return []string{
			filepath.Join(c.homeDir, ".zshrc"),
			filepath.Join(c.homeDir, ".zsh_profile"),
			filepath.Join(c.homeDir, ".zshenv"),
			filepath.Join(c.homeDir, ".profile"),
		}
	case domain.ShellFish:
		return []string{
			filepath.Join(c.homeDir, ".config", "fish", "config.fish"),
		}
	default:
		return nil
	}
}

// CollectShell parses and merges every default config file for one shell.
func (c *Collector) CollectShell(shell domain.Shell) (domain.AliasMap, error) {
	aliases := domain.AliasMap{}

	for _, path := range c.DefaultConfigFiles(shell) {
		c.mergeFile(aliases, path, shell)
	}

	if shell == domain.ShellFish {
		c.collectFishFunctions(aliases)
	}

	return aliases, nil
}

// CollectFiles parses and merges an explicit list of files for one shell.
// Missing or unreadable files are logged and skipped.
func (c *Collector) CollectFiles(paths []string, shell domain.Shell) domain.AliasMap {
	aliases := domain.AliasMap{}
	for _, path := range paths {
		c.mergeFile(aliases, path, shell)
	}
	return aliases
}

// CollectAll merges aliases from every known shell, bash first, fish last.
func (c *Collector) CollectAll() (domain.AliasMap, error) {
	all := domain.AliasMap{}

	for _, shell := range domain.KnownShells {
		aliases, err := c.CollectShell(shell)
		if err != nil {
			continue
		}
		for name, entry := range aliases {
			all[name] = entry
		}
	}

	return all, nil
}

func (c *Collector) mergeFile(into domain.AliasMap, path string, shell domain.Shell) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	parsed, err := c.ParseFile(path, shell)
	if err != nil {
		c.logger.Warn("could not read config file",
			zap.String("path", path),
			zap.Error(err))
		return
	}

	for name, entry := range parsed {
		into[name] = entry
	}
}

// collectFishFunctions scans ~/.config/fish/functions for alias-like
// function files.
func (c *Collector) collectFishFunctions(into domain.AliasMap) {
	dir := filepath.Join(c.homeDir, ".config", "fish", "functions")
	matches, err := filepath.Glob(filepath.Join(dir, "*.fish"))
	if err != nil {
		return
	}

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			c.logger.Warn("could not read function file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		for name, entry := range parseFishFunction(string(data), path) {
			into[name] = entry
		}
	}
}

// Ensure Collector implements domain.AliasParser.
var _ domain.AliasParser = (*Collector)(nil)
