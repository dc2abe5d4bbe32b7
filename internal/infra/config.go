package infra

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/akatools/aka/internal/domain"
)

const configVersion = "1.0.0"

// configData is the on-disk shape of config.yaml.
type configData struct {
	Version        string                    `yaml:"version"`
	Monitoring     domain.MonitorConfig      `yaml:"monitoring"`
	MonitoredFiles map[domain.Shell][]string `yaml:"monitored_files"`
}

// Config implements domain.ConfigRepository over ~/.config/aka/config.yaml.
// The file is created with defaults on first save; a corrupt or missing
// file reads as defaults so the hook path always has usable settings.
type Config struct {
	homeDir string
	dir     string
	path    string
	data    configData
}

// NewConfig loads (or defaults) the configuration under the user's home.
func NewConfig() *Config {
	home, _ := os.UserHomeDir()
	return NewConfigWithHome(home)
}

// NewConfigWithHome loads configuration rooted at a custom home (for testing).
func NewConfigWithHome(home string) *Config {
	dir := filepath.Join(home, ".config", "aka")
	c := &Config{
		homeDir: home,
		dir:     dir,
		path:    filepath.Join(dir, "config.yaml"),
	}

	c.data = defaultConfigData(home)
	var loaded configData
	if err := loadYAML(c.path, &loaded); err == nil && loaded.Version != "" {
		c.data = loaded
		c.validate()
	}

	return c
}

func defaultConfigData(home string) configData {
	akarc := filepath.Join(home, ".akarc")
	return configData{
		Version:    configVersion,
		Monitoring: domain.DefaultMonitorConfig(),
		MonitoredFiles: map[domain.Shell][]string{
			domain.ShellBash: {
				filepath.Join(home, ".bashrc"),
				filepath.Join(home, ".bash_aliases"),
				akarc,
			},
			domain.ShellZsh: {
				filepath.Join(home, ".zshrc"),
				filepath.Join(home, ".zsh_aliases"),
				akarc,
			},
			domain.ShellFish: {
				filepath.Join(home, ".config", "fish", "config.fish"),
			},
		},
	}
}

// validate repairs out-of-range values rather than failing: the config is
// read on the interactive hook path.
func (c *Config) validate() {
	if c.data.Monitoring.NoticeThreshold < 0 {
		c.data.Monitoring.NoticeThreshold = 0
	}
	if c.data.Monitoring.BlockingThreshold < 0 {
		c.data.Monitoring.BlockingThreshold = 0
	}
	if c.data.Monitoring.IgnoredCommands == nil {
		c.data.Monitoring.IgnoredCommands = []string{}
	}
	if c.data.MonitoredFiles == nil {
		c.data.MonitoredFiles = defaultConfigData(c.homeDir).MonitoredFiles
	}
}

// Dir returns the configuration directory (also hosts the data stores).
func (c *Config) Dir() string {
	return c.dir
}

// HomeDir returns the home directory the config is rooted at.
func (c *Config) HomeDir() string {
	return c.homeDir
}

// Save persists the current configuration.
func (c *Config) Save() error {
	if err := saveYAML(c.path, c.data); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// Monitor returns the monitoring settings.
func (c *Config) Monitor() domain.MonitorConfig {
	return c.data.Monitoring
}

// SetMonitor updates and persists the monitoring settings.
func (c *Config) SetMonitor(cfg domain.MonitorConfig) error {
	c.data.Monitoring = cfg
	c.validate()
	return c.Save()
}

// MonitoredFiles returns the config file paths watched for a shell.
func (c *Config) MonitoredFiles(shell domain.Shell) []string {
	return c.data.MonitoredFiles[shell]
}

// AllMonitoredFiles returns monitored paths for every configured shell.
func (c *Config) AllMonitoredFiles() map[domain.Shell][]string {
	out := make(map[domain.Shell][]string, len(c.data.MonitoredFiles))
	for shell, files := range c.data.MonitoredFiles {
		out[shell] = append([]string(nil), files...)
	}
	return out
}

// AddMonitoredFile registers a path for relearning.
func (c *Config) AddMonitoredFile(shell domain.Shell, path string) (bool, error) {
	abs, err := filepath.Abs(expandHome(path, c.homeDir))
	if err != nil {
		abs = path
	}

	for _, existing := range c.data.MonitoredFiles[shell] {
		if existing == abs {
			return false, nil
		}
	}

	if c.data.MonitoredFiles == nil {
		c.data.MonitoredFiles = map[domain.Shell][]string{}
	}
	c.data.MonitoredFiles[shell] = append(c.data.MonitoredFiles[shell], abs)
	return true, c.Save()
}

// RemoveMonitoredFile unregisters a path, accepting either the absolute
// form or the form originally supplied.
func (c *Config) RemoveMonitoredFile(shell domain.Shell, path string) (bool, error) {
	abs, err := filepath.Abs(expandHome(path, c.homeDir))
	if err != nil {
		abs = path
	}

	files := c.data.MonitoredFiles[shell]
	for i, existing := range files {
		if existing == abs || existing == path {
			c.data.MonitoredFiles[shell] = append(files[:i], files[i+1:]...)
			return true, c.Save()
		}
	}
	return false, nil
}

// expandHome expands a leading ~ to the given home directory.
func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}

// Ensure Config implements domain.ConfigRepository.
var _ domain.ConfigRepository = (*Config)(nil)
