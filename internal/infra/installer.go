package infra

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/akatools/aka/internal/domain"
)

const (
	markerStart = "# >>> aka integration >>>"
	markerEnd   = "# <<< aka integration <<<"
)

// bash hooks through bash-preexec; a non-zero hook exit interrupts the
// pending command.
const bashIntegrationTemplate = `
# Source aka user aliases
{{.SourceLine}}

# bash-preexec provides the preexec hook point
if [[ ! -f ~/.bash-preexec.sh ]]; then
    curl -fsSL https://raw.githubusercontent.com/rcaloras/bash-preexec/master/bash-preexec.sh -o ~/.bash-preexec.sh
fi
[[ -f ~/.bash-preexec.sh ]] && source ~/.bash-preexec.sh

aka_preexec() {
    local cmd_line="$1"
    [[ -z "$cmd_line" || "$cmd_line" =~ ^[[:space:]]*$ ]] && return
    [[ "$cmd_line" =~ ^[[:space:]]*aka ]] && return
    {{.BinPath}} hook "$cmd_line"
    if [[ $? -ne 0 ]]; then
        kill -INT $$
    fi
}
preexec_functions+=(aka_preexec)
`

// zsh intercepts accept-line via a ZLE widget; a blocked command is
// cleared from the buffer instead of executed.
const zshIntegrationTemplate = `
# Source aka user aliases
{{.SourceLine}}

aka_accept_line() {
    local cmd_line="$BUFFER"
    if [[ -z "$cmd_line" || "$cmd_line" =~ '^[[:space:]]*$' ]]; then
        zle .accept-line
        return
    fi
    if [[ "$cmd_line" =~ '^[[:space:]]*aka' ]]; then
        zle .accept-line
        return
    fi
    {{.BinPath}} hook "$cmd_line"
    if [[ $? -eq 0 ]]; then
        zle .accept-line
    else
        BUFFER=""
        zle reset-prompt
    fi
}
zle -N aka_accept_line
bindkey "^M" aka_accept_line
bindkey "^J" aka_accept_line
`

// fish_preexec cannot veto the command it observes; notices print but
// blocking degrades to a warning.
const fishIntegrationTemplate = `
# Source aka user aliases
{{.SourceLine}}

function __aka_preexec --on-event fish_preexec
    set -l cmd_line $argv[1]
    if test -z "$cmd_line"
        return
    end
    if string match -qr '^\s*aka' -- "$cmd_line"
        return
    end
    {{.BinPath}} hook "$cmd_line"
end
`

var integrationBlockPattern = regexp.MustCompile(
	`(?s)` + regexp.QuoteMeta(markerStart) + `.*?` + regexp.QuoteMeta(markerEnd) + `\n?`)

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

type integrationConfig struct {
	BinPath    string
	SourceLine string
}

// Installer implements domain.Integrator: it maintains the
// marker-delimited integration block inside the shell's startup file and
// the tool's learned-data lifecycle around install/uninstall.
type Installer struct {
	homeDir   string
	configDir string
	binPath   string
	rc        domain.RCManager
	logger    *zap.Logger
}

// NewInstaller creates an installer for the current user and binary.
func NewInstaller(cfg *Config, rc domain.RCManager, logger *zap.Logger) *Installer {
	binPath, err := os.Executable()
	if err != nil {
		binPath = "aka"
	}
	return &Installer{
		homeDir:   cfg.HomeDir(),
		configDir: cfg.Dir(),
		binPath:   binPath,
		rc:        rc,
		logger:    logger,
	}
}

// NewInstallerWithPaths creates an installer with explicit paths (for testing).
func NewInstallerWithPaths(home, configDir, binPath string, rc domain.RCManager, logger *zap.Logger) *Installer {
	return &Installer{
		homeDir:   home,
		configDir: configDir,
		binPath:   binPath,
		rc:        rc,
		logger:    logger,
	}
}

// RCFileFor returns the startup file the integration block lives in: the
// first existing candidate for the shell, or the primary one if none exist.
func (i *Installer) RCFileFor(shell domain.Shell) string {
	var candidates []string
	switch shell {
	case domain.ShellZsh:
		candidates = []string{
			filepath.Join(i.homeDir, ".zshrc"),
			filepath.Join(i.homeDir, ".zsh_profile"),
			filepath.Join(i.homeDir, ".profile"),
		}
	case domain.ShellFish:
		candidates = []string{
			filepath.Join(i.homeDir, ".config", "fish", "config.fish"),
		}
	default:
		candidates = []string{
			filepath.Join(i.homeDir, ".bashrc"),
			filepath.Join(i.homeDir, ".bash_profile"),
			filepath.Join(i.homeDir, ".profile"),
		}
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return candidates[0]
}

// IsInstalled reports whether an integration block is present.
func (i *Installer) IsInstalled(shell domain.Shell) bool {
	data, err := os.ReadFile(i.RCFileFor(shell))
	if err != nil {
		return false
	}
	return strings.Contains(string(data), markerStart)
}

// Install appends the integration block to the shell's startup file.
// Reinstalling over an existing block requires force; force also wipes
// learned data (aliases, stats, mtime snapshot) while preserving the
// config file and ~/.akarc.
func (i *Installer) Install(shell domain.Shell, force bool) error {
	if !shell.IsKnown() {
		return fmt.Errorf("unsupported shell: %s", shell)
	}

	rcPath := i.RCFileFor(shell)
	if err := os.MkdirAll(filepath.Dir(rcPath), 0755); err != nil {
		return fmt.Errorf("create rc directory: %w", err)
	}

	existing := ""
	if data, err := os.ReadFile(rcPath); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read %s: %w", rcPath, err)
	}

	if strings.Contains(existing, markerStart) {
		if !force {
			return fmt.Errorf("aka is already installed in %s (use --force to reinstall)", rcPath)
		}
		existing = stripIntegration(existing)
	}
	if force {
		i.WipeLearnedData()
	}

	block, err := i.renderIntegration(shell)
	if err != nil {
		return err
	}

	updated := strings.TrimRight(existing, "\n")
	if updated != "" {
		updated += "\n"
	}
	updated += "\n" + markerStart + block + markerEnd + "\n"

	if err := os.WriteFile(rcPath, []byte(updated), 0644); err != nil {
		return fmt.Errorf("write %s: %w", rcPath, err)
	}

	if err := i.rc.EnsureExists(); err != nil {
		i.logger.Warn("could not create user alias file", zap.Error(err))
	}

	return nil
}

// Uninstall removes every integration block from the shell's startup file
// and wipes learned data. Configuration and ~/.akarc are preserved.
func (i *Installer) Uninstall(shell domain.Shell) error {
	rcPath := i.RCFileFor(shell)

	data, err := os.ReadFile(rcPath)
	if err != nil {
		if os.IsNotExist(err) {
			i.WipeLearnedData()
			return nil
		}
		return fmt.Errorf("read %s: %w", rcPath, err)
	}

	cleaned := stripIntegration(string(data))
	if cleaned != string(data) {
		if err := os.WriteFile(rcPath, []byte(cleaned), 0644); err != nil {
			return fmt.Errorf("write %s: %w", rcPath, err)
		}
	}

	i.WipeLearnedData()
	return nil
}

// WipeLearnedData removes learned aliases, usage stats, and the mtime
// snapshot. Missing files are fine.
func (i *Installer) WipeLearnedData() {
	for _, name := range []string{"aliases.yaml", "stats.yaml", "mtimes.yaml"} {
		path := filepath.Join(i.configDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			i.logger.Warn("could not remove data file",
				zap.String("path", path),
				zap.Error(err))
		}
	}
}

func (i *Installer) renderIntegration(shell domain.Shell) (string, error) {
	var text string
	switch shell {
	case domain.ShellZsh:
		text = zshIntegrationTemplate
	case domain.ShellFish:
		text = fishIntegrationTemplate
	default:
		text = bashIntegrationTemplate
	}

	tmpl, err := template.New(string(shell)).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse integration template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, integrationConfig{
		BinPath:    i.binPath,
		SourceLine: i.rc.SourceLine(shell),
	})
	if err != nil {
		return "", fmt.Errorf("render integration template: %w", err)
	}
	return buf.String(), nil
}

// stripIntegration removes all marker blocks and collapses the blank
// lines they leave behind.
func stripIntegration(content string) string {
	cleaned := integrationBlockPattern.ReplaceAllString(content, "")
	return excessBlankLines.ReplaceAllString(cleaned, "\n\n")
}

// Ensure Installer implements domain.Integrator.
var _ domain.Integrator = (*Installer)(nil)
