package infra

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/akatools/aka/internal/domain"
)

// parentWalkLimit bounds the parent-process walk during shell detection.
const parentWalkLimit = 8

// ShellDetectorImpl implements domain.ShellDetector using gopsutil.
type ShellDetectorImpl struct{}

// NewShellDetector creates a shell detector.
func NewShellDetector() domain.ShellDetector {
	return &ShellDetectorImpl{}
}

// Detect walks up the parent process tree looking for a known shell; the
// hook can run under an interactive shell that differs from $SHELL (e.g.
// zsh started from a bash login shell). Falls back to $SHELL, then bash.
func (d *ShellDetectorImpl) Detect() domain.Shell {
	pid := int32(os.Getppid())
	for depth := 0; depth < parentWalkLimit && pid > 1; depth++ {
		p, err := process.NewProcess(pid)
		if err != nil {
			break
		}

		name, err := p.Name()
		if err != nil {
			break
		}
		if shell, ok := shellFromName(name); ok {
			return shell
		}

		ppid, err := p.Ppid()
		if err != nil {
			break
		}
		pid = ppid
	}

	if shell, ok := shellFromName(filepath.Base(os.Getenv("SHELL"))); ok {
		return shell
	}
	return domain.ShellBash
}

// shellFromName maps a process or binary name onto a known shell.
// Login shells report names with a leading dash.
func shellFromName(name string) (domain.Shell, bool) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "-")
	switch name {
	case "bash", "sh":
		return domain.ShellBash, true
	case "zsh":
		return domain.ShellZsh, true
	case "fish":
		return domain.ShellFish, true
	default:
		return "", false
	}
}

// Ensure ShellDetectorImpl implements domain.ShellDetector.
var _ domain.ShellDetector = (*ShellDetectorImpl)(nil)
