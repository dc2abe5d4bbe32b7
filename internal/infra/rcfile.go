package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akatools/aka/internal/domain"
)

const rcHeader = `# aka user-defined aliases
# This file is managed by aka. You can edit it by hand, but entries may
# be rewritten by 'aka alias add' and 'aka alias rm'.
`

// RCFile implements domain.RCManager over the ~/.akarc user alias file.
// The file holds plain bash-compatible alias lines so every supported
// shell can source it.
type RCFile struct {
	path string
}

// NewRCFile creates the manager for ~/.akarc.
func NewRCFile() *RCFile {
	home, _ := os.UserHomeDir()
	return &RCFile{path: filepath.Join(home, ".akarc")}
}

// NewRCFileWithPath creates a manager at a specific path (for testing).
func NewRCFileWithPath(path string) *RCFile {
	return &RCFile{path: path}
}

// Path returns the rc file location.
func (r *RCFile) Path() string {
	return r.path
}

// AddAlias writes or replaces one alias definition.
func (r *RCFile) AddAlias(name, command string) error {
	aliases, err := r.Aliases()
	if err != nil {
		return err
	}
	aliases[name] = command
	return r.write(aliases)
}

// RemoveAlias deletes one alias definition.
func (r *RCFile) RemoveAlias(name string) (bool, error) {
	aliases, err := r.Aliases()
	if err != nil {
		return false, err
	}
	if _, ok := aliases[name]; !ok {
		return false, nil
	}
	delete(aliases, name)
	return true, r.write(aliases)
}

// Aliases returns the definitions currently in the file. A missing file
// reads as empty.
func (r *RCFile) Aliases() (map[string]string, error) {
	aliases := map[string]string{}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return aliases, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || !strings.HasPrefix(line, "alias ") {
			continue
		}

		name, value, found := strings.Cut(line[len("alias "):], "=")
		if !found || name == "" {
			continue
		}
		name = strings.TrimSpace(name)

		command := strings.TrimSpace(value)
		if len(command) >= 2 {
			if (command[0] == '"' && command[len(command)-1] == '"') ||
				(command[0] == '\'' && command[len(command)-1] == '\'') {
				command = command[1 : len(command)-1]
			}
		}
		if command == "" {
			continue
		}

		aliases[name] = strings.ReplaceAll(command, `\"`, `"`)
	}

	return aliases, nil
}

// EnsureExists creates an empty managed file if none exists.
func (r *RCFile) EnsureExists() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	}
	return r.write(map[string]string{})
}

// SourceLine returns the snippet that sources the file from a shell's
// startup script.
func (r *RCFile) SourceLine(shell domain.Shell) string {
	if shell == domain.ShellFish {
		return fmt.Sprintf("source %s", r.path)
	}
	return fmt.Sprintf("[ -f %s ] && source %s", r.path, r.path)
}

// write rewrites the whole file, sorted for stable diffs.
func (r *RCFile) write(aliases map[string]string) error {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(rcHeader)
	b.WriteString("\n")
	for _, name := range names {
		escaped := strings.ReplaceAll(aliases[name], `"`, `\"`)
		fmt.Fprintf(&b, "alias %s=\"%s\"\n", name, escaped)
	}

	if err := os.WriteFile(r.path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}

// Ensure RCFile implements domain.RCManager.
var _ domain.RCManager = (*RCFile)(nil)
