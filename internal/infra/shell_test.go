package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akatools/aka/internal/domain"
)

// TestShellFromName verifies process name to shell mapping
func TestShellFromName(t *testing.T) {
	tests := []struct {
		name  string
		shell domain.Shell
		ok    bool
	}{
		{"bash", domain.ShellBash, true},
		{"sh", domain.ShellBash, true},
		{"zsh", domain.ShellZsh, true},
		{"fish", domain.ShellFish, true},
		{"-bash", domain.ShellBash, true},
		{"-zsh", domain.ShellZsh, true},
		{" zsh ", domain.ShellZsh, true},
		{"python3", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		shell, ok := shellFromName(tt.name)
		assert.Equal(t, tt.ok, ok, "name %q", tt.name)
		assert.Equal(t, tt.shell, shell, "name %q", tt.name)
	}
}

// TestDetect_AlwaysReturnsKnownShell verifies detection never fails hard
func TestDetect_AlwaysReturnsKnownShell(t *testing.T) {
	d := NewShellDetector()

	assert.True(t, d.Detect().IsKnown())
}
