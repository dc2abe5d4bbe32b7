// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// Shell identifies the dialect that defined an alias.
type Shell string

const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"

	// ShellUser marks entries added via `aka alias add` rather than
	// learned from a shell configuration file.
	ShellUser Shell = "user"
)

// KnownShells lists the dialects aliases can be learned from.
var KnownShells = []Shell{ShellBash, ShellZsh, ShellFish}

// IsKnown reports whether s is a learnable shell dialect.
func (s Shell) IsKnown() bool {
	for _, k := range KnownShells {
		if s == k {
			return true
		}
	}
	return false
}

// AliasKind distinguishes plain aliases from alias-like shell functions.
type AliasKind string

const (
	KindAlias    AliasKind = "alias"
	KindFunction AliasKind = "function"
)

// AliasEntry is one learned or user-defined alias.
// Entries with an empty name or empty command are never stored.
type AliasEntry struct {
	Command    string    `yaml:"command"`
	Shell      Shell     `yaml:"shell"`
	SourceFile string    `yaml:"source_file,omitempty"`
	Kind       AliasKind `yaml:"kind"`
}

// AliasMap is the whole alias store, keyed by alias name.
// Components receive a fully materialized snapshot and never mutate it
// implicitly; updates are explicit whole-map write-backs.
type AliasMap map[string]AliasEntry

// UsageStat is the per-alias usage counter.
// Count is monotonically non-decreasing; there is no reset short of a
// full data wipe during reinstall/uninstall.
type UsageStat struct {
	Count     int       `yaml:"count"`
	FirstSeen time.Time `yaml:"first_seen"`
	LastSeen  time.Time `yaml:"last_seen"`

	// AliasCommand snapshots the alias's command the first time it was
	// tracked. Informational only (shown by `aka status`).
	AliasCommand string `yaml:"alias_command,omitempty"`
}

// StatsMap is the whole stats store, keyed by alias name.
type StatsMap map[string]UsageStat

// MonitorConfig holds the monitoring knobs, consumed read-only by the
// escalation engine.
type MonitorConfig struct {
	Enabled           bool     `yaml:"enabled"`
	NoticeThreshold   int      `yaml:"notice_threshold"`
	BlockingThreshold int      `yaml:"blocking_threshold"`
	BlockingEnabled   bool     `yaml:"blocking_enabled"`
	IgnoredCommands   []string `yaml:"ignored_commands"`
}

// DefaultMonitorConfig returns the monitoring defaults: notices after the
// first repeat, blocking off until explicitly enabled.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:           true,
		NoticeThreshold:   1,
		BlockingThreshold: 5,
		BlockingEnabled:   false,
		IgnoredCommands:   []string{},
	}
}

// IsIgnored reports whether the command's leading token is exempt from
// tracking.
func (c MonitorConfig) IsIgnored(base string) bool {
	for _, ignored := range c.IgnoredCommands {
		if base == ignored {
			return true
		}
	}
	return false
}

// Action is the outcome of recording one tracked command.
type Action string

const (
	ActionNotice Action = "notice"
	ActionBlock  Action = "block"
)

// MonitorResult is the signal emitted by the escalation engine.
// A nil *MonitorResult means "allow, no output".
type MonitorResult struct {
	Action  Action
	Message string
}

// IsBlocking reports whether the pending command must be vetoed.
func (r *MonitorResult) IsBlocking() bool {
	return r != nil && r.Action == ActionBlock
}

// Resolution is the outcome of resolving a typed command to its most
// specific known alias.
type Resolution struct {
	Name  string
	Entry AliasEntry

	// Expanded is the typed command after chained alias expansion.
	Expanded string
}

// LearnResult counts what a relearn pass changed in the alias store.
type LearnResult struct {
	Learned int
	Updated int
	Removed int
}

// Changed reports whether the pass modified the store at all.
func (r LearnResult) Changed() bool {
	return r.Learned > 0 || r.Updated > 0 || r.Removed > 0
}

// Add accumulates another pass's counts.
func (r LearnResult) Add(other LearnResult) LearnResult {
	return LearnResult{
		Learned: r.Learned + other.Learned,
		Updated: r.Updated + other.Updated,
		Removed: r.Removed + other.Removed,
	}
}
