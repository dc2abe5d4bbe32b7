package domain

// AliasRepository persists the alias store as a whole.
// Implementation: YAML file under ~/.config/aka/, atomic rename on write.
type AliasRepository interface {
	// Load returns the full alias map. A missing store reads as empty.
	Load() (AliasMap, error)

	// Save writes back the full alias map.
	Save(aliases AliasMap) error
}

// StatsRepository persists per-alias usage statistics as a whole.
type StatsRepository interface {
	// Load returns the full stats map. A missing store reads as empty.
	Load() (StatsMap, error)

	// Save writes back the full stats map.
	Save(stats StatsMap) error
}

// ConfigRepository provides access to tool configuration.
type ConfigRepository interface {
	// Monitor returns the monitoring settings (defaults when unset).
	Monitor() MonitorConfig

	// SetMonitor updates and persists the monitoring settings.
	SetMonitor(cfg MonitorConfig) error

	// MonitoredFiles returns the config file paths watched for a shell.
	MonitoredFiles(shell Shell) []string

	// AllMonitoredFiles returns monitored paths for every configured shell.
	AllMonitoredFiles() map[Shell][]string

	// AddMonitoredFile registers a path for relearning. Returns false if
	// the path was already monitored.
	AddMonitoredFile(shell Shell, path string) (bool, error)

	// RemoveMonitoredFile unregisters a path. Returns false if not found.
	RemoveMonitoredFile(shell Shell, path string) (bool, error)
}

// AliasParser extracts alias definitions from shell configuration files.
type AliasParser interface {
	// ParseFile returns the aliases defined in one file. Unreadable files
	// yield an empty map and an error the caller may log and skip.
	ParseFile(path string, shell Shell) (AliasMap, error)

	// CollectShell parses and merges every default config file for a shell,
	// later files overwriting earlier ones.
	CollectShell(shell Shell) (AliasMap, error)
}

// Resolver answers "what is the best known alias for what the user typed".
type Resolver interface {
	// Resolve expands leading aliases in command and returns the most
	// specific stored alias covering the expanded form, or nil.
	Resolve(command string, aliases AliasMap) *Resolution

	// Expand returns the fully expanded form of command against aliases.
	Expand(command string, aliases AliasMap) string

	// ExpandStore returns a view of the map with every entry's command
	// expanded against the other aliases.
	ExpandStore(aliases AliasMap) AliasMap
}

// MtimeRepository persists monitored-file modification times between
// hook invocations, for cheap change detection.
type MtimeRepository interface {
	// Load returns the last recorded path -> unix mtime snapshot.
	Load() (map[string]int64, error)

	// Save replaces the snapshot.
	Save(mtimes map[string]int64) error
}

// Monitor is the escalation engine consumed by the interactive hook.
type Monitor interface {
	// Record tracks one typed command and returns at most one signal.
	// It must never panic or block; internal faults degrade to nil.
	Record(command string) *MonitorResult

	// Stats returns the current usage statistics.
	Stats() (StatsMap, error)
}

// ShellDetector determines the user's interactive shell.
type ShellDetector interface {
	// Detect returns the best guess at the invoking shell, defaulting to
	// bash when detection fails.
	Detect() Shell
}

// Integrator manages the shell startup-file integration block.
type Integrator interface {
	// Install appends the hook integration to the shell's rc file.
	// Reinstalling over an existing block requires force; force also
	// wipes learned data.
	Install(shell Shell, force bool) error

	// Uninstall removes every integration block and wipes learned data.
	Uninstall(shell Shell) error

	// IsInstalled reports whether an integration block is present.
	IsInstalled(shell Shell) bool
}

// RCManager maintains the ~/.akarc user alias file.
type RCManager interface {
	// AddAlias writes or replaces one alias definition.
	AddAlias(name, command string) error

	// RemoveAlias deletes one alias definition. Returns false if absent.
	RemoveAlias(name string) (bool, error)

	// Aliases returns the definitions currently in the file.
	Aliases() (map[string]string, error)

	// EnsureExists creates an empty managed file if none exists.
	EnsureExists() error

	// Path returns the rc file location.
	Path() string

	// SourceLine returns the snippet that sources the file from a given
	// shell's startup script.
	SourceLine(shell Shell) string
}
