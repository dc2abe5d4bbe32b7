package usecase

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/akatools/aka/internal/domain"
)

// Learner keeps the alias store in sync with the user's monitored
// configuration files.
type Learner struct {
	aliases domain.AliasRepository
	config  domain.ConfigRepository
	parser  domain.AliasParser
	mtimes  domain.MtimeRepository
	logger  *zap.Logger
}

// NewLearner creates a learner.
func NewLearner(
	aliases domain.AliasRepository,
	config domain.ConfigRepository,
	parser domain.AliasParser,
	mtimes domain.MtimeRepository,
	logger *zap.Logger,
) *Learner {
	return &Learner{
		aliases: aliases,
		config:  config,
		parser:  parser,
		mtimes:  mtimes,
		logger:  logger,
	}
}

// LearnShell re-parses every monitored file for one shell and reconciles
// the alias store against the result: new names are learned, changed
// commands updated, and names that vanished from all of their monitored
// source files removed. User-added entries are never auto-removed.
func (l *Learner) LearnShell(shell domain.Shell) (domain.LearnResult, error) {
	var result domain.LearnResult

	monitored := l.config.MonitoredFiles(shell)
	if len(monitored) == 0 {
		return result, nil
	}

	existing, err := l.aliases.Load()
	if err != nil {
		return result, err
	}

	fresh := domain.AliasMap{}
	for _, path := range monitored {
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		parsed, err := l.parser.ParseFile(path, shell)
		if err != nil {
			l.logger.Warn("could not parse monitored file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		for name, entry := range parsed {
			fresh[name] = entry
		}
	}

	for name, entry := range fresh {
		old, ok := existing[name]
		switch {
		case !ok:
			result.Learned++
		case old.Command != entry.Command:
			result.Updated++
		}
		existing[name] = entry
	}

	// Drop aliases this shell's monitored files used to define but no
	// longer do. Matching by file name as well as full path tolerates
	// a moved home directory.
	monitoredNames := make(map[string]bool, len(monitored))
	monitoredPaths := make(map[string]bool, len(monitored))
	for _, path := range monitored {
		monitoredNames[filepath.Base(path)] = true
		monitoredPaths[path] = true
	}

	for name, entry := range existing {
		if entry.Shell != shell {
			continue
		}
		if _, stillDefined := fresh[name]; stillDefined {
			continue
		}
		if monitoredPaths[entry.SourceFile] || monitoredNames[filepath.Base(entry.SourceFile)] {
			delete(existing, name)
			result.Removed++
		}
	}

	if err := l.aliases.Save(existing); err != nil {
		return result, err
	}

	return result, nil
}

// LearnAll relearns every shell that has monitored files configured.
func (l *Learner) LearnAll() (domain.LearnResult, error) {
	var total domain.LearnResult

	configured := l.config.AllMonitoredFiles()
	for _, shell := range domain.KnownShells {
		if len(configured[shell]) == 0 {
			continue
		}
		result, err := l.LearnShell(shell)
		if err != nil {
			return total, err
		}
		total = total.Add(result)
	}

	return total, nil
}

// CheckAndRelearn relearns only the shells owning a monitored file whose
// modification time changed since the previous check. Runs on the hook
// critical path, so every failure degrades to "nothing changed".
func (l *Learner) CheckAndRelearn() bool {
	configured := l.config.AllMonitoredFiles()

	previous, err := l.mtimes.Load()
	if err != nil {
		previous = map[string]int64{}
	}

	current := make(map[string]int64)
	changed := make(map[string]bool)
	for _, files := range configured {
		for _, path := range files {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			mtime := info.ModTime().Unix()
			current[path] = mtime
			if prev, ok := previous[path]; !ok || prev != mtime {
				changed[path] = true
			}
		}
	}

	if err := l.mtimes.Save(current); err != nil {
		l.logger.Warn("could not save mtime snapshot", zap.Error(err))
	}

	if len(changed) == 0 {
		return false
	}

	relearned := false
	for _, shell := range domain.KnownShells {
		owns := false
		for _, path := range configured[shell] {
			if changed[path] {
				owns = true
				break
			}
		}
		if !owns {
			continue
		}
		result, err := l.LearnShell(shell)
		if err != nil {
			l.logger.Warn("relearn failed",
				zap.String("shell", string(shell)),
				zap.Error(err))
			continue
		}
		if result.Changed() {
			relearned = true
		}
	}

	return relearned
}
