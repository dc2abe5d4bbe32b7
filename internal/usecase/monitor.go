// Package usecase contains application business logic.
package usecase

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/akatools/aka/internal/domain"
)

// CommandMonitor implements domain.Monitor: the per-alias usage counter
// and the notice/block escalation decision. It sits on the critical path
// of every interactive command, so it fails open: internal faults log and
// return nil rather than propagate.
type CommandMonitor struct {
	aliases  domain.AliasRepository
	stats    domain.StatsRepository
	config   domain.ConfigRepository
	resolver domain.Resolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewCommandMonitor creates the escalation engine.
func NewCommandMonitor(
	aliases domain.AliasRepository,
	stats domain.StatsRepository,
	config domain.ConfigRepository,
	res domain.Resolver,
	logger *zap.Logger,
) *CommandMonitor {
	return &CommandMonitor{
		aliases:  aliases,
		stats:    stats,
		config:   config,
		resolver: res,
		logger:   logger,
		now:      time.Now,
	}
}

// Record tracks one typed command and returns at most one signal.
//
// The stats entry is incremented before the zone is evaluated, so the
// current invocation counts toward its own threshold check. Blocking is
// checked before notice; a blocked invocation never also emits a notice.
func (m *CommandMonitor) Record(command string) (result *domain.MonitorResult) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("monitor recovered from internal fault",
				zap.Any("panic", r),
				zap.String("command", command))
			result = nil
		}
	}()

	cfg := m.config.Monitor()
	if !cfg.Enabled {
		return nil
	}

	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil
	}
	if cfg.IsIgnored(fields[0]) {
		return nil
	}

	aliases, err := m.aliases.Load()
	if err != nil {
		m.logger.Warn("could not load alias store", zap.Error(err))
		return nil
	}

	// Nothing to suggest when the user already typed the best alias.
	if m.usingOptimalAlias(command, aliases) {
		return nil
	}

	res := m.resolver.Resolve(command, aliases)
	if res == nil {
		return nil
	}

	count := m.bumpStats(res)
	return m.evaluate(command, res, count, cfg)
}

// bumpStats increments the resolved alias's counter and writes the stats
// store back. Persistence failures here are logged and swallowed; the
// hook must never block the user's shell over bookkeeping.
func (m *CommandMonitor) bumpStats(res *domain.Resolution) int {
	stats, err := m.stats.Load()
	if err != nil {
		m.logger.Warn("could not load stats store", zap.Error(err))
		stats = domain.StatsMap{}
	}

	now := m.now()
	stat, ok := stats[res.Name]
	if !ok {
		stat = domain.UsageStat{
			FirstSeen:    now,
			AliasCommand: res.Entry.Command,
		}
	}
	stat.Count++
	stat.LastSeen = now
	stats[res.Name] = stat

	if err := m.stats.Save(stats); err != nil {
		m.logger.Warn("could not save stats store", zap.Error(err))
	}

	return stat.Count
}

// evaluate maps the post-increment count onto a zone.
func (m *CommandMonitor) evaluate(command string, res *domain.Resolution, count int, cfg domain.MonitorConfig) *domain.MonitorResult {
	if cfg.BlockingEnabled && count >= cfg.BlockingThreshold {
		return &domain.MonitorResult{
			Action: domain.ActionBlock,
			Message: fmt.Sprintf("command blocked: use '%s' instead of '%s'",
				m.suggestion(res), command),
		}
	}

	if count >= cfg.NoticeThreshold {
		return &domain.MonitorResult{
			Action: domain.ActionNotice,
			Message: fmt.Sprintf("you have an alias for that: '%s' instead of '%s'",
				m.suggestion(res), command),
		}
	}

	return nil
}

// suggestion builds the replacement the user should have typed. When the
// expanded input carries arguments beyond the alias's command, the tail is
// appended to the alias name, so `git status --short` with gs='git status'
// suggests `gs --short`.
func (m *CommandMonitor) suggestion(res *domain.Resolution) string {
	if tail, ok := argumentTail(res.Expanded, res.Entry.Command); ok {
		return res.Name + tail
	}

	// The alias may be defined through another alias; retry against its
	// fully expanded command.
	aliases, err := m.aliases.Load()
	if err == nil {
		expanded := m.resolver.ExpandStore(aliases)
		if entry, ok := expanded[res.Name]; ok {
			if tail, ok := argumentTail(res.Expanded, entry.Command); ok {
				return res.Name + tail
			}
		}
	}

	return res.Name
}

// argumentTail returns the argument remainder of command past base, with
// ok=false when base does not cover command.
func argumentTail(command, base string) (string, bool) {
	if base == "" {
		return "", false
	}
	if command == base {
		return "", true
	}
	if strings.HasPrefix(command, base+" ") {
		return command[len(base):], true
	}
	return "", false
}

// usingOptimalAlias reports whether the typed command already leads with
// the most specific alias available for it, in which case no signal is
// emitted and no stats are recorded.
func (m *CommandMonitor) usingOptimalAlias(command string, aliases domain.AliasMap) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}

	first := fields[0]
	current, ok := aliases[first]
	if !ok {
		return false
	}

	expanded := m.resolver.Expand(command, aliases)
	optimal := m.resolver.Resolve(expanded, aliases)
	if optimal == nil {
		return true
	}
	if optimal.Name == first {
		return true
	}

	// Several aliases may share one command; any of them is optimal.
	return current.Command == optimal.Entry.Command
}

// Stats returns the current usage statistics.
func (m *CommandMonitor) Stats() (domain.StatsMap, error) {
	return m.stats.Load()
}

// Ensure CommandMonitor implements domain.Monitor.
var _ domain.Monitor = (*CommandMonitor)(nil)
