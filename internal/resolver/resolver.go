// Package resolver maps typed commands to their most specific known alias.
package resolver

import (
	"sort"
	"strings"

	"github.com/akatools/aka/internal/domain"
)

// maxExpansionDepth bounds chained alias substitution. Combined with the
// per-chain visited set it guarantees termination on cyclic definitions
// like a->b, b->a.
const maxExpansionDepth = 10

// Resolver implements domain.Resolver. It is stateless; the alias map is
// passed in per call as a read-only snapshot.
type Resolver struct{}

// New creates a resolver.
func New() *Resolver {
	return &Resolver{}
}

// Expand substitutes leading alias tokens in command with their stored
// commands, repeatedly, until the leading token is no longer a known alias,
// the same alias would be expanded twice, or the depth bound is hit.
// Aliases with an empty command never expand.
func (r *Resolver) Expand(command string, aliases domain.AliasMap) string {
	return expand(command, aliases, nil)
}

// expand is the shared substitution loop. seen carries alias names already
// substituted along this chain and may be pre-seeded (the store-expansion
// pass seeds each alias with itself).
func expand(command string, aliases domain.AliasMap, seen map[string]bool) string {
	if seen == nil {
		seen = make(map[string]bool)
	}

	for depth := 0; depth < maxExpansionDepth; depth++ {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return command
		}

		first := fields[0]
		entry, ok := aliases[first]
		if !ok || seen[first] || entry.Command == "" {
			return command
		}
		seen[first] = true

		if len(fields) > 1 {
			command = entry.Command + " " + strings.Join(fields[1:], " ")
		} else {
			command = entry.Command
		}
	}

	return command
}

// ExpandStore returns a view of the alias map in which every entry's
// command has itself been fully expanded against the other aliases. The
// best match for an expanded input may be stored in terms of a second
// alias rather than the literal root command, so matching runs against
// this view.
func (r *Resolver) ExpandStore(aliases domain.AliasMap) domain.AliasMap {
	expanded := make(domain.AliasMap, len(aliases))

	for name, entry := range aliases {
		if entry.Command == "" {
			expanded[name] = entry
			continue
		}

		seen := map[string]bool{name: true}
		entry.Command = expand(entry.Command, aliases, seen)
		expanded[name] = entry
	}

	return expanded
}

// Resolve expands the typed command and returns the most specific stored
// alias covering it, or nil when no alias matches. The returned Entry is
// the stored (unexpanded) definition.
func (r *Resolver) Resolve(command string, aliases domain.AliasMap) *domain.Resolution {
	if strings.TrimSpace(command) == "" {
		return nil
	}

	expandedInput := r.Expand(command, aliases)
	name, ok := mostSpecific(expandedInput, r.ExpandStore(aliases))
	if !ok {
		return nil
	}

	return &domain.Resolution{
		Name:     name,
		Entry:    aliases[name],
		Expanded: expandedInput,
	}
}

// mostSpecific finds the alias whose expanded command equals the input or
// is a prefix of it followed by a space, preferring the longest command.
// Ties break by sorted name order so resolution stays deterministic.
func mostSpecific(command string, expanded domain.AliasMap) (string, bool) {
	names := make([]string, 0, len(expanded))
	for name := range expanded {
		names = append(names, name)
	}
	sort.Strings(names)

	best := ""
	bestLen := -1
	for _, name := range names {
		aliasCommand := expanded[name].Command
		if aliasCommand == "" {
			continue
		}
		if aliasCommand != command && !strings.HasPrefix(command, aliasCommand+" ") {
			continue
		}
		if len(aliasCommand) > bestLen {
			best = name
			bestLen = len(aliasCommand)
		}
	}

	if bestLen < 0 {
		return "", false
	}
	return best, true
}

// Ensure Resolver implements domain.Resolver.
var _ domain.Resolver = (*Resolver)(nil)
