// Package collector learns alias definitions from shell configuration files.
package collector

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/akatools/aka/internal/domain"
)

// ParseFile extracts aliases from a single configuration file.
// Unreadable files return an empty map and the read error; callers in a
// multi-file collect log and skip rather than abort.
func (c *Collector) ParseFile(path string, shell domain.Shell) (domain.AliasMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.AliasMap{}, err
	}

	content := string(data)
	if shell == domain.ShellFish {
		return parseFishConfig(content, path), nil
	}
	return parseBashZsh(content, path, shell), nil
}

// parseBashZsh parses bash/zsh `alias name=command` definitions line by
// line. A line qualifies only if, after stripping leading whitespace, it
// starts with the literal `alias ` keyword; commented-out and chained
// definitions never match. Later definitions overwrite earlier ones.
func parseBashZsh(content, path string, shell domain.Shell) domain.AliasMap {
	aliases := domain.AliasMap{}

	for _, line := range strings.Split(content, "\n") {
		rest, ok := aliasCandidate(line)
		if !ok {
			continue
		}

		eq := strings.Index(rest, "=")
		if eq <= 0 {
			continue
		}
		name := rest[:eq]
		if strings.ContainsAny(name, " \t") {
			continue
		}

		command := unquote(rest[eq+1:])
		if command == "" {
			continue
		}

		aliases[name] = domain.AliasEntry{
			Command:    command,
			Shell:      shell,
			SourceFile: path,
			Kind:       domain.KindAlias,
		}
	}

	return aliases
}

// parseFishConfig parses fish `alias name command` definitions, which are
// whitespace-separated rather than `=`-separated.
func parseFishConfig(content, path string) domain.AliasMap {
	aliases := domain.AliasMap{}

	for _, line := range strings.Split(content, "\n") {
		rest, ok := aliasCandidate(line)
		if !ok {
			continue
		}

		name, value, found := strings.Cut(rest, " ")
		if !found || name == "" {
			continue
		}

		command := unquote(strings.TrimLeft(value, " \t"))
		if command == "" {
			continue
		}

		aliases[name] = domain.AliasEntry{
			Command:    command,
			Shell:      domain.ShellFish,
			SourceFile: path,
			Kind:       domain.KindAlias,
		}
	}

	return aliases
}

// parseFishFunction applies the pseudo-alias heuristic to a fish function
// file: a body of one or two real statements (function line + command,
// ignoring comments and `end`) is treated as an alias named after the file,
// with the command taken from the second statement.
func parseFishFunction(content, path string) domain.AliasMap {
	aliases := domain.AliasMap{}
	name := strings.TrimSuffix(filepath.Base(path), ".fish")
	if name == "" {
		return aliases
	}

	var body []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || trimmed == "end" {
			continue
		}
		body = append(body, trimmed)
	}

	if len(body) < 2 || len(body) > 4 {
		return aliases
	}

	aliases[name] = domain.AliasEntry{
		Command:    body[1],
		Shell:      domain.ShellFish,
		SourceFile: path,
		Kind:       domain.KindFunction,
	}

	return aliases
}

// aliasCandidate reports whether a line is a standalone alias definition
// and returns the text following the `alias ` keyword.
func aliasCandidate(line string) (string, bool) {
	stripped := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(stripped, "alias ") {
		return "", false
	}
	return strings.TrimLeft(stripped[len("alias "):], " \t"), true
}

// unquote strips one matching pair of single or double quotes. An opening
// quote without a closing one cuts the value at the end of the line; an
// unquoted value runs verbatim up to the first quote character, if any.
func unquote(value string) string {
	if value == "" {
		return ""
	}

	if value[0] == '\'' || value[0] == '"' {
		quote := value[0]
		rest := value[1:]
		if end := strings.IndexByte(rest, quote); end >= 0 {
			return rest[:end]
		}
		return rest
	}

	if cut := strings.IndexAny(value, `'"`); cut >= 0 {
		value = value[:cut]
	}
	return value
}
