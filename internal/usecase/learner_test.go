package usecase

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akatools/aka/internal/collector"
	"github.com/akatools/aka/internal/domain"
)

// mockMtimeRepo implements domain.MtimeRepository for testing
type mockMtimeRepo struct {
	mtimes  map[string]int64
	loadErr error
	saveErr error
}

func (m *mockMtimeRepo) Load() (map[string]int64, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.mtimes == nil {
		return map[string]int64{}, nil
	}
	return m.mtimes, nil
}

func (m *mockMtimeRepo) Save(mtimes map[string]int64) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mtimes = mtimes
	return nil
}

func writeRC(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newTestLearner(home string, aliases *mockAliasRepo, cfg *mockConfigRepo, mtimes *mockMtimeRepo) *Learner {
	parser := collector.NewCollectorWithHome(home, zap.NewNop())
	return NewLearner(aliases, cfg, parser, mtimes, zap.NewNop())
}

// TestLearnShell_LearnsNewAliases verifies fresh definitions land in the store
func TestLearnShell_LearnsNewAliases(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	writeRC(t, bashrc, "alias gs='git status'\nalias ll='ls -la'\n")

	aliases := &mockAliasRepo{aliases: domain.AliasMap{}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{domain.ShellBash: {bashrc}}}
	l := newTestLearner(home, aliases, cfg, &mockMtimeRepo{})

	result, err := l.LearnShell(domain.ShellBash)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Learned)
	assert.Zero(t, result.Updated)
	assert.Zero(t, result.Removed)
	assert.True(t, result.Changed())
	assert.Equal(t, "git status", aliases.saved["gs"].Command)
}

// TestLearnShell_UpdatesChangedCommands verifies redefinitions count as updates
func TestLearnShell_UpdatesChangedCommands(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	writeRC(t, bashrc, "alias gs='git status -sb'\n")

	aliases := &mockAliasRepo{aliases: domain.AliasMap{
		"gs": {Command: "git status", Shell: domain.ShellBash, SourceFile: bashrc, Kind: domain.KindAlias},
	}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{domain.ShellBash: {bashrc}}}
	l := newTestLearner(home, aliases, cfg, &mockMtimeRepo{})

	result, err := l.LearnShell(domain.ShellBash)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Zero(t, result.Learned)
	assert.Equal(t, "git status -sb", aliases.saved["gs"].Command)
}

// TestLearnShell_RemovesVanishedAliases verifies entries deleted from their
// source file leave the store
func TestLearnShell_RemovesVanishedAliases(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	writeRC(t, bashrc, "alias gs='git status'\n")

	aliases := &mockAliasRepo{aliases: domain.AliasMap{
		"gs":  {Command: "git status", Shell: domain.ShellBash, SourceFile: bashrc, Kind: domain.KindAlias},
		"old": {Command: "obsolete", Shell: domain.ShellBash, SourceFile: bashrc, Kind: domain.KindAlias},
	}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{domain.ShellBash: {bashrc}}}
	l := newTestLearner(home, aliases, cfg, &mockMtimeRepo{})

	result, err := l.LearnShell(domain.ShellBash)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)
	assert.NotContains(t, aliases.saved, "old")
	assert.Contains(t, aliases.saved, "gs")
}

// TestLearnShell_PreservesUserEntries verifies manually added aliases are
// never auto-removed
func TestLearnShell_PreservesUserEntries(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	writeRC(t, bashrc, "alias gs='git status'\n")

	aliases := &mockAliasRepo{aliases: domain.AliasMap{
		"mine": {Command: "make deploy", Shell: domain.ShellUser, Kind: domain.KindAlias},
	}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{domain.ShellBash: {bashrc}}}
	l := newTestLearner(home, aliases, cfg, &mockMtimeRepo{})

	result, err := l.LearnShell(domain.ShellBash)

	require.NoError(t, err)
	assert.Zero(t, result.Removed)
	assert.Contains(t, aliases.saved, "mine")
}

// TestLearnShell_KeepsOtherShellEntries verifies a bash relearn leaves zsh
// entries alone even when the names overlap nothing monitored
func TestLearnShell_KeepsOtherShellEntries(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	writeRC(t, bashrc, "alias gs='git status'\n")

	zshrc := filepath.Join(home, ".zshrc")
	aliases := &mockAliasRepo{aliases: domain.AliasMap{
		"zz": {Command: "zsh only", Shell: domain.ShellZsh, SourceFile: zshrc, Kind: domain.KindAlias},
	}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{domain.ShellBash: {bashrc}}}
	l := newTestLearner(home, aliases, cfg, &mockMtimeRepo{})

	result, err := l.LearnShell(domain.ShellBash)

	require.NoError(t, err)
	assert.Zero(t, result.Removed)
	assert.Contains(t, aliases.saved, "zz")
}

// TestLearnShell_MissingFilesSkipped verifies absent monitored files do
// not abort the pass
func TestLearnShell_MissingFilesSkipped(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	writeRC(t, bashrc, "alias gs='git status'\n")

	aliases := &mockAliasRepo{aliases: domain.AliasMap{}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{
		domain.ShellBash: {filepath.Join(home, ".bash_aliases"), bashrc},
	}}
	l := newTestLearner(home, aliases, cfg, &mockMtimeRepo{})

	result, err := l.LearnShell(domain.ShellBash)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Learned)
}

// TestLearnShell_NoMonitoredFiles verifies a shell with no configuration
// is a no-op
func TestLearnShell_NoMonitoredFiles(t *testing.T) {
	aliases := &mockAliasRepo{aliases: domain.AliasMap{}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{}}
	l := newTestLearner(t.TempDir(), aliases, cfg, &mockMtimeRepo{})

	result, err := l.LearnShell(domain.ShellBash)

	require.NoError(t, err)
	assert.False(t, result.Changed())
	assert.Nil(t, aliases.saved)
}

// TestLearnShell_SaveErrorPropagates verifies persistence failures surface
func TestLearnShell_SaveErrorPropagates(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	writeRC(t, bashrc, "alias gs='git status'\n")

	aliases := &mockAliasRepo{aliases: domain.AliasMap{}, saveErr: errors.New("readonly")}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{domain.ShellBash: {bashrc}}}
	l := newTestLearner(home, aliases, cfg, &mockMtimeRepo{})

	_, err := l.LearnShell(domain.ShellBash)

	assert.Error(t, err)
}

// TestLearnAll verifies every configured shell is relearned and counts
// accumulate
func TestLearnAll(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	zshrc := filepath.Join(home, ".zshrc")
	writeRC(t, bashrc, "alias gs='git status'\n")
	writeRC(t, zshrc, "alias zs='git stash'\n")

	aliases := &mockAliasRepo{aliases: domain.AliasMap{}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{
		domain.ShellBash: {bashrc},
		domain.ShellZsh:  {zshrc},
	}}
	l := newTestLearner(home, aliases, cfg, &mockMtimeRepo{})

	result, err := l.LearnAll()

	require.NoError(t, err)
	assert.Equal(t, 2, result.Learned)
	assert.Contains(t, aliases.aliases, "gs")
	assert.Contains(t, aliases.aliases, "zs")
}

// TestCheckAndRelearn_FirstRunLearns verifies an empty mtime snapshot
// treats every monitored file as changed
func TestCheckAndRelearn_FirstRunLearns(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	writeRC(t, bashrc, "alias gs='git status'\n")

	aliases := &mockAliasRepo{aliases: domain.AliasMap{}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{domain.ShellBash: {bashrc}}}
	mtimes := &mockMtimeRepo{}
	l := newTestLearner(home, aliases, cfg, mtimes)

	assert.True(t, l.CheckAndRelearn())
	assert.Contains(t, aliases.aliases, "gs")
	assert.Contains(t, mtimes.mtimes, bashrc)
}

// TestCheckAndRelearn_UnchangedIsNoop verifies an up-to-date snapshot
// skips relearning
func TestCheckAndRelearn_UnchangedIsNoop(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	writeRC(t, bashrc, "alias gs='git status'\n")

	aliases := &mockAliasRepo{aliases: domain.AliasMap{}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{domain.ShellBash: {bashrc}}}
	mtimes := &mockMtimeRepo{}
	l := newTestLearner(home, aliases, cfg, mtimes)

	require.True(t, l.CheckAndRelearn())
	assert.False(t, l.CheckAndRelearn())
}

// TestCheckAndRelearn_DetectsEdit verifies a touched file triggers a
// relearn of its shell
func TestCheckAndRelearn_DetectsEdit(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	writeRC(t, bashrc, "alias gs='git status'\n")

	aliases := &mockAliasRepo{aliases: domain.AliasMap{}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{domain.ShellBash: {bashrc}}}
	mtimes := &mockMtimeRepo{}
	l := newTestLearner(home, aliases, cfg, mtimes)

	require.True(t, l.CheckAndRelearn())

	writeRC(t, bashrc, "alias gs='git status'\nalias gp='git push'\n")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(bashrc, past, past))

	assert.True(t, l.CheckAndRelearn())
	assert.Contains(t, aliases.aliases, "gp")
}

// TestCheckAndRelearn_MtimeErrorsDegrade verifies snapshot store faults
// fall back to a full comparison rather than failing
func TestCheckAndRelearn_MtimeErrorsDegrade(t *testing.T) {
	home := t.TempDir()
	bashrc := filepath.Join(home, ".bashrc")
	writeRC(t, bashrc, "alias gs='git status'\n")

	aliases := &mockAliasRepo{aliases: domain.AliasMap{}}
	cfg := &mockConfigRepo{files: map[domain.Shell][]string{domain.ShellBash: {bashrc}}}
	mtimes := &mockMtimeRepo{loadErr: errors.New("corrupt"), saveErr: errors.New("readonly")}
	l := newTestLearner(home, aliases, cfg, mtimes)

	assert.True(t, l.CheckAndRelearn())
	assert.Contains(t, aliases.aliases, "gs")
}
