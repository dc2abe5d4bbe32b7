// Package main is the CLI entry point for aka.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/akatools/aka/internal/collector"
	"github.com/akatools/aka/internal/daemon"
	"github.com/akatools/aka/internal/domain"
	"github.com/akatools/aka/internal/infra"
	"github.com/akatools/aka/internal/resolver"
	"github.com/akatools/aka/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.3.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

var (
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	blockStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "aka",
	Short: "Learn your aliases - and get nudged into using them",
	Long: `aka learns the aliases defined in your shell startup files, watches the
commands you type, and reminds you when a shorter alias exists. Keep
ignoring the reminders and it can block the long form outright.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the shell integration hook",
	Long: `Adds the aka hook to your shell's startup file and learns aliases from
the shell's configuration files. The hook runs before every interactive
command and never blocks your shell on internal errors.`,
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the shell integration hook",
	Long: `Removes the aka hook from your shell's startup file and wipes learned
data. Configuration and ~/.akarc are preserved.`,
	RunE: runUninstall,
}

var aliasCmd = &cobra.Command{
	Use:   "alias",
	Short: "Manage user-defined aliases",
}

var aliasAddCmd = &cobra.Command{
	Use:   "add <name> <command>",
	Short: "Add a user-defined alias",
	Long: `Adds an alias to ~/.akarc and to the alias store.

Example: aka alias add gs "git status"`,
	Args: cobra.ExactArgs(2),
	RunE: runAliasAdd,
}

var aliasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known aliases",
	RunE:  runAliasList,
}

var aliasRmCmd = &cobra.Command{
	Use:   "rm <name>",
	Short: "Remove a user-defined alias",
	Args:  cobra.ExactArgs(1),
	RunE:  runAliasRm,
}

var relearnCmd = &cobra.Command{
	Use:   "relearn",
	Short: "Re-scan monitored files for alias changes",
	Long: `Re-parses the monitored shell configuration files and reconciles the
alias store: new aliases are learned, changed ones updated, and vanished
ones removed. With --watch, stays in the foreground and relearns whenever
a monitored file changes.`,
	RunE: runRelearn,
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Configure command monitoring",
}

var monitorStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current monitoring settings",
	RunE:  runMonitorStatus,
}

var monitorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Change monitoring settings",
	RunE:  runMonitorConfig,
}

var monitorFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage monitored configuration files",
	RunE:  runMonitorFiles,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show aka status and configuration",
	RunE:  runStatus,
}

// Hidden hook command - the shell integration calls this before every
// interactive command. Exit 0 allows the command, exit 1 blocks it.
var hookCmd = &cobra.Command{
	Use:    "hook [command words...]",
	Hidden: true,
	Args:   cobra.ArbitraryArgs,
	Run:    runHook,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	shellFlag           string
	forceFlag           bool
	watchFlag           bool
	jsonOutput          bool
	monitorEnabled      string
	monitorAction       string
	noticeThresholdFlag int
	blockThresholdFlag  int
	filesAddFlag        string
	filesRemoveFlag     string
)

func init() {
	installCmd.Flags().StringVar(&shellFlag, "shell", "", "Target shell (bash/zsh/fish, default: detect)")
	installCmd.Flags().BoolVar(&forceFlag, "force", false, "Reinstall over an existing integration (wipes learned data)")
	uninstallCmd.Flags().StringVar(&shellFlag, "shell", "", "Target shell (bash/zsh/fish, default: detect)")

	aliasAddCmd.Flags().BoolVar(&forceFlag, "force", false, "Overwrite an existing alias")
	aliasListCmd.Flags().StringVar(&shellFlag, "shell", "", "Only list aliases learned from this shell")

	relearnCmd.Flags().StringVar(&shellFlag, "shell", "", "Only relearn this shell's monitored files")
	relearnCmd.Flags().BoolVar(&watchFlag, "watch", false, "Stay in the foreground and relearn on file changes")

	monitorConfigCmd.Flags().StringVar(&monitorEnabled, "enabled", "", "Enable or disable monitoring (true/false)")
	monitorConfigCmd.Flags().StringVar(&monitorAction, "action", "", "Monitoring action: none, notice, or block")
	monitorConfigCmd.Flags().IntVar(&noticeThresholdFlag, "notice-threshold", -1, "Uses before a notice is shown")
	monitorConfigCmd.Flags().IntVar(&blockThresholdFlag, "block-threshold", -1, "Uses before the command is blocked")
	monitorFilesCmd.Flags().StringVar(&shellFlag, "shell", "", "Shell the file belongs to")
	monitorFilesCmd.Flags().StringVar(&filesAddFlag, "add", "", "Add a file to the monitored list (requires --shell)")
	monitorFilesCmd.Flags().StringVar(&filesRemoveFlag, "remove", "", "Remove a file from the monitored list (requires --shell)")

	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	aliasCmd.AddCommand(aliasAddCmd)
	aliasCmd.AddCommand(aliasListCmd)
	aliasCmd.AddCommand(aliasRmCmd)

	monitorCmd.AddCommand(monitorStatusCmd)
	monitorCmd.AddCommand(monitorConfigCmd)
	monitorCmd.AddCommand(monitorFilesCmd)

	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(aliasCmd)
	rootCmd.AddCommand(relearnCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)
}

// toolkit wires the components most commands need.
type toolkit struct {
	logger    *zap.Logger
	config    *infra.Config
	aliases   *infra.AliasStore
	stats     *infra.StatsStore
	mtimes    *infra.MtimeStore
	rc        *infra.RCFile
	collector *collector.Collector
	resolver  *resolver.Resolver
	learner   *usecase.Learner
	monitor   *usecase.CommandMonitor
}

func newToolkit(logger *zap.Logger) *toolkit {
	config := infra.NewConfig()
	aliases := infra.NewAliasStore(config.Dir())
	stats := infra.NewStatsStore(config.Dir())
	mtimes := infra.NewMtimeStore(config.Dir())
	col := collector.NewCollectorWithHome(config.HomeDir(), logger)
	res := resolver.New()

	return &toolkit{
		logger:    logger,
		config:    config,
		aliases:   aliases,
		stats:     stats,
		mtimes:    mtimes,
		rc:        infra.NewRCFile(),
		collector: col,
		resolver:  res,
		learner:   usecase.NewLearner(aliases, config, col, mtimes, logger),
		monitor:   usecase.NewCommandMonitor(aliases, stats, config, res, logger),
	}
}

// targetShell resolves the --shell flag, detecting the invoking shell
// when the flag is empty.
func targetShell() (domain.Shell, error) {
	if shellFlag == "" {
		shell := infra.NewShellDetector().Detect()
		fmt.Printf("Detected shell: %s\n", shell)
		return shell, nil
	}

	shell := domain.Shell(shellFlag)
	if !shell.IsKnown() {
		return "", fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", shellFlag)
	}
	return shell, nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	shell, err := targetShell()
	if err != nil {
		return err
	}

	logger := createConsoleLogger()
	defer func() { _ = logger.Sync() }()
	tk := newToolkit(logger)

	installer := infra.NewInstaller(tk.config, tk.rc, logger)
	if err := installer.Install(shell, forceFlag); err != nil {
		return err
	}
	if err := tk.config.Save(); err != nil {
		logger.Warn("could not persist config", zap.Error(err))
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("aka installed for %s", shell)))

	result, err := tk.learner.LearnShell(shell)
	if err != nil {
		logger.Warn("initial alias learning failed", zap.Error(err))
	} else if result.Learned+result.Updated > 0 {
		fmt.Printf("Learned %d aliases from %s configuration files\n",
			result.Learned+result.Updated, shell)
	} else {
		fmt.Println("No aliases found to learn")
	}

	fmt.Println("Restart your shell (or source its rc file) to activate.")
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	shell, err := targetShell()
	if err != nil {
		return err
	}

	logger := createConsoleLogger()
	defer func() { _ = logger.Sync() }()
	tk := newToolkit(logger)

	installer := infra.NewInstaller(tk.config, tk.rc, logger)
	if err := installer.Uninstall(shell); err != nil {
		return err
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("aka uninstalled from %s", shell)))
	fmt.Printf("Configuration preserved in %s\n", tk.config.Dir())
	fmt.Printf("User aliases preserved in %s\n", tk.rc.Path())
	fmt.Println("Restart your shell (or source its rc file) to deactivate.")
	return nil
}

func runAliasAdd(cmd *cobra.Command, args []string) error {
	name, command := args[0], args[1]
	if name == "" || command == "" {
		return fmt.Errorf("both alias name and command are required")
	}

	logger := createConsoleLogger()
	defer func() { _ = logger.Sync() }()
	tk := newToolkit(logger)

	aliases, err := tk.aliases.Load()
	if err != nil {
		return err
	}

	if existing, ok := aliases[name]; ok {
		if existing.Command == command {
			fmt.Printf("Alias '%s' already exists with the same command\n", name)
			return nil
		}
		if !forceFlag {
			return fmt.Errorf("alias '%s' already exists with command: %s (use --force to overwrite)",
				name, existing.Command)
		}
	}

	aliases[name] = domain.AliasEntry{
		Command:    command,
		Shell:      domain.ShellUser,
		SourceFile: tk.rc.Path(),
		Kind:       domain.KindAlias,
	}
	if err := tk.aliases.Save(aliases); err != nil {
		return err
	}
	if err := tk.rc.AddAlias(name, command); err != nil {
		return err
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Added alias: %s -> %s", name, command)))
	fmt.Printf("Written to %s; available in new shell sessions\n", tk.rc.Path())
	return nil
}

func runAliasList(cmd *cobra.Command, args []string) error {
	logger := createConsoleLogger()
	defer func() { _ = logger.Sync() }()
	tk := newToolkit(logger)

	aliases, err := tk.aliases.Load()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(aliases))
	for name, entry := range aliases {
		if shellFlag != "" && entry.Shell != domain.Shell(shellFlag) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Println("No aliases known. Run 'aka relearn' or 'aka alias add'.")
		return nil
	}

	fmt.Printf("%-20s %-6s %s\n", "NAME", "SHELL", "COMMAND")
	for _, name := range names {
		entry := aliases[name]
		fmt.Printf("%-20s %-6s %s\n", name, entry.Shell, entry.Command)
	}
	return nil
}

func runAliasRm(cmd *cobra.Command, args []string) error {
	name := args[0]

	logger := createConsoleLogger()
	defer func() { _ = logger.Sync() }()
	tk := newToolkit(logger)

	aliases, err := tk.aliases.Load()
	if err != nil {
		return err
	}

	_, inStore := aliases[name]
	if inStore {
		delete(aliases, name)
		if err := tk.aliases.Save(aliases); err != nil {
			return err
		}
	}

	inRC, err := tk.rc.RemoveAlias(name)
	if err != nil {
		return err
	}

	if !inStore && !inRC {
		return fmt.Errorf("alias '%s' not found", name)
	}

	fmt.Println(okStyle.Render(fmt.Sprintf("Removed alias: %s", name)))
	return nil
}

func runRelearn(cmd *cobra.Command, args []string) error {
	logger := createConsoleLogger()
	defer func() { _ = logger.Sync() }()
	tk := newToolkit(logger)

	if watchFlag {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		fmt.Println("Watching monitored files for changes (ctrl-c to stop)...")
		watcher := daemon.NewWatcher(daemon.DefaultWatcherConfig(), tk.learner, tk.config, logger)
		return watcher.Run(ctx)
	}

	var result domain.LearnResult
	var err error
	if shellFlag != "" {
		shell := domain.Shell(shellFlag)
		if !shell.IsKnown() {
			return fmt.Errorf("unsupported shell: %s", shellFlag)
		}
		result, err = tk.learner.LearnShell(shell)
	} else {
		result, err = tk.learner.LearnAll()
	}
	if err != nil {
		return err
	}

	fmt.Printf("Relearn complete: %d learned, %d updated, %d removed\n",
		result.Learned, result.Updated, result.Removed)
	return nil
}

func runMonitorStatus(cmd *cobra.Command, args []string) error {
	logger := createConsoleLogger()
	defer func() { _ = logger.Sync() }()
	tk := newToolkit(logger)

	cfg := tk.config.Monitor()
	fmt.Println("Current monitoring settings:")
	fmt.Printf("  Enabled: %t\n", cfg.Enabled)
	fmt.Printf("  Action: %s\n", describeAction(cfg))
	fmt.Printf("  Notice threshold: %d\n", cfg.NoticeThreshold)
	fmt.Printf("  Block threshold: %d\n", cfg.BlockingThreshold)
	if len(cfg.IgnoredCommands) > 0 {
		fmt.Printf("  Ignored commands: %s\n", strings.Join(cfg.IgnoredCommands, ", "))
	}
	return nil
}

func describeAction(cfg domain.MonitorConfig) string {
	switch {
	case !cfg.Enabled:
		return "none"
	case cfg.BlockingEnabled:
		return "block"
	default:
		return "notice"
	}
}

func runMonitorConfig(cmd *cobra.Command, args []string) error {
	if monitorEnabled == "" && monitorAction == "" && noticeThresholdFlag < 0 && blockThresholdFlag < 0 {
		return cmd.Help()
	}

	logger := createConsoleLogger()
	defer func() { _ = logger.Sync() }()
	tk := newToolkit(logger)
	cfg := tk.config.Monitor()

	switch monitorEnabled {
	case "":
	case "true":
		cfg.Enabled = true
		fmt.Println("Command monitoring enabled")
	case "false":
		cfg.Enabled = false
		fmt.Println("Command monitoring disabled")
	default:
		return fmt.Errorf("--enabled must be true or false")
	}

	switch monitorAction {
	case "":
	case "none":
		cfg.Enabled = false
		cfg.BlockingEnabled = false
		fmt.Println("Monitoring action set to: none")
	case "notice":
		cfg.Enabled = true
		cfg.BlockingEnabled = false
		fmt.Println("Monitoring action set to: notice (show suggestions)")
	case "block":
		cfg.Enabled = true
		cfg.BlockingEnabled = true
		fmt.Println("Monitoring action set to: block (prevent command execution)")
		fmt.Println(blockStyle.Render("Warning: commands will be blocked once the threshold is reached."))
		fmt.Println("Make sure you know your aliases, or switch back to the notice action.")
	default:
		return fmt.Errorf("--action must be none, notice, or block")
	}

	if noticeThresholdFlag >= 0 {
		cfg.NoticeThreshold = noticeThresholdFlag
		fmt.Printf("Notice threshold set to %d\n", noticeThresholdFlag)
	}
	if blockThresholdFlag >= 0 {
		cfg.BlockingThreshold = blockThresholdFlag
		fmt.Printf("Block threshold set to %d\n", blockThresholdFlag)
	}

	return tk.config.SetMonitor(cfg)
}

func runMonitorFiles(cmd *cobra.Command, args []string) error {
	logger := createConsoleLogger()
	defer func() { _ = logger.Sync() }()
	tk := newToolkit(logger)

	if (filesAddFlag != "" || filesRemoveFlag != "") && shellFlag == "" {
		return fmt.Errorf("--add and --remove require --shell")
	}

	if filesAddFlag != "" {
		shell := domain.Shell(shellFlag)
		if !shell.IsKnown() {
			return fmt.Errorf("unsupported shell: %s", shellFlag)
		}
		added, err := tk.config.AddMonitoredFile(shell, filesAddFlag)
		if err != nil {
			return err
		}
		if !added {
			fmt.Printf("File %s is already monitored for %s\n", filesAddFlag, shell)
			return nil
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("Added %s to %s monitored files", filesAddFlag, shell)))

		result, err := tk.learner.LearnShell(shell)
		if err == nil && result.Learned > 0 {
			fmt.Printf("Learned %d new aliases\n", result.Learned)
		}
		return nil
	}

	if filesRemoveFlag != "" {
		shell := domain.Shell(shellFlag)
		if !shell.IsKnown() {
			return fmt.Errorf("unsupported shell: %s", shellFlag)
		}
		removed, err := tk.config.RemoveMonitoredFile(shell, filesRemoveFlag)
		if err != nil {
			return err
		}
		if !removed {
			fmt.Printf("File %s not found in %s monitored files\n", filesRemoveFlag, shell)
			return nil
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("Removed %s from %s monitored files", filesRemoveFlag, shell)))
		return nil
	}

	monitored := tk.config.AllMonitoredFiles()
	fmt.Println("Monitored files by shell:")
	for _, shell := range domain.KnownShells {
		files := monitored[shell]
		if shellFlag != "" && string(shell) != shellFlag {
			continue
		}
		fmt.Printf("  %s:\n", shell)
		if len(files) == 0 {
			fmt.Println("    none configured")
			continue
		}
		for _, path := range files {
			mark := "missing"
			if _, err := os.Stat(path); err == nil {
				mark = "ok"
			}
			fmt.Printf("    [%s] %s\n", mark, path)
		}
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := createConsoleLogger()
	defer func() { _ = logger.Sync() }()
	tk := newToolkit(logger)

	cfg := tk.config.Monitor()

	fmt.Println("aka status:")
	fmt.Printf("  Version: %s\n", Version)
	fmt.Printf("  Config dir: %s\n", tk.config.Dir())
	fmt.Printf("  Monitoring enabled: %t\n", cfg.Enabled)
	fmt.Printf("  Action: %s\n", describeAction(cfg))
	fmt.Printf("  Notice threshold: %d\n", cfg.NoticeThreshold)
	fmt.Printf("  Block threshold: %d\n", cfg.BlockingThreshold)
	fmt.Println("  Tracking: only commands with known aliases")

	if aliases, err := tk.aliases.Load(); err == nil {
		fmt.Printf("  Known aliases: %d\n", len(aliases))
	}

	monitored := tk.config.AllMonitoredFiles()
	total := 0
	for _, files := range monitored {
		total += len(files)
	}
	fmt.Printf("  Monitored files: %d\n", total)

	if stats, err := tk.monitor.Stats(); err == nil && len(stats) > 0 {
		fmt.Printf("  Tracked aliases: %d\n", len(stats))
	}
	return nil
}

// runHook is the interactive critical path: it must complete fast and
// must fail open. Any internal fault results in exit 0 (allow).
func runHook(cmd *cobra.Command, args []string) {
	defer func() {
		if r := recover(); r != nil {
			os.Exit(0)
		}
	}()

	command := strings.TrimSpace(strings.Join(args, " "))
	if command == "" {
		return
	}
	if fields := strings.Fields(command); len(fields) > 0 && fields[0] == "aka" {
		return
	}

	logger := createHookLogger()
	defer func() { _ = logger.Sync() }()

	tk := newToolkit(logger)

	// Pick up rc-file edits since the last invocation before resolving.
	tk.learner.CheckAndRelearn()

	result := tk.monitor.Record(command)
	if result == nil {
		return
	}

	if result.IsBlocking() {
		fmt.Println(blockStyle.Render(result.Message))
		os.Exit(1)
	}
	fmt.Println(noticeStyle.Render(result.Message))
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("aka %s (commit: %s, built: %s)\n", Version, Commit, BuildTime)
	}
}

// createConsoleLogger builds a warn-level console logger for CLI commands;
// user-facing output goes through fmt, the logger only carries warnings.
func createConsoleLogger() *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// createHookLogger writes to a log file under the config dir so the hook
// never pollutes the interactive prompt with log lines.
func createHookLogger() *zap.Logger {
	home, err := os.UserHomeDir()
	if err != nil {
		return zap.NewNop()
	}

	logPath := filepath.Join(home, ".config", "aka", "aka.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return zap.NewNop()
	}

	config := zap.NewProductionConfig()
	config.OutputPaths = []string{logPath}
	config.ErrorOutputPaths = []string{logPath}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
