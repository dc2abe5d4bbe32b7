//go:build integration

package integration

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/akatools/aka/internal/collector"
	"github.com/akatools/aka/internal/domain"
	"github.com/akatools/aka/internal/infra"
	"github.com/akatools/aka/internal/resolver"
	"github.com/akatools/aka/internal/usecase"
)

var _ = Describe("Alias lifecycle", func() {
	var (
		home    string
		logger  *zap.Logger
		cfg     *infra.Config
		aliases *infra.AliasStore
		stats   *infra.StatsStore
		mtimes  *infra.MtimeStore
		parser  *collector.Collector
		learner *usecase.Learner
		monitor *usecase.CommandMonitor
	)

	writeHomeFile := func(rel, content string) string {
		path := filepath.Join(home, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	BeforeEach(func() {
		var err error
		home, err = os.MkdirTemp("", "aka-integration-*")
		Expect(err).NotTo(HaveOccurred())

		logger = zap.NewNop()
		cfg = infra.NewConfigWithHome(home)
		aliases = infra.NewAliasStore(cfg.Dir())
		stats = infra.NewStatsStore(cfg.Dir())
		mtimes = infra.NewMtimeStore(cfg.Dir())
		parser = collector.NewCollectorWithHome(home, logger)
		learner = usecase.NewLearner(aliases, cfg, parser, mtimes, logger)
		monitor = usecase.NewCommandMonitor(aliases, stats, cfg, resolver.New(), logger)
	})

	AfterEach(func() {
		os.RemoveAll(home)
	})

	Describe("learning from shell configuration", func() {
		Context("with aliases defined in .bashrc", func() {
			It("should learn them and notice the long form", func() {
				writeHomeFile(".bashrc", "alias gs='git status'\nalias gp='git push'\n")

				result, err := learner.LearnShell(domain.ShellBash)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Learned).To(Equal(2))

				signal := monitor.Record("git status")
				Expect(signal).NotTo(BeNil())
				Expect(signal.Action).To(Equal(domain.ActionNotice))
				Expect(signal.Message).To(ContainSubstring("'gs'"))
			})

			It("should stay silent when the alias itself is typed", func() {
				writeHomeFile(".bashrc", "alias gs='git status'\n")

				_, err := learner.LearnShell(domain.ShellBash)
				Expect(err).NotTo(HaveOccurred())

				Expect(monitor.Record("gs")).To(BeNil())
				Expect(monitor.Record("gs --short")).To(BeNil())
			})
		})

		Context("when an alias is removed from its source file", func() {
			It("should forget it on the next relearn", func() {
				writeHomeFile(".bashrc", "alias gs='git status'\nalias old='obsolete'\n")
				_, err := learner.LearnShell(domain.ShellBash)
				Expect(err).NotTo(HaveOccurred())

				writeHomeFile(".bashrc", "alias gs='git status'\n")
				result, err := learner.LearnShell(domain.ShellBash)
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Removed).To(Equal(1))

				stored, err := aliases.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(stored).NotTo(HaveKey("old"))
				Expect(stored).To(HaveKey("gs"))
			})
		})
	})

	Describe("escalation", func() {
		BeforeEach(func() {
			writeHomeFile(".bashrc", "alias gs='git status'\n")
			_, err := learner.LearnShell(domain.ShellBash)
			Expect(err).NotTo(HaveOccurred())
		})

		Context("with blocking enabled and a low threshold", func() {
			BeforeEach(func() {
				monitorCfg := cfg.Monitor()
				monitorCfg.BlockingEnabled = true
				monitorCfg.BlockingThreshold = 3
				Expect(cfg.SetMonitor(monitorCfg)).To(Succeed())
			})

			It("should notice first and block once the threshold is reached", func() {
				first := monitor.Record("git status")
				Expect(first.Action).To(Equal(domain.ActionNotice))

				second := monitor.Record("git status")
				Expect(second.Action).To(Equal(domain.ActionNotice))

				third := monitor.Record("git status")
				Expect(third.Action).To(Equal(domain.ActionBlock))
				Expect(third.IsBlocking()).To(BeTrue())
				Expect(third.Message).To(ContainSubstring("command blocked"))
			})

			It("should persist counts across monitor instances", func() {
				monitor.Record("git status")
				monitor.Record("git status")

				fresh := usecase.NewCommandMonitor(aliases, stats, cfg, resolver.New(), logger)
				signal := fresh.Record("git status")
				Expect(signal.Action).To(Equal(domain.ActionBlock))
			})
		})

		Context("with monitoring disabled", func() {
			BeforeEach(func() {
				monitorCfg := cfg.Monitor()
				monitorCfg.Enabled = false
				Expect(cfg.SetMonitor(monitorCfg)).To(Succeed())
			})

			It("should never signal", func() {
				for i := 0; i < 10; i++ {
					Expect(monitor.Record("git status")).To(BeNil())
				}
			})
		})
	})

	Describe("hook-driven relearning", func() {
		It("should pick up edits between invocations", func() {
			writeHomeFile(".bashrc", "alias gs='git status'\n")
			Expect(learner.CheckAndRelearn()).To(BeTrue())

			// Unchanged files are a no-op.
			Expect(learner.CheckAndRelearn()).To(BeFalse())

			bashrc := writeHomeFile(".bashrc", "alias gs='git status'\nalias gp='git push'\n")
			past := time.Now().Add(-time.Hour)
			Expect(os.Chtimes(bashrc, past, past)).To(Succeed())

			Expect(learner.CheckAndRelearn()).To(BeTrue())

			stored, err := aliases.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(HaveKey("gp"))
		})
	})

	Describe("shell integration", func() {
		var (
			rc        *infra.RCFile
			installer *infra.Installer
		)

		BeforeEach(func() {
			rc = infra.NewRCFileWithPath(filepath.Join(home, ".akarc"))
			installer = infra.NewInstallerWithPaths(home, cfg.Dir(), "/usr/local/bin/aka", rc, logger)
			writeHomeFile(".bashrc", "alias gs='git status'\n")
		})

		It("should install, survive a reinstall check, and uninstall cleanly", func() {
			Expect(installer.IsInstalled(domain.ShellBash)).To(BeFalse())

			Expect(installer.Install(domain.ShellBash, false)).To(Succeed())
			Expect(installer.IsInstalled(domain.ShellBash)).To(BeTrue())
			Expect(installer.Install(domain.ShellBash, false)).NotTo(Succeed())

			Expect(installer.Uninstall(domain.ShellBash)).To(Succeed())
			Expect(installer.IsInstalled(domain.ShellBash)).To(BeFalse())

			data, err := os.ReadFile(filepath.Join(home, ".bashrc"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("alias gs='git status'"))
		})

		It("should wipe learned data on uninstall but keep user aliases", func() {
			Expect(installer.Install(domain.ShellBash, false)).To(Succeed())

			_, err := learner.LearnShell(domain.ShellBash)
			Expect(err).NotTo(HaveOccurred())
			monitor.Record("git status")
			Expect(rc.AddAlias("deploy", "make deploy")).To(Succeed())

			Expect(installer.Uninstall(domain.ShellBash)).To(Succeed())

			_, err = os.Stat(filepath.Join(cfg.Dir(), "aliases.yaml"))
			Expect(os.IsNotExist(err)).To(BeTrue())
			_, err = os.Stat(filepath.Join(cfg.Dir(), "stats.yaml"))
			Expect(os.IsNotExist(err)).To(BeTrue())

			userAliases, err := rc.Aliases()
			Expect(err).NotTo(HaveOccurred())
			Expect(userAliases).To(HaveKey("deploy"))
		})

		It("should route user aliases through .akarc into the monitor", func() {
			Expect(rc.AddAlias("deploy", "make deploy")).To(Succeed())

			// ~/.akarc is monitored for bash out of the box.
			added, err := cfg.AddMonitoredFile(domain.ShellBash, rc.Path())
			Expect(err).NotTo(HaveOccurred())
			Expect(added).To(BeFalse())

			_, err = learner.LearnShell(domain.ShellBash)
			Expect(err).NotTo(HaveOccurred())

			signal := monitor.Record("make deploy")
			Expect(signal).NotTo(BeNil())
			Expect(signal.Message).To(ContainSubstring("'deploy'"))
		})
	})
})
