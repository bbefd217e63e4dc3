package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"docshelf/internal/archive"
	"docshelf/internal/config"
	"docshelf/internal/executor"
	"docshelf/internal/journal"
	"docshelf/internal/logging"
	"docshelf/internal/preflight"
	"docshelf/internal/queue"
	"docshelf/internal/review"
	"docshelf/internal/router"
	"docshelf/internal/services/checksum"
	"docshelf/internal/services/validator"
	"docshelf/internal/workflow"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, _, _, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// ensureLogger builds the command logger. Without persist it writes to stderr
// only, so no log directory or file is created.
func (c *commandContext) ensureLogger(persist bool) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		if !persist {
			c.logger, c.loggerErr = logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// toolkit bundles everything a command needs to touch the state directory.
type toolkit struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *queue.Store
	archive *archive.Store
	journal *journal.Journal
	hasher  checksum.Hasher
	lock    *queue.Lock
}

func (s *toolkit) Close() {
	if s.archive != nil {
		_ = s.archive.Close()
	}
}

// openServices runs preflight and wires the queue store to the archive. Any
// failure here is fatal for the command. A dry run creates nothing: no state
// or log directory, no log file, no archive database.
func (c *commandContext) openServices(cmd *cobra.Command, dryRun bool) (*toolkit, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	var checks []preflight.Option
	if dryRun {
		checks = append(checks, preflight.StateMayBeMissing())
	} else if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger(!dryRun)
	if err != nil {
		return nil, err
	}
	if err := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, checks...)); err != nil {
		return nil, err
	}
	hasher, err := checksum.New(cfg.Tools.ChecksumCommand)
	if err != nil {
		return nil, err
	}

	tk := &toolkit{
		cfg:     cfg,
		logger:  logger,
		journal: journal.New(cfg.JournalPath()),
		hasher:  hasher,
		lock:    queue.NewLock(cfg.LockPath()),
	}
	storeOpts := []queue.Option{queue.WithLogger(logger)}
	if !dryRun {
		arch, err := archive.Open(cfg.ArchivePath())
		if err != nil {
			return nil, fmt.Errorf("open archive %s: %w", cfg.ArchivePath(), err)
		}
		tk.archive = arch
		storeOpts = append(storeOpts, queue.WithArchiver(arch))
	}
	tk.store = queue.NewStore(cfg.QueuePath(), storeOpts...)
	return tk, nil
}

func (s *toolkit) runner(mode router.Mode, in io.Reader, out io.Writer) (*workflow.Runner, error) {
	rt, err := router.New(s.cfg.Routing.AutoApproveThreshold, s.cfg.Routing.AskThreshold, s.cfg.Paths.FallbackDir)
	if err != nil {
		return nil, err
	}
	ex := executor.New(s.hasher, s.journal,
		executor.WithValidator(validator.New(s.cfg.Tools.ValidatorCommand)),
		executor.WithLogger(s.logger),
	)
	opts := []workflow.RunnerOption{
		workflow.WithLock(s.lock),
		workflow.WithLogger(s.logger),
	}
	if mode == router.ModeInteractive {
		term := review.NewTerminal(in, out)
		opts = append(opts, workflow.WithConfirmer(term), workflow.WithPrompter(term))
	}
	return workflow.NewRunner(s.store, rt, ex, opts...), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
