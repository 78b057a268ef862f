package cmd

import (
	"fmt"
	"os"
	"runtime"
	"slices"

	"github.com/caskdeck/caskdeck/internal/brew"
	"github.com/caskdeck/caskdeck/internal/config"
	"github.com/caskdeck/caskdeck/internal/detect"
	"github.com/caskdeck/caskdeck/internal/escalation"
	"github.com/caskdeck/caskdeck/internal/event"
	"github.com/caskdeck/caskdeck/internal/flock"
	"github.com/caskdeck/caskdeck/internal/logging"
	"github.com/caskdeck/caskdeck/internal/notify"
	"github.com/caskdeck/caskdeck/internal/runner"
	"github.com/caskdeck/caskdeck/internal/shell"
	"github.com/caskdeck/caskdeck/internal/status"
	"github.com/caskdeck/caskdeck/internal/supervisor"
	"github.com/caskdeck/caskdeck/internal/taskqueue"
)

// brewLockName is the lock file that serialises brew across caskdeck
// processes.
const brewLockName = "brew.lock"

// appOptions lets tests replace the process-facing edges of the app.
type appOptions struct {
	spawner  supervisor.Spawner
	shell    shell.Runner
	brewPath string
	goos     string
}

// app is one fully wired task engine.
type app struct {
	cfg      *config.Config
	stateDir string
	logger   *logging.Logger
	reporter *status.Reporter
	board    *status.Board
	runner   *runner.Runner
	brew     *brew.Client
	detach   func()
	persist  *status.Persister
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(cfg *config.Config, opts appOptions) (*app, error) {
	stateDir := cfg.Paths.ResolveStateDir()
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		var err error
		logger, err = logging.NewLogger(stateDir, cfg.Logging.Level, logging.RotationConfig{
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			Compress:   true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open log: %w", err)
		}
	}

	brewPath := opts.brewPath
	if brewPath == "" {
		var err error
		if brewPath, err = brew.Locate(cfg.Brew.Paths); err != nil {
			_ = logger.Close()
			return nil, err
		}
	}
	if opts.goos == "" {
		opts.goos = runtime.GOOS
	}
	if opts.spawner == nil {
		opts.spawner = supervisor.NewExecSpawner(logger)
	}

	notifier := notify.NewDesktop(notify.Config{
		Enabled:   cfg.Notifications.Enabled,
		UseSound:  cfg.Notifications.UseSound,
		SoundPath: cfg.Notifications.SoundPath,
	}, opts.shell)

	reporter := status.NewReporter(event.NewBus(logger), notifier, logger)
	board := status.NewBoard(cfg.Queue.HistoryLimit)
	detach := board.Attach(reporter)
	persister := status.PersistOnChange(board, stateDir, logger)

	admit := taskqueue.AdmitAll
	if cfg.Queue.RejectDuplicates {
		admit = taskqueue.RejectDuplicatePackage
	}
	queue := taskqueue.NewReportingQueue(taskqueue.New(admit), reporter)

	handler := escalation.NewHandler(
		newTerminalOpener(cfg.Escalation, opts.goos, opts.shell),
		notifier,
		reporter,
		escalation.Config{
			GracePeriod: cfg.Escalation.GracePeriod(),
			SudoCommand: cfg.Escalation.SudoCommand,
		},
		logger,
	)

	r := runner.New(queue, reporter, opts.spawner,
		brew.Commander{Path: brewPath, NoAutoUpdate: cfg.Brew.NoAutoUpdate},
		runner.WithProgressParser(newProgressParser(cfg.Brew)),
		runner.WithEscalationDetector(newEscalationDetector(cfg.Escalation)),
		runner.WithEscalator(handler),
		runner.WithPostlude(brew.NewQuarantine(cfg.Brew.ApplicationsDir, opts.shell)),
		runner.WithLock(flock.New(stateDir, brewLockName)),
		runner.WithLogger(logger),
	)

	logger.Info("caskdeck started", "brew", brewPath, "state_dir", stateDir, "pid", os.Getpid())

	return &app{
		cfg:      cfg,
		stateDir: stateDir,
		logger:   logger,
		reporter: reporter,
		board:    board,
		runner:   r,
		brew:     brew.NewClient(brewPath, opts.shell),
		detach:   detach,
		persist:  persister,
	}, nil
}

// newTerminalOpener picks the escalation terminal for mode. "auto" means
// AppleScript on macOS and the exec terminal everywhere else.
func newTerminalOpener(cfg config.EscalationConfig, goos string, runner shell.Runner) escalation.TerminalOpener {
	mode := cfg.Terminal
	if mode == "" || mode == "auto" {
		mode = "exec"
		if goos == "darwin" {
			mode = "applescript"
		}
	}
	if mode == "applescript" {
		return escalation.NewAppleScriptTerminal(cfg.TerminalApp, runner)
	}

	program, args := "x-terminal-emulator", []string{"-e"}
	if len(cfg.TerminalCommand) > 0 {
		program, args = cfg.TerminalCommand[0], cfg.TerminalCommand[1:]
	}
	return escalation.NewExecTerminal(program, args, runner)
}

func (a *app) close() {
	if a.detach != nil {
		a.detach()
	}
	if a.persist != nil {
		a.persist.Close()
	}
	_ = a.logger.Close()
}

// newProgressParser builds the download progress parser. Configured
// patterns replace the built-in ones.
func newProgressParser(cfg config.BrewConfig) *detect.RegexProgressParser {
	if len(cfg.ProgressPatterns) == 0 {
		return detect.NewProgressParser()
	}
	return detect.NewRegexProgressParser(cfg.ProgressPatterns, detect.DownloadingText)
}

// newEscalationDetector extends the sudo markers with configured ones.
func newEscalationDetector(cfg config.EscalationConfig) *detect.MarkerDetector {
	markers := append(slices.Clone(detect.SudoMarkers), cfg.ExtraMarkers...)
	return detect.NewMarkerDetector(markers...)
}
