package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lowaak/circuit-timer/internal/catalog"
	"github.com/lowaak/circuit-timer/internal/config"
	"github.com/lowaak/circuit-timer/internal/device"
	"github.com/lowaak/circuit-timer/internal/go_func_utils"
	"github.com/lowaak/circuit-timer/internal/persistence"
	"github.com/lowaak/circuit-timer/internal/session"
	"github.com/lowaak/circuit-timer/internal/ui"
)

const (
	appName       = "circuit-timer"
	uiLogChanSize = 256
)

// uiLogWriter feeds log lines to the UI log pane. Lines are dropped while
// the pane is behind; the log file still gets them.
type uiLogWriter struct {
	ch chan<- string
}

func (w uiLogWriter) Write(p []byte) (int, error) {
	select {
	case w.ch <- string(p):
	default:
	}
	return len(p), nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Print(loader.Usage())
		return nil
	}
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	logFile := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}
	defer logFile.Close()

	uiLogChan := make(chan string, uiLogChanSize)
	logger := log.New(io.MultiWriter(logFile, uiLogWriter{ch: uiLogChan}), "", log.Ltime)
	if file := loader.ConfigFile(); file != "" {
		logger.Printf("Config: loaded %s", file)
	}

	workouts, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return err
	}
	logger.Printf("Catalog: %d workouts", len(workouts))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	wakeLock, closeWakeLock := openWakeLock(cfg, logger)
	defer closeWakeLock()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	app := tview.NewApplication().SetScreen(screen)

	prefs := ui.LoadPreferences(cfg.DataDir, logger)
	soundOn := cfg.Session.SoundOn
	if on, ok := prefs.SoundOn(); ok {
		soundOn = on
	}

	sess := session.New(session.Config{
		TickInterval: cfg.Session.TickInterval,
		SaveInterval: cfg.Session.SaveInterval,
		SoundOn:      soundOn,
	}, session.Deps{
		Store:    store,
		Cue:      device.NewTerminalCue(screen.Beep, logger),
		WakeLock: wakeLock,
	}, logger)

	initialMode := ui.UIModeWorkoutSelection
	if sess.Restore(ctx) {
		initialMode = ui.UIModeSessionDashboard
	}

	model := ui.NewUIModel(ui.NewUIModelArg{
		Workouts:    workouts,
		InitialMode: initialMode,
		SoundOn:     soundOn,
		UILogChan:   uiLogChan,
		Logger:      logger,
	})
	controller := ui.NewUIController(model, sess, prefs, logger)
	view := ui.NewBaseUIView(ui.NewBaseUIViewArg{
		UIViewImpl:   ui.NewCursesUIView(logger, app),
		UIModel:      model,
		UIController: controller,
		Logger:       logger,
	})

	if loader.WatchSound(controller.OnSoundPreferenceChanged) {
		logger.Printf("Config: watching %s for sound changes", loader.ConfigFile())
	}

	go_func_utils.SafeGo(logger, "signal", func() {
		<-ctx.Done()
		app.Stop()
	})

	runErr := view.Run()

	view.Shutdown()
	controller.Shutdown()
	model.Shutdown()
	logger.Printf("%s stopped", appName)

	if runErr != nil {
		return fmt.Errorf("terminal UI: %w", runErr)
	}
	return nil
}

// openStores opens the local store and, when configured, the remote one, and
// returns the router the session persists through.
func openStores(ctx context.Context, cfg config.Config, logger *log.Logger) (*persistence.Router, func(), error) {
	local, err := persistence.OpenLocalStore(cfg.DataDir, logger)
	if err != nil {
		return nil, nil, err
	}

	var remote persistence.KeyedStore
	closeRemote := func() {}
	if cfg.Remote.DSN != "" {
		if store, err := openRemote(ctx, cfg.Remote, logger); err != nil {
			logger.Printf("Persistence: remote store unavailable, signed-in sessions stay local: %v", err)
		} else {
			remote = store
			closeRemote = store.Close
		}
	}

	closeAll := func() {
		closeRemote()
		if err := local.Close(); err != nil {
			logger.Printf("Persistence: closing local store: %v", err)
		}
	}
	router := persistence.NewRouter(persistence.StaticAuth{UserID: cfg.Auth.UserID}, remote, local, logger)
	return router, closeAll, nil
}

func openRemote(ctx context.Context, cfg config.RemoteConfig, logger *log.Logger) (*persistence.RemoteStore, error) {
	if cfg.Migrate {
		if err := persistence.RunMigrations(cfg.DSN); err != nil {
			return nil, err
		}
		logger.Printf("Persistence: migrations applied")
	}
	return persistence.OpenRemoteStore(ctx, cfg.DSN, logger)
}

func openWakeLock(cfg config.Config, logger *log.Logger) (session.WakeLock, func()) {
	if !cfg.Session.WakeLock {
		return device.NoopWakeLock{}, func() {}
	}
	inhibitor, err := device.NewScreenSaverInhibitor(appName, logger)
	if err != nil {
		logger.Printf("WakeLock: display service unavailable, screen may sleep: %v", err)
		return device.NoopWakeLock{}, func() {}
	}
	return inhibitor, func() {
		if err := inhibitor.Close(); err != nil {
			logger.Printf("WakeLock: close: %v", err)
		}
	}
}
