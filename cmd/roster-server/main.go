package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/yndnr/roster-go/internal/core/domain"
	"github.com/yndnr/roster-go/internal/infra/buildinfo"
	"github.com/yndnr/roster-go/internal/infra/confloader"
	"github.com/yndnr/roster-go/internal/infra/shutdown"
	"github.com/yndnr/roster-go/internal/infra/tlsroots"
	"github.com/yndnr/roster-go/internal/server/config"
	"github.com/yndnr/roster-go/internal/server/httpserver"
	"github.com/yndnr/roster-go/internal/server/httpserver/handler"
	"github.com/yndnr/roster-go/internal/storage/journal"
	"github.com/yndnr/roster-go/internal/storage/memory"
	"github.com/yndnr/roster-go/internal/storage/snapshot"
	"github.com/yndnr/roster-go/internal/telemetry/logger"
	"github.com/yndnr/roster-go/internal/telemetry/metric"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(buildinfo.String("roster-server"))
		return nil
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	info := buildinfo.Get()
	log.Info("starting roster-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", *configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	store := memory.New(memory.WithLogger(log))
	if cfg.Records.SeedFile != "" {
		n, err := store.LoadFile(cfg.Records.SeedFile)
		if err != nil {
			return fmt.Errorf("load seed file: %w", err)
		}
		log.Info("records loaded", "file", cfg.Records.SeedFile, "count", n)
	}

	metrics := metric.NewRegistry()
	if err := metrics.Registerer().Register(metric.NewRecordsCollector(store.Count)); err != nil {
		return fmt.Errorf("register records collector: %w", err)
	}

	mgr, err := snapshot.NewManager(snapshot.Config{
		Dir:         cfg.Backup.Dir,
		MaxOverlaps: cfg.Backup.MaxOverlaps,
		Logger:      log,
	}, store.List)
	if err != nil {
		return fmt.Errorf("init snapshot manager: %w", err)
	}
	mgr.SubscribeAll(metrics.Observe)
	if cfg.Backup.RetentionCount > 0 {
		keep := cfg.Backup.RetentionCount
		mgr.Subscribe(snapshot.EventCompleted, func(snapshot.Event) {
			removed, err := snapshot.Prune(cfg.Backup.Dir, keep)
			if err != nil {
				log.Warn("snapshot retention failed", "error", err)
				return
			}
			if len(removed) > 0 {
				log.Info("old snapshots removed", "count", len(removed), "keep", keep)
			}
		})
	}

	hcfg := handler.Config{
		Scheduler: mgr,
		Reporter: snapshot.NewReporter(cfg.Backup.Dir,
			snapshot.WithReportLogger(log),
			snapshot.WithConcurrency(cfg.Backup.ReportConcurrency)),
		Observer:        metrics,
		BackupDir:       cfg.Backup.Dir,
		DefaultInterval: cfg.Backup.Interval,
		Logger:          log,
	}

	var events *journal.Journal
	if cfg.Journal.Enabled {
		events, err = journal.Open(journal.Config{
			Dir:        cfg.Journal.Dir,
			MaxEntries: cfg.Journal.MaxEntries,
		}, log)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		if err := events.RegisterMetrics(metrics.Registerer()); err != nil {
			_ = events.Close()
			return fmt.Errorf("register journal metrics: %w", err)
		}
		mgr.SubscribeAll(events.Record)
		hcfg.History = events
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:    handler.New(hcfg),
		Metrics:    metrics.Handler(),
		Requests:   metrics,
		AdminToken: cfg.Security.AdminToken,
		RateLimit:  cfg.Admin.RateLimit,
		RateBurst:  cfg.Admin.RateBurst,
		Logger:     log,
	})
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router)

	sh := shutdown.NewHandler(shutdownTimeout)

	// Hooks run in reverse order: HTTP first, then the scheduler, then the journal.
	if events != nil {
		sh.OnShutdown(func(context.Context) error {
			log.Info("closing event journal")
			return events.Close()
		})
	}
	sh.OnShutdown(func(context.Context) error {
		if mgr.IsRunning() {
			log.Info("stopping snapshot scheduler")
			mgr.Stop()
		}
		return nil
	})
	sh.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(ctx)
	})

	go func() {
		select {
		case err := <-mgr.Fatal():
			sh.Escalate(err)
		case <-sh.Done():
		}
	}()

	if *configFile != "" {
		stopWatch, err := watchLogLevel(*configFile, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			defer stopWatch()
		}
	}

	if cfg.Backup.Enabled {
		if err := mgr.Start(cfg.Backup.Interval); err != nil {
			return fmt.Errorf("start snapshot scheduler: %w", err)
		}
	}

	var keypair *tlsroots.Keypair
	if cfg.Server.HTTP.TLSCertFile != "" {
		keypair, err = tlsroots.NewKeypair(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(log))
		if err != nil {
			return fmt.Errorf("load tls keypair: %w", err)
		}
		watchCtx, stopCertWatch := context.WithCancel(context.Background())
		defer stopCertWatch()
		go func() {
			if err := keypair.Run(watchCtx); err != nil {
				log.Warn("certificate watcher stopped", "error", err)
			}
		}()
	}

	go func() {
		log.Info("HTTP server listening", "addr", cfg.Server.HTTP.Addr, "tls", keypair != nil)

		var err error
		if keypair != nil {
			err = httpServer.ListenAndServeTLS(keypair.ServerConfig())
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			sh.Escalate(fmt.Errorf("http server: %w", err))
		}
	}()

	log.Info("server started, press Ctrl+C to stop")
	if err := sh.Wait(); err != nil {
		log.Error("shutdown error", "error", err, "code", domain.GetErrorCode(err))
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

// loadConfig loads defaults, then the config file, then the environment.
func loadConfig(configFile string) (*config.ServerConfig, error) {
	cfg := config.Default()

	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// watchLogLevel reapplies log.level whenever the config file changes.
// Other keys need a restart.
func watchLogLevel(configFile string, log *slog.Logger) (func(), error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(configFile); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(path string) {
		cfg, err := loadConfig(path)
		if err != nil {
			log.Warn("config reload rejected", "file", path, "error", err)
			return
		}
		if cfg.Log.Level == logger.Level() {
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			log.Warn("log level not applied", "level", cfg.Log.Level, "error", err)
			return
		}
		log.Info("log level changed", "level", cfg.Log.Level)
	})
	w.StartAsync()

	return func() { _ = w.Stop() }, nil
}
