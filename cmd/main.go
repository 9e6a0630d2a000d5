package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/aruvell/marksub/internal/config"
	"github.com/aruvell/marksub/internal/httpapi"
	"github.com/aruvell/marksub/internal/jobs"
	"github.com/aruvell/marksub/internal/library"
	"github.com/aruvell/marksub/internal/llm"
	"github.com/aruvell/marksub/internal/persistence"
	"github.com/aruvell/marksub/internal/service"
	"github.com/aruvell/marksub/pkg/file"
	"github.com/aruvell/marksub/pkg/log"
)

const (
	queueWorkers    = 1
	shutdownTimeout = 10 * time.Second
)

func main() {
	_ = godotenv.Load()

	subtitlePath := flag.String("file", "", "translate a single subtitle file and exit")
	outputPath := flag.String("out", "", "output path for -file mode (default: input path with language suffix)")
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log.InitLogger(log.ParseLevel(cfg.System.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *subtitlePath != "" {
		if err := translateFile(ctx, cfg, *subtitlePath, *outputPath); err != nil {
			service.NewDefaultErrorHandler().Handle(err)
			os.Exit(1)
		}
		return
	}

	if err := runDaemon(ctx, cfg); err != nil {
		log.Fatal("Daemon exited: %v", err)
	}
}

// loadConfig reads environment configuration, overlaid with the runtime
// settings file when one exists.
func loadConfig() (*config.Config, error) {
	settingsPath := config.RuntimeSettingsFilePath()
	if settings, err := config.LoadRuntimeSettingsFile(settingsPath); err == nil {
		return config.NewFromEnv(config.WithRuntimeSettings(settings))
	}
	return config.NewFromEnv()
}

// translateFile runs one subtitle through the pipeline and prints a
// report. One-shot runs have no checkpoint store; a fresh run ID keeps
// them from colliding with daemon jobs.
func translateFile(ctx context.Context, cfg *config.Config, subtitlePath, outputPath string) error {
	client, err := llm.NewClient(&llm.Config{
		APIKey:      cfg.LLM.APIKey,
		APIURL:      cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		SiteURL:     cfg.LLM.SiteURL,
		AppName:     cfg.LLM.AppName,
	})
	if err != nil {
		return err
	}

	if outputPath == "" {
		targetBase, _ := cfg.Translate.TargetLanguage.Base()
		outputPath = file.WithLangSuffix(subtitlePath, targetBase.String())
	}

	ft, err := service.NewFileTranslator(cfg.TranslatorSettings(), client)
	if err != nil {
		return err
	}

	result, err := ft.Translate(ctx, uuid.NewString(), subtitlePath, outputPath)
	if err != nil {
		return err
	}
	service.PrintRunReport(result)
	return nil
}

func runDaemon(ctx context.Context, cfg *config.Config) error {
	store, err := persistence.NewSQLiteStore(cfg.DBPath())
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("Failed to close store: %v", err)
		}
	}()

	queue := jobs.NewQueue(queueWorkers, store)
	scanner := library.NewScanner(cfg.Library.Dirs, cfg.Translate.TargetLanguage)
	hub := httpapi.NewEventHub()
	cronEngine := cron.New()
	svc := service.NewService(cfg, scanner, queue, store, cronEngine, hub)
	defer svc.Stop()

	serverOpts := []httpapi.Option{
		httpapi.WithScanTrigger(svc),
		httpapi.WithJobDataStore(store),
		httpapi.WithEventHub(hub),
		httpapi.WithRuntimeSettingsApplier(svc.ApplyRuntimeSettings),
	}
	settingsPath := config.RuntimeSettingsFilePath()
	if settingsStore, err := config.NewRuntimeSettingsStore(settingsPath, cfg.RuntimeSettings()); err == nil {
		serverOpts = append(serverOpts, httpapi.WithRuntimeSettingsStore(settingsStore))
	} else {
		log.Warn("Runtime settings endpoints disabled: %v", err)
	}

	httpSrv := httpapi.NewServer(scanner, queue, serverOpts...)
	return runWithComponents(ctx, cfg, svc, cronEngine, httpSrv)
}

type scanScheduler interface {
	Schedule(ctx context.Context) error
}

type cronRunner interface {
	Start()
	Stop() context.Context
}

type apiServer interface {
	ListenAndServe(addr string) error
	Shutdown(ctx context.Context) error
}

// runWithComponents wires the scheduler, the cron engine and the HTTP
// server together and blocks until the context is cancelled or the
// server fails.
func runWithComponents(ctx context.Context, cfg *config.Config, scheduler scanScheduler, cronEngine cronRunner, httpSrv apiServer) error {
	if err := scheduler.Schedule(ctx); err != nil {
		return err
	}

	cronEngine.Start()
	defer cronEngine.Stop()

	serveErr := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe(cfg.HTTP.Addr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
	}()
	log.Info("HTTP API listening on %s", cfg.HTTP.Addr)

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-serveErr
}
