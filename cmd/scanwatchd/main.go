package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/rfields/scanwatch/constants"
	"github.com/rfields/scanwatch/internal/common"
	"github.com/rfields/scanwatch/internal/extract"
	"github.com/rfields/scanwatch/internal/llm/ollama"
	"github.com/rfields/scanwatch/internal/logging"
	"github.com/rfields/scanwatch/internal/rename"
	"github.com/rfields/scanwatch/internal/resilience"
	"github.com/rfields/scanwatch/internal/startup"
	"github.com/rfields/scanwatch/internal/watch"
)

const watcherDebounce = 500 * time.Millisecond

func run(ctx context.Context, cmd *cli.Command) error {
	cfg := common.NewDefaultConfig()
	if err := common.Load(cmd.String("config"), cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logging.New(cfg.App.LogLevel, cfg.App.LogFormat)
	log.Info("starting scanwatchd",
		"watch_path", cfg.Watch.Path,
		"model", cfg.Model.Name,
		"workers", cfg.Watch.Workers,
	)

	allowed := make(map[string]struct{}, len(cfg.Watch.Extensions))
	for _, ext := range cfg.Watch.Extensions {
		allowed[constants.NormalizeExt(ext)] = struct{}{}
	}

	detector := watch.NewStabilityDetector(cfg.Watch.StabilityThreshold, cfg.Watch.StabilityTimeout.Std())
	extractor := extract.New(extract.Config{
		PdftoppmPath: cfg.Extract.PdftoppmPath,
		DPI:          cfg.Extract.DPI,
		MaxWidth:     cfg.Extract.MaxWidth,
		JPEGQuality:  cfg.Extract.JPEGQuality,
	}, log)
	client := ollama.New(ollama.Config{
		BaseURL: cfg.Model.BaseURL,
		Model:   cfg.Model.Name,
		Timeout: cfg.Model.Timeout.Std(),
	}, log)
	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.Model.MaxAttempts,
		RetryInitialBackoff: cfg.Model.InitialBackoff.Std(),
		RetryMaxBackoff:     cfg.Model.MaxBackoff.Std(),
		BreakerEnabled:      cfg.Model.BreakerEnabled,
	})

	loop := watch.NewLoop(
		watch.LoopConfig{
			PollInterval: cfg.Watch.PollInterval.Std(),
			Workers:      cfg.Watch.Workers,
		},
		detector,
		extractor,
		client,
		rename.NewBuilder(cfg.Rename.MaxNameLength),
		rename.NewExecutor(cfg.Rename.MaxCollisionAttempts, log),
		exec,
		ollama.ClassifyError,
		log,
	)

	events, watchErrs, err := watch.StartWatcher(ctx, watch.WatcherConfig{
		Root:        cfg.Watch.Path,
		AllowedExts: allowed,
		Debounce:    watcherDebounce,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	go func() {
		for werr := range watchErrs {
			log.Error("watcher error", "error", werr)
		}
	}()

	var backlog []string
	if cfg.Watch.StartupScan && !cmd.Bool("no-scan") {
		backlog, err = selectBacklog(cmd, cfg.Watch.Path, log)
		if err != nil {
			return err
		}
	}

	// One stream for the loop: the accepted backlog first, then live
	// watcher events until shutdown.
	paths := bridge(ctx, backlog, events)

	runErr := loop.Run(ctx, paths)

	// Free the model's VRAM on the way out. The run context is already
	// cancelled here, so use a short independent one.
	unloadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Unload(unloadCtx); err != nil {
		log.Warn("model unload failed", "error", err)
	}

	log.Info("scanwatchd stopped")
	return runErr
}

// bridge merges the startup backlog and live watcher events into the
// single stream the loop consumes. Forwarding stops on ctx cancellation
// even when the consumer has already gone away.
func bridge(ctx context.Context, backlog []string, events <-chan string) <-chan string {
	paths := make(chan string, len(backlog)+16)
	go func() {
		defer close(paths)
		for _, p := range backlog {
			select {
			case paths <- p:
			case <-ctx.Done():
				return
			}
		}
		for {
			select {
			case p, ok := <-events:
				if !ok {
					return
				}
				select {
				case paths <- p:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return paths
}

// selectBacklog lists unprocessed files already present in the watch
// directory and asks the operator which to take. --yes takes everything
// without prompting.
func selectBacklog(cmd *cli.Command, root string, log *slog.Logger) ([]string, error) {
	candidates, err := startup.Scan(root)
	if err != nil {
		return nil, fmt.Errorf("startup scan failed: %w", err)
	}
	if len(candidates) == 0 {
		log.Info("startup scan found no unprocessed files")
		return nil, nil
	}
	if cmd.Bool("yes") {
		log.Info("startup scan queued all unprocessed files", "count", len(candidates))
		return startup.SelectAll(candidates), nil
	}

	selected, err := startup.Prompt(os.Stdout, os.Stdin, candidates)
	if err != nil {
		return nil, fmt.Errorf("startup selection failed: %w", err)
	}
	log.Info("startup scan selection complete", "found", len(candidates), "queued", len(selected))
	return selected, nil
}

func main() {
	cmd := &cli.Command{
		Name:   "scanwatchd",
		Usage:  "Watch a scanner drop folder, classify new files with a local vision model, and rename them in place",
		Action: run,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "config/config.yaml",
				Sources: cli.EnvVars("SCANWATCH_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Process every unprocessed file found at startup without prompting",
			},
			&cli.BoolFlag{
				Name:  "no-scan",
				Usage: "Skip the startup sweep of files already in the watch directory",
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "scanwatchd:", err)
		os.Exit(1)
	}
}
