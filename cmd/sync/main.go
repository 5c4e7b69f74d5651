package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jjpenad/cfma-acgi-integration/pkg/acgi"
	"github.com/jjpenad/cfma-acgi-integration/pkg/cache"
	"github.com/jjpenad/cfma-acgi-integration/pkg/common"
	"github.com/jjpenad/cfma-acgi-integration/pkg/config"
	"github.com/jjpenad/cfma-acgi-integration/pkg/hubspot"
	"github.com/jjpenad/cfma-acgi-integration/pkg/logger"
	"github.com/jjpenad/cfma-acgi-integration/pkg/mapping"
	"github.com/jjpenad/cfma-acgi-integration/pkg/scheduler"
	"github.com/jjpenad/cfma-acgi-integration/pkg/store"
	"github.com/jjpenad/cfma-acgi-integration/pkg/sync"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to optional JSON configuration file")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	once := flag.Bool("once", false, "Run one sync pass and exit instead of scheduling")
	help := flag.Bool("help", false, "Display help information")
	flag.Parse()

	if *help {
		displayUsage()
		os.Exit(0)
	}

	// Create logger
	log := logger.New()

	// Load configuration
	log.Info("Loading configuration...")
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *logLevel != "" {
		log.SetLevel(*logLevel)
	} else {
		log.SetLevel(cfg.LogLevel)
	}

	// Partial upsert sequences are not safely resumable, so in-flight
	// pipelines always run to completion; shutdown stops new ticks and
	// drains rather than canceling.
	ctx := context.Background()

	// Connect the record store
	recordStore, err := store.Connect(ctx, cfg.Store.URI, cfg.Store.Database, log)
	if err != nil {
		log.Fatalf("Failed to connect record store: %v", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		if err := recordStore.Close(closeCtx); err != nil {
			log.Warnf("Failed to close record store: %v", err)
		}
	}()

	sched := buildScheduler(cfg, recordStore, log)

	if *once {
		summary, err := sched.RunNow(ctx)
		if err != nil {
			log.Fatalf("Sync run failed: %v", err)
		}
		log.Infof("Run %s completed in %.2f seconds with %d errors",
			summary.RunID, summary.Duration.Seconds(), summary.TotalErrors())
		if summary.TotalErrors() > 0 {
			os.Exit(1)
		}
		return
	}

	log.Info("Starting sync scheduler")
	sched.Start(ctx)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan
	log.Info("Received interrupt signal, draining in-flight run...")
	go func() {
		<-signalChan
		log.Warn("Second interrupt, exiting immediately")
		os.Exit(1)
	}()
	sched.Stop()
	log.Info("Scheduler stopped")
}

// buildScheduler wires one pipeline per object type. Object types sharing an
// API key share a destination client, so the per-credential rate budget is
// enforced across them.
func buildScheduler(cfg *config.Config, recordStore *store.Store, log *logger.Logger) *scheduler.Scheduler {
	source := acgi.NewClient(cfg.ACGI.BaseURL, acgi.Credentials{
		UserID:      cfg.ACGI.Username,
		Password:    cfg.ACGI.Password,
		Environment: cfg.ACGI.EnvironmentSegment(),
	}, time.Duration(cfg.ACGI.TimeoutSecs)*time.Second, log)

	mappings := mapping.NewStore(recordStore, log)
	eventCache := cache.New(cache.DefaultTTL)

	destinations := make(map[string]*hubspot.Client)
	syncers := make(map[common.ObjectType]*sync.Syncer, len(common.PipelineObjectTypes))
	for _, objectType := range common.PipelineObjectTypes {
		key := cfg.HubSpot.KeyFor(objectType)
		destination, ok := destinations[key]
		if !ok {
			destination = hubspot.NewClient(cfg.HubSpot.BaseURL, key,
				time.Duration(cfg.HubSpot.TimeoutSecs)*time.Second,
				cfg.HubSpot.RequestsPerSecond, log)
			destinations[key] = destination
		}

		syncers[objectType] = sync.New(sync.Options{
			Source:          source,
			Destination:     destination,
			Mappings:        mappings,
			Settings:        recordStore,
			ResolveType:     cfg.HubSpot.CustomObjectTypeID,
			EventCache:      eventCache,
			Retry:           cfg.Sync.Retry,
			InterRequestGap: time.Duration(cfg.Sync.InterRequestDelayMs) * time.Millisecond,
			Log:             log,
		})
	}

	return scheduler.New(recordStore, source, syncers, log)
}

// displayUsage displays usage information
func displayUsage() {
	fmt.Println("\nACGI to HubSpot Sync Service")
	fmt.Println("============================")
	fmt.Println("Usage: sync [options]")
	fmt.Println("Options:")
	fmt.Println("  -config string")
	fmt.Println("        Path to optional JSON configuration file")
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: debug, info, warn, error")
	fmt.Println("  -once")
	fmt.Println("        Run one sync pass and exit")
	fmt.Println("  -help")
	fmt.Println("        Display this help information")
	fmt.Println("Examples:")
	fmt.Println("  sync")
	fmt.Println("  sync -config=config.json -log-level=debug -once")
}
