package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trahulprabhu38/prometheus-prod/pkg/api"
	"github.com/trahulprabhu38/prometheus-prod/pkg/config"
	"github.com/trahulprabhu38/prometheus-prod/pkg/httpmw"
	"github.com/trahulprabhu38/prometheus-prod/pkg/observability"
	"github.com/trahulprabhu38/prometheus-prod/pkg/scenario"
	"github.com/trahulprabhu38/prometheus-prod/pkg/scheduler"
	"github.com/trahulprabhu38/prometheus-prod/pkg/severity"
	"github.com/trahulprabhu38/prometheus-prod/pkg/store"
	"github.com/trahulprabhu38/prometheus-prod/pkg/version"
)

const (
	exitOK           = 0
	exitRuntimeError = 1
	exitUsage        = 64
	exitConfigError  = 65
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitUsage
	}

	switch args[0] {
	case "run":
		return commandRun(args[1:])
	case "validate-config":
		return commandValidate(args[1:])
	case "simulate":
		return commandSimulate(args[1:])
	case "version":
		fmt.Println(version.Version)
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		usage()
		return exitUsage
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: log-simulator <command> [options]
Commands:
  run                Start the continuous log simulator daemon
  validate-config    Validate the configuration file
  simulate           Emit a one-shot batch of scenario events to stdout
  version            Print build version
`)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func commandValidate(args []string) int {
	return commandValidateWithWriters(args, os.Stdout, os.Stderr)
}

func commandValidateWithWriters(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate-config", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", config.DefaultConfigPath, "path to configuration file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "configuration invalid: %v\n", err)
		return exitConfigError
	}
	for _, warning := range cfg.Warnings() {
		fmt.Fprintf(stderr, "warning: %s\n", warning)
	}

	fmt.Fprintf(stdout, "configuration at %s is valid\n", *configPath)
	return exitOK
}

func commandSimulate(args []string) int {
	return commandSimulateWithWriters(args, os.Stdout, os.Stderr)
}

func commandSimulateWithWriters(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to configuration file (optional)")
	count := fs.Int("count", 5, "number of events to emit")
	category := fs.String("category", "", "restrict emission to one scenario category")
	seed := fs.Int64("seed", 0, "seed for deterministic output (0 uses the current time)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitConfigError
	}

	classifier := newClassifier(cfg)
	catalog, err := scenario.DefaultRegistry(classifier)
	if err != nil {
		fmt.Fprintf(stderr, "failed to build scenario catalog: %v\n", err)
		return exitRuntimeError
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	sink := observability.NewJSONSink(stdout)
	ctx := context.Background()
	for i := 0; i < *count; i++ {
		var event observability.Event
		if *category != "" {
			s, ok := catalog.Get(*category)
			if !ok {
				fmt.Fprintf(stderr, "unknown scenario category %q (known: %v)\n", *category, catalog.Names())
				return exitUsage
			}
			event = s.Generate(rng)
		} else {
			event = catalog.Generate(rng)
		}
		if err := sink.Emit(ctx, event); err != nil {
			fmt.Fprintf(stderr, "failed to emit event: %v\n", err)
			return exitRuntimeError
		}
	}
	return exitOK
}

func commandRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "path to configuration file (optional)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return exitConfigError
	}
	for _, warning := range cfg.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := observability.NewCollector()
	classifier := newClassifier(cfg)

	sink, closeSinks, err := buildSinkChain(ctx, cfg, collector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to configure sinks: %v\n", err)
		return exitConfigError
	}
	defer closeSinks()

	catalog, err := scenario.DefaultRegistry(classifier)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build scenario catalog: %v\n", err)
		return exitRuntimeError
	}

	sched, err := scheduler.New(catalog, sink,
		scheduler.WithSeed(cfg.Seed),
		scheduler.WithFastInterval(cfg.FastInterval()),
		scheduler.WithHealthInterval(cfg.HealthInterval()),
		scheduler.WithBurstInterval(cfg.BurstMinInterval(), cfg.BurstMaxInterval()),
		scheduler.WithBurstStagger(cfg.BurstStagger()),
		scheduler.WithScenariosPerTick(cfg.Scheduler.MinPerTick, cfg.Scheduler.MaxPerTick),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build scheduler: %v\n", err)
		return exitConfigError
	}

	// A disabled store leaves the persistence routes answering 503 while the
	// rest of the surface keeps serving.
	var st store.Store
	if cfg.StoreEnabled() {
		st = store.NewMemory(cfg.Store.Capacity)
	} else {
		_ = sink.Emit(ctx, observability.Event{
			Timestamp: time.Now(),
			Level:     observability.LevelWarn,
			Message:   "log store disabled, persistence routes degraded",
			Type:      "health",
		})
	}

	serverOpts := []api.ServerOption{}
	if cfg.Seed != 0 {
		serverOpts = append(serverOpts, api.WithSeed(cfg.Seed))
	}
	apiServer, err := api.New(st, sink, classifier, serverOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build api server: %v\n", err)
		return exitRuntimeError
	}

	mw, err := httpmw.New(sink, classifier,
		httpmw.WithCollector(collector),
		httpmw.WithSlowThreshold(cfg.GeneralThreshold()),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build middleware: %v\n", err)
		return exitRuntimeError
	}

	root := http.NewServeMux()
	root.Handle("/", mw.Wrap(apiServer.Routes()))
	if cfg.MetricsEnabled() {
		root.Handle(cfg.Metrics.Path, collector.Handler())
	}

	httpServer := &http.Server{
		Addr:     cfg.Listen,
		Handler:  root,
		ErrorLog: log.New(httpmw.NewAccessLogForwarder(sink), "", 0),
	}

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		_ = sched.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	fmt.Fprintf(os.Stderr, "log-simulator %s listening on %s\n", version.Version, cfg.Listen)

	exitCode := exitOK
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = sink.Emit(context.Background(), observability.Event{
				Timestamp: time.Now(),
				Level:     observability.LevelError,
				Message:   fmt.Sprintf("http server failed: %v", err),
				Type:      "health",
			})
			exitCode = exitRuntimeError
		}
		stop()
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}

	<-schedDone
	return exitCode
}

func newClassifier(cfg *config.Config) *severity.Classifier {
	return severity.New(
		severity.WithGeneralThreshold(cfg.GeneralThreshold()),
		severity.WithCategoryThreshold(severity.CategoryDatabase, cfg.DatabaseThreshold()),
		severity.WithCategoryThreshold(severity.CategoryExternal, cfg.ExternalThreshold()),
	)
}

// buildSinkChain assembles the configured sinks behind the asynchronous
// queue and the metrics instrumentation, returning the composed sink and a
// cleanup function that drains and closes everything.
func buildSinkChain(ctx context.Context, cfg *config.Config, collector *observability.Collector) (observability.Sink, func(), error) {
	var (
		sinks   []observability.Sink
		closers []io.Closer
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}

	for i, sc := range cfg.Sinks {
		switch sc.Type {
		case "console":
			sinks = append(sinks, observability.NewJSONSink(os.Stdout))
		case "console-dev":
			zs, err := observability.NewDevelopmentZapSink()
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("sinks[%d]: %w", i, err)
			}
			sinks = append(sinks, zs)
			closers = append(closers, zs)
		case "file":
			fsink, err := observability.NewFileSink(sc.Path, sc.Compress)
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("sinks[%d]: %w", i, err)
			}
			sinks = append(sinks, fsink)
			closers = append(closers, fsink)
		case "otlp":
			osink, err := observability.NewOTLPSink(ctx, observability.OTLPConfig{
				Endpoint: sc.Endpoint,
				Insecure: sc.Insecure,
			})
			if err != nil {
				closeAll()
				return nil, nil, fmt.Errorf("sinks[%d]: %w", i, err)
			}
			sinks = append(sinks, osink)
			closers = append(closers, osink)
		default:
			closeAll()
			return nil, nil, fmt.Errorf("sinks[%d]: unknown sink type %q", i, sc.Type)
		}
	}

	async, err := observability.NewAsyncSink(
		observability.NewMultiSink(sinks...),
		cfg.Queue.Capacity,
		observability.WithAsyncDropHook(collector.RecordDrop),
	)
	if err != nil {
		closeAll()
		return nil, nil, err
	}

	cleanup := func() {
		_ = async.Close()
		closeAll()
	}
	return observability.Instrument(async, collector), cleanup, nil
}
