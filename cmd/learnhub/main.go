package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"

	"learnhub/internal/app"
	"learnhub/internal/config"
	"learnhub/internal/metrics"
	"learnhub/internal/util"
	"learnhub/pkg/kv"
)

func main() {
	configPath := flag.String("config", config.ConfigPath, "path to config.yaml")
	stats := flag.Bool("stats", false, "print request and cache counters to stderr")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		exitErr(fmt.Errorf("failed to load config: %w", err))
	}
	logger := util.InitLogger(cfg.LogLevel, os.Stderr)

	store, closeStore := openStore(cfg)
	defer closeStore()

	reg := prometheus.NewRegistry()
	appCore, err := app.New(app.Config{
		BaseURL: cfg.APIURL,
		Store:   store,
		Logger:  logger,
		Metrics: metrics.NewCollector(reg),
	})
	if err != nil {
		exitErr(fmt.Errorf("failed to init app: %w", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = util.WithRequestID(ctx, "")

	out, err := run(ctx, appCore, flag.Args())
	if *stats {
		printStats(reg, logger)
	}
	if err != nil {
		stop()
		closeStore()
		exitErr(err)
	}
	if out != nil {
		if err := writeJSON(os.Stdout, out); err != nil {
			exitErr(err)
		}
	}
}

func openStore(cfg config.FileConfig) (kv.Store, func()) {
	switch cfg.Store {
	case config.StoreRedis:
		s := kv.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisPrefix)
		return s, func() { _ = s.Close() }
	case config.StoreMemory:
		return kv.NewMemoryStore(), func() {}
	default:
		return kv.NewFileStore(cfg.StatePath), func() {}
	}
}

func printStats(reg *prometheus.Registry, logger *slog.Logger) {
	summary, err := metrics.Summary(reg)
	if err != nil {
		logger.Warn("failed to gather metrics", "err", err)
		return
	}
	fmt.Fprint(os.Stderr, summary)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s [-config path] [-stats] <command> [args]

commands:
  login -username u -password p
  register -name n -username u -password p -confirm p [-role student|instructor]
  logout
  whoami
  profile
  courses [-q query]
  course <id>
  enroll <id>
  enrolled
  my-courses
  create -title t -description d -content c
  update <id> -title t -description d -content c
  delete <id>
  interests [text]
  recommend [-refresh]
  home [-refresh]
`, os.Args[0])
}

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
