package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/djakobczak/basketwise/config"
	"github.com/djakobczak/basketwise/optimizer"
	"github.com/djakobczak/basketwise/source"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func main() {
	defaults, err := defaultsFromEnv(config.DefaultConfig())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: ", err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:  "basketwise",
		Usage: "Find cheap shopping baskets across skapiec.pl sellers",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			searchCmd(defaults),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error: ", err)
		os.Exit(1)
	}
}

// defaultsFromEnv overlays environment overrides on the built-in defaults;
// flags still win over both.
func defaultsFromEnv(cfg *config.Config) (*config.Config, error) {
	if value, ok := config.EnvString("BASKETWISE_BASE_URL"); ok {
		cfg.BaseURL = value
	}
	if value, ok, err := config.EnvInt("BASKETWISE_MAX_OFFERS"); err != nil {
		return nil, err
	} else if ok {
		cfg.MaxOffers = value
	}
	if value, ok, err := config.EnvInt("BASKETWISE_MAX_STORES"); err != nil {
		return nil, err
	} else if ok {
		cfg.MaxStores = value
	}
	if value, ok, err := config.EnvInt("BASKETWISE_SETS"); err != nil {
		return nil, err
	} else if ok {
		cfg.ReturnedSets = value
	}
	if value, ok := config.EnvString("BASKETWISE_METRICS_ADDR"); ok {
		cfg.MetricsAddr = value
	}
	if value, ok, err := config.EnvBool("BASKETWISE_VERBOSE"); err != nil {
		return nil, err
	} else if ok {
		cfg.Verbose = value
	}
	return cfg, nil
}

func searchCmd(defaults *config.Config) *cli.Command {
	return &cli.Command{
		Name:    "search",
		Usage:   "Search offers for up to five product lines and rank baskets",
		Aliases: []string{"s"},
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "product",
				Aliases:  []string{"p"},
				Required: true,
				Usage:    "product line as name[:qty[:min[:max[:rating[:nrates]]]]] (repeatable, max 5)",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Value: defaults.BaseURL,
				Usage: "price-comparison site to scrape",
			},
			&cli.IntFlag{
				Name:  "max-offers",
				Value: defaults.MaxOffers,
				Usage: "candidate listings fetched concurrently per line",
			},
			&cli.IntFlag{
				Name:  "max-stores",
				Value: defaults.MaxStores,
				Usage: "offers taken per listing page",
			},
			&cli.IntFlag{
				Name:  "sets",
				Value: defaults.ReturnedSets,
				Usage: "ranked baskets to return",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: defaults.Timeout,
				Usage: "per-request timeout",
			},
			&cli.BoolFlag{
				Name:  "consolidate",
				Usage: "merge store-consolidation baskets into the ranking",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Value: defaults.MetricsAddr,
				Usage: "Prometheus metrics listen address (e.g. :9090)",
			},
		},
		Action: func(cctx *cli.Context) error {
			cfg := *defaults
			cfg.BaseURL = cctx.String("base-url")
			cfg.MaxOffers = cctx.Int("max-offers")
			cfg.MaxStores = cctx.Int("max-stores")
			cfg.ReturnedSets = cctx.Int("sets")
			cfg.Timeout = cctx.Duration("timeout")
			cfg.MetricsAddr = cctx.String("metrics-addr")
			if cctx.Bool("verbose") {
				cfg.Verbose = true
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			slog.SetDefault(newLogger(cfg.Verbose))
			return runSearch(cctx.Context, &cfg, cctx.StringSlice("product"), cctx.Bool("consolidate"))
		},
	}
}

func runSearch(ctx context.Context, cfg *config.Config, productSpecs []string, consolidate bool) error {
	src, err := source.NewSkapiec(cfg)
	if err != nil {
		return fmt.Errorf("initialising source: %w", err)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(src.Metrics().Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			metricsServer.Shutdown(shutdownCtx)
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	coordinator := optimizer.NewCoordinator(cfg, src)
	for _, spec := range productSpecs {
		req, err := parseProductSpec(spec, cfg)
		if err != nil {
			return err
		}
		if _, err := coordinator.AddRequirement(req.Name, req.Quantity,
			req.MinPrice, req.MaxPrice, req.MinRating, req.MinRatingCount); err != nil {
			return fmt.Errorf("add %q: %w", req.Name, err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	coordinator.Search(ctx)

	var (
		baskets  []*basketResult
		messages []string
	)
	if consolidate {
		ranked, msgs := coordinator.FindBestConsolidated()
		baskets, messages = describeBaskets(ranked, coordinator.Requirements()), msgs
	} else {
		ranked, msgs := coordinator.FindBest()
		baskets, messages = describeBaskets(ranked, coordinator.Requirements()), msgs
	}

	slog.Info("search finished",
		slog.Int("lines", len(coordinator.Requirements())),
		slog.Int("baskets", len(baskets)),
		slog.Duration("elapsed", time.Since(start)),
	)
	printResults(os.Stdout, baskets, messages)
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
