package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	tomb "gopkg.in/tomb.v2"

	"gungnir/internal/bots"
	"gungnir/internal/config"
	"gungnir/internal/dashboard"
	"gungnir/internal/engine"
	"gungnir/internal/events"
	"gungnir/internal/feed"
)

func main() {
	var (
		configPath      string
		listenAddr      string
		nBots           int
		botInterval     time.Duration
		publishInterval time.Duration
		eventLog        string
		showDashboard   bool
		dashboardSymbol string
	)

	root := &cobra.Command{
		Use:   "gungnir",
		Short: "Continuous-auction CLOB matching engine simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// Flags override the file.
			flags := cmd.Flags()
			if flags.Changed("listen") {
				cfg.ListenAddr = listenAddr
			}
			if flags.Changed("bots") {
				cfg.Bots = nBots
			}
			if flags.Changed("bot-interval") {
				cfg.BotInterval = botInterval
			}
			if flags.Changed("publish-interval") {
				cfg.PublishInterval = publishInterval
			}
			if flags.Changed("event-log") {
				cfg.EventLog = eventLog
			}
			if flags.Changed("dashboard") {
				cfg.Dashboard = showDashboard
			}
			if flags.Changed("symbol") {
				cfg.DashboardSymbol = dashboardSymbol
			}
			return run(cfg)
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to config file")
	root.Flags().StringVar(&listenAddr, "listen", "0.0.0.0:9001", "feed listen address")
	root.Flags().IntVar(&nBots, "bots", 8, "number of trader bots")
	root.Flags().DurationVar(&botInterval, "bot-interval", 2*time.Millisecond, "delay between bot actions")
	root.Flags().DurationVar(&publishInterval, "publish-interval", time.Second, "snapshot publish interval")
	root.Flags().StringVar(&eventLog, "event-log", "events.log", "event log dump path")
	root.Flags().BoolVar(&showDashboard, "dashboard", false, "render the terminal dashboard")
	root.Flags().StringVar(&dashboardSymbol, "symbol", "NVDA", "dashboard symbol")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("exiting")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	// Wire the sink into the engine, then hang the collaborators off it.
	sink := events.NewFileSink(cfg.EventLog)
	eng := engine.New(sink)

	t, ctx := tomb.WithContext(ctx)

	bots.Start(t, eng, cfg.Bots, cfg.BotInterval)

	srv := feed.New(cfg.ListenAddr, cfg.PublishInterval, cfg.TradeDepth, eng)
	t.Go(func() error {
		return srv.Run(ctx)
	})

	if cfg.Dashboard {
		dash := dashboard.New(eng, os.Stdout, cfg.DashboardSymbol, cfg.DashboardDepth, cfg.RenderInterval)
		t.Go(func() error {
			return dash.Run(t)
		})
	}

	log.Info().
		Str("listen", cfg.ListenAddr).
		Int("bots", cfg.Bots).
		Msg("gungnir running")

	<-ctx.Done()
	t.Kill(nil)
	err := t.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	if dumpErr := sink.Dump(); dumpErr != nil {
		log.Error().Err(dumpErr).Str("path", cfg.EventLog).Msg("unable to dump event log")
	}
	return err
}
