package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	appcontainer "cryptotracker/internal/application/container"
	"cryptotracker/internal/application/port"
	"cryptotracker/internal/application/usecase/tracker"
	"cryptotracker/internal/infrastructure/coingecko"
	"cryptotracker/internal/infrastructure/config"
	infracontainer "cryptotracker/internal/infrastructure/container"
	"cryptotracker/internal/infrastructure/feed"
	"cryptotracker/internal/infrastructure/logger"
	"cryptotracker/internal/infrastructure/notify"
	"cryptotracker/internal/infrastructure/poller"
	"cryptotracker/internal/infrastructure/websocket"
	"cryptotracker/internal/interfaces/console"
	"cryptotracker/internal/interfaces/httpapi"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	logger.Setup("info")

	configPath := flag.String("config", "configs/config.toml", "path to config.toml or config.yaml")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("load .env failed")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := infracontainer.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init storage failed")
	}
	defer infra.Close()

	app := appcontainer.New(ctx, infra.Store(), cfg.App.MaxAlerts)
	settings := app.SettingsService()

	// notifications: console + optional redis, gated by the user permission
	notifiers := []port.Notifier{infra.Notifier()}
	if cfg.Notify.Console {
		notifiers = append(notifiers, console.NewNotifier())
	}
	notifier := notify.NewGate(notify.NewMulti(notifiers...), settings.NotificationsEnabled)

	evaluator := app.AlertEvaluator(notifier)
	detach := evaluator.Attach(app.PriceTable())
	defer evaluator.Wait()
	defer detach()

	// feeds (infrastructure -> application ports)
	adapter := feed.NewAdapter(cfg.App.Currency)
	format, err := feed.StreamFormat(cfg.Stream.Provider)
	if err != nil {
		log.Fatal().Err(err).Msg("stream provider")
	}
	streamURL, err := adapter.StreamURL(format, cfg.Stream.WsURL, cfg.Assets.List)
	if err != nil {
		log.Fatal().Err(err).Msg("stream url")
	}

	rest := coingecko.NewClient(cfg.Fallback.RestURL, cfg.Fallback.APIKey, cfg.Fallback.RequestsPerMin)

	svc := tracker.NewService(tracker.ServiceDeps{
		Table:          app.PriceTable(),
		Snapshots:      rest,
		DecodeSnapshot: adapter.Decoder(feed.FormatCoinGeckoMarkets),
		Currency:       cfg.App.Currency,
		PerPage:        cfg.App.PerPage,
		ReconcileEvery: cfg.ReconcileEvery(),
		Assets:         cfg.Assets.List,
		Ticker:         feed.Ticker,
		Sink:           console.NewSink(),
	})

	transport := websocket.NewManager(websocket.Options{
		Name:                 string(format),
		URL:                  streamURL,
		Heartbeat:            cfg.Heartbeat(),
		ReconnectBase:        cfg.ReconnectBase(),
		MaxReconnectAttempts: cfg.Stream.MaxReconnectAttempts,
		DialTimeout:          cfg.DialTimeout(),
	}, svc.StreamHandler(adapter.Decoder(format)))

	fallback := poller.NewPricePoller(
		rest,
		adapter.Symbols(feed.FormatCoinGeckoSimple).FeedIDs(cfg.Assets.List),
		cfg.App.Currency,
		cfg.PollInterval(),
		svc.FallbackHandler(adapter.Decoder(feed.FormatCoinGeckoSimple)),
	)
	svc.UseSources(transport, fallback)

	if cfg.HTTP.Enabled {
		api := httpapi.New(httpapi.Deps{
			Table:     app.PriceTable(),
			Alerts:    app.AlertBook(),
			Portfolio: app.Portfolio(),
			Settings:  settings,
		}, cfg.App.LogLevel == "debug")
		go func() {
			if err := api.Run(ctx, cfg.HTTP.Addr); err != nil {
				log.Error().Err(err).Msg("http api exited")
			}
		}()
	}

	log.Info().
		Str("config", *configPath).
		Str("provider", cfg.Stream.Provider).
		Str("currency", cfg.App.Currency).
		Int("assets", len(cfg.Assets.List)).
		Int("alerts", app.AlertBook().Len()).
		Int("holdings", len(app.Portfolio().List())).
		Msg("cryptotracker started")

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("tracker exited")
	}
}
