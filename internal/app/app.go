package app

import (
	"context"
	"errors"
	nethttp "net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"

	"github.com/shortly/shortly/config"
	"github.com/shortly/shortly/internal/controller/http"
	"github.com/shortly/shortly/internal/controller/http/middleware"
	"github.com/shortly/shortly/internal/infrastructure/crypto"
	"github.com/shortly/shortly/internal/infrastructure/quota"
	"github.com/shortly/shortly/internal/infrastructure/store"
	"github.com/shortly/shortly/internal/usecase"
	"github.com/shortly/shortly/pkg/logger"
)

type App struct {
	server     *fiber.App
	serverAddr string

	linkStore store.LinkStore
	guard     quota.Guard
	log       *logger.Logger
}

func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	app := &App{
		log: log,
	}

	server := fiber.New()
	server.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	server.Use(middleware.RequestID(log))
	server.Use(middleware.Logger(log.SubLogger("http_requests")))

	cipher, err := crypto.NewAES256(cfg.App.AuthSecret)
	if err != nil {
		return nil, log.Wrap(err, "init caller cipher")
	}

	callerMiddleware, err := middleware.CallerID(middleware.CallerIDConfig{
		Cipher: cipher,
	}, log)
	if err != nil {
		return nil, log.Wrap(err, "init caller middleware")
	}

	server.Use(callerMiddleware)

	app.server = server
	app.serverAddr = cfg.Server.Addr

	var linkStore store.LinkStore
	linkStore, err = store.NewElasticStore(ctx, cfg.Elastic, log.SubLogger("link_store"))
	if err != nil {
		log.Error(ctx, err).Msg("init elastic link store")
		// Fallback to in-mem store
		linkStore = store.NewInMemLinkStore()
		log.Info(ctx).Msgf("Initialized link store @ in-mem")
	} else {
		log.Info(ctx).Msgf("Initialized link store @ %s", strings.Join(cfg.Elastic.Addresses, ","))
	}
	app.linkStore = linkStore

	var guard quota.Guard
	guard, err = quota.NewRedisGuard(ctx, cfg.Quota)
	if err != nil {
		log.Error(ctx, err).Msg("init redis usage guard")
		// Fallback to an open guard, links keep working without quotas
		guard = quota.NewOpenGuard()
		log.Info(ctx).Msgf("Initialized usage guard @ open")
	} else {
		log.Info(ctx).Msgf("Initialized usage guard @ %s", cfg.Quota.RedisAddr)
	}
	app.guard = guard

	sluggen := usecase.NewSlugGenerator(
		usecase.NewRandomSource(),
		cfg.Shortener.SlugLength,
		cfg.Shortener.SlugMaxAttempts,
	)

	shortenerUC := usecase.NewShortener(cfg.Shortener, linkStore, guard, sluggen, log.SubLogger("shortener_uc"))
	http.NewShortenerController(server, shortenerUC, log.SubLogger("shortener_controller"))

	return app, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info(ctx).Msgf("Listening on %s", a.serverAddr)
	if err := a.server.Listen(a.serverAddr); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	err := a.server.Shutdown()
	if err != nil {
		return a.log.Wrap(err, "shutdown server")
	}

	err = a.guard.Close(ctx)
	if err != nil {
		return a.log.Wrap(err, "close usage guard")
	}

	err = a.linkStore.Close(ctx)
	if err != nil {
		return a.log.Wrap(err, "close link store")
	}

	return nil
}
