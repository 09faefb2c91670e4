// Command server runs the supply-request HTTP API.
//
//	@title						Supply Requests API
//	@version					1.0
//	@description				Construction-site material requests: foremen file them, suppliers dispatch a driver, drivers confirm delivery.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and a token minted by cmd/token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-supply-backend/internal/config"
	httpapi "github.com/tbourn/go-supply-backend/internal/http"
	"github.com/tbourn/go-supply-backend/internal/notify"
	"github.com/tbourn/go-supply-backend/internal/observability"
	"github.com/tbourn/go-supply-backend/internal/repo"
	"github.com/tbourn/go-supply-backend/internal/seed"
	"github.com/tbourn/go-supply-backend/internal/services"
	"github.com/tbourn/go-supply-backend/internal/sysutil"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	notifyQueue   = 256
	purgeInterval = time.Hour
)

func main() {
	config.LoadDotenv()
	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	log.Logger = sysutil.NewLogger(os.Stderr, cfg.LogPretty, cfg.OTEL.ServiceName)
	gin.SetMode(cfg.GinMode)

	switch {
	case cfg.Auth.AllowHeader:
		log.Warn().Msg("X-User-ID identity is enabled; do not expose this server")
	case cfg.Auth.JWTSecret == "":
		log.Warn().Msg("no JWT_SECRET; the API is read-only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("db open failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}
	if cfg.Seed.Demo {
		seedDemo(ctx, db, cfg.Seed.File)
	}

	notifier := newNotifier(cfg.Telegram)

	idem := services.NewIdempotencyService(db, cfg.IdempotencyTTL)
	go sysutil.RunEvery(ctx, purgeInterval, func(ctx context.Context) {
		n, err := idem.Purge(ctx, time.Now().UTC())
		if err != nil {
			log.Warn().Err(err).Msg("idempotency purge failed")
			return
		}
		if n > 0 {
			log.Debug().Int64("purged", n).Msg("expired idempotency keys removed")
		}
	})

	r := gin.New()
	httpapi.RegisterRoutes(r, db, notifier, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if a, ok := notifier.(*notify.Async); ok {
		if err := a.Close(shCtx); err != nil {
			log.Warn().Err(err).Msg("pending notifications dropped")
		}
	}
	if err := shutdownOTel(shCtx); err != nil {
		log.Warn().Err(err).Msg("otel shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newNotifier returns an asynchronous Telegram notifier, or a no-op when no
// bot token is configured or the bot cannot be reached.
func newNotifier(cfg config.TelegramConfig) notify.Notifier {
	if cfg.BotToken == "" {
		log.Info().Msg("telegram notifications disabled")
		return notify.Noop{}
	}
	tg, err := notify.NewTelegram(cfg.BotToken)
	if err != nil {
		log.Error().Err(err).Msg("telegram unavailable; notifications disabled")
		return notify.Noop{}
	}
	return notify.NewAsync(tg, notifyQueue)
}

func seedDemo(ctx context.Context, db *gorm.DB, file string) {
	data, err := seed.Load(file)
	if err != nil {
		log.Fatal().Err(err).Str("file", file).Msg("seed load failed")
	}
	res, err := seed.Apply(ctx, db, data, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}
	if res.Users > 0 {
		log.Info().Int("users", res.Users).Int("requests", res.Requests).Msg("demo data seeded")
	}
}
