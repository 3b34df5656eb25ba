package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/venue-seat-layout/internal/config"
	"github.com/iliyamo/venue-seat-layout/internal/database"
	"github.com/iliyamo/venue-seat-layout/internal/editor"
	"github.com/iliyamo/venue-seat-layout/internal/handler"
	"github.com/iliyamo/venue-seat-layout/internal/middleware"
	"github.com/iliyamo/venue-seat-layout/internal/queue"
	"github.com/iliyamo/venue-seat-layout/internal/repository"
	"github.com/iliyamo/venue-seat-layout/internal/router"
	"github.com/iliyamo/venue-seat-layout/internal/service"
	"github.com/iliyamo/venue-seat-layout/internal/session"
)

func main() {
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.Check{}

	var store session.Store
	if cfg.LayoutStore == config.StoreMemory {
		store = session.NewMemoryStore()
		log.Printf("layouts: in-memory store, nothing survives a restart")
	} else {
		db, err := database.Open(ctx, cfg.MySQLDSN(), cfg.DBPool())
		if err != nil {
			log.Fatalf("mysql: %v", err)
		}
		defer db.Close()
		repo := repository.NewLayoutRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("mysql: schema: %v", err)
		}
		store = repo
		checks["mysql"] = db.PingContext
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Printf("redis: unavailable, rate limit and seat cache disabled")
	}

	var publisher service.EventPublisher = service.NopPublisher{}
	if cfg.AMQPURL != "" {
		publisher = service.NewAMQPPublisher(cfg.AMQPURL)
		go func() {
			if err := queue.StartLayoutAuditConsumer(ctx, cfg.AMQPURL, cfg.AuditLogDir); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("layout-audit: consumer stopped: %v", err)
			}
		}()
	}
	store = service.NewPublishingStore(store, publisher, log.Default())

	sc := config.LoadSessionConfig()
	manager := editor.NewManager(store, editor.Config{
		HistoryDepth:     sc.HistoryDepth,
		AutoSaveDebounce: sc.AutoSaveDebounce,
		AutoSaveInterval: sc.AutoSaveInterval,
		IdleTimeout:      sc.IdleTimeout,
	}, log.Default())
	go manager.Run(ctx)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.BodyLimit("2M"))

	router.RegisterRoutes(e, checks)
	router.RegisterSeats(e, handler.NewSeatHandler(), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		middleware.NewResponseCache(config.LoadCacheConfig(), rdb),
	)
	router.RegisterLayouts(e, handler.NewLayoutHandler(store), cfg.JWTSecret)
	router.RegisterSessions(e, handler.NewSessionHandler(manager), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.LayoutStore)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if n := manager.Flush(shutdownCtx); n > 0 {
		log.Printf("shutdown: %d editing sessions could not be saved", n)
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
