package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/clinicboard/appointment-registry/internal/api"
	"github.com/clinicboard/appointment-registry/internal/appointment"
	"github.com/clinicboard/appointment-registry/internal/config"
	"github.com/clinicboard/appointment-registry/internal/db"
	redisclient "github.com/clinicboard/appointment-registry/internal/redis"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		store  appointment.Store
		pgPool *pgxpool.Pool
		rdb    *redis.Client
	)

	if cfg.PostgresDSN != "" {
		pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
		pgPool, err = db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
		cancelPg()
		if err != nil {
			log.Fatalf("postgres connection error: %v", err)
		}
		defer pgPool.Close()
		log.Println("connected to Postgres")

		var locker redisclient.Locker
		if cfg.RedisAddr != "" {
			rdb, err = redisclient.NewRedisClient(redisclient.Options{
				Addr:     cfg.RedisAddr,
				Username: cfg.RedisUsername,
				Password: cfg.RedisPassword,
				PoolSize: cfg.RedisPoolSize,
				Timeout:  cfg.RedisTimeout,
			})
			if err != nil {
				log.Fatalf("redis connection error: %v", err)
			}
			defer func() {
				if err := rdb.Close(); err != nil {
					log.Printf("error closing redis: %v", err)
				}
			}()
			locker = redisclient.NewRedisScheduleLocker(rdb, cfg.LockTTL)
			log.Println("connected to Redis, schedule locking enabled")
		}

		store = appointment.NewPgStore(pgPool, locker)
	} else {
		store = appointment.NewMemoryStore()
		log.Println("no POSTGRES_DSN set, using in-memory store")
	}

	router := api.NewRouter(api.RouterConfig{
		Store:   store,
		Layout:  cfg.LayoutConfig(),
		PgPool:  pgPool,
		Redis:   rdb,
		Env:     cfg.Env,
		Version: version,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("api-server stopped")
}
