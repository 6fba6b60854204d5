package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"chitti-admin/internal/audit"
	"chitti-admin/internal/auth"
	"chitti-admin/internal/backend"
	"chitti-admin/internal/config"
	"chitti-admin/internal/database"
	"chitti-admin/internal/events"
	"chitti-admin/internal/forms"
	httpserver "chitti-admin/internal/http"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	authSvc := auth.NewService(db, cfg)
	if err := authSvc.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}

	rdb, err := backend.ConnectRedis(cfg)
	if err != nil {
		log.Printf("redis unavailable, list cache disabled: %v", err)
		rdb = nil
	}
	api := backend.NewCachedAPI(backend.NewClient(cfg), rdb, cfg.CacheTTL())

	var pub events.Publisher = events.Nop{}
	if cfg.RabbitURL != "" {
		p, err := events.NewAMQPPublisher(cfg.RabbitURL, cfg.EventsExchange)
		if err != nil {
			log.Printf("rabbitmq unavailable, events disabled: %v", err)
		} else {
			pub = p
		}
	}
	defer pub.Close()

	validator, err := forms.New(cfg)
	if err != nil {
		log.Fatalf("forms: %v", err)
	}

	router := httpserver.NewServer(cfg, httpserver.Deps{
		API:    api,
		Forms:  validator,
		Auth:   authSvc,
		Audit:  audit.NewRecorder(db),
		Events: pub,
	})
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeSessions(ctx, authSvc)

	log.Printf("listening on :%s", cfg.Port)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}

// purgeSessions drops sessions that expired more than a day ago, once an hour.
func purgeSessions(ctx context.Context, svc *auth.Service) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := svc.PurgeExpired(ctx, now.Add(-24*time.Hour))
			if err != nil {
				log.Printf("session purge: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("purged %d expired sessions", n)
			}
		}
	}
}
