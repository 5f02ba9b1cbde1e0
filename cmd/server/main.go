package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hostelhub-backend-go/internal/config"
	"hostelhub-backend-go/internal/db"
	httpapi "hostelhub-backend-go/internal/http"
	"hostelhub-backend-go/internal/migrations"
	"hostelhub-backend-go/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logs, err := openDailyLog(cfg.LogDir, retentionDays(cfg.LogRetentionDays))
	if err != nil {
		log.Printf("logger setup failed: %v", err)
	} else {
		defer logs.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()
	if err := migrations.Apply(database, migrations.Files()); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	if err := services.EnsureModuleGroups(database); err != nil {
		log.Fatalf("module groups: %v", err)
	}

	var otpStore services.OTPStore = services.NewMemoryOTPStore()
	if cfg.RedisURL != "" {
		redisStore, err := services.NewRedisOTPStore(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisStore.Close()
		otpStore = redisStore
		log.Printf("otp store: redis")
	}

	events := services.NewEventHub()
	defer events.Close()

	server := httpapi.NewServer(database, cfg, otpStore, services.NewMailer(cfg.SMTP), events)
	go services.RunDashboardSampler(ctx, database, events, cfg.DashboardDiskPath,
		time.Duration(cfg.DashboardSampleSeconds)*time.Second)

	addr := ":" + cfg.Port
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	log.Printf("shutdown complete")
}
