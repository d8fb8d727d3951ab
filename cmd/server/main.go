package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/sale/internal/config"
	"github.com/Skotchmaster/sale/internal/events"
	"github.com/Skotchmaster/sale/internal/httpserver"
	"github.com/Skotchmaster/sale/internal/models"
	"github.com/Skotchmaster/sale/internal/repo"
	"github.com/Skotchmaster/sale/internal/search"
	"github.com/Skotchmaster/sale/internal/service"
	pkgdb "github.com/Skotchmaster/sale/pkg/db"
	"github.com/Skotchmaster/sale/pkg/logging"
	"github.com/Skotchmaster/sale/pkg/metrics"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if cfg.AutoMigrate {
		if err := models.AutoMigrate(db); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	r := repo.New(db)
	topics := events.Topics{Orders: cfg.KafkaOrderTopic, Catalog: cfg.KafkaCatalogTopic}
	hub := events.NewHub(logger, topics.Orders)

	var (
		kafkaPub  *events.KafkaPublisher
		publisher events.Publisher = hub
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err = events.NewKafkaPublisher(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		publisher = events.Fanout{kafkaPub, hub}
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}
	notify := service.Notifier{Publisher: publisher, Topics: topics}

	productSvc := &service.ProductService{Repo: r, Notify: notify}
	if cfg.ESURL != "" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 10*time.Second)
		ix, err := search.NewClient(esCtx, search.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		}, logger)
		esCancel()
		if err != nil {
			logger.Error("es_unavailable", "error", err)
		} else {
			productSvc.Index = ix
		}
	}

	authSvc := &service.AuthService{
		Repo:          r,
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}
	seedCtx := logging.IntoContext(context.Background(), logger)
	if err := authSvc.EnsureAdmin(seedCtx, cfg.Admin); err != nil {
		log.Fatalf("admin seed: %v", err)
	}

	e := httpserver.New(logger, &httpserver.Deps{
		DB:           db,
		AccessSecret: cfg.JWTAccessSecret,
		Refresher:    authSvc,
		Metrics:      metrics.NewServerMetrics(cfg.ServiceName),
		Auth:         &httpserver.AuthHTTP{Svc: authSvc},
		Category:     &httpserver.CategoryHTTP{Svc: &service.CategoryService{Repo: r, Notify: notify}},
		Product:      &httpserver.ProductHTTP{Svc: productSvc},
		Order:        &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Notify: notify}, Hub: hub},
		Payment:      &httpserver.PaymentHTTP{Svc: &service.PaymentService{Repo: r, Notify: notify}},
		User:         &httpserver.UserHTTP{Svc: &service.UserService{Repo: r}},
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			logger.Error("kafka_close", "error", err)
		}
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close", "error", err)
	}

	logger.Info("stopped")
}
