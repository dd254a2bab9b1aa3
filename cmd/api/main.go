package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ecomlabs/order-service/internal/config"
	"github.com/ecomlabs/order-service/internal/httpx"
	"github.com/ecomlabs/order-service/internal/items"
	kafkax "github.com/ecomlabs/order-service/internal/kafka"
	"github.com/ecomlabs/order-service/internal/logger"
	"github.com/ecomlabs/order-service/internal/orders"
	"github.com/ecomlabs/order-service/internal/postgres"
	"github.com/ecomlabs/order-service/internal/redisx"
	"github.com/ecomlabs/order-service/internal/userdir"
)

func main() {
	_ = godotenv.Load()
	defer logger.Sync()

	cfg := config.Load()
	log := logger.L()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic, 1024)
	prod.Start(ctx)

	users := userdir.WithFallback(userdir.NewHTTPClient(cfg.UserServiceURL, cfg.ServiceAPIKey, cfg.ServiceName))
	publisher := orders.NewKafkaPublisher(prod, cfg.PublishSync, cfg.PublishAckTimeout)
	cache := &orders.RedisStatusCache{RDB: rdb}

	itemSvc := items.NewService(&items.PgRepo{DB: db})
	orderSvc := orders.NewService(&orders.PgRepo{DB: db}, itemSvc, users, publisher, cache)

	router := httpx.NewRouter()
	(&httpx.OrdersHandler{Service: orderSvc, Cache: cache}).Register(router)
	(&httpx.ItemsHandler{Service: itemSvc}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	prod.Close() // flush remaining events
	prod.WaitClosed()
}
