package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ecomlabs/order-service/internal/config"
	"github.com/ecomlabs/order-service/internal/items"
	kafkax "github.com/ecomlabs/order-service/internal/kafka"
	"github.com/ecomlabs/order-service/internal/logger"
	"github.com/ecomlabs/order-service/internal/orders"
	"github.com/ecomlabs/order-service/internal/payments"
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

	handler := &payments.Handler{Orders: orderSvc}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.PaymentGroup, cfg.PaymentTopic, cfg.ConsumerWorkers)

	consDone := make(chan struct{})
	go func() {
		defer close(consDone)
		log.Info("payment consumer started",
			zap.String("group", cfg.PaymentGroup),
			zap.String("topic", cfg.PaymentTopic),
			zap.Int("workers", cfg.ConsumerWorkers))
		if err := cons.Start(ctx, handler.Handle); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down consumer")
		cancel()
	case <-consDone:
	}
	<-consDone
	prod.Close()
	prod.WaitClosed()
}
