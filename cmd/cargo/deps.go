package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/config"
	pkgkafka "github.com/Tanmoy095/LogiSynapse/cargo-service/pkg/kafka"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/store"
)

// openStore connects the store selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.CargoStore, error) {
	log = log.With(zap.String("store", cfg.STORE_DRIVER))
	switch cfg.STORE_DRIVER {
	case config.DriverMemory:
		log.Warn("using the in-memory store, nothing survives a restart")
		return store.NewMemoryStore(log), nil
	case config.DriverSQLite:
		return store.NewSQLiteStore(cfg.SQLITE_PATH, log)
	case config.DriverPostgres:
		return store.NewPostgresStore(ctx, cfg.GetDBURL(), log)
	case config.DriverFirestore:
		return store.NewFirestoreStore(ctx, cfg.FIRESTORE_PROJECT_ID, cfg.FIRESTORE_CREDENTIALS, cfg.APP_ID, log)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.STORE_DRIVER)
}

// openPublisher returns the kafka producer, or a no-op publisher when kafka is not configured.
func openPublisher(cfg *config.Config, log *zap.Logger) (pkgkafka.Publisher, error) {
	if !cfg.KafkaEnabled() {
		log.Info("kafka not configured, change events are not published")
		return pkgkafka.NopPublisher{}, nil
	}
	codec, err := pkgkafka.CodecByName(cfg.KAFKA_CODEC)
	if err != nil {
		return nil, err
	}
	return pkgkafka.NewKafkaProducer(cfg.KAFKA_BROKER, cfg.KAFKA_TOPIC, codec, log), nil
}
