package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/config"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
	pkgkafka "github.com/Tanmoy095/LogiSynapse/cargo-service/pkg/kafka"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail the cargo change events published to Kafka",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.KafkaEnabled() {
			return errors.New("events needs KAFKA_BROKER and KAFKA_TOPIC")
		}
		consumer := pkgkafka.NewConsumer(strings.Split(cfg.KAFKA_BROKER, ","), cfg.KAFKA_TOPIC, cfg.KAFKA_GROUP, log)
		defer consumer.Close()

		consumer.Start(cmd.Context(), printEvent(cmd.OutOrStdout(), cfg, log))
		return nil
	},
}

// printEvent writes one line per change event. Undecodable messages are logged and
// committed so a bad message cannot stall the group.
func printEvent(out io.Writer, cfg *config.Config, log *zap.Logger) pkgkafka.Handler {
	return func(_ context.Context, msg kafka.Message) error {
		var ev models.CargoEvent
		if err := pkgkafka.Decode(msg, &ev); err != nil {
			log.Error("skipping undecodable event", zap.Int64("offset", msg.Offset), zap.Error(err))
			return nil
		}
		line := fmt.Sprintf("%s  %-14s %s", ev.At.In(cfg.Location()).Format(time.DateTime), ev.Event, ev.ID)
		if ev.Payload != nil {
			line += "  " + ev.Payload.Consignee
		}
		fmt.Fprintln(out, line)
		return nil
	}
}
