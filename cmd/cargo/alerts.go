package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/config"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/cargo"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/pkg/rabbitmq"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/worker"
)

var (
	alertsAt     string
	alertsFollow bool
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List cargo whose ETA day has arrived, or follow the alert queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		if alertsFollow {
			return followAlerts(cmd.Context(), cmd.OutOrStdout(), cfg, log)
		}
		now, err := evaluationTime(alertsAt, cfg.Location())
		if err != nil {
			return err
		}
		return listDue(cmd.Context(), cmd.OutOrStdout(), cfg, log, now)
	},
}

func init() {
	alertsCmd.Flags().StringVar(&alertsAt, "at", "", "evaluate urgency at this RFC 3339 instant instead of now")
	alertsCmd.Flags().BoolVarP(&alertsFollow, "follow", "f", false, "print alerts from the RabbitMQ queue as the watcher raises them")
}

func listDue(ctx context.Context, out io.Writer, cfg *config.Config, log *zap.Logger, now time.Time) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	raws, err := st.List(ctx)
	if err != nil {
		return err
	}
	due := worker.Due(raws, now)
	if len(due) == 0 {
		fmt.Fprintln(out, "No cargo has reached its ETA.")
		return nil
	}
	for _, r := range due {
		fmt.Fprintf(out, "%s  %s  MAWB %s  HAWB %s  ETA %s  [%s]\n",
			r.ID, r.Consignee, r.MasterAirWaybill, strings.Join(r.HouseAirWaybills, " "),
			cargo.FormatETA(r.ETA, now.Location()), r.CurrentStatus)
	}
	return nil
}

func followAlerts(ctx context.Context, out io.Writer, cfg *config.Config, log *zap.Logger) error {
	if !cfg.RabbitMQEnabled() {
		return errors.New("--follow needs RABBITMQ_HOST")
	}
	client, err := rabbitmq.NewClient(cfg.GetRabbitMQURL())
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.CreateQueue(cfg.ALERT_QUEUE); err != nil {
		return err
	}
	deliveries, err := client.Consume(cfg.ALERT_QUEUE)
	if err != nil {
		return fmt.Errorf("consume %s: %w", cfg.ALERT_QUEUE, err)
	}
	log.Info("following eta alerts", zap.String("queue", cfg.ALERT_QUEUE))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("alert queue closed by the broker")
			}
			var alert worker.EtaAlert
			if err := json.Unmarshal(d.Body, &alert); err != nil {
				log.Error("dropping malformed alert", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			fmt.Fprintf(out, "%s  ETA reached: %s (MAWB %s, ETA %s, %s)\n",
				alert.RaisedAt.In(cfg.Location()).Format(time.DateTime), alert.Consignee,
				alert.MasterAirWaybill, cargo.FormatETA(alert.ETA, cfg.Location()), alert.CurrentStatus)
			if err := d.Ack(false); err != nil {
				log.Warn("ack failed", zap.Error(err))
			}
		}
	}
}
