package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/config"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/handler/api"
	grpcServer "github.com/Tanmoy095/LogiSynapse/cargo-service/handler/grpc"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/pkg/rabbitmq"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/service"
	"github.com/Tanmoy095/LogiSynapse/cargo-service/worker"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the gRPC health endpoint and the ETA watcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), cfg, log)
	},
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	producer, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer producer.Close()

	notifier, closeNotifier, err := openNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	svc := service.NewCargoService(st, producer, log)
	defer svc.Wait()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e, log)
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Service:       svc,
		Log:           log,
		Location:      cfg.Location(),
		DefaultUserID: cfg.USER_ID,
		Refresh:       cfg.ALERT_REFRESH,
		Version:       version,
	}))

	lis, err := net.Listen("tcp", cfg.GRPC_ADDR)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPC_ADDR, err)
	}
	grpcSrv := grpc.NewServer()
	healthSrv := grpcServer.NewHealthServer(svc, 30*time.Second, log)
	healthSrv.Register(grpcSrv)

	watcher := worker.NewEtaWatcher(svc, notifier, cfg.ALERT_INTERVAL, cfg.Location(), log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", cfg.HTTP_ADDR))
		if err := e.Start(cfg.HTTP_ADDR); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		log.Info("grpc server listening", zap.String("addr", cfg.GRPC_ADDR))
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		grpcSrv.GracefulStop()
		return nil
	})
	g.Go(func() error {
		healthSrv.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return watcher.Start(gctx)
	})

	err = g.Wait()
	log.Info("cargo coordinator stopped")
	return err
}

// openNotifier returns the RabbitMQ alert notifier, or a log-only notifier when RabbitMQ
// is not configured. The returned func releases the connection.
func openNotifier(cfg *config.Config, log *zap.Logger) (worker.Notifier, func(), error) {
	if !cfg.RabbitMQEnabled() {
		log.Info("rabbitmq not configured, eta alerts are only logged")
		return worker.LogNotifier{Log: log}, func() {}, nil
	}
	client, err := rabbitmq.NewClient(cfg.GetRabbitMQURL())
	if err != nil {
		return nil, nil, err
	}
	if err := client.CreateQueue(cfg.ALERT_QUEUE); err != nil {
		client.Close()
		return nil, nil, err
	}
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Warn("closing rabbitmq client", zap.Error(err))
		}
	}
	return worker.NewQueueNotifier(client, cfg.ALERT_QUEUE), closeFn, nil
}
