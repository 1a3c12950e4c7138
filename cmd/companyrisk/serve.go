package main

import (
	"fmt"

	"github.com/gartstein/companyrisk/internal/company/auth"
	"github.com/gartstein/companyrisk/internal/company/events"
	"github.com/gartstein/companyrisk/internal/company/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC RiskService and its HTTP gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := a.cfg, a.logger
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is required to serve")
			}
			ctx := cmd.Context()

			comps, err := a.build()
			if err != nil {
				return err
			}
			defer comps.Close()

			// Initialize auth interceptor
			authInterceptor := auth.NewAuthInterceptor(cfg.JWTSecret)
			server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger, grpc.UnaryInterceptor(authInterceptor.Unary()))
			server.RegisterGRPCHandler(handlers.NewRiskHandler(comps.service, logger))

			if err := server.RegisterHTTPGateway(
				ctx,
				[]grpc.DialOption{
					grpc.WithTransportCredentials(insecure.NewCredentials()),
				},
				cfg.JWTSecret,
				promhttp.HandlerFor(comps.registry, promhttp.HandlerOpts{}),
			); err != nil {
				return fmt.Errorf("failed to register HTTP gateway: %w", err)
			}

			if cfg.RequestTopic != "" {
				consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.GroupID, cfg.RequestTopic, logger)
				consumer.RegisterHandler(comps.service.HandleRequest)
				consumer.Start(ctx)
				// runs before comps.Close; it joins any in-flight request
				defer consumer.Close()
				logger.Info("Consuming analysis requests", zap.String("topic", cfg.RequestTopic))
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				server.Stop()
				logger.Info("Servers stopped properly")
				return nil
			}
		},
	}
}
