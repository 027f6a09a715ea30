package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc/health"

	"iesa-console/backend/internal/app"
	"iesa-console/backend/internal/config"
	healthcheck "iesa-console/backend/internal/health"
	"iesa-console/backend/internal/logger"
	"iesa-console/backend/internal/server"
	"iesa-console/backend/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New(logger.Config{})
		l.Fatal().Err(err).Msg("config")
	}
	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		ServiceName: "iesa-console",
		Pretty:      cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("console")
	}
	if id, err := console.Auth.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("session restore failed")
	} else if id != nil {
		log.Info().Str("member_id", id.MemberID).Msg("session restored")
	}

	go console.Sweeper.Run(ctx, cfg.Interval())

	healthSrv := health.NewServer()
	checker := healthcheck.NewChecker(healthSrv, server.ConsoleService, console.Storage, policyChecker(console), log)
	go checker.Run(ctx, 30*time.Second)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
	defer lis.Close()

	s := server.NewGRPCServer(healthSrv)
	go func() {
		log.Info().Str("addr", cfg.GRPCAddr).Msg("gRPC server listening")
		if err := s.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	metricsSrv := server.NewMetricsServer(cfg.MetricsAddr, console.Metrics.Registry)
	go func() {
		if metricsSrv != nil {
			log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		}
		if err := server.ServeMetrics(metricsSrv); err != nil {
			log.Error().Err(err).Msg("metrics server")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down...")
	checker.Shutdown()
	s.GracefulStop()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = metricsSrv.Shutdown(shutdownCtx)
		cancel()
	}
	// let async member event emits finish before the producer closes
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := console.Close(); err != nil {
		log.Error().Err(err).Msg("close")
	}
	log.Info().Msg("stopped")
}

func policyChecker(c *app.Console) healthcheck.PolicyChecker {
	if pc, ok := c.Gate.(healthcheck.PolicyChecker); ok {
		return pc
	}
	return nil
}
