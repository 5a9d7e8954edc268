package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"p2000-receiver/common/logger"
	"p2000-receiver/internal/config"
	"p2000-receiver/internal/consumer"
	"p2000-receiver/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "p2000-receiver", cfg.Log.File)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("Starting p2000-receiver",
		zap.String("data_dir", cfg.Receiver.DataDir),
		zap.String("sensors_file", cfg.Receiver.SensorsFile),
		zap.Bool("homeassistant", cfg.HomeAssistant.Enabled),
		zap.Bool("mqtt", cfg.MQTTSink.Enabled),
		zap.Bool("redis", cfg.RedisSink.Enabled),
		zap.Bool("nats", cfg.NATS.Enabled),
		zap.Bool("opencage", cfg.OpenCage.Enabled),
	)

	if err := consumer.CheckRequirements(cfg.Receiver.DecoderCmd); err != nil {
		zapLogger.Fatal("Decoder requirements not met", zap.Error(err))
	}

	receiverService, err := service.NewReceiverService(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create receiver service", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- receiverService.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		zapLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			zapLogger.Error("Receiver service stopped", zap.Error(err))
		} else {
			zapLogger.Info("Decoder stream ended")
		}
	}

	cancel()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := receiverService.Stop(stopCtx); err != nil {
		zapLogger.Error("Error during shutdown", zap.Error(err))
	}

	zapLogger.Info("Service stopped")
}
