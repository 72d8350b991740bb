package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"news-corpus-crawler/internal/observability"
)

// GracefulShutdown запускает мониторинг OS сигналов и возвращает context для отмены.
// Первый сигнал отменяет краул (уже записанные записи сохраняются), второй завершает процесс.
func GracefulShutdown(parent context.Context, logger *observability.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	// Канал для сигналов ОС
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received, finishing current article", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
			return
		}

		select {
		case sig := <-sigChan:
			logger.Warn("Second signal received, exiting", "signal", sig.String())
			logger.Sync()
			os.Exit(1)
		case <-parent.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
