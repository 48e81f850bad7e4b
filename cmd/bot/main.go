package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"go.uber.org/multierr"

	"github.com/central-university-dev/go-botapi/internal/bot/handler"
	"github.com/central-university-dev/go-botapi/internal/common/metrics"
	"github.com/central-university-dev/go-botapi/internal/common/middleware"
	"github.com/central-university-dev/go-botapi/internal/config"
	"github.com/central-university-dev/go-botapi/pkg"
	"github.com/central-university-dev/go-botapi/pkg/telegram"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка запуска сервиса: %v\n", err)
		os.Exit(1)
	}
}

func newClient(cfg *config.Config, appLogger *slog.Logger) (*telegram.Client, error) {
	clientConfig := telegram.ClientConfig{
		Token:   cfg.TelegramBotToken,
		BaseURL: cfg.APIBaseURL,

		RequestTimeout:       cfg.HTTPRequestTimeout,
		RetryCount:           cfg.RetryCount,
		RetryBackoff:         cfg.RetryBackoff,
		RetryableStatusCodes: cfg.RetryableStatusCodes,

		CBSlidingWindowSize:        cfg.CBSlidingWindowSize,
		CBMinimumRequiredCalls:     cfg.CBMinimumRequiredCalls,
		CBFailureRateThreshold:     cfg.CBFailureRateThreshold,
		CBPermittedCallsInHalfOpen: cfg.CBPermittedCallsInHalfOpen,
		CBWaitDurationInOpenState:  cfg.CBWaitDurationInOpenState,
	}

	if cfg.ProxyHost != "" {
		clientConfig.Proxy = &telegram.ProxyConfig{
			Type:     cfg.ProxyType,
			Host:     cfg.ProxyHost,
			Port:     cfg.ProxyPort,
			User:     cfg.ProxyUser,
			Password: cfg.ProxyPassword,
		}
	}

	client, err := telegram.NewClient(clientConfig, appLogger)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram клиента: %w", err)
	}

	return client, nil
}

func setupBotCommands(client *telegram.Client, appLogger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	commands := []map[string]any{
		{"command": "start", "description": "Начать работу с ботом"},
		{"command": "help", "description": "Получить справку о командах"},
	}

	if result := client.SetMyCommands(ctx, telegram.Params{"commands": commands}); !result.OK() {
		appLogger.Error("Ошибка при регистрации команд бота", "raw", result.Raw())
	} else {
		appLogger.Info("Команды бота успешно зарегистрированы")
	}
}

func runWebhook(cfg *config.Config, client *telegram.Client, processor *handler.UpdateProcessor,
	stopCh <-chan struct{}, appLogger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	params := telegram.Params{"url": cfg.WebhookURL}

	if result := client.SetWebhook(ctx, params); !result.OK() {
		cancel()
		return fmt.Errorf("ошибка при установке вебхука: %s", result.Raw())
	}

	cancel()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow, appLogger)
	metricsMiddleware := middleware.NewMetricsMiddleware()

	mux := http.NewServeMux()
	mux.Handle("/webhook", rateLimiter.Middleware(metricsMiddleware.Middleware(processor)))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.BotServerPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Запуск HTTP сервера вебхука", "port", cfg.BotServerPort)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Ошибка при запуске HTTP сервера", "error", err)
		}
	}()

	<-stopCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	return multierr.Combine(
		server.Shutdown(shutdownCtx),
		rateLimiter.Close(),
	)
}

func runPolling(cfg *config.Config, client *telegram.Client, processor *handler.UpdateProcessor,
	stopCh <-chan struct{}, appLogger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)

	// Вебхук и длинный опрос взаимоисключающи на стороне сервера.
	if result := client.DeleteWebhook(ctx); !result.OK() {
		appLogger.Warn("Не удалось удалить вебхук перед запуском опроса", "raw", result.Raw())
	}

	cancel()

	poller := telegram.NewPoller(client, processor, cfg.LongPollLimit, cfg.LongPollTimeout, appLogger)
	poller.Start()

	<-stopCh

	return poller.Close()
}

func run() error {
	appLogger := pkg.NewLogger(os.Stdout)

	cfg := config.LoadConfig()

	client, err := newClient(cfg, appLogger)
	if err != nil {
		return err
	}

	updates := telegram.NewUpdateContext(appLogger)
	client.BindUpdateContext(updates)

	if cfg.LogDispatchErrors {
		client.SetErrorLogger(telegram.NewSlogErrorLogger(appLogger))
	}

	setupBotCommands(client, appLogger)

	processor := handler.NewUpdateProcessor(client, updates, appLogger)

	metricsServer := metrics.NewServer(cfg.BotMetricsPort, appLogger)

	go func() {
		if err := metricsServer.Start(); err != nil {
			appLogger.Error("Ошибка при запуске сервера метрик", "error", err)
		}
	}()

	stopCh := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLogger.Info("Получен системный сигнал", "signal", sig.String())
		close(stopCh)
	}()

	switch cfg.UpdateTransport {
	case config.WebhookMode:
		err = runWebhook(cfg, client, processor, stopCh, appLogger)
	default:
		err = runPolling(cfg, client, processor, stopCh, appLogger)
	}

	metricsCtx, metricsCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer metricsCancel()

	err = multierr.Append(err, metricsServer.Stop(metricsCtx))

	if err != nil {
		return err
	}

	appLogger.Info("Сервис успешно остановлен")

	return nil
}
