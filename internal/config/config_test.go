package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-botapi/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := config.LoadConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "https://api.telegram.org", cfg.APIBaseURL)
	assert.Equal(t, config.PollingMode, cfg.UpdateTransport)
	assert.Equal(t, 8080, cfg.BotServerPort)
	assert.Equal(t, 9094, cfg.BotMetricsPort)

	assert.Equal(t, 30*time.Second, cfg.HTTPRequestTimeout)
	assert.Equal(t, 30, cfg.LongPollTimeout)
	assert.Equal(t, 100, cfg.LongPollLimit)

	assert.Equal(t, 0, cfg.RetryCount, "Повторы по умолчанию выключены")

	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.True(t, cfg.LogDispatchErrors)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "12345:TEST")
	t.Setenv("UPDATE_TRANSPORT", "WEBHOOK")
	t.Setenv("BOT_SERVER_PORT", "9000")
	t.Setenv("LONG_POLL_TIMEOUT", "60")

	cfg := config.LoadConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "12345:TEST", cfg.TelegramBotToken)
	assert.Equal(t, config.WebhookMode, cfg.UpdateTransport)
	assert.Equal(t, 9000, cfg.BotServerPort)
	assert.Equal(t, 60, cfg.LongPollTimeout)
}
