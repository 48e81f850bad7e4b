package config

import (
	"time"

	"github.com/spf13/viper"
)

type TransportMode string

const (
	PollingMode TransportMode = "POLLING"
	WebhookMode TransportMode = "WEBHOOK"
)

type Config struct {
	TelegramBotToken string        `mapstructure:"TELEGRAM_BOT_TOKEN"`
	APIBaseURL       string        `mapstructure:"API_BASE_URL"`
	WebhookURL       string        `mapstructure:"WEBHOOK_URL"`
	UpdateTransport  TransportMode `mapstructure:"UPDATE_TRANSPORT"`
	BotServerPort    int           `mapstructure:"BOT_SERVER_PORT"`
	BotMetricsPort   int           `mapstructure:"BOT_METRICS_PORT"`

	ProxyType     string `mapstructure:"PROXY_TYPE"`
	ProxyHost     string `mapstructure:"PROXY_HOST"`
	ProxyPort     int    `mapstructure:"PROXY_PORT"`
	ProxyUser     string `mapstructure:"PROXY_USER"`
	ProxyPassword string `mapstructure:"PROXY_PASSWORD"`

	HTTPRequestTimeout time.Duration `mapstructure:"HTTP_REQUEST_TIMEOUT"`
	LongPollTimeout    int           `mapstructure:"LONG_POLL_TIMEOUT"`
	LongPollLimit      int           `mapstructure:"LONG_POLL_LIMIT"`

	RetryCount           int           `mapstructure:"RETRY_COUNT"`
	RetryBackoff         time.Duration `mapstructure:"RETRY_BACKOFF"`
	RetryableStatusCodes []int         `mapstructure:"RETRYABLE_STATUS_CODES"`

	CBSlidingWindowSize        int           `mapstructure:"CB_SLIDING_WINDOW_SIZE"`
	CBMinimumRequiredCalls     int           `mapstructure:"CB_MINIMUM_REQUIRED_CALLS"`
	CBFailureRateThreshold     int           `mapstructure:"CB_FAILURE_RATE_THRESHOLD"`
	CBPermittedCallsInHalfOpen int           `mapstructure:"CB_PERMITTED_CALLS_IN_HALF_OPEN"`
	CBWaitDurationInOpenState  time.Duration `mapstructure:"CB_WAIT_DURATION_IN_OPEN_STATE"`

	RateLimitRequests int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow   time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`

	LogDispatchErrors bool `mapstructure:"LOG_DISPATCH_ERRORS"`
}

func LoadConfig() *Config {
	setDefaults()

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	_ = viper.ReadInConfig()

	config := &Config{}

	if err := viper.Unmarshal(config); err != nil {
		return getDefaultConfig()
	}

	return config
}

func setDefaults() {
	viper.SetDefault("API_BASE_URL", "https://api.telegram.org")
	viper.SetDefault("UPDATE_TRANSPORT", string(PollingMode))
	viper.SetDefault("BOT_SERVER_PORT", 8080)
	viper.SetDefault("BOT_METRICS_PORT", 9094)

	viper.SetDefault("HTTP_REQUEST_TIMEOUT", "30s")
	viper.SetDefault("LONG_POLL_TIMEOUT", 30)
	viper.SetDefault("LONG_POLL_LIMIT", 100)

	viper.SetDefault("RETRY_COUNT", 0)
	viper.SetDefault("RETRY_BACKOFF", "1s")
	viper.SetDefault("RETRYABLE_STATUS_CODES", []int{429, 500, 502, 503, 504})

	viper.SetDefault("CB_SLIDING_WINDOW_SIZE", 10)
	viper.SetDefault("CB_MINIMUM_REQUIRED_CALLS", 5)
	viper.SetDefault("CB_FAILURE_RATE_THRESHOLD", 50)
	viper.SetDefault("CB_PERMITTED_CALLS_IN_HALF_OPEN", 2)
	viper.SetDefault("CB_WAIT_DURATION_IN_OPEN_STATE", "10s")

	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")

	viper.SetDefault("LOG_DISPATCH_ERRORS", true)
}

func getDefaultConfig() *Config {
	return &Config{
		APIBaseURL:      "https://api.telegram.org",
		UpdateTransport: PollingMode,
		BotServerPort:   8080,
		BotMetricsPort:  9094,

		HTTPRequestTimeout: 30 * time.Second,
		LongPollTimeout:    30,
		LongPollLimit:      100,

		RetryCount:           0,
		RetryBackoff:         1 * time.Second,
		RetryableStatusCodes: []int{429, 500, 502, 503, 504},

		CBSlidingWindowSize:        10,
		CBMinimumRequiredCalls:     5,
		CBFailureRateThreshold:     50,
		CBPermittedCallsInHalfOpen: 2,
		CBWaitDurationInOpenState:  10 * time.Second,

		RateLimitRequests: 100,
		RateLimitWindow:   1 * time.Minute,

		LogDispatchErrors: true,
	}
}
