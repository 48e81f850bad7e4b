package telegram

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
)

// ProxyConfig описывает прокси, через который идут все сетевые вызовы.
type ProxyConfig struct {
	Type     string
	Host     string
	Port     int
	User     string
	Password string
}

// URL собирает адрес прокси в виде type://[user:password@]host:port.
func (p *ProxyConfig) URL() string {
	scheme := p.Type
	if scheme == "" {
		scheme = "http"
	}

	u := &url.URL{
		Scheme: scheme,
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
	}

	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}

	return u.String()
}

func newHTTPClient(cfg *ClientConfig, logger *slog.Logger) *resty.Client {
	// Таймаут клиенту не назначается: дедлайн каждого запроса задаётся через
	// контекст, иначе длинный опрос обрывался бы раньше серверного удержания.
	client := resty.New()

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		// Проверка сертификата отключена намеренно: Telegram допускает вебхуки
		// с самоподписанными сертификатами. Известная слабость.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // G402: см. комментарий выше
	}

	if cfg.Proxy != nil {
		if proxyURL, err := url.Parse(cfg.Proxy.URL()); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	if cfg.RetryCount > 0 {
		client.SetRetryCount(cfg.RetryCount)
		client.SetRetryWaitTime(cfg.RetryBackoff)
		client.SetRetryMaxWaitTime(cfg.RetryBackoff * 5)

		client.AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}

			for _, status := range cfg.RetryableStatusCodes {
				if r.StatusCode() == status {
					return true
				}
			}

			return false
		})
	}

	circuitBreakerSettings := gobreaker.Settings{
		Name:        "telegram_circuit_breaker",
		MaxRequests: uint32(cfg.CBPermittedCallsInHalfOpen), //nolint:gosec // G115: Значение из конфига
		Interval:    time.Duration(cfg.CBSlidingWindowSize) * time.Second,
		Timeout:     cfg.CBWaitDurationInOpenState,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= uint32(cfg.CBMinimumRequiredCalls) && //nolint:gosec // G115: Значение из конфига
				failureRatio >= float64(cfg.CBFailureRateThreshold)/100.0
		},
	}

	client.SetTransport(&circuitBreakerTransport{
		circuitBreaker:    gobreaker.NewCircuitBreaker(circuitBreakerSettings),
		originalTransport: transport,
		logger:            logger,
	})

	if logger != nil {
		client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			if resp.Request.Attempt > 1 {
				logger.Info("Повторная попытка HTTP запроса",
					"url", maskToken(resp.Request.URL),
					"attempt", resp.Request.Attempt,
					"status", resp.StatusCode(),
				)
			}

			return nil
		})
	}

	return client
}

type circuitBreakerTransport struct {
	circuitBreaker    *gobreaker.CircuitBreaker
	originalTransport http.RoundTripper
	logger            *slog.Logger
}

func (t *circuitBreakerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	result, err := t.circuitBreaker.Execute(func() (interface{}, error) {
		resp, err := t.originalTransport.RoundTrip(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			return nil, &HTTPError{StatusCode: resp.StatusCode}
		}

		return resp, nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState && t.logger != nil {
			t.logger.Warn("Circuit breaker открыт", "url", maskToken(req.URL.String()))
		}

		return nil, err
	}

	return result.(*http.Response), nil
}
