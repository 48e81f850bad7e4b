package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/central-university-dev/go-botapi/internal/common/metrics"
)

const (
	defaultBaseURL        = "https://api.telegram.org"
	defaultRequestTimeout = 30 * time.Second

	// transportErrorCode подставляется в синтетический ответ при сетевой ошибке.
	transportErrorCode = 520
)

// Params — набор аргументов одного исходящего вызова. Необязательные ключи
// просто отсутствуют: присутствие ключа определяет, получит ли сервер поле.
type Params map[string]any

// APIResponse повторяет форму ответа Telegram API.
type APIResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Result — исход одного вызова. Возможны три формы: разобранный ответ API,
// сырое тело (сервер вернул не-JSON, Response == nil) и синтетический ответ
// ok=false при сетевой ошибке. Сетевые ошибки никогда не возвращаются как error.
type Result struct {
	StatusCode int
	Body       []byte
	Response   *APIResponse
}

func (r *Result) OK() bool {
	return r.Response != nil && r.Response.OK
}

// Raw возвращает тело ответа как строку; единственный способ прочитать
// успешный ответ, который не удалось разобрать как JSON.
func (r *Result) Raw() string {
	return string(r.Body)
}

// Decode разбирает поле result успешного ответа в переданное значение.
func (r *Result) Decode(v any) error {
	if r.Response == nil {
		return &ErrAPIRequest{ErrorCode: r.StatusCode, Description: "ответ не является JSON"}
	}

	if !r.Response.OK {
		return &ErrAPIRequest{ErrorCode: r.Response.ErrorCode, Description: r.Response.Description}
	}

	return json.Unmarshal(r.Response.Result, v)
}

// ErrorLogger получает исход каждого вызова вместе со снимком текущего
// обновления и аргументами. Ошибки и паники внутри него не распространяются.
type ErrorLogger interface {
	LogDispatch(method string, result *Result, update *Update, params Params)
}

type ClientConfig struct {
	Token   string
	BaseURL string
	Proxy   *ProxyConfig

	RequestTimeout       time.Duration
	RetryCount           int
	RetryBackoff         time.Duration
	RetryableStatusCodes []int

	CBSlidingWindowSize        int
	CBMinimumRequiredCalls     int
	CBFailureRateThreshold     int
	CBPermittedCallsInHalfOpen int
	CBWaitDurationInOpenState  time.Duration
}

func (cfg *ClientConfig) normalize() {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	if cfg.CBSlidingWindowSize <= 0 {
		cfg.CBSlidingWindowSize = 10
	}

	if cfg.CBMinimumRequiredCalls <= 0 {
		cfg.CBMinimumRequiredCalls = 5
	}

	if cfg.CBFailureRateThreshold <= 0 {
		cfg.CBFailureRateThreshold = 50
	}

	if cfg.CBPermittedCallsInHalfOpen <= 0 {
		cfg.CBPermittedCallsInHalfOpen = 2
	}

	if cfg.CBWaitDurationInOpenState <= 0 {
		cfg.CBWaitDurationInOpenState = 10 * time.Second
	}
}

// Client отправляет вызовы Telegram Bot API.
type Client struct {
	client         *resty.Client
	token          string
	baseURL        string
	requestTimeout time.Duration
	logger         *slog.Logger
	errorLogger    ErrorLogger
	updates        *UpdateContext
}

func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, &ErrEmptyToken{}
	}

	cfg.normalize()

	return &Client{
		client:         newHTTPClient(&cfg, logger),
		token:          cfg.Token,
		baseURL:        cfg.BaseURL,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger,
	}, nil
}

// SetErrorLogger подключает необязательный журнал ошибок вызовов.
func (c *Client) SetErrorLogger(errorLogger ErrorLogger) {
	c.errorLogger = errorLogger
}

// BindUpdateContext привязывает контекст обновлений: его текущее обновление
// попадает в снимок, передаваемый журналу ошибок.
func (c *Client) BindUpdateContext(updates *UpdateContext) {
	c.updates = updates
}

var tokenRe = regexp.MustCompile(`bot[^/\s]+`)

func maskToken(s string) string {
	return tokenRe.ReplaceAllString(s, "bot[MASKED_TOKEN]")
}

func (c *Client) sanitizeError(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s", maskToken(err.Error()))
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// withDeadline навешивает дедлайн по умолчанию, если вызывающий не задал
// собственный. Явный дедлайн контекста всегда имеет приоритет: длинный опрос
// легитимно держит соединение дольше обычного запроса.
func (c *Client) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, c.requestTimeout)
}

// Send выполняет вызов метода Telegram API. При post=false аргументы уходят
// строкой запроса (GET), иначе — multipart-телом; chat_id при этом
// выносится в строку запроса, а certificate с путём к читаемому локальному
// файлу превращается в загрузку файла.
func (c *Client) Send(ctx context.Context, method string, params Params, post bool) *Result {
	started := time.Now()

	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	req := c.client.R().SetContext(ctx)

	var (
		resp *resty.Response
		err  error
	)

	if post {
		form := make(map[string]string, len(params))

		for key, value := range params {
			switch {
			case key == "chat_id":
				req.SetQueryParam(key, formatParam(value))
			case key == "certificate" && isReadableFile(value):
				req.SetFile(key, value.(string))
			default:
				form[key] = formatParam(value)
			}
		}

		if len(form) > 0 {
			req.SetMultipartFormData(form)
		}

		resp, err = req.Post(c.methodURL(method))
	} else {
		for key, value := range params {
			req.SetQueryParam(key, formatParam(value))
		}

		resp, err = req.Get(c.methodURL(method))
	}

	result := c.buildResult(method, resp, err)

	metrics.RecordAPIRequest(method, result.OK(), time.Since(started))

	c.notifyErrorLogger(method, result, params)

	return result
}

func (c *Client) buildResult(method string, resp *resty.Response, err error) *Result {
	if err != nil {
		sanitized := c.sanitizeError(err)

		if c.logger != nil {
			c.logger.Warn("Ошибка транспорта при вызове метода",
				"method", method,
				"error", sanitized,
			)
		}

		synthetic := &APIResponse{
			OK:          false,
			ErrorCode:   transportErrorCode,
			Description: sanitized.Error(),
		}

		body, _ := json.Marshal(synthetic)

		return &Result{Body: body, Response: synthetic}
	}

	result := &Result{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}

	var decoded APIResponse
	if jsonErr := json.Unmarshal(result.Body, &decoded); jsonErr == nil {
		result.Response = &decoded
	} else if c.logger != nil {
		c.logger.Warn("Ответ сервера не является JSON",
			"method", method,
			"status", result.StatusCode,
		)
	}

	return result
}

// notifyErrorLogger передаёт исход вызова журналу ошибок. Сбои журнала
// глушатся: они не должны влиять на результат вызова.
func (c *Client) notifyErrorLogger(method string, result *Result, params Params) {
	if c.errorLogger == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil && c.logger != nil {
			c.logger.Error("Паника в журнале ошибок вызовов", "panic", r)
		}
	}()

	var update *Update
	if c.updates != nil {
		update = c.updates.Update()
	}

	c.errorLogger.LogDispatch(method, result, update, params)
}

func formatParam(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	}
}

func isReadableFile(value any) bool {
	path, ok := value.(string)
	if !ok {
		return false
	}

	info, err := os.Stat(path)

	return err == nil && info.Mode().IsRegular()
}
