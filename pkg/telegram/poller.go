package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/go-faster/errors"

	"github.com/central-university-dev/go-botapi/internal/common/metrics"
)

const (
	maxPollLimit = 100

	handleTimeout = 10 * time.Second
	retryPause    = 3 * time.Second
)

type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *Update)
}

// Poller получает обновления длинным опросом и передаёт их обработчику.
type Poller struct {
	client  *Client
	handler UpdateHandler
	logger  *slog.Logger

	offset  int64
	limit   int
	timeout int

	stopOnce sync.Once
	stopChan chan struct{}
}

func NewPoller(client *Client, handler UpdateHandler, limit, timeout int, logger *slog.Logger) *Poller {
	return &Poller{
		client:   client,
		handler:  handler,
		logger:   logger,
		limit:    limit,
		timeout:  timeout,
		stopChan: make(chan struct{}),
	}
}

// GetUpdates выполняет один запрос длинного опроса. При advance=true и
// непустом ответе выполняется второй вызов с offset = последний update_id + 1,
// подтверждающий получение пачки; его результат отбрасывается, а сбой не
// мешает вернуть уже полученные обновления.
func (p *Poller) GetUpdates(ctx context.Context, offset int64, limit, timeout int, advance bool) ([]*Update, error) {
	if limit <= 0 || limit > maxPollLimit {
		limit = maxPollLimit
	}

	// Запас поверх серверного таймаута: соединение легитимно висит открытым
	// всё запрошенное время удержания.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second+handleTimeout)
		defer cancel()
	}

	result := p.client.Send(ctx, "getUpdates", Params{
		"offset":  offset,
		"limit":   limit,
		"timeout": timeout,
	}, false)

	if result.Response == nil {
		return nil, &ErrAPIRequest{Method: "getUpdates", ErrorCode: result.StatusCode, Description: "ответ не является JSON"}
	}

	if !result.Response.OK {
		return nil, &ErrAPIRequest{
			Method:      "getUpdates",
			ErrorCode:   result.Response.ErrorCode,
			Description: result.Response.Description,
		}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(result.Response.Result, &items); err != nil {
		return nil, errors.Wrap(err, "ошибка при декодировании списка обновлений")
	}

	batch := make([]*Update, 0, len(items))

	for _, item := range items {
		update, err := ParseUpdate(item)
		if err != nil {
			if p.logger != nil {
				p.logger.Warn("Пропущено некорректное обновление", "error", err)
			}

			continue
		}

		metrics.RecordUpdateReceived(string(update.Kind))

		batch = append(batch, update)
	}

	if advance && len(batch) > 0 {
		p.confirm(ctx, batch[len(batch)-1].UpdateID)
	}

	return batch, nil
}

// confirm сдвигает серверный offset. Подтверждение выполняется по принципу
// «отправил и забыл»: результат отбрасывается, сбой только логируется.
func (p *Poller) confirm(ctx context.Context, lastUpdateID int64) {
	confirmation := p.client.Send(ctx, "getUpdates", Params{
		"offset":  lastUpdateID + 1,
		"limit":   1,
		"timeout": 0,
	}, false)

	if !confirmation.OK() && p.logger != nil {
		p.logger.Warn("Не удалось подтвердить получение обновлений",
			"offset", lastUpdateID+1,
		)
	}
}

func (p *Poller) Start() {
	if p.logger != nil {
		p.logger.Info("Запуск длинного опроса Telegram")
	}

	go func() {
		for {
			select {
			case <-p.stopChan:
				if p.logger != nil {
					p.logger.Info("Получен сигнал остановки поллера")
				}

				return
			default:
			}

			p.pollOnce()
		}
	}()
}

func (p *Poller) pollOnce() {
	batch, err := p.GetUpdates(context.Background(), p.offset, p.limit, p.timeout, true)
	if err != nil {
		if p.logger != nil {
			p.logger.Error("Ошибка при получении обновлений", "error", err)
		}

		select {
		case <-p.stopChan:
		case <-time.After(retryPause):
		}

		return
	}

	for _, update := range batch {
		p.offset = update.UpdateID + 1

		handleCtx, cancelHandle := context.WithTimeout(context.Background(), handleTimeout)
		p.handler.HandleUpdate(handleCtx, update)
		cancelHandle()
	}
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		if p.logger != nil {
			p.logger.Info("Остановка поллера")
		}

		close(p.stopChan)
	})
}

func (p *Poller) Close() error {
	p.Stop()

	return nil
}
