package telegram

import (
	"io"
	"log/slog"
)

// UpdateContext хранит текущее обрабатываемое обновление. Обновление
// заменяется целиком: либо при чтении тела вебхука, либо явной подстановкой
// (длинный опрос, тесты).
type UpdateContext struct {
	current *Update
	logger  *slog.Logger
}

func NewUpdateContext(logger *slog.Logger) *UpdateContext {
	return &UpdateContext{
		logger: logger,
	}
}

// ReadFrom читает тело входящего запроса и разбирает его как обновление.
// При ошибке разбора ранее сохранённое обновление не затирается и
// возвращается вместе с ошибкой.
func (c *UpdateContext) ReadFrom(r io.Reader) (*Update, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		if c.logger != nil {
			c.logger.Error("Ошибка при чтении тела запроса", "error", err)
		}

		return c.current, err
	}

	update, err := ParseUpdate(body)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("Не удалось разобрать входящее обновление", "error", err)
		}

		return c.current, err
	}

	c.current = update

	return update, nil
}

func (c *UpdateContext) SetUpdate(update *Update) {
	c.current = update
}

// Update возвращает текущее обновление либо nil, если ни одно ещё не получено.
func (c *UpdateContext) Update() *Update {
	return c.current
}

func (c *UpdateContext) Kind() (UpdateKind, error) {
	if c.current == nil {
		return "", &ErrInvalidUpdate{Reason: "обновление не установлено"}
	}

	return c.current.Kind, nil
}
