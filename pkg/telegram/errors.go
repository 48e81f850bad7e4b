package telegram

import (
	"fmt"
)

type ErrEmptyToken struct{}

func (e *ErrEmptyToken) Error() string {
	return "не задан токен бота"
}

func (e *ErrEmptyToken) Is(target error) bool {
	_, ok := target.(*ErrEmptyToken)
	return ok
}

type ErrInvalidUpdate struct {
	Reason string
}

func (e *ErrInvalidUpdate) Error() string {
	return "некорректное обновление: " + e.Reason
}

func (e *ErrInvalidUpdate) Is(target error) bool {
	_, ok := target.(*ErrInvalidUpdate)
	return ok
}

type ErrInvalidArgument struct {
	Message string
}

func (e *ErrInvalidArgument) Error() string {
	return fmt.Sprintf("некорректный аргумент: %s", e.Message)
}

func (e *ErrInvalidArgument) Is(target error) bool {
	_, ok := target.(*ErrInvalidArgument)
	return ok
}

// ErrAPIRequest возникает, когда Telegram API вернул ok=false или тело, которое
// не удалось разобрать как JSON.
type ErrAPIRequest struct {
	Method      string
	ErrorCode   int
	Description string
}

func (e *ErrAPIRequest) Error() string {
	return fmt.Sprintf("ошибка при вызове метода %s: %d %s", e.Method, e.ErrorCode, e.Description)
}

func (e *ErrAPIRequest) Is(target error) bool {
	_, ok := target.(*ErrAPIRequest)
	return ok
}

type HTTPError struct {
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}
