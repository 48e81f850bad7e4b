package telegram

import (
	"log/slog"
)

// SlogErrorLogger пишет неуспешные вызовы в slog вместе со снимком текущего
// обновления и аргументами вызова.
type SlogErrorLogger struct {
	logger *slog.Logger
}

func NewSlogErrorLogger(logger *slog.Logger) *SlogErrorLogger {
	return &SlogErrorLogger{
		logger: logger,
	}
}

func (l *SlogErrorLogger) LogDispatch(method string, result *Result, update *Update, params Params) {
	if result.OK() {
		return
	}

	attrs := []any{
		"method", method,
		"params", params,
	}

	if result.Response != nil {
		attrs = append(attrs,
			"error_code", result.Response.ErrorCode,
			"description", result.Response.Description,
		)
	} else {
		attrs = append(attrs, "raw", result.Raw())
	}

	if update != nil {
		attrs = append(attrs, "update_id", update.UpdateID, "update_kind", string(update.Kind))
	}

	l.logger.Error("Вызов Telegram API завершился ошибкой", attrs...)
}
