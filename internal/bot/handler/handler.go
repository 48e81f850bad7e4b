package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/central-university-dev/go-botapi/internal/common/metrics"
	"github.com/central-university-dev/go-botapi/pkg/telegram"
)

const handleTimeout = 10 * time.Second

// UpdateProcessor — демонстрационная логика бота: отвечает на команды,
// повторяет текстовые сообщения и подтверждает callback-запросы.
type UpdateProcessor struct {
	client  *telegram.Client
	updates *telegram.UpdateContext
	logger  *slog.Logger
}

func NewUpdateProcessor(client *telegram.Client, updates *telegram.UpdateContext, logger *slog.Logger) *UpdateProcessor {
	return &UpdateProcessor{
		client:  client,
		updates: updates,
		logger:  logger,
	}
}

// ServeHTTP принимает обновление вебхуком. Некорректное тело не затирает
// ранее сохранённое обновление и отвечает 400.
func (p *UpdateProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	update, err := p.updates.ReadFrom(r.Body)
	if err != nil {
		http.Error(w, "invalid update", http.StatusBadRequest)
		return
	}

	metrics.RecordUpdateReceived(string(update.Kind))

	ctx, cancel := context.WithTimeout(r.Context(), handleTimeout)
	defer cancel()

	p.HandleUpdate(ctx, update)

	w.WriteHeader(http.StatusOK)
}

func (p *UpdateProcessor) HandleUpdate(ctx context.Context, update *telegram.Update) {
	p.updates.SetUpdate(update)

	switch update.Kind {
	case telegram.KindMessage:
		p.handleMessage(ctx, update)
	case telegram.KindCallbackQuery:
		p.handleCallback(ctx, update)
	default:
		p.logger.Info("Обновление без обработчика",
			"update_id", update.UpdateID,
			"kind", string(update.Kind),
		)
	}
}

func (p *UpdateProcessor) handleMessage(ctx context.Context, update *telegram.Update) {
	chatID, ok := update.ChatID()
	if !ok {
		return
	}

	text, _ := update.Text()
	userID, _ := update.UserID()

	p.logger.Info("Получено сообщение",
		"chat_id", chatID,
		"user_id", userID,
		"text", text,
	)

	messageType := "message"
	if update.IsCommand() {
		messageType = "command"
	}

	metrics.RecordUserMessage(strconv.FormatInt(chatID, 10), messageType)

	var response string

	var markup map[string]any

	if command, isCommand := update.Command(); isCommand {
		response, markup = p.processCommand(command, update)
	} else if text != "" {
		response = text
	}

	if response == "" {
		return
	}

	params := telegram.Params{
		"chat_id": chatID,
		"text":    response,
	}

	if markup != nil {
		params["reply_markup"] = markup
	}

	if result := p.client.SendMessage(ctx, params); !result.OK() {
		p.logger.Error("Ошибка при отправке ответа",
			"chat_id", chatID,
			"raw", result.Raw(),
		)
	}
}

func (p *UpdateProcessor) processCommand(command string, update *telegram.Update) (response string, markup map[string]any) {
	switch command {
	case "start":
		name := update.FullName()
		if name == "" {
			name = "незнакомец"
		}

		keyboard := telegram.InlineKeyboardMarkup([][]map[string]any{
			{telegram.InlineKeyboardButton("Помощь", "", "help")},
		})

		return fmt.Sprintf("Привет, %s! Отправь мне сообщение, и я повторю его.", name), keyboard
	case "help":
		return "Доступные команды:\n/start — начать работу\n/help — эта справка", nil
	default:
		return "Неизвестная команда: /" + command, nil
	}
}

func (p *UpdateProcessor) handleCallback(ctx context.Context, update *telegram.Update) {
	callbackID, ok := update.CallbackQueryID()
	if !ok {
		return
	}

	if result := p.client.AnswerCallbackQuery(ctx, telegram.Params{"callback_query_id": callbackID}); !result.OK() {
		p.logger.Error("Ошибка при ответе на callback-запрос", "callback_query_id", callbackID)
		return
	}

	if data, ok := update.CallbackData(); ok && data == "help" {
		if chatID, ok := update.ChatID(); ok {
			response, _ := p.processCommand("help", update)

			p.client.SendMessage(ctx, telegram.Params{
				"chat_id": chatID,
				"text":    response,
			})
		}
	}
}
