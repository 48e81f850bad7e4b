package telegram

import (
	"context"
	"fmt"
)

// Фасад методов API: каждый метод — проброс набора аргументов в одноимённый
// эндпоинт. Контракты аргументов и ответов описаны в документации Telegram.

func (c *Client) GetMe(ctx context.Context) *Result {
	return c.Send(ctx, "getMe", nil, false)
}

func (c *Client) SendMessage(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "sendMessage", params, true)
}

func (c *Client) ForwardMessage(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "forwardMessage", params, true)
}

func (c *Client) CopyMessage(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "copyMessage", params, true)
}

func (c *Client) SendPhoto(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "sendPhoto", params, true)
}

func (c *Client) SendDocument(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "sendDocument", params, true)
}

func (c *Client) SendLocation(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "sendLocation", params, true)
}

func (c *Client) SendChatAction(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "sendChatAction", params, true)
}

func (c *Client) SendPoll(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "sendPoll", params, true)
}

func (c *Client) EditMessageText(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "editMessageText", params, true)
}

func (c *Client) EditMessageReplyMarkup(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "editMessageReplyMarkup", params, true)
}

func (c *Client) DeleteMessage(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "deleteMessage", params, true)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "answerCallbackQuery", params, true)
}

func (c *Client) AnswerInlineQuery(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "answerInlineQuery", params, true)
}

func (c *Client) BanChatMember(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "banChatMember", params, true)
}

func (c *Client) UnbanChatMember(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "unbanChatMember", params, true)
}

func (c *Client) GetChat(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "getChat", params, false)
}

func (c *Client) LeaveChat(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "leaveChat", params, true)
}

func (c *Client) SetMyCommands(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "setMyCommands", params, true)
}

func (c *Client) SetWebhook(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "setWebhook", params, true)
}

func (c *Client) DeleteWebhook(ctx context.Context) *Result {
	return c.Send(ctx, "deleteWebhook", nil, true)
}

func (c *Client) GetWebhookInfo(ctx context.Context) *Result {
	return c.Send(ctx, "getWebhookInfo", nil, false)
}

func (c *Client) GetFile(ctx context.Context, params Params) *Result {
	return c.Send(ctx, "getFile", params, false)
}

// SetMessageReaction сводит поле reaction в плоский массив дескрипторов
// перед отправкой. Некорректная форма поля — синхронная ошибка, сетевой
// вызов при этом не выполняется.
func (c *Client) SetMessageReaction(ctx context.Context, params Params) (*Result, error) {
	if reaction, ok := params["reaction"]; ok {
		flat, err := FlattenReactions(reaction)
		if err != nil {
			return nil, err
		}

		params["reaction"] = flat
	}

	return c.Send(ctx, "setMessageReaction", params, true), nil
}

// DownloadFile скачивает файл по пути, полученному из getFile, в локальный
// файл destination. Сетевые ошибки здесь возвращаются как error.
func (c *Client) DownloadFile(ctx context.Context, remotePath, destination string) error {
	ctx, cancel := c.withDeadline(ctx)
	defer cancel()

	url := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, remotePath)

	resp, err := c.client.R().
		SetContext(ctx).
		SetOutput(destination).
		Get(url)

	if err != nil {
		return c.sanitizeError(err)
	}

	if !resp.IsSuccess() {
		return &HTTPError{StatusCode: resp.StatusCode()}
	}

	return nil
}
