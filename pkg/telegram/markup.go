package telegram

// Конструкторы reply_markup. Все функции чистые: собирают структуры в том
// виде, в котором их ожидает Telegram API, пустые поля отбрасываются.

type ReplyKeyboardOptions struct {
	IsPersistent          bool
	ResizeKeyboard        bool
	OneTimeKeyboard       bool
	InputFieldPlaceholder string
	Selective             bool
}

// ReplyKeyboardMarkup собирает обычную клавиатуру. resize_keyboard и
// one_time_keyboard сериализуются всегда, в том числе со значением false.
func ReplyKeyboardMarkup(keyboard [][]map[string]any, opts ReplyKeyboardOptions) map[string]any {
	markup := map[string]any{
		"keyboard":          keyboard,
		"resize_keyboard":   opts.ResizeKeyboard,
		"one_time_keyboard": opts.OneTimeKeyboard,
	}

	if opts.IsPersistent {
		markup["is_persistent"] = true
	}

	if opts.InputFieldPlaceholder != "" {
		markup["input_field_placeholder"] = opts.InputFieldPlaceholder
	}

	if opts.Selective {
		markup["selective"] = true
	}

	return markup
}

func InlineKeyboardMarkup(keyboard [][]map[string]any) map[string]any {
	return map[string]any{
		"inline_keyboard": keyboard,
	}
}

func RemoveKeyboard(selective bool) map[string]any {
	markup := map[string]any{
		"remove_keyboard": true,
	}

	if selective {
		markup["selective"] = true
	}

	return markup
}

func ForceReply(placeholder string, selective bool) map[string]any {
	markup := map[string]any{
		"force_reply": true,
	}

	if placeholder != "" {
		markup["input_field_placeholder"] = placeholder
	}

	if selective {
		markup["selective"] = true
	}

	return markup
}

func KeyboardButton(text string) map[string]any {
	return map[string]any{
		"text": text,
	}
}

func KeyboardButtonContact(text string) map[string]any {
	return map[string]any{
		"text":            text,
		"request_contact": true,
	}
}

func KeyboardButtonLocation(text string) map[string]any {
	return map[string]any{
		"text":             text,
		"request_location": true,
	}
}

func KeyboardButtonWebApp(text, url string) map[string]any {
	return map[string]any{
		"text":    text,
		"web_app": map[string]any{"url": url},
	}
}

// InlineKeyboardButton собирает инлайн-кнопку; пустые url и callback_data
// отбрасываются, у кнопки должно остаться ровно одно действие.
func InlineKeyboardButton(text, url, callbackData string) map[string]any {
	button := map[string]any{
		"text": text,
	}

	if url != "" {
		button["url"] = url
	}

	if callbackData != "" {
		button["callback_data"] = callbackData
	}

	return button
}

func InlineKeyboardButtonWebApp(text, url string) map[string]any {
	return map[string]any{
		"text":    text,
		"web_app": map[string]any{"url": url},
	}
}

// InlineKeyboardButtonPay собирает платёжную кнопку. pay сериализуется только
// со значением true: false равнозначен отсутствию поля.
func InlineKeyboardButtonPay(text string, pay bool) map[string]any {
	button := map[string]any{
		"text": text,
	}

	if pay {
		button["pay"] = true
	}

	return button
}

// ReactionEmoji описывает одну эмодзи-реакцию для setMessageReaction.
func ReactionEmoji(emoji string) map[string]any {
	return map[string]any{
		"type":  "emoji",
		"emoji": emoji,
	}
}

// Reactions собирает массив реакций из списка эмодзи.
func Reactions(emoji ...string) []map[string]any {
	descriptors := make([]map[string]any, 0, len(emoji))

	for _, e := range emoji {
		descriptors = append(descriptors, ReactionEmoji(e))
	}

	return descriptors
}

// FlattenReactions сводит список массивов реакций в один плоский массив
// дескрипторов, сохраняя порядок. Любое значение, не являющееся массивом,
// считается некорректным аргументом.
func FlattenReactions(reaction any) ([]any, error) {
	switch value := reaction.(type) {
	case []any:
		flat := make([]any, 0, len(value))

		for _, item := range value {
			switch inner := item.(type) {
			case []any:
				flat = append(flat, inner...)
			case []map[string]any:
				for _, descriptor := range inner {
					flat = append(flat, descriptor)
				}
			default:
				flat = append(flat, item)
			}
		}

		return flat, nil
	case []map[string]any:
		flat := make([]any, 0, len(value))

		for _, descriptor := range value {
			flat = append(flat, descriptor)
		}

		return flat, nil
	case [][]map[string]any:
		var flat []any

		for _, group := range value {
			for _, descriptor := range group {
				flat = append(flat, descriptor)
			}
		}

		return flat, nil
	default:
		return nil, &ErrInvalidArgument{Message: "поле reaction должно быть массивом"}
	}
}
