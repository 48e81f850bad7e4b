package telegram

import (
	"encoding/json"
	"strings"

	"github.com/go-faster/jx"
)

type UpdateKind string

const (
	KindMessage              UpdateKind = "message"
	KindEditedMessage        UpdateKind = "edited_message"
	KindChannelPost          UpdateKind = "channel_post"
	KindEditedChannelPost    UpdateKind = "edited_channel_post"
	KindMessageReaction      UpdateKind = "message_reaction"
	KindMessageReactionCount UpdateKind = "message_reaction_count"
	KindInlineQuery          UpdateKind = "inline_query"
	KindChosenInlineResult   UpdateKind = "chosen_inline_result"
	KindCallbackQuery        UpdateKind = "callback_query"
	KindShippingQuery        UpdateKind = "shipping_query"
	KindPreCheckoutQuery     UpdateKind = "pre_checkout_query"
	KindMyChatMember         UpdateKind = "my_chat_member"
	KindChatMember           UpdateKind = "chat_member"
	KindChatJoinRequest      UpdateKind = "chat_join_request"
	KindChatBoost            UpdateKind = "chat_boost"
	KindRemovedChatBoost     UpdateKind = "removed_chat_boost"
	KindPollAnswer           UpdateKind = "poll_answer"
)

var knownKinds = map[UpdateKind]struct{}{
	KindMessage:              {},
	KindEditedMessage:        {},
	KindChannelPost:          {},
	KindEditedChannelPost:    {},
	KindMessageReaction:      {},
	KindMessageReactionCount: {},
	KindInlineQuery:          {},
	KindChosenInlineResult:   {},
	KindCallbackQuery:        {},
	KindShippingQuery:        {},
	KindPreCheckoutQuery:     {},
	KindMyChatMember:         {},
	KindChatMember:           {},
	KindChatJoinRequest:      {},
	KindChatBoost:            {},
	KindRemovedChatBoost:     {},
	KindPollAnswer:           {},
}

// Update — одно событие, полученное от Telegram. Тип события определяется
// единственным ключом верхнего уровня, отличным от update_id.
type Update struct {
	UpdateID int64
	Kind     UpdateKind

	payload map[string]any
	raw     []byte
}

// ParseUpdate разбирает сырое обновление и классифицирует его. Обновление
// считается некорректным, если ключей, отличных от update_id, нет, больше
// одного, либо найденный ключ не входит в известный набор типов.
func ParseUpdate(raw []byte) (*Update, error) {
	var (
		updateID   int64
		candidate  string
		candidates int
	)

	d := jx.DecodeBytes(raw)

	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) == "update_id" {
			id, err := d.Int64()
			updateID = id

			return err
		}

		candidates++
		candidate = string(key)

		return d.Skip()
	}); err != nil {
		return nil, &ErrInvalidUpdate{Reason: err.Error()}
	}

	if candidates == 0 {
		return nil, &ErrInvalidUpdate{Reason: "не найден ключ типа обновления"}
	}

	if candidates > 1 {
		return nil, &ErrInvalidUpdate{Reason: "найдено несколько ключей типа обновления"}
	}

	kind := UpdateKind(candidate)
	if _, ok := knownKinds[kind]; !ok {
		return nil, &ErrInvalidUpdate{Reason: "неизвестный тип обновления: " + candidate}
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &ErrInvalidUpdate{Reason: err.Error()}
	}

	payload, ok := decoded[candidate].(map[string]any)
	if !ok {
		return nil, &ErrInvalidUpdate{Reason: "тело обновления не является объектом"}
	}

	return &Update{
		UpdateID: updateID,
		Kind:     kind,
		payload:  payload,
		raw:      raw,
	}, nil
}

// Raw возвращает исходное тело обновления.
func (u *Update) Raw() []byte {
	return u.raw
}

func (u *Update) lookup(path ...string) (any, bool) {
	var current any = u.payload

	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

func (u *Update) str(path ...string) (string, bool) {
	value, ok := u.lookup(path...)
	if !ok {
		return "", false
	}

	s, ok := value.(string)

	return s, ok
}

func (u *Update) integer(path ...string) (int64, bool) {
	value, ok := u.lookup(path...)
	if !ok {
		return 0, false
	}

	// encoding/json декодирует числа в float64.
	f, ok := value.(float64)

	return int64(f), ok
}

func (u *Update) boolean(path ...string) (bool, bool) {
	value, ok := u.lookup(path...)
	if !ok {
		return false, false
	}

	b, ok := value.(bool)

	return b, ok
}

func (u *Update) hasMessageBody() bool {
	switch u.Kind {
	case KindMessage, KindEditedMessage, KindChannelPost, KindEditedChannelPost:
		return true
	default:
		return false
	}
}

// fromPath возвращает путь до объекта отправителя в зависимости от типа обновления.
func (u *Update) fromPath() []string {
	switch u.Kind {
	case KindMessageReaction, KindPollAnswer:
		return []string{"user"}
	case KindChatBoost, KindRemovedChatBoost:
		return []string{"boost", "source", "user"}
	default:
		return []string{"from"}
	}
}

// chatPath возвращает путь до объекта чата в зависимости от типа обновления.
func (u *Update) chatPath() []string {
	switch u.Kind {
	case KindCallbackQuery:
		return []string{"message", "chat"}
	case KindPollAnswer:
		return []string{"voter_chat"}
	default:
		return []string{"chat"}
	}
}

// Text возвращает текстовое содержимое обновления: text для сообщений,
// query для инлайн-запросов, data для callback-запросов.
func (u *Update) Text() (string, bool) {
	switch {
	case u.hasMessageBody():
		return u.str("text")
	case u.Kind == KindInlineQuery || u.Kind == KindChosenInlineResult:
		return u.str("query")
	case u.Kind == KindCallbackQuery:
		return u.str("data")
	default:
		return "", false
	}
}

func (u *Update) ChatID() (int64, bool) {
	return u.integer(append(u.chatPath(), "id")...)
}

func (u *Update) ChatType() (string, bool) {
	return u.str(append(u.chatPath(), "type")...)
}

func (u *Update) ChatTitle() (string, bool) {
	return u.str(append(u.chatPath(), "title")...)
}

func (u *Update) ChatUsername() (string, bool) {
	return u.str(append(u.chatPath(), "username")...)
}

func (u *Update) UserID() (int64, bool) {
	return u.integer(append(u.fromPath(), "id")...)
}

func (u *Update) FirstName() (string, bool) {
	return u.str(append(u.fromPath(), "first_name")...)
}

func (u *Update) LastName() (string, bool) {
	return u.str(append(u.fromPath(), "last_name")...)
}

func (u *Update) Username() (string, bool) {
	return u.str(append(u.fromPath(), "username")...)
}

func (u *Update) LanguageCode() (string, bool) {
	return u.str(append(u.fromPath(), "language_code")...)
}

func (u *Update) IsBot() (bool, bool) {
	return u.boolean(append(u.fromPath(), "is_bot")...)
}

func (u *Update) IsPremium() (bool, bool) {
	return u.boolean(append(u.fromPath(), "is_premium")...)
}

// FullName возвращает имя и фамилию отправителя, разделённые одним пробелом.
// Пустые части отбрасываются.
func (u *Update) FullName() string {
	first, _ := u.FirstName()
	last, _ := u.LastName()

	return strings.TrimSpace(first + " " + last)
}

func (u *Update) MessageID() (int64, bool) {
	if u.Kind == KindCallbackQuery {
		return u.integer("message", "message_id")
	}

	return u.integer("message_id")
}

func (u *Update) Caption() (string, bool) {
	if !u.hasMessageBody() {
		return "", false
	}

	return u.str("caption")
}

func (u *Update) MediaGroupID() (string, bool) {
	if !u.hasMessageBody() {
		return "", false
	}

	return u.str("media_group_id")
}

func (u *Update) Date() (int64, bool) {
	return u.integer("date")
}

type Location struct {
	Latitude  float64
	Longitude float64
}

func (u *Update) Location() (Location, bool) {
	value, ok := u.lookup("location")
	if !ok {
		return Location{}, false
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return Location{}, false
	}

	lat, latOK := obj["latitude"].(float64)
	lon, lonOK := obj["longitude"].(float64)

	if !latOK || !lonOK {
		return Location{}, false
	}

	return Location{Latitude: lat, Longitude: lon}, true
}

func (u *Update) CallbackQueryID() (string, bool) {
	if u.Kind != KindCallbackQuery {
		return "", false
	}

	return u.str("id")
}

func (u *Update) CallbackData() (string, bool) {
	if u.Kind != KindCallbackQuery {
		return "", false
	}

	return u.str("data")
}

func (u *Update) InlineQueryID() (string, bool) {
	if u.Kind != KindInlineQuery {
		return "", false
	}

	return u.str("id")
}

func (u *Update) Query() (string, bool) {
	if u.Kind != KindInlineQuery && u.Kind != KindChosenInlineResult {
		return "", false
	}

	return u.str("query")
}

func (u *Update) ChosenInlineResultID() (string, bool) {
	if u.Kind != KindChosenInlineResult {
		return "", false
	}

	return u.str("result_id")
}

func (u *Update) ShippingQueryID() (string, bool) {
	if u.Kind != KindShippingQuery {
		return "", false
	}

	return u.str("id")
}

func (u *Update) PreCheckoutQueryID() (string, bool) {
	if u.Kind != KindPreCheckoutQuery {
		return "", false
	}

	return u.str("id")
}

func (u *Update) PollID() (string, bool) {
	if u.Kind != KindPollAnswer {
		return "", false
	}

	return u.str("poll_id")
}

func (u *Update) PollOptionIDs() ([]int64, bool) {
	if u.Kind != KindPollAnswer {
		return nil, false
	}

	value, ok := u.lookup("option_ids")
	if !ok {
		return nil, false
	}

	items, ok := value.([]any)
	if !ok {
		return nil, false
	}

	ids := make([]int64, 0, len(items))

	for _, item := range items {
		f, ok := item.(float64)
		if !ok {
			return nil, false
		}

		ids = append(ids, int64(f))
	}

	return ids, true
}

// Reaction — одна реакция на сообщение (эмодзи либо кастомное эмодзи).
type Reaction struct {
	Type          string
	Emoji         string
	CustomEmojiID string
}

func (u *Update) NewReaction() ([]Reaction, bool) {
	return u.reactions("new_reaction")
}

func (u *Update) OldReaction() ([]Reaction, bool) {
	return u.reactions("old_reaction")
}

func (u *Update) reactions(key string) ([]Reaction, bool) {
	if u.Kind != KindMessageReaction {
		return nil, false
	}

	value, ok := u.lookup(key)
	if !ok {
		return nil, false
	}

	items, ok := value.([]any)
	if !ok {
		return nil, false
	}

	reactions := make([]Reaction, 0, len(items))

	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}

		r := Reaction{}

		if t, ok := obj["type"].(string); ok {
			r.Type = t
		}

		if e, ok := obj["emoji"].(string); ok {
			r.Emoji = e
		}

		if id, ok := obj["custom_emoji_id"].(string); ok {
			r.CustomEmojiID = id
		}

		reactions = append(reactions, r)
	}

	return reactions, true
}

// IsCommand сообщает, начинается ли текст сообщения с команды вида /cmd.
func (u *Update) IsCommand() bool {
	if u.Kind != KindMessage {
		return false
	}

	text, ok := u.str("text")

	return ok && strings.HasPrefix(text, "/")
}

// Command возвращает имя команды без слеша и упоминания бота: "/start@bot arg" -> "start".
func (u *Update) Command() (string, bool) {
	if !u.IsCommand() {
		return "", false
	}

	text, _ := u.str("text")

	command := strings.Fields(text)[0]
	command = strings.TrimPrefix(command, "/")

	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}

	return command, true
}
