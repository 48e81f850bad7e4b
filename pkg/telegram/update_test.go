package telegram_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-botapi/pkg/telegram"
)

func TestParseUpdate_Classification(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind telegram.UpdateKind
	}{
		{
			name: "message",
			raw:  `{"update_id":1,"message":{"text":"hi"}}`,
			kind: telegram.KindMessage,
		},
		{
			name: "callback_query",
			raw:  `{"update_id":2,"callback_query":{"data":"x"}}`,
			kind: telegram.KindCallbackQuery,
		},
		{
			name: "poll_answer",
			raw:  `{"update_id":3,"poll_answer":{"poll_id":"p1"}}`,
			kind: telegram.KindPollAnswer,
		},
		{
			name: "message_reaction",
			raw:  `{"update_id":4,"message_reaction":{"message_id":10}}`,
			kind: telegram.KindMessageReaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := telegram.ParseUpdate([]byte(tt.raw))

			require.NoError(t, err)
			assert.Equal(t, tt.kind, update.Kind)
		})
	}
}

func TestParseUpdate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "только update_id",
			raw:  `{"update_id":1}`,
		},
		{
			name: "два ключа типа",
			raw:  `{"update_id":1,"message":{"text":"a"},"callback_query":{"data":"b"}}`,
		},
		{
			name: "неизвестный тип",
			raw:  `{"update_id":1,"something_new":{}}`,
		},
		{
			name: "не JSON",
			raw:  `not json`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := telegram.ParseUpdate([]byte(tt.raw))

			require.Error(t, err)
			assert.ErrorIs(t, err, &telegram.ErrInvalidUpdate{})
		})
	}
}

func TestUpdate_Text(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		text string
	}{
		{
			name: "message text",
			raw:  `{"update_id":1,"message":{"text":"hi"}}`,
			text: "hi",
		},
		{
			name: "callback data",
			raw:  `{"update_id":1,"callback_query":{"data":"x"}}`,
			text: "x",
		},
		{
			name: "inline query",
			raw:  `{"update_id":1,"inline_query":{"query":"q"}}`,
			text: "q",
		},
		{
			name: "edited message",
			raw:  `{"update_id":1,"edited_message":{"text":"fixed"}}`,
			text: "fixed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := telegram.ParseUpdate([]byte(tt.raw))
			require.NoError(t, err)

			text, ok := update.Text()

			require.True(t, ok)
			assert.Equal(t, tt.text, text)
		})
	}
}

func TestUpdate_Text_Absent(t *testing.T) {
	update, err := telegram.ParseUpdate([]byte(`{"update_id":1,"poll_answer":{"poll_id":"p"}}`))
	require.NoError(t, err)

	_, ok := update.Text()

	assert.False(t, ok)
}

func TestUpdate_ChatID(t *testing.T) {
	update, err := telegram.ParseUpdate([]byte(`{"update_id":1,"message":{"chat":{"id":42}}}`))
	require.NoError(t, err)

	chatID, ok := update.ChatID()

	require.True(t, ok)
	assert.Equal(t, int64(42), chatID)
}

func TestUpdate_ChatID_Callback(t *testing.T) {
	raw := `{"update_id":1,"callback_query":{"id":"cb1","message":{"message_id":7,"chat":{"id":99}}}}`

	update, err := telegram.ParseUpdate([]byte(raw))
	require.NoError(t, err)

	chatID, ok := update.ChatID()
	require.True(t, ok)
	assert.Equal(t, int64(99), chatID)

	messageID, ok := update.MessageID()
	require.True(t, ok)
	assert.Equal(t, int64(7), messageID)
}

func TestUpdate_ChatID_PollAnswerWithoutVoterChat(t *testing.T) {
	update, err := telegram.ParseUpdate([]byte(`{"update_id":1,"poll_answer":{}}`))
	require.NoError(t, err)

	_, ok := update.ChatID()

	assert.False(t, ok, "Отсутствие voter_chat — это absent, а не ошибка")
}

func TestUpdate_UserID_KindSpecificPaths(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		userID int64
	}{
		{
			name:   "message from",
			raw:    `{"update_id":1,"message":{"from":{"id":10}}}`,
			userID: 10,
		},
		{
			name:   "poll_answer user",
			raw:    `{"update_id":1,"poll_answer":{"user":{"id":20}}}`,
			userID: 20,
		},
		{
			name:   "message_reaction user",
			raw:    `{"update_id":1,"message_reaction":{"user":{"id":30}}}`,
			userID: 30,
		},
		{
			name:   "chat_boost source user",
			raw:    `{"update_id":1,"chat_boost":{"boost":{"source":{"user":{"id":40}}}}}`,
			userID: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := telegram.ParseUpdate([]byte(tt.raw))
			require.NoError(t, err)

			userID, ok := update.UserID()

			require.True(t, ok)
			assert.Equal(t, tt.userID, userID)
		})
	}
}

func TestUpdate_FullName(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "имя и фамилия",
			raw:      `{"update_id":1,"message":{"from":{"first_name":"Ann","last_name":"Lee"}}}`,
			expected: "Ann Lee",
		},
		{
			name:     "только имя",
			raw:      `{"update_id":1,"message":{"from":{"first_name":"Ann","last_name":""}}}`,
			expected: "Ann",
		},
		{
			name:     "пустые имя и фамилия",
			raw:      `{"update_id":1,"message":{"from":{"first_name":"","last_name":""}}}`,
			expected: "",
		},
		{
			name:     "отправитель отсутствует",
			raw:      `{"update_id":1,"message":{}}`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			update, err := telegram.ParseUpdate([]byte(tt.raw))
			require.NoError(t, err)

			assert.Equal(t, tt.expected, update.FullName())
		})
	}
}

func TestUpdate_Reactions(t *testing.T) {
	raw := `{"update_id":1,"message_reaction":{"message_id":5,` +
		`"new_reaction":[{"type":"emoji","emoji":"👍"}],"old_reaction":[]}}`

	update, err := telegram.ParseUpdate([]byte(raw))
	require.NoError(t, err)

	newReaction, ok := update.NewReaction()
	require.True(t, ok)
	require.Len(t, newReaction, 1)
	assert.Equal(t, "👍", newReaction[0].Emoji)

	oldReaction, ok := update.OldReaction()
	require.True(t, ok)
	assert.Empty(t, oldReaction)
}

func TestUpdate_PollAnswer(t *testing.T) {
	raw := `{"update_id":1,"poll_answer":{"poll_id":"p1","option_ids":[0,2],"voter_chat":{"id":-100}}}`

	update, err := telegram.ParseUpdate([]byte(raw))
	require.NoError(t, err)

	pollID, ok := update.PollID()
	require.True(t, ok)
	assert.Equal(t, "p1", pollID)

	optionIDs, ok := update.PollOptionIDs()
	require.True(t, ok)
	assert.Equal(t, []int64{0, 2}, optionIDs)

	chatID, ok := update.ChatID()
	require.True(t, ok)
	assert.Equal(t, int64(-100), chatID)
}

func TestUpdate_Command(t *testing.T) {
	update, err := telegram.ParseUpdate([]byte(`{"update_id":1,"message":{"text":"/start@examplebot now"}}`))
	require.NoError(t, err)

	require.True(t, update.IsCommand())

	command, ok := update.Command()
	require.True(t, ok)
	assert.Equal(t, "start", command)
}

func TestUpdate_UserFields(t *testing.T) {
	raw := `{"update_id":1,"message":{"from":{"id":1,"is_bot":false,"is_premium":true,` +
		`"username":"ann","language_code":"ru"}}}`

	update, err := telegram.ParseUpdate([]byte(raw))
	require.NoError(t, err)

	username, ok := update.Username()
	require.True(t, ok)
	assert.Equal(t, "ann", username)

	language, ok := update.LanguageCode()
	require.True(t, ok)
	assert.Equal(t, "ru", language)

	isBot, ok := update.IsBot()
	require.True(t, ok)
	assert.False(t, isBot)

	isPremium, ok := update.IsPremium()
	require.True(t, ok)
	assert.True(t, isPremium)
}

func TestUpdateContext_ReadFrom_KeepsPreviousOnBadInput(t *testing.T) {
	updates := telegram.NewUpdateContext(nil)

	first, err := telegram.ParseUpdate([]byte(`{"update_id":1,"message":{"text":"hi"}}`))
	require.NoError(t, err)

	updates.SetUpdate(first)

	prev, err := updates.ReadFrom(strings.NewReader(`{broken`))
	require.Error(t, err)
	assert.Same(t, first, prev, "Некорректный ввод не должен затирать предыдущее обновление")
	assert.Same(t, first, updates.Update())

	kind, err := updates.Kind()
	require.NoError(t, err)
	assert.Equal(t, telegram.KindMessage, kind)
}
