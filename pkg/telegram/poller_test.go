package telegram_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-botapi/pkg/telegram"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type updatesServer struct {
	mu        sync.Mutex
	queries   []url.Values
	responses []string
}

func (s *updatesServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()

	s.queries = append(s.queries, r.URL.Query())

	response := `{"ok":true,"result":[]}`
	if len(s.responses) > 0 {
		response = s.responses[0]
		s.responses = s.responses[1:]
	}

	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(response))
}

func (s *updatesServer) recorded() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]url.Values(nil), s.queries...)
}

type collectingHandler struct {
	mu      sync.Mutex
	updates []*telegram.Update
	got     chan struct{}
}

func newCollectingHandler() *collectingHandler {
	return &collectingHandler{got: make(chan struct{}, 16)}
}

func (h *collectingHandler) HandleUpdate(_ context.Context, update *telegram.Update) {
	h.mu.Lock()
	h.updates = append(h.updates, update)
	h.mu.Unlock()

	h.got <- struct{}{}
}

func TestPoller_GetUpdates_ConfirmsWithNextOffset(t *testing.T) {
	api := &updatesServer{
		responses: []string{
			`{"ok":true,"result":[` +
				`{"update_id":99,"message":{"text":"a"}},` +
				`{"update_id":100,"message":{"text":"b"}}]}`,
		},
	}

	server := httptest.NewServer(http.HandlerFunc(api.handler))
	defer server.Close()

	client := newTestClient(t, server.URL)
	poller := telegram.NewPoller(client, newCollectingHandler(), 10, 0, testLogger())

	batch, err := poller.GetUpdates(context.Background(), 0, 10, 0, true)

	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, int64(99), batch[0].UpdateID)
	assert.Equal(t, int64(100), batch[1].UpdateID)

	queries := api.recorded()
	require.Len(t, queries, 2, "Получение и подтверждение — два отдельных вызова")

	assert.Equal(t, "0", queries[0].Get("offset"))
	assert.Equal(t, "10", queries[0].Get("limit"))

	assert.Equal(t, "101", queries[1].Get("offset"), "Подтверждение идёт с offset = последний update_id + 1")
	assert.Equal(t, "1", queries[1].Get("limit"))
	assert.Equal(t, "0", queries[1].Get("timeout"))
}

func TestPoller_GetUpdates_BatchSurvivesConfirmationFailure(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		current := calls
		mu.Unlock()

		if current > 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":5,"message":{"text":"x"}}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	poller := telegram.NewPoller(client, newCollectingHandler(), 10, 0, testLogger())

	batch, err := poller.GetUpdates(context.Background(), 0, 10, 0, true)

	require.NoError(t, err, "Сбой подтверждения не мешает вернуть уже полученную пачку")
	require.Len(t, batch, 1)
	assert.Equal(t, int64(5), batch[0].UpdateID)
}

func TestPoller_GetUpdates_ClampsLimit(t *testing.T) {
	api := &updatesServer{}

	server := httptest.NewServer(http.HandlerFunc(api.handler))
	defer server.Close()

	client := newTestClient(t, server.URL)
	poller := telegram.NewPoller(client, newCollectingHandler(), 10, 0, testLogger())

	_, err := poller.GetUpdates(context.Background(), 0, 500, 0, false)
	require.NoError(t, err)

	_, err = poller.GetUpdates(context.Background(), 0, 0, 0, false)
	require.NoError(t, err)

	queries := api.recorded()
	require.Len(t, queries, 2)
	assert.Equal(t, "100", queries[0].Get("limit"))
	assert.Equal(t, "100", queries[1].Get("limit"))
}

func TestPoller_GetUpdates_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":409,"description":"Conflict"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	poller := telegram.NewPoller(client, newCollectingHandler(), 10, 0, testLogger())

	_, err := poller.GetUpdates(context.Background(), 0, 10, 0, false)

	require.Error(t, err)
	assert.ErrorIs(t, err, &telegram.ErrAPIRequest{})
}

func TestPoller_GetUpdates_SkipsMalformedUpdates(t *testing.T) {
	api := &updatesServer{
		responses: []string{
			`{"ok":true,"result":[` +
				`{"update_id":1},` +
				`{"update_id":2,"message":{"text":"ok"}}]}`,
		},
	}

	server := httptest.NewServer(http.HandlerFunc(api.handler))
	defer server.Close()

	client := newTestClient(t, server.URL)
	poller := telegram.NewPoller(client, newCollectingHandler(), 10, 0, testLogger())

	batch, err := poller.GetUpdates(context.Background(), 0, 10, 0, false)

	require.NoError(t, err)
	require.Len(t, batch, 1, "Некорректное обновление пропускается, остальные обрабатываются")
	assert.Equal(t, int64(2), batch[0].UpdateID)
}

func TestPoller_GetUpdates_LongPollOutlivesDefaultTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Сервер удерживает соединение дольше обычного таймаута запроса.
		time.Sleep(300 * time.Millisecond)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":1,"message":{"text":"hi"}}]}`))
	}))
	defer server.Close()

	client, err := telegram.NewClient(telegram.ClientConfig{
		Token:                  "12345:TEST",
		BaseURL:                server.URL,
		RequestTimeout:         50 * time.Millisecond,
		CBMinimumRequiredCalls: 1000,
	}, testLogger())
	require.NoError(t, err)

	poller := telegram.NewPoller(client, newCollectingHandler(), 10, 1, testLogger())

	batch, err := poller.GetUpdates(context.Background(), 0, 10, 1, false)

	require.NoError(t, err, "Длинный опрос не должен обрываться таймаутом обычного запроса")
	require.Len(t, batch, 1)
}

func TestPoller_CloseIdempotentWithNilLogger(t *testing.T) {
	api := &updatesServer{}

	server := httptest.NewServer(http.HandlerFunc(api.handler))
	defer server.Close()

	client := newTestClient(t, server.URL)
	poller := telegram.NewPoller(client, newCollectingHandler(), 10, 0, nil)

	assert.NotPanics(t, func() {
		poller.Start()

		require.NoError(t, poller.Close())
		require.NoError(t, poller.Close())
	})
}

func TestPoller_StartDeliversUpdatesAndAdvancesOffset(t *testing.T) {
	api := &updatesServer{
		responses: []string{
			`{"ok":true,"result":[{"update_id":10,"message":{"text":"hi"}}]}`,
		},
	}

	server := httptest.NewServer(http.HandlerFunc(api.handler))
	defer server.Close()

	client := newTestClient(t, server.URL)
	collector := newCollectingHandler()

	poller := telegram.NewPoller(client, collector, 10, 0, testLogger())
	poller.Start()

	defer func() {
		require.NoError(t, poller.Close())
	}()

	select {
	case <-collector.got:
	case <-time.After(5 * time.Second):
		t.Fatal("Обновление не дошло до обработчика")
	}

	require.Eventually(t, func() bool {
		for _, query := range api.recorded() {
			if query.Get("offset") == "11" && query.Get("limit") == "10" {
				return true
			}
		}

		return false
	}, 5*time.Second, 10*time.Millisecond, "Следующий опрос должен идти с offset = update_id + 1")
}
