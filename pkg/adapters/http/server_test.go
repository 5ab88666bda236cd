package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/plotline"
	"github.com/aretw0/plotline/pkg/adapters/memory"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	loader := memory.NewLoader(domain.FormDefinition(domain.SimpleFormDefinition{
		Name:          "hotel",
		RequiredSlots: map[string]string{"city": "text"},
		FinishAction:  "utter_booked",
	}))

	eng, err := plotline.New(plotline.WithLoader(loader))
	require.NoError(t, err)

	h, err := NewHandler(eng, opts...)
	require.NoError(t, err)
	return h
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSpec_IsValid(t *testing.T) {
	doc, err := Spec()
	require.NoError(t, err)
	assert.Equal(t, "Plotline API", doc.Info.Title)
}

func TestServer_Health(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, "GET", "/info", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), plotline.Version)
}

func TestServer_Plans(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "GET", "/plans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"hotel","kind":"SimpleForm"}]`, w.Body.String())

	w = do(t, h, "GET", "/plans/hotel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "hotel", info["name"])
	assert.Contains(t, info["actions"], "utter_ask_city")

	w = do(t, h, "GET", "/plans/castle", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_SessionLifecycle(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "POST", "/sessions", map[string]string{"session_id": "s1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, h, "POST", "/sessions", map[string]string{"session_id": "s1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, "POST", "/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created domain.ConversationSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Len(t, created.SessionID, 36, "generated IDs are UUIDs")

	w = do(t, h, "GET", "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"s1"`)

	w = do(t, h, "GET", "/sessions/s1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, "DELETE", "/sessions/s1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "GET", "/sessions/s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Turns(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "POST", "/sessions/s1/turns", domain.TurnInput{Intent: "book", Plan: "hotel"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res domain.TurnResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Actions, 2)
	assert.Equal(t, "utter_ask_city", res.Actions[1].Action)

	w = do(t, h, "POST", "/sessions/s1/turns", domain.TurnInput{Intent: "inform", Slots: map[string]any{"city": "Lisbon"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Len(t, res.Actions, 2)
	assert.Equal(t, "utter_booked", res.Actions[0].Action)
	assert.Equal(t, true, res.State.Slots[domain.SlotPlanComplete])
}

func TestServer_Validation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{name: "missing intent", method: "POST", path: "/sessions/s1/turns", body: `{"plan":"hotel"}`, want: http.StatusBadRequest},
		{name: "unknown field", method: "POST", path: "/sessions/s1/turns", body: `{"intent":"x","bogus":1}`, want: http.StatusBadRequest},
		{name: "slots not an object", method: "POST", path: "/sessions/s1/turns", body: `{"intent":"x","slots":[1]}`, want: http.StatusBadRequest},
		{name: "bad session id", method: "POST", path: "/sessions/s%20one/turns", body: `{"intent":"x"}`, want: http.StatusBadRequest},
		{name: "unknown plan", method: "POST", path: "/sessions/s1/turns", body: `{"intent":"x","plan":"castle"}`, want: http.StatusNotFound},
		{name: "valid", method: "POST", path: "/sessions/s1/turns", body: `{"intent":"x"}`, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestServer_Metrics(t *testing.T) {
	metrics := observability.NewMetrics()
	h := newTestHandler(t, WithMetricsHandler(metrics.Handler()))

	w := do(t, h, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	h = newTestHandler(t)
	w = do(t, h, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrUnknownPlan, http.StatusNotFound},
		{domain.ErrSessionNotFound, http.StatusNotFound},
		{domain.ErrSessionExists, http.StatusConflict},
		{fmt.Errorf("slot city: %w", domain.ErrInvalidInput), http.StatusBadRequest},
		{&domain.UnknownActionError{Name: "x"}, http.StatusUnprocessableEntity},
		{&domain.CycleError{Plan: "p", Limit: 3}, http.StatusUnprocessableEntity},
		{domain.ErrTurnLimit, http.StatusUnprocessableEntity},
		{context.Canceled, http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestSubscribeEvents_Session(t *testing.T) {
	h := newTestHandler(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/events?session_id=sess-1", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(wSub, reqSub)
	}()

	time.Sleep(100 * time.Millisecond) // Wait for subscription to register

	w := do(t, h, "POST", "/sessions/sess-1/turns", domain.TurnInput{Intent: "book", Plan: "hotel"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, `"active_plan":"hotel"`)
}

func TestSubscribeEvents_GlobalUnsupported(t *testing.T) {
	h := newTestHandler(t)

	w := do(t, h, "GET", "/events", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

// watchLoader reports definition changes pushed by the test.
type watchLoader struct {
	*memory.Loader
	events chan string
}

func (l *watchLoader) Watch(ctx context.Context) (<-chan string, error) {
	return l.events, nil
}

func TestSubscribeEvents_GlobalReloads(t *testing.T) {
	loader := &watchLoader{
		Loader: memory.NewLoader(domain.FormDefinition(domain.SimpleFormDefinition{
			Name:          "hotel",
			RequiredSlots: map[string]string{"city": "text"},
			FinishAction:  "utter_booked",
		})),
		events: make(chan string, 1),
	}
	eng, err := plotline.New(plotline.WithLoader(loader))
	require.NoError(t, err)
	h, err := NewHandler(eng)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ServeHTTP(w, req)
	}()

	loader.events <- "hotel.md"
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "data: hotel.md")
}

func TestStreamManager_DropsForSlowClients(t *testing.T) {
	var logs bytes.Buffer
	sm := NewStreamManager(slog.New(slog.NewTextHandler(&logs, nil)))

	ch, unsubscribe := sm.Subscribe("s1")
	defer unsubscribe()

	for i := 0; i <= cap(ch); i++ {
		sm.Broadcast("s1", fmt.Sprintf("msg-%d", i))
	}
	assert.Len(t, ch, cap(ch))
	assert.Contains(t, logs.String(), "dropping message")
	assert.Contains(t, logs.String(), "session_id=s1")
}

func TestMatchesWatch(t *testing.T) {
	msg := `{"session_id":"s","slots":{"city":"Lisbon"}}`
	assert.True(t, matchesWatch(msg, []string{"slots"}))
	assert.False(t, matchesWatch(msg, []string{"events", " plan"}))
	assert.True(t, matchesWatch("not json", []string{"plan"}))
}
