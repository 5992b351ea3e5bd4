package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brookstone/whatsapp-bot/internal/services"
)

type dispatched struct {
	from string
	text string
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatched
	reply string
	panic bool
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, from, text string) services.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	f.calls = append(f.calls, dispatched{from: from, text: text})
	return services.Outcome{Intent: services.IntentAnswer, Reply: f.reply}
}

type sentText struct {
	to   string
	body string
}

type fakeMessenger struct {
	mu      sync.Mutex
	texts   []sentText
	reads   []string
	sendErr error
}

func (f *fakeMessenger) SendText(ctx context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.texts = append(f.texts, sentText{to: to, body: body})
	return nil
}

func (f *fakeMessenger) SendDocument(ctx context.Context, to, mediaID, filename string) error {
	return nil
}

func (f *fakeMessenger) MarkRead(ctx context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads = append(f.reads, messageID)
	return nil
}

func newWebhookApp(d Dispatcher, m services.Messenger, verifyToken string) *fiber.App {
	h := NewWebhookHandler(d, m, verifyToken, zap.NewNop(), nil)
	app := fiber.New()
	app.Get("/webhook", h.Verify)
	app.Post("/webhook", h.Receive)
	return app
}

func postJSON(t *testing.T, app *fiber.App, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func messagePayload(message string) string {
	return `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"messaging_product":"whatsapp","messages":[` + message + `]}}]}]}`
}

func TestVerify(t *testing.T) {
	app := newWebhookApp(&fakeDispatcher{}, &fakeMessenger{}, "secret-token")

	tests := []struct {
		name       string
		query      url.Values
		wantStatus int
		wantBody   string
	}{
		{
			name:       "matching token echoes challenge",
			query:      url.Values{"hub.mode": {"subscribe"}, "hub.verify_token": {"secret-token"}, "hub.challenge": {"12345"}},
			wantStatus: fiber.StatusOK,
			wantBody:   "12345",
		},
		{
			name:       "wrong token",
			query:      url.Values{"hub.mode": {"subscribe"}, "hub.verify_token": {"nope"}, "hub.challenge": {"12345"}},
			wantStatus: fiber.StatusForbidden,
			wantBody:   "Forbidden",
		},
		{
			name:       "wrong mode",
			query:      url.Values{"hub.mode": {"unsubscribe"}, "hub.verify_token": {"secret-token"}, "hub.challenge": {"12345"}},
			wantStatus: fiber.StatusForbidden,
			wantBody:   "Forbidden",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/webhook?"+tt.query.Encode(), nil)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, string(body))
		})
	}
}

func TestVerifyRejectsWhenTokenUnset(t *testing.T) {
	app := newWebhookApp(&fakeDispatcher{}, &fakeMessenger{}, "")

	req := httptest.NewRequest(http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=&hub.challenge=1", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestReceiveDispatchesMessageTypes(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{
			name:    "text",
			message: `{"from":"919812345678","id":"wamid.1","type":"text","text":{"body":"send brochure"}}`,
			want:    "send brochure",
		},
		{
			name:    "button",
			message: `{"from":"919812345678","id":"wamid.2","type":"button","button":{"text":"Book visit"}}`,
			want:    "Book visit",
		},
		{
			name:    "interactive button reply",
			message: `{"from":"919812345678","id":"wamid.3","type":"interactive","interactive":{"type":"button_reply","button_reply":{"id":"b1","title":"Yes"}}}`,
			want:    "Yes",
		},
		{
			name:    "interactive list reply",
			message: `{"from":"919812345678","id":"wamid.4","type":"interactive","interactive":{"type":"list_reply","list_reply":{"id":"l1","title":"3 BHK"}}}`,
			want:    "3 BHK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{reply: "hello"}
			messenger := &fakeMessenger{}
			app := newWebhookApp(dispatcher, messenger, "token")

			status, body := postJSON(t, app, messagePayload(tt.message))

			assert.Equal(t, fiber.StatusOK, status)
			assert.JSONEq(t, `{"status":"ok"}`, body)
			require.Len(t, dispatcher.calls, 1)
			assert.Equal(t, dispatched{from: "919812345678", text: tt.want}, dispatcher.calls[0])
			assert.Equal(t, []sentText{{to: "919812345678", body: "hello"}}, messenger.texts)
			assert.Len(t, messenger.reads, 1)
		})
	}
}

func TestReceiveSkipsMessagesWithoutText(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: "hello"}
	messenger := &fakeMessenger{}
	app := newWebhookApp(dispatcher, messenger, "token")

	status, _ := postJSON(t, app, messagePayload(`{"from":"919812345678","id":"wamid.5","type":"image","image":{"id":"media"}}`))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, dispatcher.calls)
	assert.Empty(t, messenger.texts)
}

func TestReceiveAcknowledgesUndecodableBody(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	app := newWebhookApp(dispatcher, &fakeMessenger{}, "token")

	status, body := postJSON(t, app, `{not json`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.Empty(t, dispatcher.calls)
}

func TestReceiveAcknowledgesStatusNotifications(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	app := newWebhookApp(dispatcher, &fakeMessenger{}, "token")

	status, _ := postJSON(t, app, `{"entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.1","status":"delivered"}]}}]}]}`)

	assert.Equal(t, fiber.StatusOK, status)
	assert.Empty(t, dispatcher.calls)
}

func TestReceiveWithoutReplySendsNothing(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	messenger := &fakeMessenger{}
	app := newWebhookApp(dispatcher, messenger, "token")

	postJSON(t, app, messagePayload(`{"from":"919812345678","id":"wamid.6","type":"text","text":{"body":"brochure"}}`))

	assert.Len(t, dispatcher.calls, 1)
	assert.Empty(t, messenger.texts)
}

func TestReceiveSurvivesSendFailureAndPanics(t *testing.T) {
	messenger := &fakeMessenger{sendErr: errors.New("graph api down")}
	app := newWebhookApp(&fakeDispatcher{reply: "hi"}, messenger, "token")

	status, _ := postJSON(t, app, messagePayload(`{"from":"919812345678","id":"wamid.7","type":"text","text":{"body":"hello"}}`))
	assert.Equal(t, fiber.StatusOK, status)

	app = newWebhookApp(&fakeDispatcher{panic: true}, &fakeMessenger{}, "token")
	status, _ = postJSON(t, app, messagePayload(`{"from":"919812345678","id":"wamid.8","type":"text","text":{"body":"hello"}}`))
	assert.Equal(t, fiber.StatusOK, status)
}

func TestReceiveHandlesEveryMessageInBatch(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: "ok"}
	app := newWebhookApp(dispatcher, &fakeMessenger{}, "token")

	postJSON(t, app, messagePayload(
		`{"from":"911111111111","id":"a","type":"text","text":{"body":"one"}},`+
			`{"from":"912222222222","id":"b","type":"text","text":{"body":"two"}}`,
	))

	assert.Equal(t, []dispatched{
		{from: "911111111111", text: "one"},
		{from: "912222222222", text: "two"},
	}, dispatcher.calls)
}

func TestTwilioWebhook(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: "namaste"}
	messenger := &fakeMessenger{}
	h := NewTwilioHandler(dispatcher, messenger, zap.NewNop(), nil)
	app := fiber.New()
	app.Post("/webhook/twilio", h.HandleWebhook)

	form := url.Values{
		"MessageSid": {"SM123"},
		"From":       {"whatsapp:+919812345678"},
		"To":         {"whatsapp:+14155238886"},
		"Body":       {"price of 3 BHK?"},
	}
	req := httptest.NewRequest(http.MethodPost, "/webhook/twilio", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, []dispatched{{from: "919812345678", text: "price of 3 BHK?"}}, dispatcher.calls)
	assert.Equal(t, []sentText{{to: "919812345678", body: "namaste"}}, messenger.texts)
}

func TestTwilioWebhookIgnoresEmptyBody(t *testing.T) {
	dispatcher := &fakeDispatcher{reply: "x"}
	h := NewTwilioHandler(dispatcher, &fakeMessenger{}, zap.NewNop(), nil)
	app := fiber.New()
	app.Post("/webhook/twilio", h.HandleWebhook)

	req := httptest.NewRequest(http.MethodPost, "/webhook/twilio", strings.NewReader("MessageSid=SM1&MessageStatus=delivered"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, dispatcher.calls)
}
