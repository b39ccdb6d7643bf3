package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestAsWhatsApp(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"whatsapp:+14155550123", "whatsapp:+14155550123"},
		{"+14155550123", "whatsapp:+14155550123"},
		{"14155550123", "whatsapp:+14155550123"},
		{" +14155550123 ", "whatsapp:+14155550123"},
		{"(415) 555-0123", "whatsapp:+4155550123"},
		{"", ""},
		{"not a number", ""},
	}
	for _, tc := range cases {
		if got := AsWhatsApp(tc.in); got != tc.want {
			t.Fatalf("AsWhatsApp(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *TwilioClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTwilioClient(TwilioConfig{
		AccountSID: "ACxxx",
		AuthToken:  "secret",
		From:       "whatsapp:+14155238886",
		RatePerSec: 100,
		BaseURL:    srv.URL,
	}, zerolog.Nop())
}

func TestTwilioSend(t *testing.T) {
	var gotPath, gotTo, gotFrom, gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if user, pass, ok := r.BasicAuth(); !ok || user != "ACxxx" || pass != "secret" {
			t.Errorf("bad basic auth: %s/%s", user, pass)
		}
		_ = r.ParseForm()
		gotTo = r.PostForm.Get("To")
		gotFrom = r.PostForm.Get("From")
		gotBody = r.PostForm.Get("Body")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"sid": "SM42"})
	})

	sid, err := c.Send(context.Background(), "+14155550123", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sid != "SM42" {
		t.Fatalf("sid = %q, want SM42", sid)
	}
	if gotPath != "/Accounts/ACxxx/Messages.json" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotTo != "whatsapp:+14155550123" || gotFrom != "whatsapp:+14155238886" || gotBody != "hello" {
		t.Fatalf("form = to %q / from %q / body %q", gotTo, gotFrom, gotBody)
	}
}

func TestTwilioSendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"code": 21211, "message": "invalid 'To' number"})
	})

	if _, err := c.Send(context.Background(), "+10000000000", "hello"); err == nil {
		t.Fatal("Send succeeded, want error")
	}
}

func TestTwilioSendValidation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request made for invalid destination")
	})

	if _, err := c.Send(context.Background(), "", "hello"); err == nil {
		t.Fatal("Send with empty destination succeeded")
	}

	unconfigured := NewTwilioClient(TwilioConfig{}, zerolog.Nop())
	if unconfigured.Configured() {
		t.Fatal("empty client reports Configured")
	}
	if _, err := unconfigured.Send(context.Background(), "+14155550123", "hi"); err == nil {
		t.Fatal("unconfigured Send succeeded")
	}
}
