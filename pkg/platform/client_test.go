package platform

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Credentials{Identifier: "partner-id", Secret: "partner-secret"}, WithBaseURL(srv.URL+"/"))
}

func TestURL(t *testing.T) {
	c := NewClient(Credentials{}, WithBaseURL("https://sandbox.example.com/"))
	if got := c.URL("action_logs"); got != "https://sandbox.example.com/api/action_logs" {
		t.Errorf("URL() = %q", got)
	}

	c = NewClient(Credentials{})
	if got := c.URL("/action_logs"); got != DefaultBaseURL+"/api/action_logs" {
		t.Errorf("URL() = %q", got)
	}
}

func TestDo_Headers(t *testing.T) {
	var gotAuth, gotAccept, gotType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotType = r.Header.Get("Content-Type")
		w.Write([]byte(`{}`))
	})

	if _, err := c.do(context.Background(), http.MethodPost, "action_logs", nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("partner-id:partner-secret"))
	if gotAuth != want {
		t.Errorf("Authorization = %q, want %q", gotAuth, want)
	}
	if gotAccept != AcceptHeader {
		t.Errorf("Accept = %q", gotAccept)
	}
	if gotType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type = %q", gotType)
	}
}

func TestDo_MissingCredentials(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(Credentials{Identifier: "only-id"}, WithBaseURL(srv.URL))
	_, err := c.do(context.Background(), http.MethodGet, "action_logs", nil, nil)
	if !errors.Is(err, ErrAuthorization) {
		t.Fatalf("expected ErrAuthorization, got %v", err)
	}
	if called {
		t.Error("request must not be sent without credentials")
	}
}

func TestDo_SessionCookie(t *testing.T) {
	var cookies []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		cookies = append(cookies, r.Header.Get("Cookie"))
		http.SetCookie(w, &http.Cookie{Name: "_platform_session", Value: "abc123"})
		w.Write([]byte(`{}`))
	})

	for i := 0; i < 2; i++ {
		if _, err := c.do(context.Background(), http.MethodGet, "action_logs", nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if cookies[0] != "" {
		t.Errorf("first request should carry no cookie, got %q", cookies[0])
	}
	if cookies[1] != "_platform_session=abc123" {
		t.Errorf("second request cookie = %q", cookies[1])
	}
	if c.SessionCookie() != "_platform_session=abc123" {
		t.Errorf("SessionCookie() = %q", c.SessionCookie())
	}
}

func TestDo_FormBody(t *testing.T) {
	var body string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Write([]byte(`{}`))
	})

	params := CreateActionLogParams{MoxiWorksAgentID: "a", PartnerContactID: "c", Title: "t t", Body: "b"}.values()
	if _, err := c.do(context.Background(), http.MethodPost, "action_logs", params, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != "body=b&moxi_works_agent_id=a&partner_contact_id=c&title=t+t" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestCheckForError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  error
		contains string
	}{
		{"ok object", 200, `{"title":"x"}`, nil, ""},
		{"ok array", 200, `[{"status":"fail"}]`, nil, ""},
		{"unauthorized", 401, `{"status":"fail"}`, ErrAuthorization, "401"},
		{"status fail on 200", 200, `{"status":"fail","messages":["agent not found","bad contact"]}`, ErrRemoteRequest, "agent not found,bad contact"},
		{"status fail on 422", 422, `{"status":"fail","messages":["title too long"]}`, ErrRemoteRequest, "title too long"},
		{"server error json", 500, `{"error":"boom"}`, ErrRemoteRequest, "HTTP 500"},
		{"not json", 200, `garbage`, ErrRemoteRequest, "unable to parse remote response"},
		{"html gateway page", 502, `<html><head><title>502 Bad Gateway</title></head><body><h1>502 Bad Gateway</h1></body></html>`, ErrRemoteRequest, "502 Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkForError(tt.status, []byte(tt.body))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestCheckForError_CarriesStatus(t *testing.T) {
	err := checkForError(http.StatusUnprocessableEntity, []byte(`{"status":"fail","messages":["x"]}`))
	var rf *RemoteRequestFailure
	if !errors.As(err, &rf) {
		t.Fatalf("expected *RemoteRequestFailure, got %T", err)
	}
	if rf.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("StatusCode = %d", rf.StatusCode)
	}
	if len(rf.Messages) != 1 || rf.Messages[0] != "x" {
		t.Errorf("Messages = %v", rf.Messages)
	}
}

func TestResponseArray(t *testing.T) {
	r := &ResponseArray[int]{PageNumber: 1, TotalPages: 3}
	r.Append(1, 2)
	if r.Len() != 2 || r.At(1) != 2 {
		t.Errorf("unexpected items: %v", r.Items)
	}
	if !r.HasMore() {
		t.Error("expected more pages")
	}
	r.PageNumber = 3
	if r.HasMore() {
		t.Error("expected no more pages")
	}
}

func TestDo_DebugLogsBodyAtInfo(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		want  int
	}{
		{"debug on", true, 1},
		{"debug off", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.InfoLevel)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"actions":[]}`))
			}))
			t.Cleanup(srv.Close)
			c := NewClient(Credentials{Identifier: "partner-id", Secret: "partner-secret"},
				WithBaseURL(srv.URL), WithLogger(zap.New(core)), WithDebug(tt.debug))

			if _, err := c.SearchActionLogs(context.Background(), SearchActionLogParams{MoxiWorksAgentID: "a", PartnerContactID: "c"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			entries := logs.FilterMessage("platform response").All()
			if len(entries) != tt.want {
				t.Fatalf("got %d platform response entries, want %d", len(entries), tt.want)
			}
			if tt.want == 1 {
				if body, _ := entries[0].ContextMap()["body"].(string); body != `{"actions":[]}` {
					t.Errorf("body field = %q", body)
				}
			}
		})
	}
}

func TestClip_RuneBoundary(t *testing.T) {
	b := []byte(strings.Repeat("a", maxBodyLen-1) + "é")
	got := clip(b)
	if !utf8.ValidString(got) {
		t.Errorf("clip produced invalid UTF-8")
	}
	if len(got) != maxBodyLen-1 {
		t.Errorf("len = %d, want %d", len(got), maxBodyLen-1)
	}
	if short := clip([]byte("é")); short != "é" {
		t.Errorf("clip(short) = %q", short)
	}
}
