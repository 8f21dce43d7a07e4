package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"gidvion/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// staticTokens implements TokenSource with fixed credentials.
type staticTokens struct {
	tokenType string
	token     string
}

func (s staticTokens) AuthToken() (string, string, bool) {
	if s.token == "" {
		return "", "", false
	}
	return s.tokenType, s.token, true
}

func newTestClient(t *testing.T, handler http.Handler, tokens TokenSource, onUnauthorized func()) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Config{
		BaseURL:        srv.URL,
		Timeout:        5 * time.Second,
		Tokens:         tokens,
		Logger:         testLogger(),
		OnUnauthorized: onUnauthorized,
	})
	return c, srv
}

func TestQuerySuccess(t *testing.T) {
	var gotPath string
	var gotBody domain.QueryRequest
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := jsonDecode(r, &gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"query":"hi","response":"hello!","model":"gpt-4o","user":"u1","query_id":"q42"}`))
	})

	c, _ := newTestClient(t, handler, staticTokens{"Bearer", "tok123"}, nil)
	resp, err := c.Query(context.Background(), "gpt", domain.QueryRequest{Query: "hi", ConversationID: "c1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if gotPath != "/query/gpt" {
		t.Errorf("path = %q, want /query/gpt", gotPath)
	}
	if gotBody.ConversationID != "c1" {
		t.Errorf("Conversation_id = %q, want c1", gotBody.ConversationID)
	}
	if resp.Response != "hello!" || resp.QueryID != "q42" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestQuerySendsBearerToken(t *testing.T) {
	var gotAuth string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	})

	c, _ := newTestClient(t, handler, staticTokens{"Bearer", "tok123"}, nil)
	if _, err := c.Query(context.Background(), "gpt", domain.QueryRequest{Query: "hi"}); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer tok123" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestQueryErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, "", domain.ErrRateLimited},
		{"server error", http.StatusInternalServerError, "", domain.ErrServer},
		{"bad gateway", http.StatusBadGateway, "", domain.ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			c, _ := newTestClient(t, handler, nil, nil)
			_, err := c.Query(context.Background(), "gpt", domain.QueryRequest{Query: "hi"})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestQueryDetailMessage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"conversation not found"}`))
	})
	c, _ := newTestClient(t, handler, nil, nil)
	_, err := c.Query(context.Background(), "gpt", domain.QueryRequest{Query: "hi"})
	if err == nil || !strings.Contains(err.Error(), "conversation not found") {
		t.Errorf("err = %v, want backend detail message", err)
	}
}

func TestQueryNetworkFailure(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second, Logger: testLogger()})
	_, err := c.Query(context.Background(), "gpt", domain.QueryRequest{Query: "hi"})
	if !errors.Is(err, domain.ErrNetwork) {
		t.Errorf("err = %v, want ErrNetwork", err)
	}
}

func TestCurrentUserUnauthorizedEvictsSession(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	evicted := false
	c, _ := newTestClient(t, handler, staticTokens{"Bearer", "stale"}, func() { evicted = true })
	_, err := c.CurrentUser(context.Background())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if !evicted {
		t.Error("OnUnauthorized hook must run on 401")
	}
}

func TestProcessPDFMultipart(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/process-file" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("file_type"); got != "pdf" {
			t.Errorf("file_type = %q, want pdf", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		f.Close()
		if hdr.Filename != "report.pdf" {
			t.Errorf("filename = %q", hdr.Filename)
		}
		w.Write([]byte(`{"content":"pdf text","metadata":{"page_count":2}}`))
	})

	c, _ := newTestClient(t, handler, nil, nil)
	out, err := c.ProcessPDF(context.Background(), "report.pdf", []byte("%PDF-1.7"))
	if err != nil {
		t.Fatalf("ProcessPDF: %v", err)
	}
	if out.Content != "pdf text" {
		t.Errorf("content = %q", out.Content)
	}
	if out.Metadata["page_count"] != float64(2) {
		t.Errorf("metadata = %v", out.Metadata)
	}
}

func TestHealth(t *testing.T) {
	healthy := true
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	c, _ := newTestClient(t, handler, nil, nil)

	if err := c.Health(context.Background()); err != nil {
		t.Errorf("healthy backend: %v", err)
	}
	healthy = false
	if err := c.Health(context.Background()); err == nil {
		t.Error("unhealthy backend should error")
	}
}

func TestHealthPollerReportsTransitions(t *testing.T) {
	healthy := true
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	c, _ := newTestClient(t, handler, nil, nil)

	var mu []bool
	done := make(chan struct{})
	poller := NewHealthPoller(c, 10*time.Millisecond, func(h bool) {
		mu = append(mu, h)
		if len(mu) == 2 {
			close(done)
		}
	}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() {
		// Flip to unhealthy after the first report lands.
		time.Sleep(30 * time.Millisecond)
		healthy = false
	}()
	go poller.Start(ctx)

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("poller never reported both transitions")
	}
	if !mu[0] || mu[1] {
		t.Errorf("transitions = %v, want [true false]", mu)
	}
}

func TestRoomEndpoints(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/temp-rooms/create":
			w.Write([]byte(`{"id":"r1","code":"ABCD","name":"standup"}`))
		case r.URL.Path == "/temp-rooms/join":
			w.Write([]byte(`{"id":"r1","code":"ABCD","name":"standup","members":2}`))
		case r.URL.Path == "/temp-rooms/r1/messages" && r.Method == http.MethodGet:
			if r.URL.Query().Get("limit") != "20" || r.URL.Query().Get("offset") != "40" {
				t.Errorf("pagination query = %q", r.URL.RawQuery)
			}
			w.Write([]byte(`[{"sender":"ann","content":"hi"}]`))
		case r.URL.Path == "/temp-rooms/r1/messages" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	c, _ := newTestClient(t, handler, nil, nil)
	ctx := context.Background()

	room, err := c.CreateRoom(ctx, "standup")
	if err != nil || room.Code != "ABCD" {
		t.Fatalf("CreateRoom: %v, %+v", err, room)
	}
	joined, err := c.JoinRoom(ctx, "ABCD")
	if err != nil || joined.Members != 2 {
		t.Fatalf("JoinRoom: %v, %+v", err, joined)
	}
	if err := c.SendRoomMessage(ctx, "r1", domain.RoomMessage{Sender: "me", Content: "yo"}); err != nil {
		t.Fatalf("SendRoomMessage: %v", err)
	}
	msgs, err := c.RoomMessages(ctx, "r1", 20, 40)
	if err != nil || len(msgs) != 1 || msgs[0].Sender != "ann" {
		t.Fatalf("RoomMessages: %v, %+v", err, msgs)
	}
}

func jsonDecode(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}
