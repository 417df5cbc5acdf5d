package infra

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"tonbuybot/internal/domain"
)

func TestTelegramClient_SendText(t *testing.T) {
	var gotPath string
	var gotPayload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewTelegramClient(server.URL, "test-token")
	buttons := []domain.Link{
		{Label: "Trending", URL: "https://t.me/trending"},
		{Label: "Buy", URL: "https://t.me/buy"},
		{Label: "Book", URL: "https://t.me/book"},
	}
	if err := client.SendText(context.Background(), 42, "*SPY Buy!*", buttons); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}

	if gotPath != "/bottest-token/sendMessage" {
		t.Errorf("path = %s", gotPath)
	}
	if gotPayload["chat_id"].(float64) != 42 {
		t.Errorf("chat_id = %v", gotPayload["chat_id"])
	}
	if gotPayload["text"] != "*SPY Buy!*" {
		t.Errorf("text = %v", gotPayload["text"])
	}
	if gotPayload["parse_mode"] != "Markdown" {
		t.Errorf("parse_mode = %v", gotPayload["parse_mode"])
	}
	if gotPayload["disable_web_page_preview"] != true {
		t.Error("web page preview not disabled")
	}

	t.Run("keyboard packs two buttons per row", func(t *testing.T) {
		markup, _ := json.Marshal(gotPayload["reply_markup"])
		var kb tgKeyboard
		if err := json.Unmarshal(markup, &kb); err != nil {
			t.Fatalf("bad reply_markup: %v", err)
		}
		if len(kb.InlineKeyboard) != 2 {
			t.Fatalf("got %d rows, want 2", len(kb.InlineKeyboard))
		}
		if len(kb.InlineKeyboard[0]) != 2 || len(kb.InlineKeyboard[1]) != 1 {
			t.Errorf("row sizes = %d,%d, want 2,1",
				len(kb.InlineKeyboard[0]), len(kb.InlineKeyboard[1]))
		}
	})
}

func TestTelegramClient_SendPhotoByFileID(t *testing.T) {
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewTelegramClient(server.URL, "test-token")
	if err := client.SendPhoto(context.Background(), 42, "AgACAgQfileid", "caption", nil); err != nil {
		t.Fatalf("SendPhoto failed: %v", err)
	}
	if gotPayload["photo"] != "AgACAgQfileid" {
		t.Errorf("photo = %v", gotPayload["photo"])
	}
	if gotPayload["caption"] != "caption" {
		t.Errorf("caption = %v", gotPayload["caption"])
	}
}

func TestTelegramClient_UploadsLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.png")
	if err := os.WriteFile(path, []byte("fake png bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("not multipart: %v", err)
		}
		if got := r.FormValue("chat_id"); got != "42" {
			t.Errorf("chat_id = %s", got)
		}
		if _, _, err := r.FormFile("photo"); err != nil {
			t.Errorf("photo part missing: %v", err)
		}
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewTelegramClient(server.URL, "test-token")
	if err := client.SendPhoto(context.Background(), 42, path, "caption", nil); err != nil {
		t.Fatalf("SendPhoto failed: %v", err)
	}
	if gotContentType == "application/json" || gotContentType == "" {
		t.Errorf("content type = %q, want multipart", gotContentType)
	}
}

func TestTelegramClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		retriable bool
	}{
		{"chat not found is fatal", `{"ok": false, "error_code": 400, "description": "chat not found"}`, false},
		{"kicked is fatal", `{"ok": false, "error_code": 403, "description": "bot was kicked"}`, false},
		{"rate limit is retriable", `{"ok": false, "error_code": 429, "description": "too many requests"}`, true},
		{"server error is retriable", `{"ok": false, "error_code": 502, "description": "bad gateway"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewTelegramClient(server.URL, "test-token")
			err := client.SendText(context.Background(), 42, "text", nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := domain.IsRetriable(err); got != tt.retriable {
				t.Errorf("IsRetriable = %v, want %v", got, tt.retriable)
			}
		})
	}
}
