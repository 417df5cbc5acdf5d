package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tonbuybot/internal/domain"
)

// TelegramClient implements domain.ChatTransport over the Telegram Bot API.
// Link buttons are rendered as an inline keyboard, two per row.
type TelegramClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewTelegramClient creates a transport client. baseURL may be empty to use
// the official API host.
func NewTelegramClient(baseURL, token string) *TelegramClient {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &TelegramClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type tgResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

type tgButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type tgKeyboard struct {
	InlineKeyboard [][]tgButton `json:"inline_keyboard"`
}

func buildKeyboard(buttons []domain.Link) *tgKeyboard {
	if len(buttons) == 0 {
		return nil
	}
	kb := &tgKeyboard{}
	var row []tgButton
	for _, b := range buttons {
		row = append(row, tgButton{Text: b.Label, URL: b.URL})
		if len(row) == 2 {
			kb.InlineKeyboard = append(kb.InlineKeyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		kb.InlineKeyboard = append(kb.InlineKeyboard, row)
	}
	return kb
}

// SendText delivers a plain text notification.
func (c *TelegramClient) SendText(ctx context.Context, chatID int64, text string, buttons []domain.Link) error {
	payload := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	}
	if kb := buildKeyboard(buttons); kb != nil {
		payload["reply_markup"] = kb
	}
	return c.call(ctx, "sendMessage", payload)
}

// SendPhoto delivers a photo with the notification text as caption.
// mediaRef may be a Telegram file id, an http(s) URL, or a local file path;
// local files are uploaded as multipart form data.
func (c *TelegramClient) SendPhoto(ctx context.Context, chatID int64, mediaRef, caption string, buttons []domain.Link) error {
	return c.sendMedia(ctx, "sendPhoto", "photo", chatID, mediaRef, caption, buttons)
}

// SendAnimation delivers an animation (GIF/MP4) with the notification text
// as caption.
func (c *TelegramClient) SendAnimation(ctx context.Context, chatID int64, mediaRef, caption string, buttons []domain.Link) error {
	return c.sendMedia(ctx, "sendAnimation", "animation", chatID, mediaRef, caption, buttons)
}

func (c *TelegramClient) sendMedia(ctx context.Context, method, field string, chatID int64, mediaRef, caption string, buttons []domain.Link) error {
	if isLocalFile(mediaRef) {
		return c.upload(ctx, method, field, chatID, mediaRef, caption, buttons)
	}

	payload := map[string]any{
		"chat_id":    chatID,
		field:        mediaRef,
		"caption":    caption,
		"parse_mode": "Markdown",
	}
	if kb := buildKeyboard(buttons); kb != nil {
		payload["reply_markup"] = kb
	}
	return c.call(ctx, method, payload)
}

func isLocalFile(ref string) bool {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return false
	}
	_, err := os.Stat(ref)
	return err == nil
}

func (c *TelegramClient) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

func (c *TelegramClient) call(ctx context.Context, method string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, method)
}

// upload sends a local media file as multipart form data.
func (c *TelegramClient) upload(ctx context.Context, method, field string, chatID int64, path, caption string, buttons []domain.Link) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return err
	}
	if err := w.WriteField("caption", caption); err != nil {
		return err
	}
	if err := w.WriteField("parse_mode", "Markdown"); err != nil {
		return err
	}
	if kb := buildKeyboard(buttons); kb != nil {
		markup, err := json.Marshal(kb)
		if err != nil {
			return err
		}
		if err := w.WriteField("reply_markup", string(markup)); err != nil {
			return err
		}
	}

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.do(req, method)
}

func (c *TelegramClient) do(req *http.Request, method string) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewNetworkError(method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewNetworkError(method, err)
	}

	var result tgResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return domain.NewNetworkError(method, fmt.Errorf("malformed response: %w", err))
	}
	if !result.OK {
		// 4xx responses (chat not found, bot kicked) will not succeed on
		// retry; rate limits and server errors may.
		err := fmt.Errorf("telegram %s: %d %s", method, result.ErrorCode, result.Description)
		if result.ErrorCode >= 400 && result.ErrorCode < 500 && result.ErrorCode != http.StatusTooManyRequests {
			return domain.NewFatalNetworkError(method, err)
		}
		return domain.NewNetworkError(method, err)
	}
	return nil
}
