package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Client is a thin wrapper over the Telegram Bot API: send a message or
// photo, long-poll for updates, acknowledge a button press, download an
// uploaded file. Calls are best-effort with short timeouts; callers
// treat errors as "assume not delivered, keep polling", never as fatal.
type Client struct {
	Token  string
	ChatID int64

	BaseURL string
	HTTP    *http.Client

	log *slog.Logger
}

func NewClient(token string, chatID int64, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		Token:   strings.TrimSpace(token),
		ChatID:  chatID,
		BaseURL: defaultBaseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

// SendMessage posts an HTML-formatted text, optionally with an inline
// keyboard. Returns the sent message id.
func (c *Client) SendMessage(ctx context.Context, text string, keyboard *InlineKeyboardMarkup) (int64, error) {
	payload := map[string]any{
		"chat_id":    c.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	if keyboard != nil {
		payload["reply_markup"] = keyboard
	}

	raw, err := c.postJSON(ctx, "sendMessage", payload)
	if err != nil {
		return 0, err
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return 0, fmt.Errorf("decode sendMessage result: %w", err)
	}
	return msg.MessageID, nil
}

// SendPhoto uploads a local image with a caption via multipart form.
func (c *Client) SendPhoto(ctx context.Context, photoPath, caption string, keyboard *InlineKeyboardMarkup) (int64, error) {
	file, err := os.Open(photoPath)
	if err != nil {
		return 0, fmt.Errorf("open photo %s: %w", photoPath, err)
	}
	defer file.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("photo", filepath.Base(photoPath))
	if err != nil {
		return 0, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return 0, fmt.Errorf("read photo %s: %w", photoPath, err)
	}
	_ = form.WriteField("chat_id", strconv.FormatInt(c.ChatID, 10))
	_ = form.WriteField("caption", caption)
	_ = form.WriteField("parse_mode", "HTML")
	if keyboard != nil {
		kb, err := json.Marshal(keyboard)
		if err != nil {
			return 0, err
		}
		_ = form.WriteField("reply_markup", string(kb))
	}
	if err := form.Close(); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendPhoto"), &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	raw, err := c.do(req)
	if err != nil {
		return 0, err
	}
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return 0, fmt.Errorf("decode sendPhoto result: %w", err)
	}
	return msg.MessageID, nil
}

// GetUpdates fetches all events with update_id >= offset, in order.
func (c *Client) GetUpdates(ctx context.Context, offset int64) ([]Update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("timeout", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode getUpdates result: %w", err)
	}
	return updates, nil
}

// NextOffset returns the offset just past the newest pending update, so
// a fresh review session does not replay stale commands. Best effort:
// zero on any failure.
func (c *Client) NextOffset(ctx context.Context) int64 {
	q := url.Values{}
	q.Set("offset", "-1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.methodURL("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return 0
	}
	raw, err := c.do(req)
	if err != nil {
		return 0
	}
	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil || len(updates) == 0 {
		return 0
	}
	return updates[len(updates)-1].UpdateID + 1
}

// AnswerCallback acknowledges a button press with a toast text.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := c.postJSON(ctx, "answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
		"text":              text,
		"show_alert":        false,
	})
	return err
}

type fileInfo struct {
	FilePath string `json:"file_path"`
}

// DownloadFile resolves a file_id and writes its content to destPath.
func (c *Client) DownloadFile(ctx context.Context, fileID, destPath string) error {
	raw, err := c.postJSON(ctx, "getFile", map[string]any{"file_id": fileID})
	if err != nil {
		return err
	}
	var info fileInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return fmt.Errorf("decode getFile result: %w", err)
	}
	if strings.TrimSpace(info.FilePath) == "" {
		return fmt.Errorf("getFile: empty file_path")
	}

	fileURL := fmt.Sprintf("%s/file/bot%s/%s", c.BaseURL, c.Token, info.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return err
	}
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download telegram file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download telegram file: status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return nil
}

func (c *Client) methodURL(method string) string {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	return fmt.Sprintf("%s/bot%s/%s", base, c.Token, method)
}

func (c *Client) postJSON(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read telegram response: %w", err)
	}
	var parsed apiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode telegram response: %w", err)
	}
	if !parsed.OK {
		return nil, fmt.Errorf("telegram api: %s", parsed.Description)
	}
	return parsed.Result, nil
}
