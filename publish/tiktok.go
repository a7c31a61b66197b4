package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// TikTokUploader drives the open API direct-post flow: init, binary
// upload, then status polling until the platform finishes processing.
type TikTokUploader struct {
	AccessToken string
	BaseURL     string
	HTTP        *http.Client

	PollAttempts int
	PollDelay    time.Duration

	log *slog.Logger
}

func NewTikTokUploader(accessToken string, log *slog.Logger) *TikTokUploader {
	if log == nil {
		log = slog.Default()
	}
	return &TikTokUploader{
		AccessToken:  accessToken,
		BaseURL:      "https://open.tiktokapis.com",
		HTTP:         &http.Client{Timeout: 120 * time.Second},
		PollAttempts: 10,
		PollDelay:    3 * time.Second,
		log:          log,
	}
}

type tiktokInitRequest struct {
	PostInfo   tiktokPostInfo   `json:"post_info"`
	SourceInfo tiktokSourceInfo `json:"source_info"`
}

type tiktokPostInfo struct {
	Title        string `json:"title"`
	PrivacyLevel string `json:"privacy_level"`
}

type tiktokSourceInfo struct {
	Source          string `json:"source"`
	VideoSize       int64  `json:"video_size"`
	ChunkSize       int64  `json:"chunk_size"`
	TotalChunkCount int    `json:"total_chunk_count"`
}

type tiktokEnvelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type tiktokInitData struct {
	PublishID string `json:"publish_id"`
	UploadURL string `json:"upload_url"`
}

type tiktokStatusData struct {
	Status     string `json:"status"`
	FailReason string `json:"fail_reason"`
}

// Upload pushes the video and blocks until processing settles. It
// returns the publish id even when polling gives up while the platform
// is still processing.
func (u *TikTokUploader) Upload(ctx context.Context, v Video) (string, error) {
	st, err := os.Stat(v.Path)
	if err != nil {
		return "", fmt.Errorf("stat video: %w", err)
	}
	size := st.Size()

	init, err := u.initUpload(ctx, v.Title, size)
	if err != nil {
		return "", err
	}
	u.log.Info("tiktok upload initialized", "publish_id", init.PublishID)

	if err := u.putFile(ctx, init.UploadURL, v.Path, size); err != nil {
		return "", err
	}

	for attempt := 0; attempt < u.PollAttempts; attempt++ {
		status, err := u.fetchStatus(ctx, init.PublishID)
		if err != nil {
			return "", err
		}
		switch status.Status {
		case "PUBLISH_COMPLETE":
			return init.PublishID, nil
		case "FAILED":
			return "", fmt.Errorf("tiktok publish failed: %s", status.FailReason)
		case "PROCESSING_UPLOAD", "PROCESSING_DOWNLOAD", "SEND_TO_USER_INBOX":
		default:
			u.log.Warn("tiktok unknown status", "status", status.Status)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(u.PollDelay):
		}
	}
	u.log.Warn("tiktok still processing after polling window", "publish_id", init.PublishID)
	return init.PublishID, nil
}

func (u *TikTokUploader) initUpload(ctx context.Context, title string, size int64) (tiktokInitData, error) {
	body := tiktokInitRequest{
		PostInfo: tiktokPostInfo{
			Title:        title,
			PrivacyLevel: "PUBLIC_TO_EVERYONE",
		},
		SourceInfo: tiktokSourceInfo{
			Source:          "FILE_UPLOAD",
			VideoSize:       size,
			ChunkSize:       size,
			TotalChunkCount: 1,
		},
	}
	var data tiktokInitData
	if err := u.postJSON(ctx, "/v2/post/publish/video/init/", body, &data); err != nil {
		return tiktokInitData{}, fmt.Errorf("tiktok init: %w", err)
	}
	if strings.TrimSpace(data.PublishID) == "" || strings.TrimSpace(data.UploadURL) == "" {
		return tiktokInitData{}, fmt.Errorf("tiktok init: incomplete response")
	}
	return data, nil
}

func (u *TikTokUploader) putFile(ctx context.Context, uploadURL, path string, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, f)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size))

	resp, err := u.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("tiktok upload: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("tiktok upload: status %d", resp.StatusCode)
	}
	return nil
}

func (u *TikTokUploader) fetchStatus(ctx context.Context, publishID string) (tiktokStatusData, error) {
	var data tiktokStatusData
	body := map[string]string{"publish_id": publishID}
	if err := u.postJSON(ctx, "/v2/post/publish/status/fetch/", body, &data); err != nil {
		return tiktokStatusData{}, fmt.Errorf("tiktok status: %w", err)
	}
	return data, nil
}

func (u *TikTokUploader) postJSON(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(u.BaseURL, "/")+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+u.AccessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := u.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	var envelope tiktokEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Error.Code != "" && envelope.Error.Code != "ok" {
		return fmt.Errorf("api error %s: %s", envelope.Error.Code, envelope.Error.Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}
