// Package apiclient 提供 Odyscribe API 的 Go 客户端，供终端朗读器使用
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"odyscribe-api/internal/application/narration"
	"odyscribe-api/internal/interfaces/http/dto"
)

// ErrUnauthorized token 缺失或失效
var ErrUnauthorized = errors.New("apiclient: unauthorized")

// APIError 非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("apiclient: %d %s", e.StatusCode, e.Message)
}

// Client API 客户端
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New 创建客户端，baseURL 形如 http://localhost:8080
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Chapter 获取章节及其来源条目
func (c *Client) Chapter(ctx context.Context, id string) (*dto.ChapterResponse, error) {
	var out dto.ChapterResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/chapters/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chapters 获取当前用户的章节列表
func (c *Client) Chapters(ctx context.Context) ([]*dto.ChapterResponse, error) {
	var out dto.ChapterListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/chapters", nil, &out); err != nil {
		return nil, err
	}
	return out.Chapters, nil
}

// Synthesize 通过服务端朗读代理合成音频
func (c *Client) Synthesize(ctx context.Context, req narration.Request) ([]byte, error) {
	body := dto.NarrationRequest{Text: req.Text, Tone: req.Tone, Narrator: req.Narrator}
	resp, err := c.do(ctx, http.MethodPost, "/v1/narration", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("apiclient: empty audio response")
	}
	return audio, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: decode %s: %w", path, err)
	}
	return nil
}

// do 发送请求，非 2xx 时读取 {error} 并返回 APIError
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	var e dto.ErrorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&e)
	if e.Error == "" {
		e.Error = http.StatusText(resp.StatusCode)
	}
	return nil, &APIError{StatusCode: resp.StatusCode, Message: e.Error}
}
