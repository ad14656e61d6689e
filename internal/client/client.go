// Package client はfoodjournal APIのHTTPクライアントを提供する。
// 端末クライアントが署名済みセッションCookieを使って認証済みAPIを呼び出す。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/hitoshi/foodjournal/internal/api"
	"github.com/hitoshi/foodjournal/internal/middleware"
	"github.com/hitoshi/foodjournal/internal/model"
)

// maxResponseSize はレスポンスボディの読み取り上限。
const maxResponseSize = 1 << 20

const userAgent = "foodjournal-tui/1.0"

// Client はfoodjournal APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	session    string

	mu        sync.Mutex
	csrfToken string
}

// New はClientを生成する。sessionは/auth/google/callbackで発行された
// session_id Cookieの値。空の場合は未ログインとして振る舞う。
func New(httpClient *http.Client, baseURL, session string, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
		session:    session,
	}
}

// HasSession はセッションCookieが設定されているかを返す。
func (c *Client) HasSession() bool {
	return c.session != ""
}

// Me は現在のユーザーを返す。未ログイン（401）の場合はnil, nilを返す。
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	if !c.HasSession() {
		return nil, nil
	}

	var u api.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &u)
	if err != nil {
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUnauthorized {
			return nil, nil
		}
		return nil, err
	}
	return u.ToModel(), nil
}

// Dashboard はダッシュボード（集計値と最近のアクティビティ）を取得する。
func (c *Client) Dashboard(ctx context.Context) (*model.Dashboard, error) {
	var d api.Dashboard
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &d); err != nil {
		return nil, err
	}
	return d.ToModel(), nil
}

// GetNote はノート詳細を取得する。
func (c *Client) GetNote(ctx context.Context, noteID string) (*api.NoteDetail, error) {
	var n api.NoteDetail
	if err := c.do(ctx, http.MethodGet, "/api/notes/"+url.PathEscape(noteID), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ReplaceTags はノートのタグ列全体を置き換え、更新後のノートを返す。
func (c *Client) ReplaceTags(ctx context.Context, noteID string, tags []string) (*model.Note, error) {
	if tags == nil {
		tags = []string{}
	}
	var n api.Note
	path := "/api/notes/" + url.PathEscape(noteID) + "/tags"
	if err := c.do(ctx, http.MethodPut, path, api.TagsInput{Tags: tags}, &n); err != nil {
		return nil, err
	}
	return n.ToModel(), nil
}

// do はリクエストを送信してJSONレスポンスをoutにデコードする。
// 状態変更リクエストはCSRFトークンを付与し、トークン不一致の場合は1回だけ再取得して再送する。
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("リクエストのエンコードに失敗: %w", err)
		}
		payload = b
	}

	needsCSRF := method != http.MethodGet && method != http.MethodHead
	for attempt := 0; ; attempt++ {
		var token string
		if needsCSRF {
			t, err := c.csrf(ctx, attempt > 0)
			if err != nil {
				return err
			}
			token = t
		}

		err := c.send(ctx, method, path, payload, token, out)
		var apiErr *model.APIError
		if needsCSRF && attempt == 0 && errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeCSRFInvalid {
			c.logger.Debug("retrying with fresh CSRF token", slog.String("path", path))
			continue
		}
		return err
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, csrfToken string, out interface{}) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: c.session})
	}
	if csrfToken != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CSRFCookieName, Value: csrfToken})
		req.Header.Set(middleware.CSRFHeaderName, csrfToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("API request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeError(resp.StatusCode, data)
		c.logger.Warn("API returned error",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", apiErr.Code),
		)
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗: %w", err)
	}
	return nil
}

// csrf はキャッシュ済みのCSRFトークンを返す。refreshがtrueの場合は再取得する。
func (c *Client) csrf(ctx context.Context, refresh bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.csrfToken != "" && !refresh {
		return c.csrfToken, nil
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.send(ctx, http.MethodGet, "/api/csrf-token", nil, "", &resp); err != nil {
		return "", fmt.Errorf("CSRFトークンの取得に失敗: %w", err)
	}
	if resp.Token == "" {
		return "", errors.New("CSRFトークンが空です")
	}
	c.csrfToken = resp.Token
	return c.csrfToken, nil
}

// decodeError はエラーレスポンスをmodel.APIErrorに変換する。
// 統一フォーマットでない場合はステータスコードから汎用エラーを組み立てる。
func decodeError(status int, data []byte) *model.APIError {
	var body middleware.ErrorResponseBody
	if err := json.Unmarshal(data, &body); err == nil {
		if apiErr := body.APIError(); apiErr != nil {
			return apiErr
		}
	}

	switch status {
	case http.StatusUnauthorized:
		return model.NewUnauthorizedError()
	case http.StatusTooManyRequests:
		return model.NewRateLimitedError(60)
	default:
		apiErr := model.NewInternalError()
		apiErr.Message = fmt.Sprintf("サーバーがステータス %d を返しました", status)
		return apiErr
	}
}
