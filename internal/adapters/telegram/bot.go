package telegram

// bot.go: cliente mínimo de la Bot API de Telegram: sendMessage y getUpdates.
//
// Las respuestas se leen con gjson: solo nos interesan ok/description/result y
// unos pocos campos de cada update.

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
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	sendRetries    = 3
)

// Update es un mensaje entrante.
type Update struct {
	ID     int64
	ChatID string
	UserID string
	Text   string
}

// Bot habla con la Bot API.
type Bot struct {
	token     string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	retryWait time.Duration
}

// NewBot crea un Bot. baseURL vacío usa api.telegram.org.
func NewBot(token, baseURL string) *Bot {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Bot{
		token:   token,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 70 * time.Second}, // > long-poll timeout
		// Telegram limita a ~1 mensaje/s por chat con ráfagas cortas
		limiter:   rate.NewLimiter(rate.Limit(1), 3),
		retryWait: time.Second,
	}
}

// APIError es un error devuelto por Telegram (ok=false).
type APIError struct {
	Status      int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api: status %d: %s", e.Status, e.Description)
}

// SendMessage envía text (Markdown) a chatID. Reintenta hasta 3 veces en 429/5xx
// y errores de red; respeta retry_after.
func (b *Bot) SendMessage(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"parse_mode":               "Markdown",
		"disable_web_page_preview": true,
	})
	if err != nil {
		return fmt.Errorf("telegram.SendMessage: encode: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < sendRetries; attempt++ {
		if err := b.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("telegram.SendMessage: rate limiter: %w", err)
		}

		_, err := b.call(ctx, http.MethodPost, "sendMessage", nil, body)
		if err == nil {
			return nil
		}
		lastErr = err

		wait := time.Duration(attempt+1) * b.retryWait
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			if apiErr.Status != http.StatusTooManyRequests && apiErr.Status < 500 {
				break // 4xx: no se arregla reintentando
			}
			if apiErr.RetryAfter > 0 {
				wait = apiErr.RetryAfter
			}
		}
		if ctx.Err() != nil {
			break
		}
		slog.Debug("telegram send failed, retrying", "attempt", attempt+1, "wait", wait, "err", err)
		if err := sleep(ctx, wait); err != nil {
			break
		}
	}
	return fmt.Errorf("telegram.SendMessage: %w", lastErr)
}

// GetUpdates hace long-polling de mensajes a partir de offset.
func (b *Bot) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	q := url.Values{}
	q.Set("offset", strconv.FormatInt(offset, 10))
	q.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	q.Set("allowed_updates", `["message"]`)

	result, err := b.call(ctx, http.MethodGet, "getUpdates", q, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram.GetUpdates: %w", err)
	}
	if !result.IsArray() {
		return nil, fmt.Errorf("telegram.GetUpdates: result is not an array")
	}

	var out []Update
	for _, u := range result.Array() {
		msg := u.Get("message")
		out = append(out, Update{
			ID:     u.Get("update_id").Int(),
			ChatID: msg.Get("chat.id").String(),
			UserID: msg.Get("from.id").String(),
			Text:   msg.Get("text").String(),
		})
	}
	return out, nil
}

// call ejecuta un método y devuelve el campo "result".
func (b *Bot) call(ctx context.Context, httpMethod, method string, query url.Values, body []byte) (gjson.Result, error) {
	u := fmt.Sprintf("%s/bot%s/%s", b.baseURL, b.token, method)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, u, reader)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.http.Do(req)
	if err != nil {
		// la URL lleva el token: no se incluye en el error
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return gjson.Result{}, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: read body: %w", method, err)
	}

	parsed := gjson.ParseBytes(data)
	if resp.StatusCode != http.StatusOK || !parsed.Get("ok").Bool() {
		return gjson.Result{}, &APIError{
			Status:      resp.StatusCode,
			Description: parsed.Get("description").String(),
			RetryAfter:  time.Duration(parsed.Get("parameters.retry_after").Int()) * time.Second,
		}
	}
	return parsed.Get("result"), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
