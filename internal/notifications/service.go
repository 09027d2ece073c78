package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shortreel/internal/config"
)

const userAgent = "shortreel/0.1.0"

// Service defines the notification surface used by the CLI and watcher.
type Service interface {
	NotifyRunCompleted(ctx context.Context, source, video string, elapsed time.Duration) error
	NotifyRunFailed(ctx context.Context, source string, err error) error
	NotifyWatchStarted(ctx context.Context, dir string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, source, video string, elapsed time.Duration) error {
	message := fmt.Sprintf("Video ready: %s", strings.TrimSpace(video))
	if source = strings.TrimSpace(source); source != "" {
		message = fmt.Sprintf("%s\nSource: %s", message, source)
	}
	if elapsed = elapsed.Round(time.Second); elapsed > 0 {
		message = fmt.Sprintf("%s\nTook %s", message, elapsed)
	}
	return n.send(ctx, payload{
		title:   "shortreel - Video Ready",
		message: message,
		tags:    []string{"shortreel", "run", "completed"},
	})
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, source string, err error) error {
	var builder strings.Builder
	builder.WriteString("Run failed")
	if source = strings.TrimSpace(source); source != "" {
		builder.WriteString(" for ")
		builder.WriteString(source)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	return n.send(ctx, payload{
		title:    "shortreel - Error",
		message:  builder.String(),
		tags:     []string{"shortreel", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) NotifyWatchStarted(ctx context.Context, dir string) error {
	return n.send(ctx, payload{
		title:    "shortreel - Watching",
		message:  fmt.Sprintf("Watching %s for documents", strings.TrimSpace(dir)),
		tags:     []string{"shortreel", "watch", "started"},
		priority: "low",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "shortreel - Test",
		message:  "Notification system test",
		tags:     []string{"shortreel", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, string, string, time.Duration) error {
	return nil
}
func (noopService) NotifyRunFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyWatchStarted(context.Context, string) error     { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
