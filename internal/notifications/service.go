package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"physica/internal/config"
)

const userAgent = "Physica-Go/0.1.0"

// Service defines the notification surface exposed to session components.
type Service interface {
	NotifyCartridgeInserted(ctx context.Context, gameName string) error
	NotifyGameLaunched(ctx context.Context, gameName string) error
	NotifySessionEnded(ctx context.Context, gameName string, playtime time.Duration) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:   topic,
		client:     client,
		insertions: cfg.Notifications.Insertions,
		sessions:   cfg.Notifications.Sessions,
		errors:     cfg.Notifications.Errors,
		minSession: time.Duration(cfg.Notifications.MinSessionSeconds) * time.Second,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	insertions bool
	sessions   bool
	errors     bool
	minSession time.Duration
}

func (n *ntfyService) NotifyCartridgeInserted(ctx context.Context, gameName string) error {
	if !n.insertions {
		return nil
	}
	gameName = strings.TrimSpace(gameName)
	data := payload{
		title:   "Physica - Cartridge Inserted",
		message: fmt.Sprintf("🎮 Cartridge inserted: %s", gameName),
		tags:    []string{"physica", "cartridge", "inserted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyGameLaunched(ctx context.Context, gameName string) error {
	if !n.sessions {
		return nil
	}
	gameName = strings.TrimSpace(gameName)
	data := payload{
		title:   "Physica - Game Launched",
		message: fmt.Sprintf("🕹️ Now playing: %s", gameName),
		tags:    []string{"physica", "game", "launched"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySessionEnded(ctx context.Context, gameName string, playtime time.Duration) error {
	if !n.sessions {
		return nil
	}
	if playtime < n.minSession {
		return nil
	}
	gameName = strings.TrimSpace(gameName)
	data := payload{
		title:   "Physica - Session Ended",
		message: fmt.Sprintf("⏱️ Finished %s after %s", gameName, formatPlaytime(playtime)),
		tags:    []string{"physica", "game", "stopped"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Physica - Error",
		message:  builder.String(),
		tags:     []string{"physica", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Physica - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"physica", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func formatPlaytime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

type noopService struct{}

func (noopService) NotifyCartridgeInserted(context.Context, string) error             { return nil }
func (noopService) NotifyGameLaunched(context.Context, string) error                  { return nil }
func (noopService) NotifySessionEnded(context.Context, string, time.Duration) error   { return nil }
func (noopService) NotifyError(context.Context, error, string) error                  { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }
