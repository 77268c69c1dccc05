package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"atomflow/internal/config"
)

const userAgent = "Atomflow/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyIngestStarted(ctx context.Context, root string, count int) error
	NotifyIngestCompleted(ctx context.Context, stored, failed int, duration time.Duration) error
	NotifyParseCompleted(ctx context.Context, dir, formula, state string) error
	NotifyError(ctx context.Context, err error, context string) error
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
		endpoint: topic,
		client:   client,
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

func (n *ntfyService) NotifyIngestStarted(ctx context.Context, root string, count int) error {
	root = strings.TrimSpace(root)
	data := payload{
		title:   "Atomflow - Ingest Started",
		message: fmt.Sprintf("Ingesting %d calculation directories under %s", count, root),
		tags:    []string{"atomflow", "ingest", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIngestCompleted(ctx context.Context, stored, failed int, duration time.Duration) error {
	duration = duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	durationText := duration.String()
	if duration == 0 {
		durationText = "0s"
	}

	var title string
	var message string
	if failed == 0 {
		title = "Atomflow - Ingest Complete"
		message = fmt.Sprintf("Ingest complete: %d documents stored in %s", stored, durationText)
	} else {
		title = "Atomflow - Ingest Complete (with errors)"
		message = fmt.Sprintf("Ingest complete: %d stored, %d failed in %s", stored, failed, durationText)
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"atomflow", "ingest", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyParseCompleted(ctx context.Context, dir, formula, state string) error {
	dir = strings.TrimSpace(dir)
	formula = strings.TrimSpace(formula)
	if formula == "" {
		formula = "unknown composition"
	}
	data := payload{
		title:   "Atomflow - Parsed",
		message: fmt.Sprintf("Parsed %s (%s): %s", dir, formula, state),
		tags:    []string{"atomflow", "parse", state},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
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
		title:    "Atomflow - Error",
		message:  builder.String(),
		tags:     []string{"atomflow", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Atomflow - Test",
		message:  "Notification system test",
		tags:     []string{"atomflow", "test"},
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

type noopService struct{}

func (noopService) NotifyIngestStarted(context.Context, string, int) error { return nil }

func (noopService) NotifyIngestCompleted(context.Context, int, int, time.Duration) error {
	return nil
}

func (noopService) NotifyParseCompleted(context.Context, string, string, string) error { return nil }

func (noopService) NotifyError(context.Context, error, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
