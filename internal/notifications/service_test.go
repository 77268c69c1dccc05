package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"atomflow/internal/notifications"
	"atomflow/internal/testsupport"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(cfg)
	if err := svc.NotifyIngestCompleted(context.Background(), 3, 0, time.Second); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsMessages(t *testing.T) {
	tests := []struct {
		name           string
		notify         func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "ingest started",
			notify: func(svc notifications.Service) error {
				return svc.NotifyIngestStarted(context.Background(), "/calcs/batch-1", 12)
			},
			expectTitle:   "Atomflow - Ingest Started",
			expectMessage: "Ingesting 12 calculation directories under /calcs/batch-1",
			expectTags:    "atomflow,ingest,started",
		},
		{
			name: "ingest completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyIngestCompleted(context.Background(), 12, 0, 90*time.Second)
			},
			expectTitle:   "Atomflow - Ingest Complete",
			expectMessage: "Ingest complete: 12 documents stored in 1m30s",
			expectTags:    "atomflow,ingest,completed",
		},
		{
			name: "ingest completed with failures",
			notify: func(svc notifications.Service) error {
				return svc.NotifyIngestCompleted(context.Background(), 10, 2, 45*time.Second)
			},
			expectTitle:   "Atomflow - Ingest Complete (with errors)",
			expectMessage: "Ingest complete: 10 stored, 2 failed in 45s",
			expectTags:    "atomflow,ingest,completed",
		},
		{
			name: "parse completed",
			notify: func(svc notifications.Service) error {
				return svc.NotifyParseCompleted(context.Background(), "/calcs/si-static", "Si2", "successful")
			},
			expectTitle:   "Atomflow - Parsed",
			expectMessage: "Parsed /calcs/si-static (Si2): successful",
			expectTags:    "atomflow,parse,successful",
		},
		{
			name: "error",
			notify: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("vasprun.xml is incomplete"), "ingest")
			},
			expectTitle:    "Atomflow - Error",
			expectMessage:  "Error with ingest: vasprun.xml is incomplete",
			expectTags:     "atomflow,error,alert",
			expectPriority: "high",
		},
		{
			name: "test notification",
			notify: func(svc notifications.Service) error {
				return svc.TestNotification(context.Background())
			},
			expectTitle:    "Atomflow - Test",
			expectMessage:  "Notification system test",
			expectTags:     "atomflow,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Fatalf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Fatalf("read body: %v", err)
				}
				captured.body = string(body)
				_ = r.Body.Close()
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := testsupport.NewConfig(t)
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5

			svc := notifications.NewService(cfg)
			if err := tc.notify(svc); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic rejected", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL

	svc := notifications.NewService(cfg)
	err := svc.TestNotification(context.Background())
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
