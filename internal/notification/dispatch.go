// Package notification delivers post-commit triggers: an in-store
// notification row per recipient, plus an optional webhook POST.
//
// Delivery is fire-and-forget. A failed store write or webhook call is
// logged and dropped; the mutation that raised the trigger has already
// committed and nothing here may undo it.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/storydeck/storydeck/internal/storage"
	"github.com/storydeck/storydeck/internal/types"
)

const (
	webhookMaxElapsed  = 15 * time.Second
	webhookConcurrency = 4
)

// Event is the webhook payload. ID is unique per delivery so receivers can
// de-duplicate retried posts.
type Event struct {
	ID      string    `json:"id"`
	UserID  int64     `json:"user_id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

// Dispatcher stores notification rows and fans deliveries out to an
// optional webhook endpoint.
type Dispatcher struct {
	store      storage.Storage
	webhookURL string
	client     *http.Client
	group      *errgroup.Group
}

// NewDispatcher builds a Dispatcher. webhookURL may be empty, in which case
// only the in-store rows are written.
func NewDispatcher(store storage.Storage, webhookURL string) *Dispatcher {
	g := &errgroup.Group{}
	g.SetLimit(webhookConcurrency)
	return &Dispatcher{
		store:      store,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		group:      g,
	}
}

// Notify records the notification and, when a webhook is configured,
// schedules an asynchronous POST. It never returns an error: failures are
// written to stderr and dropped.
func (d *Dispatcher) Notify(ctx context.Context, userID int64, title, message string) {
	n := &types.Notification{UserID: userID, Title: title, Message: message}
	if err := d.store.AddNotification(ctx, n); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to store notification for user %d: %v\n", userID, err)
	}

	if d.webhookURL == "" {
		return
	}
	event := Event{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Message: message,
		SentAt:  time.Now().UTC(),
	}
	d.group.Go(func() error {
		// Deliveries outlive the request context; each gets its own window.
		ctx, cancel := context.WithTimeout(context.Background(), webhookMaxElapsed)
		defer cancel()
		if err := d.post(ctx, event); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: webhook delivery %s failed: %v\n", event.ID, err)
		}
		return nil
	})
}

// Drain waits for all in-flight webhook deliveries. Call on shutdown.
func (d *Dispatcher) Drain() {
	_ = d.group.Wait() // workers never return errors
}

func newDeliveryBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = webhookMaxElapsed
	return bo
}

// post delivers one event, retrying transient failures with exponential
// backoff. 4xx responses are permanent; 5xx and transport errors retry.
func (d *Dispatcher) post(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return backoff.Retry(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("webhook rejected event: %s", resp.Status))
		default:
			return fmt.Errorf("webhook returned %s", resp.Status)
		}
	}, backoff.WithContext(newDeliveryBackoff(), ctx))
}
