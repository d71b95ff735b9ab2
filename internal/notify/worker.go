package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/resilience"
)

// Worker consumes notification tasks from the queue and fans them out to
// the configured channels.
type Worker struct {
	Email  EmailNotifier
	Logger zerolog.Logger

	// Breaker guards the mail provider. When it opens, tasks fail fast and
	// asynq's backoff spaces out the retries.
	Breaker *resilience.Breaker
}

// HandleEvent processes one notify:event task. Send failures are returned
// so asynq retries with backoff.
func (w *Worker) HandleEvent(ctx context.Context, task *asynq.Task) error {
	var payload EventTaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// Malformed payloads never become valid; drop instead of retrying.
		w.Logger.Error().Err(err).Msg("notify: malformed task payload")
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if w.Breaker != nil && !w.Breaker.Allow(ctx) {
		return resilience.ErrOpenCircuit
	}
	if err := w.Email.Send(payload); err != nil {
		if w.Breaker != nil {
			w.Breaker.Report(ctx, false)
		}
		obs.ObserveNotifyDelivery(payload.Topic, "error")
		w.Logger.Warn().
			Err(err).
			Str("topic", payload.Topic).
			Str("event_id", payload.EventID).
			Msg("notify: email send failed")
		return err
	}
	if w.Breaker != nil {
		w.Breaker.Report(ctx, true)
	}
	obs.ObserveNotifyDelivery(payload.Topic, "ok")
	w.Logger.Debug().
		Str("topic", payload.Topic).
		Str("event_id", payload.EventID).
		Msg("notify: event handled")
	return nil
}

// Mux returns an asynq mux with the worker's handlers registered.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEvent, w.HandleEvent)
	return mux
}
