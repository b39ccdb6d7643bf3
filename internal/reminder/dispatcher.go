package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DeadlineFormat is how deadlines are rendered in notification bodies.
const DeadlineFormat = "02-01-2006 03:04 PM"

// EmailSender delivers a reminder over email. Implementations live outside
// this package; any failure is treated as non-fatal.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// WhatsAppSender delivers a reminder over WhatsApp and returns the provider
// message ID on success.
type WhatsAppSender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// Dispatcher attempts all configured channels for a fired job, independently.
// One channel's outage never suppresses the other; nothing is retried.
type Dispatcher struct {
	Email    EmailSender
	WhatsApp WhatsAppSender
	Timeout  time.Duration
	Log      zerolog.Logger
}

// Dispatch sends the reminder for job on every channel that has a recipient.
// Best effort, at most once per channel; errors are logged and swallowed.
func (d *Dispatcher) Dispatch(ctx context.Context, job Job) {
	due := job.Deadline.Format(DeadlineFormat)
	log := d.Log.With().
		Str("dispatch_id", uuid.NewString()).
		Uint64("task_id", job.TaskID).
		Logger()

	if job.Email != "" && d.Email != nil {
		subject := fmt.Sprintf("⏰ Task Reminder: %s", job.Title)
		body := fmt.Sprintf("Reminder: '%s' is due at %s.", job.Title, due)
		if err := d.send(ctx, func(ctx context.Context) error {
			return d.Email.Send(ctx, job.Email, subject, body)
		}); err != nil {
			log.Warn().Err(err).Str("to", job.Email).Msg("reminder email failed")
		} else {
			log.Info().Str("to", job.Email).Msg("reminder email sent")
		}
	}

	if job.WhatsApp != "" && d.WhatsApp != nil {
		body := fmt.Sprintf("⏰ *Task Reminder*\n\n*Title:* %s\n*Due:* %s", job.Title, due)
		var sid string
		err := d.send(ctx, func(ctx context.Context) error {
			var err error
			sid, err = d.WhatsApp.Send(ctx, job.WhatsApp, body)
			return err
		})
		if err != nil {
			log.Warn().Err(err).Str("to", job.WhatsApp).Msg("reminder whatsapp failed")
		} else {
			log.Info().Str("to", job.WhatsApp).Str("sid", sid).Msg("reminder whatsapp sent")
		}
	}
}

// send bounds a single channel attempt so one slow transport cannot starve
// the worker pool.
func (d *Dispatcher) send(ctx context.Context, fn func(ctx context.Context) error) error {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	return fn(ctx)
}
