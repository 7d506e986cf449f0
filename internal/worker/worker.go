// Package worker holds the queue handlers run by freelancedesk-worker.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"freelancedesk/internal/amqp"
	"freelancedesk/internal/log"
	"freelancedesk/internal/notify"
)

// LedgerSyncer mirrors one payment into the spreadsheet ledger.
type LedgerSyncer interface {
	SyncPayment(ctx context.Context, paymentID, owner string) error
}

// Consumer delivers queued messages to handlers until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, handlers map[string]amqp.Handler) error
}

// Worker sends notification emails and mirrors payments. The ledger is
// optional; without it ledger messages are acknowledged and dropped.
type Worker struct {
	mailer      notify.Mailer
	ledger      LedgerSyncer
	logger      *log.Logger
	sendTimeout time.Duration
}

func New(mailer notify.Mailer, ledger LedgerSyncer, logger *log.Logger) *Worker {
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentWorker})
	}
	return &Worker{
		mailer:      mailer,
		ledger:      ledger,
		logger:      logger.WithComponent(log.ComponentWorker),
		sendTimeout: 15 * time.Second,
	}
}

// Handlers maps every message kind to its handler.
func (w *Worker) Handlers() map[string]amqp.Handler {
	return map[string]amqp.Handler{
		amqp.KindEmailNotification: w.HandleNotification,
		amqp.KindLedgerPayment:     w.HandleLedgerPayment,
	}
}

// Run consumes until ctx is cancelled. Cancellation is not an error.
func (w *Worker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Worker consuming", "ledger_enabled", w.ledger != nil)
	err := consumer.Consume(ctx, w.Handlers())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleNotification renders and sends one email. Messages that can never
// be delivered (bad payload, no recipient, unknown kind) are dropped; send
// failures are returned so the message is requeued.
func (w *Worker) HandleNotification(ctx context.Context, env *amqp.Envelope) error {
	n, err := env.Notification()
	if err != nil {
		w.logger.ErrorContext(ctx, "Dropping undecodable notification", "message_id", env.ID, log.FieldError, err.Error())
		return nil
	}
	msg, err := notify.Compose(n)
	if err != nil {
		w.logger.WarnContext(ctx, "Dropping notification",
			"message_id", env.ID,
			"kind", string(n.Kind),
			log.FieldOwner, n.OwnerID,
			log.FieldError, err.Error())
		return nil
	}
	if w.mailer == nil {
		return errors.New("no mailer configured")
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()
	if err := w.mailer.Send(sendCtx, msg); err != nil {
		return fmt.Errorf("send %s email: %w", n.Kind, err)
	}
	w.logger.InfoContext(ctx, "Notification email sent",
		log.FieldOperation, log.OpNotify,
		log.FieldOwner, n.OwnerID,
		"kind", string(n.Kind))
	return nil
}

// HandleLedgerPayment mirrors the referenced payment.
func (w *Worker) HandleLedgerPayment(ctx context.Context, env *amqp.Envelope) error {
	m, err := env.LedgerPayment()
	if err != nil {
		w.logger.ErrorContext(ctx, "Dropping undecodable ledger message", "message_id", env.ID, log.FieldError, err.Error())
		return nil
	}
	if w.ledger == nil {
		w.logger.DebugContext(ctx, "Ledger disabled, skipping payment", log.FieldEntityID, m.PaymentID)
		return nil
	}
	if m.PaymentID == "" || m.OwnerID == "" {
		w.logger.WarnContext(ctx, "Dropping ledger message without ids", "message_id", env.ID)
		return nil
	}
	return w.ledger.SyncPayment(ctx, m.PaymentID, m.OwnerID)
}
