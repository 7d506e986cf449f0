package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
)

const sideEffectTimeout = 10 * time.Second

// events fires side effects after a write has already succeeded. They run
// in the background, detached from the request, and never report errors
// to the caller.
type events struct {
	publisher Publisher
	profiles  ProfileStore
	logger    *log.Logger
	wg        sync.WaitGroup
}

func (e *events) async(ctx context.Context, fn func(ctx context.Context)) {
	if e.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// wait blocks until in-flight side effects finish.
func (e *events) wait() {
	e.wg.Wait()
}

// notify publishes n when the owner is an agency with automation enabled
// and the recipient has an address.
func (e *events) notify(ctx context.Context, owner string, n core.Notification) {
	if n.To == "" {
		return
	}
	e.async(ctx, func(ctx context.Context) { e.sendNotification(ctx, owner, n) })
}

func (e *events) sendNotification(ctx context.Context, owner string, n core.Notification) {
	profile, err := e.profiles.GetProfile(ctx, owner)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			e.logger.WarnContext(ctx, "Skipping notification, profile unavailable",
				log.FieldOwner, owner, log.FieldError, err.Error())
		}
		return
	}
	if !profile.AutomatesEmail() {
		return
	}

	n.OwnerID = owner
	n.SenderName = profile.DisplayName()
	n.ReplyTo = profile.AgencyEmail
	if n.ReplyTo == "" {
		n.ReplyTo = profile.Email
	}
	if err := e.publisher.PublishNotification(ctx, n); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish notification",
			log.FieldOwner, owner,
			log.FieldMessageKind, string(n.Kind),
			log.FieldOperation, log.OpNotify,
			log.FieldError, err.Error())
	}
}

// ledger queues a spreadsheet mirror of a payment. A missed publish is
// picked up later by the pending-ledger sweep.
func (e *events) ledger(ctx context.Context, p core.Payment) {
	e.async(ctx, func(ctx context.Context) {
		if err := e.publisher.PublishLedgerPayment(ctx, p.ID, p.OwnerID); err != nil {
			e.logger.WarnContext(ctx, "Failed to publish ledger sync, sweep will retry",
				log.FieldOwner, p.OwnerID,
				log.FieldEntityID, p.ID,
				log.FieldOperation, log.OpPublish,
				log.FieldError, err.Error())
		}
	})
}
