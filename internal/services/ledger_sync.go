package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"freelancedesk/internal/core"
	"freelancedesk/internal/log"
	"freelancedesk/internal/sheets"
	"freelancedesk/internal/storage"
)

// LedgerSyncConfig tunes the pending-payment sweep.
type LedgerSyncConfig struct {
	// PollInterval is how often pending payments are looked up (default 30s).
	PollInterval time.Duration
	// BatchSize caps payments handled per sweep (default 20).
	BatchSize int
	// MinAge leaves recent payments to the queue consumer (default 1m).
	MinAge time.Duration
}

func DefaultLedgerSyncConfig() LedgerSyncConfig {
	return LedgerSyncConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    20,
		MinAge:       time.Minute,
	}
}

// LedgerSync mirrors payments into the spreadsheet ledger, both on demand
// (queue messages) and by sweeping payments whose message was lost.
type LedgerSync struct {
	store  Store
	writer sheets.LedgerWriter
	config LedgerSyncConfig
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewLedgerSync(store Store, writer sheets.LedgerWriter, config LedgerSyncConfig, logger *log.Logger) *LedgerSync {
	def := DefaultLedgerSyncConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = def.PollInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = def.BatchSize
	}
	if config.MinAge < 0 {
		config.MinAge = 0
	}
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentWorker})
	}
	return &LedgerSync{
		store:  store,
		writer: writer,
		config: config,
		logger: logger.WithComponent(log.ComponentSheets),
		now:    time.Now,
	}
}

// SyncPayment appends one payment to the ledger. Already mirrored and
// deleted payments are skipped without error.
func (p *LedgerSync) SyncPayment(ctx context.Context, paymentID, owner string) error {
	status, _, err := p.store.LedgerStatus(ctx, paymentID)
	if errors.Is(err, core.ErrNotFound) {
		p.logger.DebugContext(ctx, "Payment gone before ledger sync", log.FieldEntityID, paymentID)
		return nil
	}
	if err != nil {
		return err
	}
	if status == storage.LedgerSynced {
		return nil
	}

	row, err := p.ledgerRow(ctx, paymentID, owner)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	ref, err := p.writer.AppendPayment(ctx, row)
	if err != nil {
		if markErr := p.store.MarkLedgerError(ctx, paymentID); markErr != nil {
			p.logger.ErrorContext(ctx, "Failed to flag ledger error", log.FieldEntityID, paymentID, log.FieldError, markErr.Error())
		}
		return fmt.Errorf("append payment %s to ledger: %w", paymentID, err)
	}
	if err := p.store.MarkLedgerSynced(ctx, paymentID, ref); err != nil {
		return fmt.Errorf("mark payment %s synced: %w", paymentID, err)
	}
	p.logger.InfoContext(ctx, "Payment mirrored to ledger",
		log.FieldOwner, owner,
		log.FieldEntityID, paymentID,
		"ref", ref)
	return nil
}

func (p *LedgerSync) ledgerRow(ctx context.Context, paymentID, owner string) (sheets.LedgerRow, error) {
	pay, err := p.store.GetPayment(ctx, owner, paymentID)
	if err != nil {
		return sheets.LedgerRow{}, err
	}
	row := sheets.LedgerRow{
		PaymentID: pay.ID,
		OwnerID:   owner,
		Date:      pay.Date,
		Amount:    pay.Amount,
		Type:      pay.PaymentType,
		Method:    pay.PaymentMethod,
		Notes:     pay.Notes,
	}
	// A payment whose project vanished is still mirrored without names.
	if project, err := p.store.GetProject(ctx, owner, pay.ProjectID); err == nil {
		row.ProjectName = project.Name
		if client, err := p.store.GetClient(ctx, owner, project.ClientID); err == nil {
			row.ClientName = client.Name
		}
	}
	return row, nil
}

// Start begins the sweep loop. Returns an error if already running.
func (p *LedgerSync) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("ledger sync is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Ledger sweep started",
		"poll_interval", p.config.PollInterval.String(),
		"batch_size", p.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for it, bounded by ctx.
func (p *LedgerSync) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		p.logger.InfoContext(ctx, "Ledger sweep stopped")
		return nil
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Ledger sweep stop timed out")
		return ctx.Err()
	}
}

func (p *LedgerSync) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *LedgerSync) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.Sweep(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep syncs one batch of pending payments and returns how many were
// mirrored.
func (p *LedgerSync) Sweep(ctx context.Context) int {
	pending, err := p.store.GetPendingLedgerPayments(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to list pending ledger payments", log.FieldError, err.Error())
		return 0
	}

	cutoff := p.now().Add(-p.config.MinAge)
	synced := 0
	for _, item := range pending {
		if ctx.Err() != nil {
			return synced
		}
		if item.CreatedAt.After(cutoff) {
			continue
		}
		if err := p.SyncPayment(ctx, item.ID, item.OwnerID); err != nil {
			p.logger.WarnContext(ctx, "Ledger sync failed, will retry",
				log.FieldEntityID, item.ID,
				log.FieldError, err.Error())
			continue
		}
		synced++
	}
	if synced > 0 {
		p.logger.InfoContext(ctx, "Ledger sweep completed", "synced", synced)
	}
	return synced
}
