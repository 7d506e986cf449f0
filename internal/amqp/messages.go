package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"freelancedesk/internal/core"
)

// Message kinds carried on the queue.
const (
	KindEmailNotification = "email.notification"
	KindLedgerPayment     = "ledger.payment"
)

// Envelope wraps every message so one queue can carry several kinds.
type Envelope struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// LedgerPaymentMessage asks the worker to mirror a payment. The worker
// loads the payment itself, so only identifiers travel.
type LedgerPaymentMessage struct {
	PaymentID string `json:"payment_id"`
	OwnerID   string `json:"owner_id"`
}

func NewEnvelope(kind string, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   body,
	}, nil
}

func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EnvelopeFromJSON decodes a delivery body. Unknown kinds are rejected.
func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case KindEmailNotification, KindLedgerPayment:
	default:
		return nil, fmt.Errorf("unknown message kind %q", env.Kind)
	}
	return &env, nil
}

func (e *Envelope) Notification() (core.Notification, error) {
	var n core.Notification
	if e.Kind != KindEmailNotification {
		return n, fmt.Errorf("envelope kind %q is not %s", e.Kind, KindEmailNotification)
	}
	if err := json.Unmarshal(e.Payload, &n); err != nil {
		return n, fmt.Errorf("decode notification: %w", err)
	}
	return n, nil
}

func (e *Envelope) LedgerPayment() (LedgerPaymentMessage, error) {
	var m LedgerPaymentMessage
	if e.Kind != KindLedgerPayment {
		return m, fmt.Errorf("envelope kind %q is not %s", e.Kind, KindLedgerPayment)
	}
	if err := json.Unmarshal(e.Payload, &m); err != nil {
		return m, fmt.Errorf("decode ledger payment: %w", err)
	}
	return m, nil
}
