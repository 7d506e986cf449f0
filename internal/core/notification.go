package core

import "time"

// NotificationKind names a business event that may trigger an email.
type NotificationKind string

const (
	NotifyClientCreated        NotificationKind = "client.created"
	NotifyProjectStatusChanged NotificationKind = "project.status_changed"
)

// Notification is a best-effort email request emitted after a write
// succeeded. The recipient is the client's contact address.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	OwnerID     string           `json:"owner_id"`
	To          string           `json:"to"`
	ToName      string           `json:"to_name"`
	SenderName  string           `json:"sender_name"`
	ReplyTo     string           `json:"reply_to,omitempty"`
	ProjectName string           `json:"project_name,omitempty"`
	FromStatus  ProjectStatus    `json:"from_status,omitempty"`
	ToStatus    ProjectStatus    `json:"to_status,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}
