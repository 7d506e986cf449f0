package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"freelancedesk/internal/core"
)

var bodyTemplates = template.Must(template.New("notify").Parse(`
{{define "client.created"}}<p>Hi {{.ToName}},</p>
<p>Welcome aboard! {{.SenderName}} has added you as a client and will be in touch about upcoming work.</p>
<p>Best regards,<br>{{.SenderName}}</p>{{end}}
{{define "project.status_changed"}}<p>Hi {{.ToName}},</p>
<p>The status of your project <strong>{{.ProjectName}}</strong> changed from <em>{{.FromStatus}}</em> to <em>{{.ToStatus}}</em>.</p>
<p>Best regards,<br>{{.SenderName}}</p>{{end}}
`))

// Compose renders the email for a notification. User supplied values are
// HTML escaped.
func Compose(n core.Notification) (Message, error) {
	var subject string
	switch n.Kind {
	case core.NotifyClientCreated:
		subject = fmt.Sprintf("Welcome to %s", n.SenderName)
	case core.NotifyProjectStatusChanged:
		subject = fmt.Sprintf("Project update: %s is now %s", n.ProjectName, n.ToStatus)
	default:
		return Message{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	if n.To == "" {
		return Message{}, ErrNoRecipient
	}

	var buf bytes.Buffer
	if err := bodyTemplates.ExecuteTemplate(&buf, string(n.Kind), n); err != nil {
		return Message{}, fmt.Errorf("render %s email: %w", n.Kind, err)
	}
	return Message{
		To:      n.To,
		ToName:  n.ToName,
		ReplyTo: n.ReplyTo,
		Subject: subject,
		HTML:    buf.String(),
	}, nil
}
