package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"freelancedesk/internal/config"
	"freelancedesk/internal/core"
)

func TestCompose(t *testing.T) {
	t.Run("status change escapes user input", func(t *testing.T) {
		msg, err := Compose(core.Notification{
			Kind:        core.NotifyProjectStatusChanged,
			To:          "client@example.com",
			ToName:      "Bob",
			SenderName:  "Studio",
			ProjectName: "<script>alert(1)</script>",
			FromStatus:  core.StatusActive,
			ToStatus:    core.StatusCompleted,
		})
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if strings.Contains(msg.HTML, "<script>") {
			t.Error("project name must be escaped")
		}
		if !strings.Contains(msg.HTML, "&lt;script&gt;") {
			t.Errorf("escaped name missing from %q", msg.HTML)
		}
		if !strings.Contains(msg.Subject, "completed") {
			t.Errorf("subject = %q", msg.Subject)
		}
	})

	t.Run("client welcome", func(t *testing.T) {
		msg, err := Compose(core.Notification{Kind: core.NotifyClientCreated, To: "a@b.c", ToName: "Ann", SenderName: "Studio"})
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if msg.Subject != "Welcome to Studio" || !strings.Contains(msg.HTML, "Ann") {
			t.Errorf("unexpected message %+v", msg)
		}
	})

	t.Run("errors", func(t *testing.T) {
		if _, err := Compose(core.Notification{Kind: "bogus", To: "a@b.c"}); err == nil {
			t.Error("unknown kind should fail")
		}
		if _, err := Compose(core.Notification{Kind: core.NotifyClientCreated}); !errors.Is(err, ErrNoRecipient) {
			t.Errorf("want ErrNoRecipient, got %v", err)
		}
	})
}

func TestResendMailer(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewResendMailer("key", "desk@example.com")
	m.endpoint = srv.URL

	err := m.Send(context.Background(), Message{To: "c@example.com", Subject: "Hi", HTML: "<p>x</p>"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.From != "desk@example.com" || len(got.To) != 1 || got.Subject != "Hi" {
		t.Errorf("unexpected request %+v", got)
	}

	m.apiKey = "wrong"
	if err := m.Send(context.Background(), Message{To: "c@example.com"}); err == nil {
		t.Error("expected API error")
	}
}

func TestSMTPMailer(t *testing.T) {
	var (
		addr string
		data string
	)
	m := NewSMTPMailer(SMTPConfig{Host: "mail.example.com", Port: 587, From: "desk@example.com"})
	m.sendMail = func(a string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		addr, data = a, string(msg)
		return nil
	}

	err := m.Send(context.Background(), Message{To: "c@example.com", ToName: "Cleo", Subject: "Update", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if addr != "mail.example.com:587" {
		t.Errorf("addr = %q", addr)
	}
	if !strings.Contains(data, "Content-Type: text/html") || !strings.HasSuffix(data, "<p>hi</p>") {
		t.Errorf("unexpected MIME body %q", data)
	}
}

func TestNew(t *testing.T) {
	for provider, want := range map[string]string{"log": "*notify.LogMailer", "smtp": "*notify.SMTPMailer", "resend": "*notify.ResendMailer"} {
		m, err := New(&config.Config{MailProvider: provider}, nil)
		if err != nil {
			t.Fatalf("New(%s): %v", provider, err)
		}
		if got := typeName(m); got != want {
			t.Errorf("New(%s) = %s, want %s", provider, got, want)
		}
	}
	if _, err := New(&config.Config{MailProvider: "pigeon"}, nil); err == nil {
		t.Error("unknown provider should fail")
	}
}

func typeName(m Mailer) string {
	switch m.(type) {
	case *LogMailer:
		return "*notify.LogMailer"
	case *SMTPMailer:
		return "*notify.SMTPMailer"
	case *ResendMailer:
		return "*notify.ResendMailer"
	}
	return "unknown"
}
