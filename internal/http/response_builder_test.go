package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"freelancedesk/internal/core"
	"freelancedesk/internal/invoice"
)

func TestJSONResponseBuilder_Write(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		NoStore().
		Write(w, map[string]string{"id": "c1"})

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["id"] != "c1" {
		t.Errorf("body = %s (%v)", w.Body.String(), err)
	}
}

func TestJSONResponseBuilder_Empty(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Empty(w)
	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}

	w = httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusAccepted).Empty(w)
	if w.Code != http.StatusAccepted {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusAccepted)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		field  string
		hint   string
		msg    string
	}{
		{
			name:   "precondition with hint",
			err:    fmt.Errorf("ping: %w", &core.PreconditionError{Op: "schema", Hint: "run `deskctl migrate up`"}),
			status: http.StatusPreconditionFailed,
			hint:   "run `deskctl migrate up`",
		},
		{
			name:   "permission",
			err:    fmt.Errorf("get client: %w", core.ErrPermissionDenied),
			status: http.StatusForbidden,
			msg:    "permission denied",
		},
		{
			name:   "not found",
			err:    fmt.Errorf("get client: %w", core.ErrNotFound),
			status: http.StatusNotFound,
			msg:    "not found",
		},
		{
			name:   "conflict",
			err:    fmt.Errorf("delete client: %w", core.ErrConflict),
			status: http.StatusConflict,
		},
		{
			name:   "field validation",
			err:    &core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount},
			status: http.StatusUnprocessableEntity,
			field:  "amount",
			msg:    core.ErrInvalidAmount.Error(),
		},
		{
			name:   "class validation",
			err:    fmt.Errorf("%w: unknown export", core.ErrValidation),
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "unknown template",
			err:    fmt.Errorf("%w: %q", invoice.ErrUnknownTemplate, "neon"),
			status: http.StatusBadRequest,
		},
		{
			name:   "internal",
			err:    errors.New("disk on fire"),
			status: http.StatusInternalServerError,
			msg:    "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body, _ := classifyError(tt.err)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if body.Field != tt.field {
				t.Errorf("field = %q, want %q", body.Field, tt.field)
			}
			if body.Hint != tt.hint {
				t.Errorf("hint = %q, want %q", body.Hint, tt.hint)
			}
			if tt.msg != "" && body.Error != tt.msg {
				t.Errorf("error = %q, want %q", body.Error, tt.msg)
			}
		})
	}
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/clients", nil)

	writeError(w, r, errors.New("sqlite: database is locked at /var/lib/desk.db"))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "internal server error" {
		t.Errorf("error = %q", body.Error)
	}
}
