package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestParseMonthParam(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{name: "empty", value: "", want: time.Time{}},
		{name: "valid", value: "2024-03", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "padded", value: " 2024-12 ", want: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)},
		{name: "month out of range", value: "2024-13", wantErr: true},
		{name: "full date", value: "2024-03-01", wantErr: true},
		{name: "word", value: "March", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParam(url.Values{"month": {tt.value}}, "month")
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("err = %v, want errBadRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseIntParam(t *testing.T) {
	tests := []struct {
		value   string
		want    int
		wantErr bool
	}{
		{value: "", want: 6},
		{value: "12", want: 12},
		{value: "1", want: 1},
		{value: "24", want: 24},
		{value: "0", wantErr: true},
		{value: "25", wantErr: true},
		{value: "six", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseIntParam(url.Values{"months": {tt.value}}, "months", 6, 1, 24)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v, wantErr %v", tt.value, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("%q: got %d, want %d", tt.value, got, tt.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     bool
	}{
		{name: "valid", body: `{"name":"Acme"}`, contentType: "application/json"},
		{name: "charset", body: `{"name":"Acme"}`, contentType: "application/json; charset=utf-8"},
		{name: "no content type", body: `{"name":"Acme"}`},
		{name: "form content type", body: `name=Acme`, contentType: "application/x-www-form-urlencoded", wantErr: true},
		{name: "empty", body: ``, contentType: "application/json", wantErr: true},
		{name: "truncated", body: `{"name":`, contentType: "application/json", wantErr: true},
		{name: "two documents", body: `{"name":"a"}{"name":"b"}`, contentType: "application/json", wantErr: true},
		{name: "too large", body: `{"name":"` + strings.Repeat("x", maxBodyBytes) + `"}`, contentType: "application/json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, &p)
			if tt.wantErr {
				if !errors.Is(err, errBadRequest) {
					t.Fatalf("err = %v, want errBadRequest", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name != "Acme" {
				t.Errorf("Name = %q", p.Name)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  normal  ", "normal"},
		{"with\x00null", "withnull"},
		{"keeps\ttab", "keeps\ttab"},
		{"bell\x07", "bell"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
