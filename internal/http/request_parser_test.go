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

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     url.Values
		wantYear  int
		wantMonth int
	}{
		{
			name:      "both values provided",
			query:     url.Values{"year": {"2024"}, "month": {"12"}},
			wantYear:  2024,
			wantMonth: 12,
		},
		{
			name:      "only year",
			query:     url.Values{"year": {"2023"}},
			wantYear:  2023,
			wantMonth: 3,
		},
		{
			name:      "empty uses now",
			query:     url.Values{},
			wantYear:  2024,
			wantMonth: 3,
		},
		{
			name:      "invalid values are ignored",
			query:     url.Values{"year": {"abc"}, "month": {" 7 "}},
			wantYear:  2024,
			wantMonth: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseMonthParams(tt.query, now)
			if result.Year != tt.wantYear {
				t.Errorf("Year = %d, want %d", result.Year, tt.wantYear)
			}
			if result.Month != tt.wantMonth {
				t.Errorf("Month = %d, want %d", result.Month, tt.wantMonth)
			}
		})
	}
}

func TestQueryIntDefault(t *testing.T) {
	q := url.Values{"limit": {"5"}, "page": {"0"}, "bad": {"x"}}
	if got := queryIntDefault(q, "limit", 10); got != 5 {
		t.Errorf("limit = %d, want 5", got)
	}
	if got := queryIntDefault(q, "page", 1); got != 1 {
		t.Errorf("non-positive page = %d, want default 1", got)
	}
	if got := queryIntDefault(q, "bad", 3); got != 3 {
		t.Errorf("bad = %d, want default 3", got)
	}
	if got := queryIntDefault(q, "missing", 7); got != 7 {
		t.Errorf("missing = %d, want default 7", got)
	}
}

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"id": "123", "name": "test", "amount": 42.5, "toggle": true, "empty": ""}`
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}
	if id := parser.Get("id"); id != "123" {
		t.Errorf("Get('id') = %q, want '123'", id)
	}
	if amount := parser.Get("amount"); amount != "42.5" {
		t.Errorf("Get('amount') = %q, want '42.5'", amount)
	}
	if !parser.Bool("toggle") {
		t.Error("Bool('toggle') = false, want true")
	}
	if !parser.Has("empty") || parser.Has("missing") {
		t.Error("Has() should report present keys only")
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "id=456&name=form+test&note=line%01break"
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}
	if name := parser.Get("name"); name != "form test" {
		t.Errorf("Get('name') = %q, want 'form test'", name)
	}
	if note := parser.Get("note"); note != "linebreak" {
		t.Errorf("control characters should be stripped, got %q", note)
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestRequestBodyParser_Errors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"broken":`))
	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Error("expected error for malformed JSON")
	}

	big := strings.Repeat("a", maxBodyBytes+1)
	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader("note="+big))
	if err := NewRequestBodyParser(req).Parse(); !errors.Is(err, errBodyTooLarge) {
		t.Errorf("expected errBodyTooLarge, got %v", err)
	}
}
