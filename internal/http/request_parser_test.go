package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParser_JSON(t *testing.T) {
	body := `{"desc": " Coffee ", "amount": -3.5, "date": "2024-02-01"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !parser.IsJSON() {
		t.Error("Expected IsJSON() to be true")
	}

	got := parser.Entry()
	want := EntryForm{Desc: "Coffee", Amount: "-3.5", Date: "2024-02-01"}
	if got != want {
		t.Errorf("Entry() = %+v, want %+v", got, want)
	}
}

func TestRequestBodyParser_FormData(t *testing.T) {
	body := "description=form+test&amount=100"
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parser.IsJSON() {
		t.Error("Expected IsJSON() to be false for form data")
	}

	got := parser.Entry()
	if got.Desc != "form test" || got.Amount != "100" || got.Date != "" {
		t.Errorf("Entry() = %+v", got)
	}
}

func TestRequestBodyParser_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(`{"desc":`))
	req.Header.Set("Content-Type", "application/json")
	if err := NewRequestBodyParser(req).Parse(); err == nil {
		t.Fatal("expected an error for truncated JSON")
	}
}

func TestRequestBodyParser_EmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(""))

	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if val := parser.Get("nonexistent"); val != "" {
		t.Errorf("Get('nonexistent') = %q, want empty string", val)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Coffee  ", "Coffee"},
		{"Rent\x00\x07 May", "Rent May"},
		{"line\tbreak", "line\tbreak"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTransactionIDFromPath(t *testing.T) {
	tests := []struct {
		path   string
		wantID string
		wantOK bool
	}{
		{"/transactions/abc-123/delete", "abc-123", true},
		{"/transactions//delete", "", false},
		{"/transactions/abc/edit", "", false},
		{"/transactions/a/b/delete", "", false},
		{"/other/abc/delete", "", false},
		{"/transactions/a%2Fb/delete", "a/b", true},
		{"/transactions/x%3Fy/delete", "x?y", true},
		{"/transactions/c%2541d/delete", "c%41d", true},
		{"/transactions/%zz/delete", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			id, ok := transactionIDFromPath(tt.path)
			if id != tt.wantID || ok != tt.wantOK {
				t.Errorf("got (%q, %v), want (%q, %v)", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantErr bool
	}{
		{"POST allowed", http.MethodPost, []string{http.MethodPost}, false},
		{"DELETE allowed with multiple", http.MethodDelete, []string{http.MethodDelete, http.MethodPost}, false},
		{"GET not allowed", http.MethodGet, []string{http.MethodPost}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireMethod(req, tt.allowed...)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}

func TestRequireDeleteOrPOST(t *testing.T) {
	tests := []struct {
		method  string
		wantErr bool
	}{
		{http.MethodPost, false},
		{http.MethodDelete, false},
		{http.MethodGet, true},
		{http.MethodPut, true},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			result := RequireDeleteOrPOST(req)

			if tt.wantErr && result == nil {
				t.Error("Expected error response but got nil")
			}
			if !tt.wantErr && result != nil {
				t.Error("Expected nil but got error response")
			}
		})
	}
}
