package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name      string
		provided  string
		config    string
		wantValid bool
	}{
		{"matching keys", "secret", "secret", true},
		{"mismatched keys", "wrong", "secret", false},
		{"empty config key", "secret", "", false},
		{"empty provided key", "", "secret", false},
		{"both empty", "", "", false},
		{"length mismatch", "secret1", "secret", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateAPIKey(tt.provided, tt.config); got != tt.wantValid {
				t.Errorf("ValidateAPIKey() = %v, want %v", got, tt.wantValid)
			}
		})
	}
}

func TestExtractAPIKey(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid bearer", "Bearer my-key", "my-key", false},
		{"missing header", "", "", true},
		{"wrong scheme", "Basic abc123", "", true},
		{"empty key", "Bearer ", "", true},
		{"whitespace key", "Bearer    ", "", true},
		{"padded key", "Bearer  my-key ", "my-key", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/queue", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := ExtractAPIKey(req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}
