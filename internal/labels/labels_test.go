package labels

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"down_payment", "down_payment"},
		{"Down_Payment", "down_payment"},
		{"  FINAL_PAYMENT  ", "final_payment"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := Normalize(tt.input); result != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCatalogLabel(t *testing.T) {
	catalog, err := NewCatalog("")
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	tests := []struct {
		name     string
		status   string
		expected string
	}{
		{
			name:     "canonical status",
			status:   "down_payment_paid",
			expected: "Down Payment Paid",
		},
		{
			name:     "case insensitive lookup",
			status:   "Down_Payment_Paid",
			expected: "Down Payment Paid",
		},
		{
			name:     "legacy status",
			status:   "confirmed",
			expected: "Confirmed",
		},
		{
			name:     "legacy alias maps to canonical label",
			status:   "dp_paid",
			expected: "Down Payment Paid",
		},
		{
			name:     "unknown status title-cased",
			status:   "waiting_confirmation",
			expected: "Waiting Confirmation",
		},
		{
			name:     "empty renders dash",
			status:   "",
			expected: "-",
		},
		{
			name:     "whitespace only renders dash",
			status:   "   ",
			expected: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := catalog.Label(tt.status); result != tt.expected {
				t.Errorf("Label(%q) = %q, want %q", tt.status, result, tt.expected)
			}
		})
	}
}

func TestCatalogOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	overrides := "down_payment: Booking Fee\nwaiting_confirmation: On Hold\n"
	if err := os.WriteFile(path, []byte(overrides), 0o644); err != nil {
		t.Fatalf("write overrides: %v", err)
	}

	catalog, err := NewCatalog(path)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	if got := catalog.Label("down_payment"); got != "Booking Fee" {
		t.Errorf("override ignored, Label = %q", got)
	}
	if got := catalog.Label("waiting_confirmation"); got != "On Hold" {
		t.Errorf("new override missing, Label = %q", got)
	}
	// untouched labels keep the embedded defaults
	if got := catalog.Label("cancelled"); got != "Cancelled" {
		t.Errorf("embedded default lost, Label = %q", got)
	}
}

func TestCatalogMissingOverridesFile(t *testing.T) {
	if _, err := NewCatalog("/nonexistent/overrides.yaml"); err == nil {
		t.Error("a configured but unreadable overrides file must be an error")
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"waiting", "Waiting"},
		{"waiting_confirmation", "Waiting Confirmation"},
		{"a__b", "A  B"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := TitleCase(tt.input); result != tt.expected {
				t.Errorf("TitleCase(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
