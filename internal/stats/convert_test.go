package stats

import (
	"errors"
	"math"
	"testing"
)

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "12", "12"},
		{"surrounding whitespace", "  12 ", "12"},
		{"non-breaking space", "\u00a012\u00a0", "12"},
		{"formula quoted", `="0-4"`, "0-4"},
		{"formula bare", "=12", "12"},
		{"double quotes", `"Sean"`, "Sean"},
		{"single quotes", "'Sean'", "Sean"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseCount Tests
// ----------------------------------------------------------------------------

func TestParseCount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      int
		wantErr   bool
		wantBlank bool
	}{
		{name: "integer", input: "12", want: 12},
		{name: "exported float", input: "12.0", want: 12},
		{name: "float noise", input: "11.9999999", want: 12},
		{name: "negative", input: "-3", want: -3},
		{name: "thousands separator", input: "1,200", want: 1200},
		{name: "fraction", input: "12.5", wantErr: true},
		{name: "text", input: "twelve", wantErr: true},
		{name: "int32 max", input: "2147483647", want: 2147483647},
		{name: "above int32", input: "2147483648", wantErr: true},
		{name: "huge exponent", input: "1e20", wantErr: true},
		{name: "huge negative", input: "-1e20", wantErr: true},
		{name: "blank", input: "  ", wantErr: true, wantBlank: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseCount(%q) expected error, got %d", tt.input, got)
				}
				if tt.wantBlank != errors.Is(err, ErrBlank) {
					t.Errorf("ParseCount(%q) blank = %v, want %v", tt.input, errors.Is(err, ErrBlank), tt.wantBlank)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCount(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParsePercentage Tests
// ----------------------------------------------------------------------------

func TestParsePercentage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "fraction", input: "0.45", want: 0.45},
		{name: "percent sign", input: "45%", want: 0.45},
		{name: "percent with space", input: "45 %", want: 0.45},
		{name: "hundred percent", input: "100%", want: 1},
		{name: "over one", input: "1.04", want: 1.04},
		{name: "invalid", input: "n/a", wantErr: true},
		{name: "blank", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePercentage(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePercentage(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePercentage(%q) unexpected error: %v", tt.input, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParsePercentage(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseValue(t *testing.T) {
	if v, err := ParseValue(KindCount, "4"); err != nil || v != 4 {
		t.Errorf("count: got %v, %v", v, err)
	}
	if v, err := ParseValue(KindPercentage, "50%"); err != nil || v != 0.5 {
		t.Errorf("percentage: got %v, %v", v, err)
	}
	if v, err := ParseValue(KindDecimal, "-1.25"); err != nil || v != -1.25 {
		t.Errorf("decimal: got %v, %v", v, err)
	}
	if _, err := ParseValue(KindText, "1-2"); !errors.Is(err, ErrBlank) {
		t.Errorf("text: expected ErrBlank, got %v", err)
	}
}
