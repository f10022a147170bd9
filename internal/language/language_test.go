package language

import "testing"

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"uk", "uk"},
		{"eng", "en"},
		{"ukr", "uk"},
		{"fra", "fr"},
		{"deu", "de"},
		{"pt-BR", "pt"},
		{"english", "en"},
		{"Ukrainian", "uk"},
		{"not a language", ""},
		{"", ""},
		{" ", ""},
	}

	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"auto", Auto, false},
		{"AUTO", Auto, false},
		{"", Auto, false},
		{"uk", "uk", false},
		{"eng", "en", false},
		{"klingonese", "", true},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Normalize(%q) expected error, got %q", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Normalize(%q) unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTranscriberHint(t *testing.T) {
	if got := TranscriberHint("auto"); got != "" {
		t.Fatalf("expected auto to map to empty hint, got %q", got)
	}
	if got := TranscriberHint(" Auto "); got != "" {
		t.Fatalf("expected padded auto to map to empty hint, got %q", got)
	}
	if got := TranscriberHint("ukr"); got != "uk" {
		t.Fatalf("expected ukr to map to uk, got %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("auto"); got != "auto-detect" {
		t.Fatalf("unexpected auto display name %q", got)
	}
	if got := DisplayName("en"); got != "English" {
		t.Fatalf("unexpected display name for en: %q", got)
	}
	if got := DisplayName("zz"); got != "ZZ" {
		t.Fatalf("unexpected display name for unknown code: %q", got)
	}
}
