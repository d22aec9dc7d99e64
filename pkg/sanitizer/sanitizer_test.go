package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello   world  ", "hello world"},
		{"", ""},
		{"   ", ""},
		{"one\ttwo\nthree", "one two three"},
		{"already clean", "already clean"},
	}

	for _, tt := range tests {
		if got := TrimAndNormalize(tt.input); got != tt.want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeGuestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Ada   Lovelace ", "Ada Lovelace"},
		{"O'Brien", "O'Brien"},
		{"Anne-Marie", "Anne-Marie"},
		{"J. R. Smith", "J. R. Smith"},
		{"Bobby<script>", "Bobbyscript"},
		{"12345", ""},
	}

	for _, tt := range tests {
		if got := NormalizeGuestName(tt.input); got != tt.want {
			t.Errorf("NormalizeGuestName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"+1 (555) 010-2030", "+15550102030"},
		{"055 501 0203", "0555010203"},
		{"", ""},
		{"+972-50-123-4567", "+972501234567"},
		{"ext+123", "123"},
	}

	for _, tt := range tests {
		if got := NormalizePhone(tt.input); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
