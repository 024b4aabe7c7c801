package util

import "testing"

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{n: 0, want: "0 B"},
		{n: 512, want: "512 B"},
		{n: 1024, want: "1.0 KiB"},
		{n: 1536, want: "1.5 KiB"},
		{n: 5 * 1024 * 1024, want: "5.0 MiB"},
		{n: 3 * 1024 * 1024 * 1024, want: "3.0 GiB"},
		{n: -2048, want: "-2.0 KiB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.n); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestSavings(t *testing.T) {
	tests := []struct {
		in, out int64
		want    float64
	}{
		{in: 200, out: 50, want: 75},
		{in: 100, out: 100, want: 0},
		{in: 100, out: 150, want: -50},
		{in: 0, out: 10, want: 0},
	}

	for _, tt := range tests {
		if got := Savings(tt.in, tt.out); got != tt.want {
			t.Errorf("Savings(%d, %d) = %v, want %v", tt.in, tt.out, got, tt.want)
		}
	}
}
