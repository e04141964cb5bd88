package service

import (
	"testing"
	"time"
)

func TestGenerateSecureCode_LengthAndDigits(t *testing.T) {
	for _, length := range []int{4, 6, 8} {
		for i := 0; i < 50; i++ {
			code, err := GenerateSecureCode(length)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			if len(code) != length {
				t.Fatalf("expected length %d, got %q", length, code)
			}
			if code[0] == '0' {
				t.Fatalf("expected no leading zero, got %q", code)
			}
			for _, r := range code {
				if r < '0' || r > '9' {
					t.Fatalf("expected only digits, got %q", code)
				}
			}
		}
	}
}

func TestGenerateSecureCode_DefaultLength(t *testing.T) {
	code, err := GenerateSecureCode(0)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected default length 6, got %q", code)
	}
}

func TestNewTimeLimitedCode_Expiry(t *testing.T) {
	start := time.Now().UTC()
	code, expiresAt, err := NewTimeLimitedCode(6, 15*time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !isValidSecureCode(code) {
		t.Fatalf("expected valid code, got %q", code)
	}
	if expiresAt.Before(start.Add(14*time.Minute)) || expiresAt.After(start.Add(16*time.Minute)) {
		t.Fatalf("expected expiry around 15 minutes ahead, got %v", expiresAt)
	}
}

func TestIsValidSecureCode(t *testing.T) {
	cases := []struct {
		code string
		want bool
	}{
		{"123456", true},
		{"12345", false},
		{"1234567", false},
		{"12345a", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := isValidSecureCode(tc.code); got != tc.want {
			t.Fatalf("isValidSecureCode(%q) = %v, want %v", tc.code, got, tc.want)
		}
	}
}
