package util

import (
	"strconv"
	"testing"
)

func TestGenerateResetCodeRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := GenerateResetCode()
		if err != nil {
			t.Fatalf("GenerateResetCode returned error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("expected numeric code, got %q", code)
		}
		if n < otpMin || n > otpMax {
			t.Fatalf("code %d out of range", n)
		}
	}
}
