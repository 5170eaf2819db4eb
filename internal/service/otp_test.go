package service

import (
	"errors"
	"testing"
)

func TestNewOTP_Range(t *testing.T) {
	t.Parallel()

	for i := 0; i < 10000; i++ {
		otp := NewOTP()
		if otp < 1000 || otp >= 9999 {
			t.Fatalf("otp %d outside [1000, 9999)", otp)
		}
	}
}

func TestVerifyOTP(t *testing.T) {
	t.Parallel()

	if err := VerifyOTP(4821, 4821); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := VerifyOTP(4821, 4822); !errors.Is(err, ErrAuth) {
		t.Errorf("expected ErrAuth, got %v", err)
	}
	if err := VerifyOTP(0, 0); !errors.Is(err, ErrInvalidOTP) {
		t.Errorf("a ride without an otp must never verify, got %v", err)
	}
}
