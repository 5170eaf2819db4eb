package service

import "math/rand/v2"

const (
	otpMin = 1000
	otpMax = 9999 // exclusive
)

// NewOTP returns a four-digit code drawn uniformly from [1000, 9999).
func NewOTP() int {
	return otpMin + rand.IntN(otpMax-otpMin)
}

// VerifyOTP compares the supplied code with the stored one.
func VerifyOTP(stored, supplied int) error {
	if stored == 0 || stored != supplied {
		return ErrInvalidOTP
	}
	return nil
}
