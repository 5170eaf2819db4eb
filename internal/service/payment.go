package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// PSP is the interface for a Payment Service Provider.
type PSP interface {
	Charge(ctx context.Context, amount float64, mode domain.PaymentMode) (bool, error)
}

// OfflinePSP records charges that are collected outside the platform.
// Cash, card and UPI are all settled between rider and driver, so every charge succeeds.
type OfflinePSP struct{}

// NewOfflinePSP creates a new OfflinePSP.
func NewOfflinePSP() *OfflinePSP {
	return &OfflinePSP{}
}

// Charge implements PSP.
func (p *OfflinePSP) Charge(ctx context.Context, amount float64, mode domain.PaymentMode) (bool, error) {
	return true, nil
}

// PaymentService settles completed rides.
type PaymentService struct {
	paymentRepo repository.PaymentRepository
	psp         PSP
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(paymentRepo repository.PaymentRepository, psp PSP) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		psp:         psp,
	}
}

// paymentKey is the idempotency key for a ride's settlement.
func paymentKey(rideID string) string {
	return fmt.Sprintf("payment:%s", rideID)
}

// Settle charges the ride's frozen fare once. Repeated calls return the existing
// successful payment; a previously failed or pending payment is charged again.
func (s *PaymentService) Settle(ctx context.Context, ride *domain.Ride) (*domain.Payment, error) {
	if ride.ID == "" {
		return nil, ErrInvalidRideID
	}

	key := paymentKey(ride.ID)

	payment, err := s.paymentRepo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if payment == nil {
		payment = &domain.Payment{
			ID:             uuid.New().String(),
			RideID:         ride.ID,
			Amount:         ride.Fare,
			Mode:           ride.PaymentMode,
			Status:         domain.PaymentStatusPending,
			IdempotencyKey: key,
			CreatedAt:      time.Now(),
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			if !errors.Is(err, repository.ErrDuplicate) {
				return nil, err
			}
			// A concurrent completion created it first.
			payment, err = s.paymentRepo.GetByIdempotencyKey(ctx, key)
			if err != nil {
				return nil, err
			}
			if payment == nil {
				return nil, ErrRideChanged
			}
		}
	}

	if payment.Status == domain.PaymentStatusSuccess {
		return payment, nil
	}

	status := domain.PaymentStatusFailed
	if ok, err := s.psp.Charge(ctx, payment.Amount, payment.Mode); err == nil && ok {
		status = domain.PaymentStatusSuccess
	}

	if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, status); err != nil {
		return nil, err
	}
	payment.Status = status

	if status != domain.PaymentStatusSuccess {
		return payment, ErrPaymentFailed
	}
	return payment, nil
}
