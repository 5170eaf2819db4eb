package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// DriverService handles driver onboarding.
type DriverService struct {
	driverRepo  repository.DriverRepository
	vehicleRepo repository.VehicleRepository
}

// NewDriverService creates a new DriverService.
func NewDriverService(driverRepo repository.DriverRepository, vehicleRepo repository.VehicleRepository) *DriverService {
	return &DriverService{
		driverRepo:  driverRepo,
		vehicleRepo: vehicleRepo,
	}
}

// RegisterDriverRequest contains the parameters for registering a driver.
type RegisterDriverRequest struct {
	ID    string // identity subject of the driver's token
	Name  string
	Phone string
	Email string
}

// RegisterDriver creates an available driver.
func (s *DriverService) RegisterDriver(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	if req.ID == "" {
		return nil, ErrInvalidDriverID
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		return nil, ErrInvalidDriver
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, ErrInvalidDriver
	}

	driver := &domain.Driver{
		ID:          req.ID,
		Name:        req.Name,
		Phone:       strings.TrimSpace(req.Phone),
		Email:       req.Email,
		IsAvailable: true,
		CreatedAt:   time.Now(),
	}

	if err := s.driverRepo.Create(ctx, driver); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDriverExists
		}
		return nil, err
	}
	return driver, nil
}

// RegisterVehicleRequest contains the parameters for a driver's vehicle.
type RegisterVehicleRequest struct {
	DriverID           string
	Make               string
	Model              string
	Color              string
	Year               int
	RegistrationNumber string
	Comfort            domain.ComfortClass
}

// RegisterVehicle sets the driver's active vehicle, replacing any previous one.
func (s *DriverService) RegisterVehicle(ctx context.Context, req RegisterVehicleRequest) (*domain.Vehicle, error) {
	if req.DriverID == "" {
		return nil, ErrInvalidDriverID
	}
	if !req.Comfort.Valid() {
		return nil, ErrInvalidCarType
	}
	regNo := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(req.RegistrationNumber), " ", ""))
	if strings.TrimSpace(req.Make) == "" || strings.TrimSpace(req.Model) == "" ||
		strings.TrimSpace(req.Color) == "" || req.Year <= 0 || regNo == "" {
		return nil, ErrInvalidVehicle
	}

	if _, err := s.driverRepo.GetByID(ctx, req.DriverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverNotFound
		}
		return nil, err
	}

	vehicle := &domain.Vehicle{
		ID:                 uuid.New().String(),
		DriverID:           req.DriverID,
		Make:               strings.TrimSpace(req.Make),
		Model:              strings.TrimSpace(req.Model),
		Color:              strings.TrimSpace(req.Color),
		Year:               req.Year,
		RegistrationNumber: regNo,
		Comfort:            req.Comfort,
	}

	if err := s.vehicleRepo.Upsert(ctx, vehicle); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrRegistrationExists
		}
		return nil, err
	}
	return vehicle, nil
}
