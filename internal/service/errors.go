package service

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by this package wraps exactly one of them,
// so callers can match either the kind or the specific error with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrState      = errors.New("invalid state")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("authentication failed")
	ErrForbidden  = errors.New("forbidden")
	ErrProvider   = errors.New("route provider error")
)

var (
	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = fmt.Errorf("%w: invalid rider id", ErrValidation)

	// ErrInvalidRideID is returned when ride ID is empty.
	ErrInvalidRideID = fmt.Errorf("%w: invalid ride id", ErrValidation)

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = fmt.Errorf("%w: invalid driver id", ErrValidation)

	// ErrInvalidPickupLocation is returned when the pickup is unnamed or off the globe.
	ErrInvalidPickupLocation = fmt.Errorf("%w: invalid pickup location", ErrValidation)

	// ErrInvalidDropoffLocation is returned when the dropoff is unnamed or off the globe.
	ErrInvalidDropoffLocation = fmt.Errorf("%w: invalid dropoff location", ErrValidation)

	ErrInvalidCarType     = fmt.Errorf("%w: unknown car type", ErrValidation)
	ErrInvalidPaymentMode = fmt.Errorf("%w: unknown payment mode", ErrValidation)
	ErrInvalidParty       = fmt.Errorf("%w: cancelledBy must be user or driver", ErrValidation)
	ErrInvalidFareInput   = fmt.Errorf("%w: distance and duration must be non-negative numbers", ErrValidation)
	ErrInvalidPricing     = fmt.Errorf("%w: rates must be non-negative numbers", ErrValidation)
	ErrPricingUnavailable = fmt.Errorf("%w: no pricing for car type", ErrValidation)
	ErrOTPRequired        = fmt.Errorf("%w: otp is required", ErrValidation)
	ErrInvalidDriver      = fmt.Errorf("%w: name and email are required", ErrValidation)
	ErrInvalidVehicle     = fmt.Errorf("%w: make, model, color, year and registration number are required", ErrValidation)

	ErrRideNotFound    = fmt.Errorf("%w: ride not found", ErrNotFound)
	ErrDriverNotFound  = fmt.Errorf("%w: driver not found", ErrNotFound)
	ErrVehicleNotFound = fmt.Errorf("%w: driver has no vehicle", ErrNotFound)

	// ErrRideNotAccepted is returned when starting a journey outside the Accepted state.
	ErrRideNotAccepted = fmt.Errorf("%w: ride is not accepted", ErrState)

	// ErrRideNotInProgress is returned when completing a ride that has not started.
	ErrRideNotInProgress = fmt.Errorf("%w: ride is not in progress", ErrState)

	// ErrRideNotOpen is returned when accepting a ride that left Requested without a driver.
	ErrRideNotOpen = fmt.Errorf("%w: ride is no longer open", ErrState)

	// ErrRideCannotBeCancelled is returned when the ride is past the point of cancellation.
	ErrRideCannotBeCancelled = fmt.Errorf("%w: ride cannot be cancelled in current state", ErrState)

	// ErrRideAlreadyTaken is returned to every accept that loses the race for a ride.
	ErrRideAlreadyTaken = fmt.Errorf("%w: ride already accepted by another driver", ErrConflict)

	// ErrRideChanged is returned when a transition loses a compare-and-set to a concurrent writer.
	ErrRideChanged = fmt.Errorf("%w: ride was modified concurrently", ErrConflict)

	// ErrDriverBusy is returned when the same driver already has an accept in flight.
	ErrDriverBusy = fmt.Errorf("%w: driver is accepting another ride", ErrConflict)

	ErrDriverExists       = fmt.Errorf("%w: driver already registered", ErrConflict)
	ErrRegistrationExists = fmt.Errorf("%w: registration number already in use", ErrConflict)

	// ErrInvalidOTP is returned when the supplied OTP does not match the stored one.
	ErrInvalidOTP = fmt.Errorf("%w: invalid otp", ErrAuth)

	ErrDriverUnavailable = fmt.Errorf("%w: driver is not available", ErrForbidden)
	ErrComfortMismatch   = fmt.Errorf("%w: vehicle comfort class does not match ride", ErrForbidden)
	ErrNotRideOwner      = fmt.Errorf("%w: ride belongs to another rider", ErrForbidden)
	ErrNotAssignedDriver = fmt.Errorf("%w: driver not assigned to this ride", ErrForbidden)

	ErrPaymentFailed = fmt.Errorf("%w: payment was declined", ErrProvider)
)
