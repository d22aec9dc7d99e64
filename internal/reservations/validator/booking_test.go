package validator

import (
	"strings"
	"testing"
	"time"

	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Service: "test"})
}

func validBooking() *model.Booking {
	return &model.Booking{
		UserID:        "user-42",
		RoomTypeID:    "64f000000000000000000001",
		CheckIn:       time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:      time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
		GuestDetails:  map[string]string{"Ada Lovelace": "+15550102030"},
		TotalAmount:   24000,
		PaymentMethod: model.PayNow,
	}
}

func fixedNow() time.Time {
	return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
}

func TestValidateAcceptsWellFormedBooking(t *testing.T) {
	v := NewBookingValidator(testLogger())

	if err := v.Validate(validBooking(), fixedNow()); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateRejectsInvertedDates(t *testing.T) {
	v := NewBookingValidator(testLogger())

	b := validBooking()
	b.CheckIn, b.CheckOut = b.CheckOut, b.CheckIn

	err := v.Validate(b, fixedNow())
	if err == nil {
		t.Fatal("expected validation error for check_out before check_in")
	}
}

func TestValidateRejectsZeroNightStay(t *testing.T) {
	v := NewBookingValidator(testLogger())

	b := validBooking()
	b.CheckOut = b.CheckIn

	if err := v.Validate(b, fixedNow()); err == nil {
		t.Fatal("expected validation error for check_in == check_out")
	}
}

func TestValidateRejectsPastCheckIn(t *testing.T) {
	v := NewBookingValidator(testLogger())

	b := validBooking()
	b.CheckIn = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	b.CheckOut = time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)

	err := v.Validate(b, fixedNow())
	if err == nil {
		t.Fatal("expected validation error for check_in in the past")
	}
	if !strings.Contains(err.Error(), "past") {
		t.Errorf("expected past check_in message, got: %v", err)
	}
}

func TestValidateGuestDetails(t *testing.T) {
	v := NewBookingValidator(testLogger())

	tests := []struct {
		name   string
		guests map[string]string
		valid  bool
	}{
		{"single guest with phone", map[string]string{"Ada": "+15550102030"}, true},
		{"guest without phone", map[string]string{"Ada": ""}, true},
		{"nil map", nil, false},
		{"empty map", map[string]string{}, false},
		{"empty guest name", map[string]string{"": "+15550102030"}, false},
		{"malformed phone", map[string]string{"Ada": "not-a-phone"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			b.GuestDetails = tt.guests

			err := v.Validate(b, fixedNow())
			if tt.valid && err != nil {
				t.Errorf("expected valid, got: %v", err)
			}
			if !tt.valid && err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	v := NewBookingValidator(testLogger())

	b := validBooking()
	b.UserID = ""
	b.PaymentMethod = ""

	err := v.Validate(b, fixedNow())
	if err == nil {
		t.Fatal("expected validation errors for missing fields")
	}

	var verrs ValidationErrors
	if !asValidationErrors(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) < 2 {
		t.Errorf("expected at least 2 field errors, got %d: %v", len(verrs), verrs)
	}
}

func asValidationErrors(err error, target *ValidationErrors) bool {
	verrs, ok := err.(ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}
