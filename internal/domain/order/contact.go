package order

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DateLayout is the layout of GuestContact.PickupDate.
const DateLayout = time.DateOnly

// PickupSlots lists the pickup times offered to guests.
var PickupSlots = []string{
	"9:00", "10:00", "11:00", "12:00", "13:00",
	"14:00", "15:00", "16:00", "17:00",
}

// GuestContact holds the contact and pickup details of a guest order.
type GuestContact struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Address    string
	PickupDate string
	PickupTime string
	Notes      string
}

// GuestContactError indicates a missing or malformed guest field.
type GuestContactError struct {
	Field  string
	Reason string
}

func (e *GuestContactError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validate checks the contact against the booking rules as of now.
func (g GuestContact) Validate(now time.Time) error {
	required := []struct {
		field, value string
	}{
		{"firstName", g.FirstName},
		{"lastName", g.LastName},
		{"email", g.Email},
		{"phone", g.Phone},
		{"address", g.Address},
		{"pickupDate", g.PickupDate},
		{"pickupTime", g.PickupTime},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &GuestContactError{Field: r.field, Reason: "is required"}
		}
	}

	if local, domain, ok := strings.Cut(strings.TrimSpace(g.Email), "@"); !ok || local == "" || domain == "" {
		return &GuestContactError{Field: "email", Reason: "must be a valid email address"}
	}

	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(g.PickupDate), now.Location())
	if err != nil {
		return &GuestContactError{Field: "pickupDate", Reason: "must be a date in YYYY-MM-DD format"}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		return &GuestContactError{Field: "pickupDate", Reason: "must not be in the past"}
	}

	if !isPickupSlot(g.PickupTime) {
		return &GuestContactError{
			Field:  "pickupTime",
			Reason: fmt.Sprintf("must be one of %s", strings.Join(PickupSlots, ", ")),
		}
	}

	return nil
}

func isPickupSlot(v string) bool {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return false
	}
	return slices.Contains(PickupSlots, fmt.Sprintf("%d:%02d", t.Hour(), t.Minute()))
}
