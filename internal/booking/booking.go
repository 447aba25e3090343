package booking

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"rag-assistant/internal/db"
	"rag-assistant/internal/models"
)

type slotLayout struct {
	layout     string
	twelveHour bool
}

// slotLayouts are tried in order; the first that parses wins. Single-digit
// month, day, hour and minute are accepted.
var slotLayouts = []slotLayout{
	{layout: "2006-1-2 15:4"},
	{layout: "2006-1-2 3:4PM", twelveHour: true},
}

// ParseSlot combines a YYYY-MM-DD date and an HH:MM or H:MMam/pm time.
// The result carries no zone.
func ParseSlot(date, clock string) (time.Time, error) {
	clock = strings.ToUpper(strings.TrimSpace(clock))
	value := strings.TrimSpace(date) + " " + clock
	for _, l := range slotLayouts {
		// time.Parse takes hour 0 with PM; a 12-hour clock runs 1-12
		if l.twelveHour && !validTwelveHour(clock) {
			continue
		}
		if t, err := time.Parse(l.layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized date/time %q %q", models.ErrInvalidArgument, date, clock)
}

func validTwelveHour(clock string) bool {
	hour, _, ok := strings.Cut(clock, ":")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(hour)
	return err == nil && n >= 1 && n <= 12
}

// Store persists bookings.
type Store interface {
	CreateBooking(ctx context.Context, b *db.InterviewBooking) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Book validates the request and stores it.
func (s *Service) Book(ctx context.Context, name, email, date, clock string) (*db.InterviewBooking, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidArgument)
	}
	email = strings.TrimSpace(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email %q", models.ErrInvalidArgument, email)
	}
	slot, err := ParseSlot(date, clock)
	if err != nil {
		return nil, err
	}

	b := &db.InterviewBooking{Name: name, Email: email, Datetime: slot}
	if err := s.store.CreateBooking(ctx, b); err != nil {
		return nil, err
	}

	log.Info().Int64("booking_id", b.ID).Time("datetime", slot).Msg("Interview booked")
	return b, nil
}
