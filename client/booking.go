package client

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/mentorhub/mentorhub-api/models"
)

// Booking validation errors, surfaced verbatim to the user.
var (
	ErrMissingInformation = errors.New("missing information")
	ErrInvalidTimeFormat  = errors.New("invalid time format")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSubmitInProgress   = errors.New("submit already in progress")
)

// timeSlotPattern matches the fixed 12-hour slot format, e.g. "2:30 PM".
var timeSlotPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2}) (AM|PM)$`)

// ParseTimeSlot converts a 12-hour clock slot into 24-hour components.
// Noon is "12:00 PM" and midnight is "12:00 AM".
func ParseTimeSlot(slot string) (hour, minute int, err error) {
	m := timeSlotPattern.FindStringSubmatch(slot)
	if m == nil {
		return 0, 0, ErrInvalidTimeFormat
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour < 1 || hour > 12 || minute > 59 {
		return 0, 0, ErrInvalidTimeFormat
	}
	if hour == 12 {
		hour = 0
	}
	if m[3] == "PM" {
		hour += 12
	}
	return hour, minute, nil
}

// CanonicalStartTime combines a calendar date and a 12-hour slot into the
// session's start instant in UTC.
func CanonicalStartTime(date time.Time, slot string) (time.Time, error) {
	hour, minute, err := ParseTimeSlot(slot)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC), nil
}

// BookingAPI is the slice of the REST surface the booking form needs.
type BookingAPI interface {
	BookSession(ctx context.Context, req BookSessionRequest) (*models.Session, error)
}

// BookingForm drives the session booking dialog for one mentor. Selections
// accumulate until Submit; a failed submit keeps every selection so the user
// can correct and retry.
type BookingForm struct {
	api     BookingAPI
	session Session
	mentor  string

	mu          sync.Mutex
	sessionType *models.SessionType
	date        time.Time
	timeSlot    string
	notes       string
	submitting  bool
}

// NewBookingForm creates a form for booking the given mentor.
func NewBookingForm(api BookingAPI, session Session, mentorID string) *BookingForm {
	return &BookingForm{api: api, session: session, mentor: mentorID}
}

// SelectType picks a session type from the catalog.
func (f *BookingForm) SelectType(typeID string) error {
	st, ok := models.SessionTypeByID(typeID)
	if !ok {
		return fmt.Errorf("unknown session type %q", typeID)
	}
	f.mu.Lock()
	f.sessionType = &st
	f.mu.Unlock()
	return nil
}

// SelectDate picks the calendar date.
func (f *BookingForm) SelectDate(date time.Time) {
	f.mu.Lock()
	f.date = date
	f.mu.Unlock()
}

// SelectTime picks the time slot, e.g. "2:30 PM". The value is validated at
// submit so a partially filled form never errors.
func (f *BookingForm) SelectTime(slot string) {
	f.mu.Lock()
	f.timeSlot = slot
	f.mu.Unlock()
}

// SetNotes attaches free-form notes to the booking.
func (f *BookingForm) SetNotes(notes string) {
	f.mu.Lock()
	f.notes = notes
	f.mu.Unlock()
}

// Reset clears every selection.
func (f *BookingForm) Reset() {
	f.mu.Lock()
	f.sessionType = nil
	f.date = time.Time{}
	f.timeSlot = ""
	f.notes = ""
	f.mu.Unlock()
}

// Submit validates the form and books the session. Validation runs before
// any network call: completeness first, then the time format, then the
// caller's credentials. On success the form resets; on failure the
// selections survive and only the submit lock is released.
func (f *BookingForm) Submit(ctx context.Context) (*models.Session, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	f.submitting = true
	sessionType := f.sessionType
	date := f.date
	timeSlot := f.timeSlot
	notes := f.notes
	f.mu.Unlock()

	release := func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}

	if sessionType == nil || date.IsZero() || timeSlot == "" {
		release()
		return nil, ErrMissingInformation
	}
	start, err := CanonicalStartTime(date, timeSlot)
	if err != nil {
		release()
		return nil, err
	}
	if f.session.BearerToken() == "" {
		release()
		return nil, ErrNotAuthenticated
	}

	booked, err := f.api.BookSession(ctx, BookSessionRequest{
		Mentor:            f.mentor,
		Title:             sessionType.Title,
		Description:       sessionType.Description,
		Date:              start.Format(time.RFC3339),
		Duration:          sessionType.Duration,
		CommunicationType: sessionType.CommunicationType,
		Notes:             notes,
	})
	if err != nil {
		release()
		return nil, err
	}

	f.mu.Lock()
	f.submitting = false
	f.sessionType = nil
	f.date = time.Time{}
	f.timeSlot = ""
	f.notes = ""
	f.mu.Unlock()
	return booked, nil
}
