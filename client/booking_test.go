package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mentorhub/mentorhub-api/models"
)

type fakeBookingAPI struct {
	calls   int
	err     error
	lastReq BookSessionRequest
}

func (f *fakeBookingAPI) BookSession(_ context.Context, req BookSessionRequest) (*models.Session, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Session{
		ID:     primitive.NewObjectID(),
		Mentor: req.Mentor,
		Title:  req.Title,
		Status: models.SessionStatusScheduled,
	}, nil
}

func TestParseTimeSlot(t *testing.T) {
	tests := []struct {
		slot   string
		hour   int
		minute int
	}{
		{"2:30 PM", 14, 30},
		{"2:30 AM", 2, 30},
		{"12:00 AM", 0, 0},
		{"12:00 PM", 12, 0},
		{"12:30 AM", 0, 30},
		{"9:05 AM", 9, 5},
		{"11:59 PM", 23, 59},
		{"1:00 AM", 1, 0},
	}
	for _, tc := range tests {
		hour, minute, err := ParseTimeSlot(tc.slot)
		assert.NoError(t, err, tc.slot)
		assert.Equal(t, tc.hour, hour, tc.slot)
		assert.Equal(t, tc.minute, minute, tc.slot)
	}
}

func TestParseTimeSlot_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"14:30",
		"2:30PM",
		"2:30 pm",
		"13:00 PM",
		"0:30 AM",
		"2:75 PM",
		"half past two",
		"2:30 PM extra",
	}
	for _, slot := range invalid {
		_, _, err := ParseTimeSlot(slot)
		assert.ErrorIs(t, err, ErrInvalidTimeFormat, slot)
	}
}

func TestCanonicalStartTime(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	start, err := CanonicalStartTime(date, "10:00 AM")
	assert.NoError(t, err)
	assert.Equal(t, "2024-06-01T10:00:00Z", start.Format(time.RFC3339))

	start, err = CanonicalStartTime(date, "2:30 PM")
	assert.NoError(t, err)
	assert.Equal(t, "2024-06-01T14:30:00Z", start.Format(time.RFC3339))

	start, err = CanonicalStartTime(date, "12:00 AM")
	assert.NoError(t, err)
	assert.Equal(t, "2024-06-01T00:00:00Z", start.Format(time.RFC3339))
}

func TestBookingForm_Submit(t *testing.T) {
	api := &fakeBookingAPI{}
	form := NewBookingForm(api, Session{UserID: "mentee-1", Token: "tok"}, "mentor-1")

	assert.NoError(t, form.SelectType("1on1"))
	form.SelectDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	form.SelectTime("10:00 AM")
	form.SetNotes("looking forward to it")

	booked, err := form.Submit(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, booked)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, "mentor-1", api.lastReq.Mentor)
	assert.Equal(t, "2024-06-01T10:00:00Z", api.lastReq.Date)
	assert.Equal(t, 60, api.lastReq.Duration)
	assert.Equal(t, models.CommunicationVideoCall, api.lastReq.CommunicationType)
	assert.Equal(t, "looking forward to it", api.lastReq.Notes)

	// success clears the form
	_, err = form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrMissingInformation)
	assert.Equal(t, 1, api.calls)
}

func TestBookingForm_SubmitMissingInformation(t *testing.T) {
	api := &fakeBookingAPI{}
	form := NewBookingForm(api, Session{UserID: "mentee-1", Token: "tok"}, "mentor-1")

	// nothing selected
	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrMissingInformation)

	// type without date or time
	assert.NoError(t, form.SelectType("async"))
	_, err = form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrMissingInformation)

	// still no time slot
	form.SelectDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	_, err = form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrMissingInformation)

	// incomplete forms never reach the network
	assert.Equal(t, 0, api.calls)
}

func TestBookingForm_SubmitInvalidTimeFormat(t *testing.T) {
	api := &fakeBookingAPI{}
	form := NewBookingForm(api, Session{UserID: "mentee-1", Token: "tok"}, "mentor-1")

	assert.NoError(t, form.SelectType("1on1"))
	form.SelectDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	form.SelectTime("25 o'clock")

	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
	assert.Equal(t, 0, api.calls)
}

func TestBookingForm_SubmitWithoutToken(t *testing.T) {
	api := &fakeBookingAPI{}
	form := NewBookingForm(api, Session{UserID: "mentee-1"}, "mentor-1")

	assert.NoError(t, form.SelectType("1on1"))
	form.SelectDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	form.SelectTime("10:00 AM")

	_, err := form.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, 0, api.calls)
}

func TestBookingForm_SubmitFailureKeepsSelections(t *testing.T) {
	api := &fakeBookingAPI{err: errors.New("mentor is unavailable")}
	form := NewBookingForm(api, Session{UserID: "mentee-1", Token: "tok"}, "mentor-1")

	assert.NoError(t, form.SelectType("code-review"))
	form.SelectDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	form.SelectTime("2:30 PM")

	_, err := form.Submit(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, api.calls)

	// selections survive the failure, a retry works without refilling
	api.err = nil
	booked, err := form.Submit(context.Background())
	assert.NoError(t, err)
	assert.NotNil(t, booked)
	assert.Equal(t, 2, api.calls)
	assert.Equal(t, "2024-06-01T14:30:00Z", api.lastReq.Date)
	assert.Equal(t, 45, api.lastReq.Duration)
}

func TestBookingForm_SelectTypeUnknown(t *testing.T) {
	form := NewBookingForm(&fakeBookingAPI{}, Session{Token: "tok"}, "mentor-1")
	assert.Error(t, form.SelectType("vip-dinner"))
}

func TestBookingForm_QuotedTokenAccepted(t *testing.T) {
	api := &fakeBookingAPI{}
	form := NewBookingForm(api, Session{UserID: "mentee-1", Token: `"tok"`}, "mentor-1")

	assert.NoError(t, form.SelectType("group"))
	form.SelectDate(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	form.SelectTime("6:00 PM")

	_, err := form.Submit(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, api.calls)
	assert.Equal(t, 90, api.lastReq.Duration)
}
