package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Session statuses. Transitions are intentionally unrestricted so either
// participant can reschedule or close out a session.
const (
	SessionStatusScheduled = "scheduled"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
	SessionStatusPostponed = "postponed"
)

// Communication types for a session.
const (
	CommunicationVideoCall = "Video Call"
	CommunicationAudioCall = "Audio Call"
	CommunicationChat      = "Chat"
	CommunicationInPerson  = "In-person"
)

// Session holds the structure for the sessions collection in MongoDB.
// A session is a scheduled mentoring engagement between exactly one
// mentor and one mentee.
type Session struct {
	ID                primitive.ObjectID `json:"_id" bson:"_id"`
	Mentor            string             `json:"mentor" bson:"mentor"`
	Mentee            string             `json:"mentee" bson:"mentee"`
	Title             string             `json:"title" bson:"title"`
	Description       string             `json:"description" bson:"description"`
	Date              primitive.DateTime `json:"date" bson:"date"`
	Duration          int                `json:"duration" bson:"duration"`
	Status            string             `json:"status" bson:"status"`
	CommunicationType string             `json:"communicationType" bson:"communicationType"`
	MeetingLink       string             `json:"meetingLink,omitempty" bson:"meetingLink,omitempty"`
	Notes             string             `json:"notes,omitempty" bson:"notes,omitempty"`
	CreatedAt         primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// ValidSessionStatus reports whether s is one of the known session statuses.
func ValidSessionStatus(s string) bool {
	switch s {
	case SessionStatusScheduled, SessionStatusCompleted, SessionStatusCancelled, SessionStatusPostponed:
		return true
	}
	return false
}

// Participant reports whether userID is the mentor or the mentee on the session.
func (s *Session) Participant(userID string) bool {
	return s.Mentor == userID || s.Mentee == userID
}
