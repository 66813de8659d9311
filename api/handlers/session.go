package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mentorhub/mentorhub-api/api"
	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/databases"
	"github.com/mentorhub/mentorhub-api/models"
)

// Session exported for testing purposes
type Session struct {
	DB  databases.SessionDatabase
	UDB databases.UserDatabase
}

// createSessionRequest is the body for POST /sessions
type createSessionRequest struct {
	Mentor            string `json:"mentor"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Date              string `json:"date"` // RFC 3339
	Duration          int    `json:"duration"`
	CommunicationType string `json:"communicationType"`
	MeetingLink       string `json:"meetingLink"`
	Notes             string `json:"notes"`
}

// CreateSessionHandler books a new session with the caller as mentee. The
// session record is the source of truth: the mentor/mentee booking counters
// are incremented best-effort afterwards and a failure there never rolls the
// booking back.
func (s Session) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerID(r)
	if caller == "" {
		config.ErrorStatus("missing authentication", http.StatusUnauthorized, w, fmt.Errorf("no caller identity"))
		return
	}

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if req.Mentor == "" {
		config.ErrorStatus("session mentor is required", http.StatusBadRequest, w, fmt.Errorf("missing mentor"))
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		config.ErrorStatus("invalid session date", http.StatusBadRequest, w, err)
		return
	}
	if req.Duration == 0 {
		req.Duration = 60
	}
	if req.Duration < 0 {
		config.ErrorStatus("session duration must be positive", http.StatusBadRequest, w, fmt.Errorf("duration %d", req.Duration))
		return
	}
	if req.CommunicationType == "" {
		req.CommunicationType = models.CommunicationVideoCall
	}

	newSession := models.Session{
		ID:                primitive.NewObjectID(),
		Mentor:            req.Mentor,
		Mentee:            caller,
		Title:             req.Title,
		Description:       req.Description,
		Date:              primitive.NewDateTimeFromTime(date.UTC()),
		Duration:          req.Duration,
		Status:            models.SessionStatusScheduled,
		CommunicationType: req.CommunicationType,
		MeetingLink:       req.MeetingLink,
		Notes:             req.Notes,
		CreatedAt:         primitive.NewDateTimeFromTime(time.Now()),
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := s.DB.InsertOne(ctx, newSession); err != nil {
		config.ErrorStatus("failed to create session", http.StatusInternalServerError, w, err)
		return
	}

	// best-effort only, drift is reconciled by the scheduler
	s.bumpCounters(ctx, "user.sessionsBooked", req.Mentor, caller)

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(newSession)
}

// SessionsHandler returns the caller's sessions scoped by role: mentors see
// sessions where they mentor, everyone else sees sessions where they are the
// mentee.
func (s Session) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerID(r)
	if caller == "" {
		config.ErrorStatus("missing authentication", http.StatusUnauthorized, w, fmt.Errorf("no caller identity"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	filter := bson.M{"mentee": caller}
	if callerID, err := primitive.ObjectIDFromHex(caller); err == nil {
		if user, err := s.UDB.FindOne(ctx, bson.M{"_id": callerID}); err == nil && user.Details.Role == models.RoleMentor {
			filter = bson.M{"mentor": caller}
		}
	}

	sortByDate := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	sessions, err := s.DB.Find(ctx, filter, sortByDate)
	if err != nil {
		config.ErrorStatus("failed to get sessions", http.StatusInternalServerError, w, err)
		return
	}
	if len(sessions) == 0 {
		sessions = []models.Session{}
	}

	b, err := json.Marshal(sessions)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// UpdateSessionHandler updates mutable fields of a session. Only the mentor
// or the mentee on the session may update it.
func (s Session) UpdateSessionHandler(w http.ResponseWriter, r *http.Request) {
	_, sID, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	var patch map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	update := bson.M{}
	for key, value := range patch {
		switch key {
		case "title", "description", "communicationType", "meetingLink", "notes":
			update[key] = value
		case "duration":
			duration, okNum := value.(float64)
			if !okNum || duration <= 0 || duration != float64(int(duration)) {
				config.ErrorStatus("session duration must be positive", http.StatusBadRequest, w, fmt.Errorf("duration %v", value))
				return
			}
			update[key] = int(duration)
		case "date":
			dateStr, _ := value.(string)
			date, err := time.Parse(time.RFC3339, dateStr)
			if err != nil {
				config.ErrorStatus("invalid session date", http.StatusBadRequest, w, err)
				return
			}
			update[key] = primitive.NewDateTimeFromTime(date.UTC())
		case "status":
			statusStr, _ := value.(string)
			if !models.ValidSessionStatus(statusStr) {
				config.ErrorStatus("invalid session status", http.StatusBadRequest, w, fmt.Errorf("unknown status %q", statusStr))
				return
			}
			update[key] = statusStr
		}
		// identity fields (mentor, mentee, _id, createdAt) are not updatable
	}
	if len(update) == 0 {
		config.ErrorStatus("no updatable fields in request", http.StatusBadRequest, w, fmt.Errorf("empty update"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := s.DB.UpdateOne(ctx, bson.M{"_id": sID}, bson.M{"$set": update}); err != nil {
		config.ErrorStatus("failed to update session", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "session updated successfully"}`))
}

// UpdateSessionStatusHandler sets the session status. Transitions are not
// restricted so either participant can reschedule or close out freely. A
// transition into completed bumps both participants' completion counters
// best-effort.
func (s Session) UpdateSessionStatusHandler(w http.ResponseWriter, r *http.Request) {
	session, sID, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}
	if !models.ValidSessionStatus(req.Status) {
		config.ErrorStatus("invalid session status", http.StatusBadRequest, w, fmt.Errorf("unknown status %q", req.Status))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := s.DB.UpdateOne(ctx, bson.M{"_id": sID}, bson.M{"$set": bson.M{"status": req.Status}}); err != nil {
		config.ErrorStatus("failed to update session status", http.StatusInternalServerError, w, err)
		return
	}

	if req.Status == models.SessionStatusCompleted && session.Status != models.SessionStatusCompleted {
		s.bumpCounters(ctx, "user.sessionsCompleted", session.Mentor, session.Mentee)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "session status updated successfully"}`))
}

// DeleteSessionHandler removes a session entirely. Only a participant may
// delete; there is no soft delete.
func (s Session) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	_, sID, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := s.DB.DeleteOne(ctx, bson.M{"_id": sID}); err != nil {
		config.ErrorStatus("failed to delete session", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "session deleted successfully"}`))
}

// ownedSession loads the session from the path and verifies the caller is a
// participant. On failure it writes the error response and returns ok=false.
func (s Session) ownedSession(w http.ResponseWriter, r *http.Request) (*models.Session, primitive.ObjectID, bool) {
	caller := api.CallerID(r)
	sessionID := mux.Vars(r)["session_id"]

	sID, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		config.ErrorStatus("invalid session ID", http.StatusBadRequest, w, err)
		return nil, primitive.NilObjectID, false
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	session, err := s.DB.FindOne(ctx, bson.M{"_id": sID})
	if err != nil {
		config.ErrorStatus("failed to find session", http.StatusNotFound, w, err)
		return nil, primitive.NilObjectID, false
	}
	if !session.Participant(caller) {
		config.ErrorStatus("caller is not a participant of this session", http.StatusForbidden, w, fmt.Errorf("forbidden"))
		return nil, primitive.NilObjectID, false
	}
	return session, sID, true
}

// bumpCounters increments a counter field on each user document. Failures
// are logged and swallowed: the session record is already the source of
// truth and the scheduler reconciles counter drift.
func (s Session) bumpCounters(ctx context.Context, field string, userIDs ...string) {
	for _, id := range userIDs {
		uID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			zap.S().Warnw("skipping counter bump for malformed user id", "userId", id, "field", field)
			continue
		}
		if _, err := s.UDB.UpdateOne(ctx, bson.M{"_id": uID}, bson.M{"$inc": bson.M{field: 1}}); err != nil {
			zap.S().Errorw("failed to bump user counter", "userId", id, "field", field, "error", err)
		}
	}
}
