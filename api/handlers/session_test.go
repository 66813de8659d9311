package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mentorhub/mentorhub-api/api"
	"github.com/mentorhub/mentorhub-api/api/handlers"
	"github.com/mentorhub/mentorhub-api/databases"
	"github.com/mentorhub/mentorhub-api/databases/mocks"
	"github.com/mentorhub/mentorhub-api/models"
)

func TestSession_CreateSessionHandler(t *testing.T) {
	body := `{"mentor": "mentor-1", "title": "Intro call", "date": "2024-06-01T10:00:00Z"}`
	req, err := http.NewRequest("POST", "/api/v1/sessions", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, "mentee-1")

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}

	conn.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{})
	db.On("Collection", "sessions").Return(conn)
	db.On("Collection", "users").Return(&mocks.CollectionHelper{})

	s := handlers.Session{
		DB:  databases.NewSessionDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CreateSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var created models.Session
	err = json.Unmarshal(rr.Body.Bytes(), &created)
	assert.NoError(t, err)
	assert.Equal(t, "mentor-1", created.Mentor)
	assert.Equal(t, "mentee-1", created.Mentee)
	assert.Equal(t, models.SessionStatusScheduled, created.Status)
	assert.Equal(t, 60, created.Duration)
	assert.Equal(t, models.CommunicationVideoCall, created.CommunicationType)
}

func TestSession_CreateSessionHandlerMissingMentor(t *testing.T) {
	body := `{"title": "Intro call", "date": "2024-06-01T10:00:00Z"}`
	req, err := http.NewRequest("POST", "/api/v1/sessions", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, "mentee-1")

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	db.On("Collection", "sessions").Return(conn)
	db.On("Collection", "users").Return(&mocks.CollectionHelper{})

	s := handlers.Session{
		DB:  databases.NewSessionDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CreateSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "session mentor is required")
	conn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestSession_CreateSessionHandlerInvalidDate(t *testing.T) {
	body := `{"mentor": "mentor-1", "date": "next tuesday"}`
	req, err := http.NewRequest("POST", "/api/v1/sessions", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, "mentee-1")

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	db.On("Collection", "sessions").Return(conn)
	db.On("Collection", "users").Return(&mocks.CollectionHelper{})

	s := handlers.Session{
		DB:  databases.NewSessionDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.CreateSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid session date")
}

func TestSession_SessionsHandlerAsMentee(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/sessions", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, "mentee-1")

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	var capturedFilter interface{}
	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Session)
		*arg = []models.Session{
			{ID: primitive.NewObjectID(), Mentor: "mentor-1", Mentee: "mentee-1", Title: "first"},
			{ID: primitive.NewObjectID(), Mentor: "mentor-2", Mentee: "mentee-1", Title: "second"},
		}
	})
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor).Run(func(args mock.Arguments) {
		capturedFilter = args.Get(1)
	})
	db.On("Collection", "sessions").Return(conn)
	db.On("Collection", "users").Return(&mocks.CollectionHelper{})

	s := handlers.Session{
		DB:  databases.NewSessionDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.SessionsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, bson.M{"mentee": "mentee-1"}, capturedFilter)

	var got []models.Session
	err = json.Unmarshal(rr.Body.Bytes(), &got)
	assert.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSession_SessionsHandlerAsMentor(t *testing.T) {
	mentorID := primitive.NewObjectID()
	req, err := http.NewRequest("GET", "/api/v1/sessions", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, mentorID.Hex())

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}
	userConn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).ID = mentorID.Hex()
		(*arg).Details.Role = models.RoleMentor
	})
	userConn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	var capturedFilter interface{}
	cursor.On("Decode", mock.Anything).Return(nil)
	conn.On("Find", mock.Anything, mock.Anything, mock.Anything).Return(cursor).Run(func(args mock.Arguments) {
		capturedFilter = args.Get(1)
	})
	db.On("Collection", "sessions").Return(conn)
	db.On("Collection", "users").Return(userConn)

	s := handlers.Session{
		DB:  databases.NewSessionDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.SessionsHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, bson.M{"mentor": mentorID.Hex()}, capturedFilter)
}

func TestSession_UpdateSessionStatusHandlerCompleted(t *testing.T) {
	sessionID := primitive.NewObjectID()
	mentorID := primitive.NewObjectID()
	menteeID := primitive.NewObjectID()

	req, err := http.NewRequest("PUT", "/api/v1/sessions/"+sessionID.Hex()+"/status", strings.NewReader(`{"status": "completed"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, menteeID.Hex())
	req = mux.SetURLVars(req, map[string]string{"session_id": sessionID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	userConn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Session)
		(*arg).ID = sessionID
		(*arg).Mentor = mentorID.Hex()
		(*arg).Mentee = menteeID.Hex()
		(*arg).Status = models.SessionStatusScheduled
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)
	userConn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil)
	db.On("Collection", "sessions").Return(conn)
	db.On("Collection", "users").Return(userConn)

	s := handlers.Session{
		DB:  databases.NewSessionDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.UpdateSessionStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "session status updated successfully")

	// both participants get their completed counter bumped
	userConn.AssertNumberOfCalls(t, "UpdateOne", 2)
}

func TestSession_UpdateSessionStatusHandlerInvalidStatus(t *testing.T) {
	sessionID := primitive.NewObjectID()
	req, err := http.NewRequest("PUT", "/api/v1/sessions/"+sessionID.Hex()+"/status", strings.NewReader(`{"status": "paused"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, "mentee-1")
	req = mux.SetURLVars(req, map[string]string{"session_id": sessionID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Session)
		(*arg).ID = sessionID
		(*arg).Mentor = "mentor-1"
		(*arg).Mentee = "mentee-1"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "sessions").Return(conn)
	db.On("Collection", "users").Return(&mocks.CollectionHelper{})

	s := handlers.Session{
		DB:  databases.NewSessionDatabase(db),
		UDB: databases.NewUserDatabase(db),
	}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.UpdateSessionStatusHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid session status")
	conn.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_UpdateSessionHandlerNotParticipant(t *testing.T) {
	sessionID := primitive.NewObjectID()
	req, err := http.NewRequest("PUT", "/api/v1/sessions/"+sessionID.Hex(), strings.NewReader(`{"title": "hijacked"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, "outsider")
	req = mux.SetURLVars(req, map[string]string{"session_id": sessionID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Session)
		(*arg).ID = sessionID
		(*arg).Mentor = "mentor-1"
		(*arg).Mentee = "mentee-1"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "sessions").Return(conn)

	s := handlers.Session{DB: databases.NewSessionDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.UpdateSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "caller is not a participant")
	conn.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
}

func TestSession_UpdateSessionHandlerIdentityFieldsIgnored(t *testing.T) {
	sessionID := primitive.NewObjectID()
	req, err := http.NewRequest("PUT", "/api/v1/sessions/"+sessionID.Hex(), strings.NewReader(`{"mentor": "other", "mentee": "other"}`))
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, "mentee-1")
	req = mux.SetURLVars(req, map[string]string{"session_id": sessionID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Session)
		(*arg).ID = sessionID
		(*arg).Mentor = "mentor-1"
		(*arg).Mentee = "mentee-1"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "sessions").Return(conn)

	s := handlers.Session{DB: databases.NewSessionDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.UpdateSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "no updatable fields in request")
}

func TestSession_UpdateSessionHandlerRejectsNonPositiveDuration(t *testing.T) {
	sessionID := primitive.NewObjectID()

	for _, body := range []string{
		`{"duration": -30}`,
		`{"duration": 0}`,
		`{"duration": "soon"}`,
		`{"duration": 45.5}`,
	} {
		req, err := http.NewRequest("PUT", "/api/v1/sessions/"+sessionID.Hex(), strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		req = api.WithCallerID(req, "mentee-1")
		req = mux.SetURLVars(req, map[string]string{"session_id": sessionID.Hex()})

		db := &MockDatabaseHelper{}
		conn := &mocks.CollectionHelper{}
		singleResultHelper := &mocks.SingleResultHelper{}

		singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
			arg := args.Get(0).(**models.Session)
			(*arg).ID = sessionID
			(*arg).Mentor = "mentor-1"
			(*arg).Mentee = "mentee-1"
		})
		conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
		db.On("Collection", "sessions").Return(conn)

		s := handlers.Session{DB: databases.NewSessionDatabase(db)}

		rr := httptest.NewRecorder()
		http.HandlerFunc(s.UpdateSessionHandler).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Contains(t, rr.Body.String(), "session duration must be positive", body)
		conn.AssertNotCalled(t, "UpdateOne", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestSession_UpdateSessionHandlerValidDuration(t *testing.T) {
	sessionID := primitive.NewObjectID()
	req, err := http.NewRequest("PUT", "/api/v1/sessions/"+sessionID.Hex(), strings.NewReader(`{"duration": 45}`))
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, "mentee-1")
	req = mux.SetURLVars(req, map[string]string{"session_id": sessionID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Session)
		(*arg).ID = sessionID
		(*arg).Mentor = "mentor-1"
		(*arg).Mentee = "mentee-1"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	var writtenUpdate interface{}
	conn.On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).Return(&mongo.UpdateResult{ModifiedCount: 1}, nil).Run(func(args mock.Arguments) {
		writtenUpdate = args.Get(2)
	})
	db.On("Collection", "sessions").Return(conn)

	s := handlers.Session{DB: databases.NewSessionDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.UpdateSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, bson.M{"$set": bson.M{"duration": 45}}, writtenUpdate)
}

func TestSession_DeleteSessionHandler(t *testing.T) {
	sessionID := primitive.NewObjectID()
	req, err := http.NewRequest("DELETE", "/api/v1/sessions/"+sessionID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, "mentor-1")
	req = mux.SetURLVars(req, map[string]string{"session_id": sessionID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Session)
		(*arg).ID = sessionID
		(*arg).Mentor = "mentor-1"
		(*arg).Mentee = "mentee-1"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	conn.On("DeleteOne", mock.Anything, mock.Anything).Return(nil)
	db.On("Collection", "sessions").Return(conn)

	s := handlers.Session{DB: databases.NewSessionDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(s.DeleteSessionHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "session deleted successfully")
}
