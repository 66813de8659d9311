package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mentorhub/mentorhub-api/api"
	"github.com/mentorhub/mentorhub-api/api/handlers"
	"github.com/mentorhub/mentorhub-api/databases"
	"github.com/mentorhub/mentorhub-api/databases/mocks"
	"github.com/mentorhub/mentorhub-api/models"
	"github.com/mentorhub/mentorhub-api/realtime"
)

func TestUser_UserHandler(t *testing.T) {
	userID := primitive.NewObjectID()
	req, err := http.NewRequest("GET", "/api/v1/users/"+userID.Hex(), nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": userID.Hex()})

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).ID = userID.Hex()
		(*arg).Details.Name = "Ada"
		(*arg).Details.Role = models.RoleMentor
		(*arg).Details.Password = "$2a$10$secret-hash"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var got models.User
	err = json.Unmarshal(rr.Body.Bytes(), &got)
	assert.NoError(t, err)
	assert.Equal(t, "Ada", got.Details.Name)

	// the stored hash never leaves the API
	assert.Empty(t, got.Details.Password)
	assert.NotContains(t, rr.Body.String(), "secret-hash")
}

func TestUser_UserHandlerInvalidID(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/users/not-hex", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = mux.SetURLVars(req, map[string]string{"user_id": "not-hex"})

	u := handlers.User{}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUser_UserCreateHandler(t *testing.T) {
	body := `{"name": "Ada", "email": "ada@example.com", "password": "hunter2"}`
	req, err := http.NewRequest("POST", "/api/v1/users", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	// no user with that email yet
	singleResultHelper.On("Decode", mock.Anything).Return(errors.New("mongo: no documents in result"))
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)

	var inserted interface{}
	conn.On("InsertOne", mock.Anything, mock.Anything).Return(&mocks.InsertOneResultHelper{}).Run(func(args mock.Arguments) {
		inserted = args.Get(1)
	})
	db.On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.NotNil(t, inserted)

	// the password is stored as a bcrypt hash, never in the clear
	raw, err := json.Marshal(inserted)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "hunter2")
	assert.Contains(t, string(raw), "$2a$")
	assert.Contains(t, string(raw), models.RoleMentee)
}

func TestUser_UserCreateHandlerDuplicateEmail(t *testing.T) {
	body := `{"email": "ada@example.com", "password": "hunter2"}`
	req, err := http.NewRequest("POST", "/api/v1/users", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}

	db := &MockDatabaseHelper{}
	conn := &mocks.CollectionHelper{}
	singleResultHelper := &mocks.SingleResultHelper{}

	singleResultHelper.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.User)
		(*arg).Details.Email = "ada@example.com"
	})
	conn.On("FindOne", mock.Anything, mock.Anything).Return(singleResultHelper)
	db.On("Collection", "users").Return(conn)

	u := handlers.User{DB: databases.NewUserDatabase(db)}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "email already exists")
	conn.AssertNotCalled(t, "InsertOne", mock.Anything, mock.Anything)
}

func TestUser_UserCreateHandlerMissingCredentials(t *testing.T) {
	req, err := http.NewRequest("POST", "/api/v1/users", strings.NewReader(`{"name": "Ada"}`))
	if err != nil {
		t.Fatal(err)
	}

	u := handlers.User{}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.UserCreateHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "email and password are required")
}

func TestUser_WSTicketHandler(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/auth/ws-ticket", nil)
	if err != nil {
		t.Fatal(err)
	}
	req = api.WithCallerID(req, "user-1")

	secret := []byte("test-secret")
	u := handlers.User{JWTSecret: secret}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.WSTicketHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	err = json.Unmarshal(rr.Body.Bytes(), &resp)
	assert.NoError(t, err)

	// the minted ticket redeems back to the caller
	userID, err := realtime.VerifyTicket(secret, resp["ticket"])
	assert.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestUser_WSTicketHandlerUnauthenticated(t *testing.T) {
	req, err := http.NewRequest("GET", "/api/v1/auth/ws-ticket", nil)
	if err != nil {
		t.Fatal(err)
	}

	u := handlers.User{JWTSecret: []byte("test-secret")}

	rr := httptest.NewRecorder()
	http.HandlerFunc(u.WSTicketHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
