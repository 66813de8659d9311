package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/mentorhub/mentorhub-api/api"
	"github.com/mentorhub/mentorhub-api/api/scheduler"
	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/databases"
	"github.com/mentorhub/mentorhub-api/realtime"
)

// App stores the router, db connection and realtime hub, so it can be reused
type App struct {
	Router    *mux.Router
	Hub       *realtime.Hub
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	jwtSecret := []byte(a.Config.JWTSecret)

	u := User{DB: databases.NewUserDatabase(a.dbHelper), JWTSecret: jwtSecret}
	msg := Message{DB: databases.NewMessageDatabase(a.dbHelper), UDB: databases.NewUserDatabase(a.dbHelper)}
	s := Session{DB: databases.NewSessionDatabase(a.dbHelper), UDB: databases.NewUserDatabase(a.dbHelper)}
	metrics := Metrics{JWTSecret: jwtSecret}
	cloudinaryHandler := CloudinaryHandler{}

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	// realtime channel; authenticates with a ticket, not the bearer middleware
	r.Handle("/ws", realtime.ServeWS(a.Hub, jwtSecret)).Methods("GET")

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	// the websocket route stays outside this subrouter; a request deadline
	// would tear down healthy long-lived connections
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/ws-ticket", api.Middleware(http.HandlerFunc(u.WSTicketHandler))).Methods("GET")

	// fixed message routes must be registered before the {partner_id} route
	apiCreate.Handle("/messages/conversations", api.Middleware(http.HandlerFunc(msg.ConversationsHandler))).Methods("GET")
	apiCreate.Handle("/messages/unread", api.Middleware(http.HandlerFunc(msg.UnreadCountHandler))).Methods("GET")
	apiCreate.Handle("/messages/{partner_id}", api.Middleware(http.HandlerFunc(msg.MessagesWithPartnerHandler))).Methods("GET")
	apiCreate.Handle("/messages/{message_id}", api.Middleware(http.HandlerFunc(msg.DeleteMessageHandler))).Methods("DELETE")
	apiCreate.Handle("/messages", api.Middleware(http.HandlerFunc(msg.CreateMessageHandler))).Methods("POST")

	apiCreate.Handle("/sessions", api.Middleware(http.HandlerFunc(s.CreateSessionHandler))).Methods("POST")
	apiCreate.Handle("/sessions", api.Middleware(http.HandlerFunc(s.SessionsHandler))).Methods("GET")
	apiCreate.Handle("/sessions/{session_id}/status", api.Middleware(http.HandlerFunc(s.UpdateSessionStatusHandler))).Methods("PUT")
	apiCreate.Handle("/sessions/{session_id}", api.Middleware(http.HandlerFunc(s.UpdateSessionHandler))).Methods("PUT")
	apiCreate.Handle("/sessions/{session_id}", api.Middleware(http.HandlerFunc(s.DeleteSessionHandler))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/check-user", http.HandlerFunc(u.UserCheckEmailHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")

	apiCreate.Handle("/attachments/signature", api.Middleware(http.HandlerFunc(cloudinaryHandler.GenerateSignature))).Methods("POST")

	// guarded internally by an admin JWT rather than the user middleware
	apiCreate.Handle("/metrics", http.HandlerFunc(metrics.MetricsHandler)).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("mentorhub-api has connected to the database")

	a.Hub = realtime.NewHub()
	api.InitMetrics()

	// background counter reconciliation
	a.Scheduler = scheduler.NewScheduler(
		databases.NewUserDatabase(a.dbHelper),
		databases.NewSessionDatabase(a.dbHelper),
		databases.NewSchedulerLockDatabase(a.dbHelper),
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"alive": true}`)
}
