package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"pawtrack/internal/handler"
	"pawtrack/internal/middleware"
	"pawtrack/internal/reminder"
	"pawtrack/internal/series"
	"pawtrack/internal/store"
	ws "pawtrack/internal/websocket"
)

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	authH         *handler.AuthHandler
	petH          *handler.PetHandler
	eventH        *handler.EventHandler
	notificationH *handler.NotificationHandler
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	manager       *series.Manager
	dispatcher    *reminder.Dispatcher
	logger        *slog.Logger
}

func New(db *sql.DB, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	petStore := store.NewPetStore(db)
	eventStore := store.NewEventStore(db)
	reminderStore := store.NewReminderStore(db)
	notificationStore := store.NewNotificationStore(db)

	manager := series.NewManager(db, eventStore, reminderStore, logger.With("component", "series"))
	dispatcher := reminder.NewDispatcher(reminderStore, petStore, notificationStore, hub, logger.With("component", "reminder"))

	return &Server{
		db:            db,
		hub:           hub,
		authH:         handler.NewAuthHandler(userStore, sessionStore, logger.With("component", "auth")),
		petH:          handler.NewPetHandler(petStore, userStore, manager, logger.With("component", "pet")),
		eventH:        handler.NewEventHandler(eventStore, reminderStore, petStore, manager, hub, logger.With("component", "event")),
		notificationH: handler.NewNotificationHandler(notificationStore, logger.With("component", "notification")),
		sessionStore:  sessionStore,
		userStore:     userStore,
		manager:       manager,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// Manager returns the series manager for scheduled tasks.
func (s *Server) Manager() *series.Manager {
	return s.manager
}

// Dispatcher returns the reminder dispatcher for scheduled tasks.
func (s *Server) Dispatcher() *reminder.Dispatcher {
	return s.dispatcher
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.authH.Register)
	outerMux.HandleFunc("POST /api/login", s.authH.Login)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Pet API routes
	mux.HandleFunc("GET /api/pets", s.petH.List)
	mux.HandleFunc("POST /api/pets", s.petH.Create)
	mux.HandleFunc("GET /api/pets/{id}", s.petH.Get)
	mux.HandleFunc("PUT /api/pets/{id}", s.petH.Update)
	mux.HandleFunc("DELETE /api/pets/{id}", s.petH.Delete)
	mux.HandleFunc("POST /api/pets/{id}/owners", s.petH.AddOwner)

	// Event API routes
	mux.HandleFunc("GET /api/pets/{id}/events", s.eventH.ListByPet)
	mux.HandleFunc("POST /api/pets/{id}/events", s.eventH.Create)
	mux.HandleFunc("GET /api/pets/{id}/calendar.ics", s.eventH.Calendar)
	mux.HandleFunc("GET /api/events/{id}", s.eventH.Get)
	mux.HandleFunc("PUT /api/events/{id}", s.eventH.Update)
	mux.HandleFunc("DELETE /api/events/{id}", s.eventH.Delete)
	mux.HandleFunc("POST /api/events/{id}/done", s.eventH.Done)

	// Notification API routes
	mux.HandleFunc("GET /api/notifications", s.notificationH.List)
	mux.HandleFunc("POST /api/notifications/{id}/read", s.notificationH.MarkRead)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))
}
