package handlers

import (
	"context"
	"net/http"
	"time"

	"cube-panel/config"
	"cube-panel/middleware"
	"cube-panel/store"

	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReminderCheckInterval is how often due reminders are fired.
const ReminderCheckInterval = 30 * time.Second

// Server wires the simulated device's handlers into one http.Handler.
type Server struct {
	cfg   config.Config
	store *store.Store
	log   *zap.Logger

	Hub         *Hub
	Auth        *middleware.Auth
	Device      *DeviceHandler
	Reminders   *ReminderHandler
	Messages    *MessageHandler
	Personality *PersonalityHandler
	CubeAuth    *CubeAuthHandler
	Endpoints   *Registry
}

func NewServer(cfg config.Config, s *store.Store, log *zap.Logger) *Server {
	hub := NewHub(log.Named("ws"))
	auth := middleware.NewAuth([]byte(cfg.JWTSecret), s)
	device := NewDeviceHandler(s, hub, log.Named("device"), cfg.Host, cfg.IP)

	srv := &Server{
		cfg:         cfg,
		store:       s,
		log:         log,
		Hub:         hub,
		Auth:        auth,
		Device:      device,
		Reminders:   NewReminderHandler(s, hub, log.Named("reminders"), device),
		Messages:    NewMessageHandler(s, hub, log.Named("messages")),
		Personality: NewPersonalityHandler(s, log.Named("personality")),
		CubeAuth:    NewCubeAuthHandler(s, auth, log.Named("cubeauth"), cfg.InlineCodes),
		Endpoints:   NewRegistry(auth),
	}
	srv.registerEndpoints()
	return srv
}

// Start launches the background loops. They all stop when ctx is done.
func (s *Server) Start(ctx context.Context) {
	go s.Hub.Run(ctx)
	s.Device.StartLogStream(ctx)
	s.Reminders.StartReminderChecker(ctx, ReminderCheckInterval)
	go func() {
		<-ctx.Done()
		s.Messages.Stop()
	}()
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Control panel API
	mux.HandleFunc("GET /api/status", s.Device.Status)
	mux.HandleFunc("GET /api/logs", s.Device.Logs)
	mux.HandleFunc("POST /api/restart", s.Device.Restart)
	mux.HandleFunc("POST /api/mode", s.Device.SetMode)
	mux.HandleFunc("POST /trigger", s.Device.Trigger)

	mux.HandleFunc("GET /api/scanNetworks", s.Device.ScanNetworks)
	mux.HandleFunc("POST /api/network", s.Device.SaveNetwork)

	mux.HandleFunc("GET /api/reminders", s.Reminders.List)
	mux.HandleFunc("POST /api/reminder", s.Reminders.Apply)

	mux.HandleFunc("POST /api/cube/send", s.Messages.Send)
	mux.HandleFunc("GET /api/cube/messages", s.Messages.List)

	mux.HandleFunc("GET /api/personality", s.Personality.Get)
	mux.HandleFunc("POST /api/personality", s.Personality.Set)

	mux.HandleFunc("GET /api/ws", s.Hub.HandleWebSocket)

	// Manifest endpoints
	mux.HandleFunc("GET /getEndpoints", s.Endpoints.Manifest)
	mux.HandleFunc("/{endpoint}", s.Endpoints.Dispatch)

	mux.HandleFunc("/", Unknown)

	var handler http.Handler = mux
	handler = middleware.Recover(s.log)(handler)
	handler = middleware.Logging(s.log.Named("http"))(handler)
	handler = cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigin,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Set-Cookie"},
		AllowCredentials: true,
		MaxAge:           300,
	})(handler)
	return handler
}
