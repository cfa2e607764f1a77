package apiapp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kindledapp/kindled/internal/metrics"
	"github.com/kindledapp/kindled/internal/realtime"
	authsvc "github.com/kindledapp/kindled/internal/services/auth"
	chatsvc "github.com/kindledapp/kindled/internal/services/chat"
	discoverysvc "github.com/kindledapp/kindled/internal/services/discovery"
	matchsvc "github.com/kindledapp/kindled/internal/services/matches"
	profilesvc "github.com/kindledapp/kindled/internal/services/profiles"
	swipesvc "github.com/kindledapp/kindled/internal/services/swipes"
	"github.com/kindledapp/kindled/internal/transport/http/handlers"
)

type Dependencies struct {
	AuthService      *authsvc.Service
	ProfileService   *profilesvc.Service
	DiscoveryService *discoverysvc.Service
	SwipeService     *swipesvc.Service
	MatchService     *matchsvc.Service
	ChatService      *chatsvc.Service
	RealtimeHandler  *realtime.Handler
	MetricsGatherer  prometheus.Gatherer
	Logger           *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	profileHandler := handlers.NewProfileHandler(deps.ProfileService)
	discoveryHandler := handlers.NewDiscoveryHandler(deps.DiscoveryService)
	swipeHandler := handlers.NewSwipeHandler(deps.SwipeService)
	matchesHandler := handlers.NewMatchesHandler(deps.MatchService)
	chatHandler := handlers.NewChatHandler(deps.ChatService)

	authMW := AuthMiddleware(deps.AuthService, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/refresh", authHandler.Refresh)
		r.With(authMW).Post("/logout", authHandler.Logout)
	})

	r.Route("/profile", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", profileHandler.Get)
		r.Put("/", profileHandler.Update)
	})

	r.Route("/discovery", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", discoveryHandler.Discover)
		r.Get("/stats", discoveryHandler.Stats)
		r.Post("/swipe", swipeHandler.Swipe)
	})

	r.Route("/matches", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/", matchesHandler.List)
		r.Get("/{id}", matchesHandler.Get)
		r.Delete("/{id}", matchesHandler.Unmatch)
	})

	r.Route("/chat", func(r chi.Router) {
		r.Use(authMW)
		r.Get("/unread/count", chatHandler.UnreadTotal)
		r.Get("/{matchID}", chatHandler.History)
		r.Post("/{matchID}", chatHandler.Send)
	})

	// The websocket handshake carries its own token, the HTTP auth
	// middleware never sees it.
	if deps.RealtimeHandler != nil {
		r.Get("/ws", deps.RealtimeHandler.ServeHTTP)
	}
}
