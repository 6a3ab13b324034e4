package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/custom-order-service/internal/api/middleware"
	"github.com/example/custom-order-service/internal/auth"
)

type RouterConfig struct {
	Handlers     *Handlers
	AuthHandlers *AuthHandlers
	JWTService   *auth.JWTService
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	handlers := cfg.Handlers
	authRequired := middleware.AuthMiddleware(cfg.JWTService)
	authOptional := middleware.OptionalAuthMiddleware(cfg.JWTService)
	adminOnly := middleware.RequireRole("admin")

	mux.HandleFunc("/health", handlers.Health)

	// Auth
	mux.HandleFunc("/auth/register", methodHandler(http.MethodPost, cfg.AuthHandlers.Register))
	mux.HandleFunc("/auth/login", methodHandler(http.MethodPost, cfg.AuthHandlers.Login))
	mux.HandleFunc("/auth/refresh", methodHandler(http.MethodPost, cfg.AuthHandlers.Refresh))
	mux.Handle("/auth/logout", authRequired(methodHandler(http.MethodPost, cfg.AuthHandlers.Logout)))
	mux.Handle("/auth/me", authRequired(methodHandler(http.MethodGet, cfg.AuthHandlers.Me)))
	mux.Handle("/auth/password", authRequired(methodHandler(http.MethodPost, cfg.AuthHandlers.ChangePassword)))

	// Order collection
	mux.Handle("/orders", authOptional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetOrders(w, r)
		case http.MethodPost:
			handlers.CreateOrder(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	// Single order and its actions
	mux.Handle("/orders/", authOptional(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		post := r.Method == http.MethodPost

		switch {
		case post && strings.HasSuffix(path, "/quote"):
			requireAdmin(adminOnly, handlers.SendQuote)(w, r)
		case post && strings.HasSuffix(path, "/messages"):
			handlers.PostMessage(w, r)
		case post && strings.HasSuffix(path, "/quantity-request"):
			handlers.RequestQuantityChange(w, r)
		case post && strings.HasSuffix(path, "/quantity-confirm"):
			requireAdmin(adminOnly, handlers.ConfirmQuantity)(w, r)
		case post && strings.HasSuffix(path, "/agree-date"):
			handlers.AgreeDeliveryDate(w, r)
		case post && strings.HasSuffix(path, "/payment"):
			requireAdmin(adminOnly, handlers.VerifyPayment)(w, r)
		case post && strings.HasSuffix(path, "/transition"):
			requireAdmin(adminOnly, handlers.Transition)(w, r)
		case post && strings.HasSuffix(path, "/read"):
			handlers.MarkMessagesRead(w, r)
		case r.Method == http.MethodGet:
			handlers.GetOrder(w, r)
		case r.Method == http.MethodDelete:
			requireAdmin(adminOnly, handlers.DeleteOrder)(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})))

	return withLogging(mux)
}

func methodHandler(method string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		fn(w, r)
	}
}

func requireAdmin(adminOnly func(http.Handler) http.Handler, fn http.HandlerFunc) http.HandlerFunc {
	return adminOnly(fn).ServeHTTP
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
