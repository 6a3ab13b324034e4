package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/custom-order-service/internal/api/middleware"
	"github.com/example/custom-order-service/internal/command"
	"github.com/example/custom-order-service/internal/domain/order"
	"github.com/example/custom-order-service/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// Order Handlers

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateOrder
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Authenticated buyers always order as themselves
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		cmd.BuyerID = claims.UserID
		cmd.BuyerEmail = claims.Email
	}

	o, err := h.cmdHandler.CreateOrder(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	if isAdmin(r) {
		respondJSON(w, http.StatusOK, h.queryHandler.ListOrders())
		return
	}
	respondJSON(w, http.StatusOK, h.queryHandler.ListOrdersByBuyer(getUserID(r)))
}

// GetOrder is the polling endpoint. Clients pass their last seen version
// as ?version= and receive 304 when nothing changed since.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")

	o, ok := h.queryHandler.GetOrder(id)
	if !ok {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}

	if !isAdmin(r) && o.BuyerID != getUserID(r) {
		respondJSONError(w, "Order not found", http.StatusNotFound)
		return
	}

	if v := r.URL.Query().Get("version"); v != "" {
		if since, err := strconv.Atoi(v); err == nil && o.Version <= since {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) SendQuote(w http.ResponseWriter, r *http.Request) {
	id, _ := orderAction(r.URL.Path)

	var cmd command.SendQuote
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.OrderID = id

	quote, err := h.cmdHandler.SendQuote(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

func (h *Handlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, _ := orderAction(r.URL.Path)

	var cmd command.PostMessage
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.OrderID = id
	cmd.Sender = senderRole(r)

	o, err := h.cmdHandler.PostMessage(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) RequestQuantityChange(w http.ResponseWriter, r *http.Request) {
	id, _ := orderAction(r.URL.Path)

	var cmd command.RequestQuantityChange
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.OrderID = id
	cmd.Sender = senderRole(r)

	o, err := h.cmdHandler.RequestQuantityChange(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) ConfirmQuantity(w http.ResponseWriter, r *http.Request) {
	id, _ := orderAction(r.URL.Path)

	var cmd command.ConfirmQuantityAndRequote
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.OrderID = id

	quote, err := h.cmdHandler.ConfirmQuantityAndRequote(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, quote)
}

func (h *Handlers) AgreeDeliveryDate(w http.ResponseWriter, r *http.Request) {
	id, _ := orderAction(r.URL.Path)

	var cmd command.AgreeToDeliveryDate
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.OrderID = id

	o, err := h.cmdHandler.AgreeToDeliveryDate(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	id, _ := orderAction(r.URL.Path)

	var cmd command.MarkPaymentVerified
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.OrderID = id

	o, err := h.cmdHandler.MarkPaymentVerified(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) Transition(w http.ResponseWriter, r *http.Request) {
	id, _ := orderAction(r.URL.Path)

	var cmd command.Transition
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.OrderID = id

	o, err := h.cmdHandler.Transition(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) MarkMessagesRead(w http.ResponseWriter, r *http.Request) {
	id, _ := orderAction(r.URL.Path)

	var cmd command.MarkMessagesRead
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	cmd.OrderID = id
	cmd.Reader = senderRole(r)

	o, err := h.cmdHandler.MarkMessagesRead(r.Context(), cmd)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")

	expectedVersion := 0
	if v := r.URL.Query().Get("expected_version"); v != "" {
		expectedVersion, _ = strconv.Atoi(v)
	}

	cmd := command.DeleteOrder{OrderID: id, ExpectedVersion: expectedVersion}
	if err := h.cmdHandler.DeleteOrder(r.Context(), cmd); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Order deleted"})
}

// Health check for load balancers and compose healthchecks
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Helpers

// respondDomainError maps domain sentinel errors to HTTP status codes
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, order.ErrStaleWrite):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, order.ErrInvalidTransition):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, order.ErrInvalidQuote),
		errors.Is(err, order.ErrInvalidRequest),
		errors.Is(err, order.ErrNoDateProposed):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

// orderAction splits /orders/{id}/{action} into its id and action parts
func orderAction(path string) (id, action string) {
	rest := strings.TrimPrefix(path, "/orders/")
	parts := strings.SplitN(rest, "/", 2)
	id = parts[0]
	if len(parts) > 1 {
		action = parts[1]
	}
	return id, action
}

// getUserID extracts user ID from JWT context or falls back to X-User-ID header
func getUserID(r *http.Request) string {
	if userID := middleware.GetUserID(r.Context()); userID != "" {
		return userID
	}

	if userID := r.Header.Get("X-User-ID"); userID != "" {
		return userID
	}

	return "default-user"
}

// isAdmin checks if the current user has admin role
func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return false
	}
	return claims.Role == "admin"
}

// senderRole maps the authenticated role onto the message sender side
func senderRole(r *http.Request) string {
	if isAdmin(r) {
		return string(order.SenderAdmin)
	}
	return string(order.SenderCustomer)
}
