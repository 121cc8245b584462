// Package handler implements the storefront backend's REST surface: the
// contracts the checkout client consumes.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/google/uuid"

	"github.com/willowgrove/storefront/internal/core/domain"
	"github.com/willowgrove/storefront/internal/metrics"
	"github.com/willowgrove/storefront/internal/port"
)

type Server struct {
	store   port.OrderStore
	intents port.IntentCreator
	log     *zap.Logger
	metrics *metrics.Server
	taxRate decimal.Decimal
}

func NewServer(store port.OrderStore, intents port.IntentCreator, log *zap.Logger, m *metrics.Server, taxRate decimal.Decimal) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if taxRate.IsZero() {
		taxRate = domain.DefaultTaxRate
	}
	return &Server{
		store:   store,
		intents: intents,
		log:     log,
		metrics: m,
		taxRate: taxRate,
	}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/api/cart/add", s.instrument("cart_add", s.addCart)).Methods(http.MethodPost)
	r.HandleFunc("/api/order/stripe/create-payment-intent", s.instrument("create_intent", s.createPaymentIntent)).Methods(http.MethodPost)
	r.HandleFunc("/api/order/stripe/confirm-payment", s.instrument("confirm_payment", s.confirmPayment)).Methods(http.MethodPost)
	r.HandleFunc("/api/order/{orderId}", s.instrument("get_order", s.getOrder)).Methods(http.MethodGet)
	return r
}

type cartAddRequest struct {
	Products []port.CartLine `json:"products"`
}

func (s *Server) addCart(w http.ResponseWriter, r *http.Request) {
	var req cartAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Products) == 0 {
		writeError(w, http.StatusBadRequest, "cart is empty")
		return
	}

	items := make([]domain.LineItem, 0, len(req.Products))
	for _, line := range req.Products {
		if line.Product == "" || line.Quantity < 1 || line.Price.Sign() <= 0 {
			writeError(w, http.StatusBadRequest, "invalid cart line")
			return
		}
		items = append(items, domain.LineItem{
			ProductID: line.Product,
			UnitPrice: line.Price,
			Quantity:  line.Quantity,
			Taxable:   line.Taxable,
			LineTotal: domain.LineTotal(line.Price, line.Quantity),
		})
	}

	cartID, err := s.store.CreateCart(r.Context(), items)
	if err != nil {
		s.log.Error("cart create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create cart")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"cartId": cartID})
}

type createIntentRequest struct {
	CartID   string                `json:"cartId"`
	Amount   decimal.Decimal       `json:"amount"`
	Currency string                `json:"currency"`
	Products []port.CartLine       `json:"products"`
	Billing  domain.ContactDetails `json:"billingDetails"`
	Shipping domain.ContactDetails `json:"shippingDetails"`
}

type createIntentResponse struct {
	Success         bool   `json:"success"`
	ClientSecret    string `json:"clientSecret,omitempty"`
	OrderID         string `json:"orderId,omitempty"`
	PaymentIntentID string `json:"paymentIntentId,omitempty"`
	Error           string `json:"error,omitempty"`
}

func (s *Server) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Currency == "" {
		req.Currency = "usd"
	}

	// Prefer the synced cart; fall back to the line items in the request
	// when no cart resource was created.
	var items []domain.LineItem
	if req.CartID != "" {
		stored, err := s.store.Cart(r.Context(), req.CartID)
		if err != nil {
			s.log.Error("cart lookup failed", zap.String("cart_id", req.CartID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "could not load cart")
			return
		}
		items = stored
	}
	if items == nil {
		for _, line := range req.Products {
			items = append(items, domain.LineItem{
				ProductID: line.Product,
				UnitPrice: line.Price,
				Quantity:  line.Quantity,
				Taxable:   line.Taxable,
				LineTotal: domain.LineTotal(line.Price, line.Quantity),
			})
		}
	}
	if len(items) == 0 {
		writeError(w, http.StatusBadRequest, "no products to charge")
		return
	}

	if req.Amount.Sign() <= 0 {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}

	// Recompute the quote server-side; a mismatch means the client and
	// backend disagree about money and the charge must not proceed.
	quote := domain.NewQuote(domain.CartTotal(items), s.taxRate)
	if !req.Amount.Equal(quote.Total) {
		writeError(w, http.StatusBadRequest,
			"amount mismatch: expected "+quote.Total.StringFixed(2)+", got "+req.Amount.StringFixed(2))
		return
	}

	now := time.Now()
	order := domain.Order{
		ID:        uuid.NewString(),
		CartID:    req.CartID,
		Items:     items,
		Subtotal:  quote.Subtotal,
		Tax:       quote.Tax,
		Total:     quote.Total,
		Currency:  req.Currency,
		Status:    domain.OrderStatusPending,
		Billing:   req.Billing,
		Shipping:  req.Shipping,
		CreatedAt: now,
		UpdatedAt: now,
	}

	intentID, clientSecret, err := s.intents.CreateIntent(r.Context(), quote.Total, req.Currency, order.ID)
	if err != nil {
		s.log.Error("payment intent creation failed", zap.String("order_id", order.ID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "payment processor unavailable")
		return
	}

	if err := s.store.CreateOrder(r.Context(), order); err != nil {
		s.log.Error("order create failed", zap.String("order_id", order.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create order")
		return
	}

	writeJSON(w, http.StatusOK, createIntentResponse{
		Success:         true,
		ClientSecret:    clientSecret,
		OrderID:         order.ID,
		PaymentIntentID: intentID,
	})
}

type confirmPaymentRequest struct {
	OrderID         string                `json:"orderId"`
	PaymentIntentID string                `json:"paymentIntentId"`
	Billing         domain.ContactDetails `json:"billingDetails"`
	Shipping        domain.ContactDetails `json:"shippingDetails"`
}

func (s *Server) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" || req.PaymentIntentID == "" {
		writeError(w, http.StatusBadRequest, "orderId and paymentIntentId are required")
		return
	}

	if err := s.store.MarkOrderPaid(r.Context(), req.OrderID, req.PaymentIntentID); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		s.log.Error("order confirm failed", zap.String("order_id", req.OrderID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not confirm order")
		return
	}

	order, err := s.store.Order(r.Context(), req.OrderID)
	if err != nil || order == nil {
		s.log.Error("order reload failed", zap.String("order_id", req.OrderID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load order")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["orderId"]

	order, err := s.store.Order(r.Context(), orderID)
	if err != nil {
		s.log.Error("order lookup failed", zap.String("order_id", orderID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load order")
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "order": order})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// instrument wraps a handler with request counting and latency tracking.
func (s *Server) instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	if s.metrics == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.Requests.WithLabelValues(name, strconv.Itoa(rec.status)).Inc()
		s.metrics.LatencyMS.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
