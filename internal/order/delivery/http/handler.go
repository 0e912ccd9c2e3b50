package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/tair/wholesale-backoffice/internal/order/domain"
	"github.com/tair/wholesale-backoffice/internal/order/usecase/command"
	"github.com/tair/wholesale-backoffice/internal/order/usecase/query"
	productdomain "github.com/tair/wholesale-backoffice/internal/product/domain"
	"github.com/tair/wholesale-backoffice/pkg/logger"
)

const dateLayout = "2006-01-02"

// OrderHandler handles HTTP requests for order submission and the
// administrative gates around it
type OrderHandler struct {
	submitHandler    *command.SubmitOrderHandler
	lockHandler      *command.SetOrderLockHandler
	updateQtyHandler *command.UpdateItemQuantityHandler

	getHandler            *query.GetOrderHandler
	existsHandler         *query.OrderExistsHandler
	lockStatusHandler     *query.LockStatusHandler
	currentRoundHandler   *query.CurrentShipmentRoundHandler
	availableRoundHandler *query.AvailableShipmentRoundHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(
	uow domain.UnitOfWork,
	orders domain.OrderStorage,
	locks domain.OrderLockStore,
	notifier command.Notifier,
	window query.OrderingWindow,
	clock func() time.Time,
) *OrderHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_requests_total",
			Help: "Total number of requests to order endpoints",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "order_request_duration_seconds",
			Help:    "Latency of order endpoints",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter, requestLatency)

	return &OrderHandler{
		submitHandler:         command.NewSubmitOrderHandler(uow, notifier),
		lockHandler:           command.NewSetOrderLockHandler(locks),
		updateQtyHandler:      command.NewUpdateItemQuantityHandler(uow, notifier),
		getHandler:            query.NewGetOrderHandler(orders),
		existsHandler:         query.NewOrderExistsHandler(orders),
		lockStatusHandler:     query.NewLockStatusHandler(locks),
		currentRoundHandler:   query.NewCurrentShipmentRoundHandler(orders),
		availableRoundHandler: query.NewAvailableShipmentRoundHandler(orders, window, clock),
		requestCounter:        requestCounter,
		requestLatency:        requestLatency,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type submitOrderRequest struct {
	EmployeeID     uint              `json:"employee_id"`
	ClientID       *uint             `json:"client_id,omitempty"`
	OrderDate      string            `json:"order_date"`
	ShipmentRound  int               `json:"shipment_round"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	TotalIncentive decimal.Decimal   `json:"total_incentive"`
	TotalBoxes     int               `json:"total_boxes"`
	OrderItems     []domain.LineItem `json:"order_items"`
}

// SubmitOrder handles POST /api/orders
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	defer h.observe("POST", "/api/orders", time.Now())

	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, "POST", "/api/orders", Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	orderDate, err := time.Parse(dateLayout, req.OrderDate)
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, "POST", "/api/orders", Response{
			Success: false,
			Error:   "order_date must be YYYY-MM-DD",
		})
		return
	}

	order, err := h.submitHandler.Handle(r.Context(), command.SubmitOrderCommand{
		EmployeeID:    req.EmployeeID,
		ClientID:      req.ClientID,
		OrderDate:     orderDate,
		ShipmentRound: req.ShipmentRound,
		Totals: domain.OrderTotals{
			TotalAmount:    req.TotalAmount,
			TotalIncentive: req.TotalIncentive,
			TotalBoxes:     req.TotalBoxes,
		},
		Items: req.OrderItems,
	})
	if err != nil {
		status, msg := submissionStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error(r.Context()).Err(err).Msg("Order submission failed")
		}
		h.respondJSON(w, status, "POST", "/api/orders", Response{Success: false, Error: msg})
		return
	}

	h.respondJSON(w, http.StatusOK, "POST", "/api/orders", Response{
		Success: true,
		Message: "Order submitted successfully",
		Data:    order,
	})
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	defer h.observe("GET", "/api/orders/{id}", time.Now())

	id, err := parseUint(mux.Vars(r)["id"])
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, "GET", "/api/orders/{id}", Response{
			Success: false,
			Error:   "Invalid order ID",
		})
		return
	}

	order, err := h.getHandler.Handle(r.Context(), query.GetOrderQuery{OrderID: id})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrOrderNotFound) {
			status = http.StatusNotFound
		}
		h.respondJSON(w, status, "GET", "/api/orders/{id}", Response{
			Success: false,
			Error:   "Order not found",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, "GET", "/api/orders/{id}", Response{Success: true, Data: order})
}

// OrderExists handles GET /api/orders/exists/{order_date}
func (h *OrderHandler) OrderExists(w http.ResponseWriter, r *http.Request) {
	defer h.observe("GET", "/api/orders/exists/{order_date}", time.Now())

	orderDate, ok := h.parseDate(w, r, "GET", "/api/orders/exists/{order_date}")
	if !ok {
		return
	}

	exists, err := h.existsHandler.Handle(r.Context(), query.OrderExistsQuery{OrderDate: orderDate})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Order existence check failed")
		h.respondJSON(w, http.StatusInternalServerError, "GET", "/api/orders/exists/{order_date}", Response{
			Success: false,
			Error:   "Failed to check orders",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, "GET", "/api/orders/exists/{order_date}", Response{
		Success: true,
		Data:    map[string]bool{"exists": exists},
	})
}

// LockOrders handles POST /api/orders/lock/{order_date}
func (h *OrderHandler) LockOrders(w http.ResponseWriter, r *http.Request) {
	h.setLock(w, r, "/api/orders/lock/{order_date}", true)
}

// UnlockOrders handles POST /api/orders/unlock/{order_date}
func (h *OrderHandler) UnlockOrders(w http.ResponseWriter, r *http.Request) {
	h.setLock(w, r, "/api/orders/unlock/{order_date}", false)
}

func (h *OrderHandler) setLock(w http.ResponseWriter, r *http.Request, endpoint string, locked bool) {
	defer h.observe("POST", endpoint, time.Now())

	lockDate, ok := h.parseDate(w, r, "POST", endpoint)
	if !ok {
		return
	}

	lock, err := h.lockHandler.Handle(r.Context(), command.SetOrderLockCommand{
		LockDate: lockDate,
		Locked:   &locked,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Order lock update failed")
		h.respondJSON(w, http.StatusInternalServerError, "POST", endpoint, Response{
			Success: false,
			Error:   "Failed to update order lock",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, "POST", endpoint, Response{Success: true, Data: lock})
}

// FinalizeOrders handles POST /api/orders/finalize/{order_date}
func (h *OrderHandler) FinalizeOrders(w http.ResponseWriter, r *http.Request) {
	defer h.observe("POST", "/api/orders/finalize/{order_date}", time.Now())

	lockDate, ok := h.parseDate(w, r, "POST", "/api/orders/finalize/{order_date}")
	if !ok {
		return
	}

	finalized := true
	lock, err := h.lockHandler.Handle(r.Context(), command.SetOrderLockCommand{
		LockDate:  lockDate,
		Finalized: &finalized,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Order finalize failed")
		h.respondJSON(w, http.StatusInternalServerError, "POST", "/api/orders/finalize/{order_date}", Response{
			Success: false,
			Error:   "Failed to finalize orders",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, "POST", "/api/orders/finalize/{order_date}", Response{Success: true, Data: lock})
}

// LockStatus handles GET /api/orders/lock_status/{order_date}
func (h *OrderHandler) LockStatus(w http.ResponseWriter, r *http.Request) {
	defer h.observe("GET", "/api/orders/lock_status/{order_date}", time.Now())

	lockDate, ok := h.parseDate(w, r, "GET", "/api/orders/lock_status/{order_date}")
	if !ok {
		return
	}

	lock, err := h.lockStatusHandler.Handle(r.Context(), query.LockStatusQuery{LockDate: lockDate})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Lock status read failed")
		h.respondJSON(w, http.StatusInternalServerError, "GET", "/api/orders/lock_status/{order_date}", Response{
			Success: false,
			Error:   "Failed to read lock status",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, "GET", "/api/orders/lock_status/{order_date}", Response{
		Success: true,
		Data: map[string]bool{
			"is_locked":    lock.IsLocked,
			"is_finalized": lock.IsFinalized,
		},
	})
}

// CurrentShipmentRound handles GET /api/orders/current_shipment_round/{order_date}
func (h *OrderHandler) CurrentShipmentRound(w http.ResponseWriter, r *http.Request) {
	defer h.observe("GET", "/api/orders/current_shipment_round/{order_date}", time.Now())

	orderDate, ok := h.parseDate(w, r, "GET", "/api/orders/current_shipment_round/{order_date}")
	if !ok {
		return
	}

	round, err := h.currentRoundHandler.Handle(r.Context(), query.CurrentShipmentRoundQuery{OrderDate: orderDate})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Current round read failed")
		h.respondJSON(w, http.StatusInternalServerError, "GET", "/api/orders/current_shipment_round/{order_date}", Response{
			Success: false,
			Error:   "Failed to read shipment round",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, "GET", "/api/orders/current_shipment_round/{order_date}", Response{
		Success: true,
		Data:    map[string]int{"shipment_round": round},
	})
}

// AvailableShipmentRound handles GET /api/orders/available_shipment_round/{order_date}?employee_id=
func (h *OrderHandler) AvailableShipmentRound(w http.ResponseWriter, r *http.Request) {
	defer h.observe("GET", "/api/orders/available_shipment_round/{order_date}", time.Now())

	orderDate, ok := h.parseDate(w, r, "GET", "/api/orders/available_shipment_round/{order_date}")
	if !ok {
		return
	}

	employeeID, err := parseUint(r.URL.Query().Get("employee_id"))
	if err != nil || employeeID == 0 {
		h.respondJSON(w, http.StatusBadRequest, "GET", "/api/orders/available_shipment_round/{order_date}", Response{
			Success: false,
			Error:   "employee_id query parameter is required",
		})
		return
	}

	round, err := h.availableRoundHandler.Handle(r.Context(), query.AvailableShipmentRoundQuery{
		OrderDate:  orderDate,
		EmployeeID: employeeID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrOutsideOrderingWindow) {
			h.respondJSON(w, http.StatusForbidden, "GET", "/api/orders/available_shipment_round/{order_date}", Response{
				Success: false,
				Error:   err.Error(),
			})
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Available round read failed")
		h.respondJSON(w, http.StatusInternalServerError, "GET", "/api/orders/available_shipment_round/{order_date}", Response{
			Success: false,
			Error:   "Failed to read shipment round",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, "GET", "/api/orders/available_shipment_round/{order_date}", Response{
		Success: true,
		Data:    map[string]int{"shipment_round": round},
	})
}

// UpdateItemQuantity handles PUT /api/orders/update_quantity/{order_id}
func (h *OrderHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	defer h.observe("PUT", "/api/orders/update_quantity/{order_id}", time.Now())

	orderID, err := parseUint(mux.Vars(r)["order_id"])
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, "PUT", "/api/orders/update_quantity/{order_id}", Response{
			Success: false,
			Error:   "Invalid order ID",
		})
		return
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == 0 {
		h.respondJSON(w, http.StatusBadRequest, "PUT", "/api/orders/update_quantity/{order_id}", Response{
			Success: false,
			Error:   "product_id and quantity are required",
		})
		return
	}

	isAdmin := false
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		isAdmin = claims.Role == AdminRole
	}

	order, err := h.updateQtyHandler.Handle(r.Context(), command.UpdateItemQuantityCommand{
		OrderID:   orderID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		IsAdmin:   isAdmin,
	})
	if err != nil {
		status, msg := submissionStatus(err)
		if status == http.StatusInternalServerError {
			logger.Error(r.Context()).Err(err).Msg("Quantity correction failed")
		}
		h.respondJSON(w, status, "PUT", "/api/orders/update_quantity/{order_id}", Response{Success: false, Error: msg})
		return
	}

	h.respondJSON(w, http.StatusOK, "PUT", "/api/orders/update_quantity/{order_id}", Response{
		Success: true,
		Message: "Quantity updated successfully",
		Data:    order,
	})
}

// RegisterRoutes registers all order routes. Every route requires a valid
// token; lock administration additionally requires the admin role.
func (h *OrderHandler) RegisterRoutes(router *mux.Router) {
	sub := router.PathPrefix("/api/orders").Subrouter()
	sub.Use(AuthMiddleware)

	sub.HandleFunc("", h.SubmitOrder).Methods("POST")
	sub.HandleFunc("/exists/{order_date}", h.OrderExists).Methods("GET")
	sub.HandleFunc("/lock/{order_date}", RequireAdmin(h.LockOrders)).Methods("POST")
	sub.HandleFunc("/unlock/{order_date}", RequireAdmin(h.UnlockOrders)).Methods("POST")
	sub.HandleFunc("/finalize/{order_date}", RequireAdmin(h.FinalizeOrders)).Methods("POST")
	sub.HandleFunc("/lock_status/{order_date}", h.LockStatus).Methods("GET")
	sub.HandleFunc("/current_shipment_round/{order_date}", h.CurrentShipmentRound).Methods("GET")
	sub.HandleFunc("/available_shipment_round/{order_date}", h.AvailableShipmentRound).Methods("GET")
	sub.HandleFunc("/update_quantity/{order_id}", h.UpdateItemQuantity).Methods("PUT")
	sub.HandleFunc("/{id:[0-9]+}", h.GetOrder).Methods("GET")
}

// submissionStatus maps engine errors to HTTP status codes. Business-rule
// gates are 403, contention losers are 409, missing rows are 404.
func submissionStatus(err error) (int, string) {
	var insufficient *productdomain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrOrderLocked),
		errors.Is(err, domain.ErrOrderAlreadyShipped),
		errors.Is(err, domain.ErrInvalidShipmentRound),
		errors.Is(err, domain.ErrOutsideOrderingWindow):
		return http.StatusForbidden, err.Error()
	case errors.As(err, &insufficient),
		errors.Is(err, domain.ErrDuplicateSubmission),
		errors.Is(err, productdomain.ErrLockTimeout):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrOrderItemNotFound),
		errors.Is(err, productdomain.ErrProductNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrInvalidSubmission),
		errors.Is(err, domain.ErrInvalidLineItem):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Order processing failed"
	}
}

func (h *OrderHandler) parseDate(w http.ResponseWriter, r *http.Request, method, endpoint string) (time.Time, bool) {
	raw := mux.Vars(r)["order_date"]
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, method, endpoint, Response{
			Success: false,
			Error:   "Date must be YYYY-MM-DD",
		})
		return time.Time{}, false
	}
	return date, true
}

func (h *OrderHandler) observe(method, endpoint string, start time.Time) {
	h.requestLatency.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}

func (h *OrderHandler) respondJSON(w http.ResponseWriter, status int, method, endpoint string, payload Response) {
	h.requestCounter.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func parseUint(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
