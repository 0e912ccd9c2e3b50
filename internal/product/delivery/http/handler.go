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

	"github.com/tair/wholesale-backoffice/internal/product/domain"
	"github.com/tair/wholesale-backoffice/internal/product/usecase/command"
	"github.com/tair/wholesale-backoffice/internal/product/usecase/query"
	"github.com/tair/wholesale-backoffice/pkg/cache"
	"github.com/tair/wholesale-backoffice/pkg/logger"
)

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	createHandler *command.CreateProductHandler
	updateHandler *command.UpdateProductHandler

	getHandler  *query.GetProductHandler
	listHandler *query.ListProductsHandler

	repo       domain.ProductRepository
	stockCache *cache.StockCache

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewProductHandler creates a new product handler
func NewProductHandler(repo domain.ProductRepository, stockCache *cache.StockCache) *ProductHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_requests_total",
			Help: "Total number of requests to product endpoints",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "product_request_duration_seconds",
			Help:    "Latency of product endpoints",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	prometheus.MustRegister(requestCounter, requestLatency)

	return &ProductHandler{
		createHandler:  command.NewCreateProductHandler(repo),
		updateHandler:  command.NewUpdateProductHandler(repo),
		getHandler:     query.NewGetProductHandler(repo),
		listHandler:    query.NewListProductsHandler(repo),
		repo:           repo,
		stockCache:     stockCache,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	defer h.observe("POST", "/api/products", time.Now())

	var req struct {
		ProductName  string          `json:"product_name"`
		DefaultPrice decimal.Decimal `json:"default_price"`
		Stock        int             `json:"stock"`
		BoxQuantity  int             `json:"box_quantity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, "POST", "/api/products", Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	product, err := h.createHandler.Handle(r.Context(), command.CreateProductCommand{
		ProductName:  req.ProductName,
		DefaultPrice: req.DefaultPrice,
		Stock:        req.Stock,
		BoxQuantity:  req.BoxQuantity,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create product")
		h.respondJSON(w, http.StatusBadRequest, "POST", "/api/products", Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.respondJSON(w, http.StatusCreated, "POST", "/api/products", Response{
		Success: true,
		Message: "Product created successfully",
		Data:    product,
	})
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	defer h.observe("GET", "/api/products/{id}", time.Now())

	id, err := parseID(r, "id")
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, "GET", "/api/products/{id}", Response{
			Success: false,
			Error:   "Invalid product ID",
		})
		return
	}

	product, err := h.getHandler.Handle(r.Context(), query.GetProductQuery{ProductID: id})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrProductNotFound) {
			status = http.StatusNotFound
		}
		h.respondJSON(w, status, "GET", "/api/products/{id}", Response{
			Success: false,
			Error:   "Product not found",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, "GET", "/api/products/{id}", Response{
		Success: true,
		Data:    product,
	})
}

// GetProductStock handles GET /api/products/{id}/stock. It serves from the
// best-effort stock cache when possible and falls back to the product row.
func (h *ProductHandler) GetProductStock(w http.ResponseWriter, r *http.Request) {
	defer h.observe("GET", "/api/products/{id}/stock", time.Now())

	id, err := parseID(r, "id")
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, "GET", "/api/products/{id}/stock", Response{
			Success: false,
			Error:   "Invalid product ID",
		})
		return
	}

	if stock, ok := h.stockCache.GetStock(r.Context(), id); ok {
		h.respondJSON(w, http.StatusOK, "GET", "/api/products/{id}/stock", Response{
			Success: true,
			Data:    map[string]interface{}{"product_id": id, "stock": stock, "cached": true},
		})
		return
	}

	product, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrProductNotFound) {
			status = http.StatusNotFound
		}
		h.respondJSON(w, status, "GET", "/api/products/{id}/stock", Response{
			Success: false,
			Error:   "Product not found",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, "GET", "/api/products/{id}/stock", Response{
		Success: true,
		Data:    map[string]interface{}{"product_id": id, "stock": product.Stock, "cached": false},
	})
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	defer h.observe("GET", "/api/products", time.Now())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	products, err := h.listHandler.Handle(r.Context(), query.ListProductsQuery{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list products")
		h.respondJSON(w, http.StatusInternalServerError, "GET", "/api/products", Response{
			Success: false,
			Error:   "Failed to list products",
		})
		return
	}

	h.respondJSON(w, http.StatusOK, "GET", "/api/products", Response{
		Success: true,
		Data:    products,
	})
}

// UpdateProduct handles PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	defer h.observe("PUT", "/api/products/{id}", time.Now())

	id, err := parseID(r, "id")
	if err != nil {
		h.respondJSON(w, http.StatusBadRequest, "PUT", "/api/products/{id}", Response{
			Success: false,
			Error:   "Invalid product ID",
		})
		return
	}

	var req struct {
		ProductName  string          `json:"product_name"`
		DefaultPrice decimal.Decimal `json:"default_price"`
		BoxQuantity  int             `json:"box_quantity"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondJSON(w, http.StatusBadRequest, "PUT", "/api/products/{id}", Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	product, err := h.updateHandler.Handle(r.Context(), command.UpdateProductCommand{
		ProductID:    id,
		ProductName:  req.ProductName,
		DefaultPrice: req.DefaultPrice,
		BoxQuantity:  req.BoxQuantity,
	})
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrProductNotFound) {
			status = http.StatusNotFound
		}
		h.respondJSON(w, status, "PUT", "/api/products/{id}", Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.respondJSON(w, http.StatusOK, "PUT", "/api/products/{id}", Response{
		Success: true,
		Message: "Product updated successfully",
		Data:    product,
	})
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/products", h.ListProducts).Methods("GET")
	router.HandleFunc("/api/products", h.CreateProduct).Methods("POST")
	router.HandleFunc("/api/products/{id}", h.GetProduct).Methods("GET")
	router.HandleFunc("/api/products/{id}", h.UpdateProduct).Methods("PUT")
	router.HandleFunc("/api/products/{id}/stock", h.GetProductStock).Methods("GET")
}

func (h *ProductHandler) observe(method, endpoint string, start time.Time) {
	h.requestLatency.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
}

func (h *ProductHandler) respondJSON(w http.ResponseWriter, status int, method, endpoint string, payload Response) {
	h.requestCounter.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func parseID(r *http.Request, key string) (uint, error) {
	raw := mux.Vars(r)[key]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
