package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"storefront/internal/core/domain"
	"storefront/internal/core/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// HTTPHandler translates HTTP/JSON requests to and from the core services.
type HTTPHandler struct {
	orders    *service.OrderService
	products  *service.ProductService
	inventory *service.InventoryService

	lowStockThreshold int
}

func NewHTTPHandler(orders *service.OrderService, products *service.ProductService, inventory *service.InventoryService, lowStockThreshold int) *HTTPHandler {
	return &HTTPHandler{
		orders:            orders,
		products:          products,
		inventory:         inventory,
		lowStockThreshold: lowStockThreshold,
	}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("POST /api/products", h.CreateProduct)
	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /api/products/{id}/restock", h.RestockProduct)
	mux.HandleFunc("PUT /api/products/{id}/price", h.UpdateProductPrice)

	mux.HandleFunc("POST /api/orders", h.CreateOrder)
	mux.HandleFunc("GET /api/orders", h.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("POST /api/orders/{id}/pay", h.PayOrder)
	mux.HandleFunc("POST /api/orders/{id}/cancel", h.CancelOrder)

	mux.HandleFunc("POST /api/inventory/low-stock-scan", h.ScanLowStock)
}

type createProductRequest struct {
	Name         string `json:"name"`
	SKU          string `json:"sku"`
	Price        string `json:"price"`
	InitialStock int    `json:"initial_stock"`
}

type restockRequest struct {
	Quantity int `json:"quantity"`
}

type updatePriceRequest struct {
	Price string `json:"price"`
}

type createOrderRequest struct {
	RequestID  string `json:"request_id"`
	CustomerID string `json:"customer_id"`
	Items      []struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
}

type productResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	Price         string    `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type orderItemResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
}

type orderResponse struct {
	ID               string              `json:"id"`
	OrderNumber      string              `json:"order_number"`
	CustomerID       string              `json:"customer_id"`
	Items            []orderItemResponse `json:"items"`
	TotalAmount      string              `json:"total_amount"`
	Status           string              `json:"status"`
	DiscountPct      float64             `json:"discount_pct"`
	ShippingEstimate float64             `json:"shipping_estimate"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	price, err := domain.ParseMoney(req.Price)
	if err != nil {
		h.writeError(w, err)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), req.Name, req.SKU, price, req.InitialStock)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	product, err := h.products.GetProduct(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	products, err := h.products.ListProducts(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) RestockProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req restockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	product, err := h.products.Restock(r.Context(), id, req.Quantity)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *HTTPHandler) UpdateProductPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updatePriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	price, err := domain.ParseMoney(req.Price)
	if err != nil {
		h.writeError(w, err)
		return
	}
	product, err := h.products.UpdatePrice(r.Context(), id, price)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	items := make([]service.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid product id: " + item.ProductID})
			return
		}
		items = append(items, service.ItemRequest{ProductID: productID, Quantity: item.Quantity})
	}

	order, err := h.orders.CreateOrder(r.Context(), service.CreateOrderRequest{
		RequestID:  req.RequestID,
		CustomerID: req.CustomerID,
		Items:      items,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)

	var (
		orders []*domain.Order
		err    error
	)
	switch {
	case r.URL.Query().Get("status") != "":
		status := domain.OrderStatus(r.URL.Query().Get("status"))
		orders, err = h.orders.ListOrdersByStatus(r.Context(), status, limit, offset)
	case r.URL.Query().Get("from") != "":
		var from, to time.Time
		from, err = time.Parse(time.RFC3339, r.URL.Query().Get("from"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid 'from' timestamp"})
			return
		}
		to = time.Now()
		if raw := r.URL.Query().Get("to"); raw != "" {
			to, err = time.Parse(time.RFC3339, raw)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid 'to' timestamp"})
				return
			}
		}
		orders, err = h.orders.ListOrdersByCreatedRange(r.Context(), from, to, limit, offset)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "either 'status' or 'from' filter is required"})
		return
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) PayOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.orders.PayOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.orders.CancelOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) ScanLowStock(w http.ResponseWriter, r *http.Request) {
	threshold := h.lowStockThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid threshold"})
			return
		}
		threshold = parsed
	}

	count, err := h.inventory.PublishLowStock(r.Context(), threshold)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"events_published": count})
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateRequest),
		errors.Is(err, domain.ErrIllegalState),
		errors.Is(err, domain.ErrBusinessRule):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientStock):
		status = http.StatusGone
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(r *http.Request) (limit, offset int) {
	limit = defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= maxPageSize {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

func toProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		SKU:           p.SKU,
		Price:         p.Price.String(),
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toOrderResponse(o *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ID:          item.ID.String(),
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.String(),
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal.String(),
		})
	}
	return orderResponse{
		ID:               o.ID.String(),
		OrderNumber:      o.OrderNumber,
		CustomerID:       o.CustomerID,
		Items:            items,
		TotalAmount:      o.Total().String(),
		Status:           string(o.Status),
		DiscountPct:      o.DiscountPct,
		ShippingEstimate: o.ShippingEstimate,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
