package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/orderstack/order-management/internal/core/domain"
	"github.com/orderstack/order-management/internal/core/service"
	"github.com/orderstack/order-management/internal/port"
)

// HTTPHandler exposes the customer and admin APIs over gin.
type HTTPHandler struct {
	purchases *service.PurchaseService
	products  *service.ProductService
	customers *service.CustomerService
	admins    *service.AdminService
}

func NewHTTPHandler(
	purchases *service.PurchaseService,
	products *service.ProductService,
	customers *service.CustomerService,
	admins *service.AdminService,
) *HTTPHandler {
	return &HTTPHandler{
		purchases: purchases,
		products:  products,
		customers: customers,
		admins:    admins,
	}
}

func (h *HTTPHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)

	customers := router.Group("/api/customers")
	{
		customers.POST("/register", h.RegisterCustomer)
		customers.POST("/login", h.LoginCustomer)
		customers.GET("/products", h.ListProducts)
		customers.POST("/products/buy", h.Buy)
	}

	customer := router.Group("/api/customer/:id")
	{
		customer.GET("", h.GetCustomer)
		customer.GET("/orders", h.CustomerOrders)
	}

	admins := router.Group("/api/admins")
	{
		admins.POST("/register", h.RegisterAdmin)
		admins.POST("/login", h.LoginAdmin)
		admins.POST("/products/add", h.AddProduct)
		admins.GET("/products", h.ListProducts)
		admins.GET("/product", h.GetProduct)
		admins.PUT("/product", h.UpdateProduct)
		admins.DELETE("/product", h.DeleteProduct)
		admins.PATCH("/product/inventory", h.AddToInventory)
	}
}

type errorBody struct {
	Message   string    `json:"message"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// writeError maps service errors onto stable status codes. Unrecognized
// errors are logged and reported as a generic 500 so infrastructure details
// never leak to clients.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	switch {
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrMissingProductRef),
		errors.Is(err, service.ErrMissingName),
		errors.Is(err, service.ErrConflictingIdentifiers):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrCustomerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrProductNameTaken):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidAdminSecret):
		status = http.StatusForbidden
	case errors.Is(err, port.ErrLockTimeout):
		status = http.StatusServiceUnavailable
		message = "product is busy, please retry"
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		message = "internal error"
	}

	c.JSON(status, errorBody{Message: message, Status: status, Timestamp: time.Now()})
}

// refFromQuery builds a product reference from the optional id and name
// query parameters.
func refFromQuery(c *gin.Context) (domain.ProductRef, error) {
	var ref domain.ProductRef
	if raw := c.Query("id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ref, service.ErrMissingProductRef
		}
		ref.ID = &id
	}
	if name := c.Query("name"); name != "" {
		ref.Name = &name
	}
	return ref, nil
}

type customerResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCustomerResponse(c *domain.Customer) customerResponse {
	return customerResponse{ID: c.ID, Name: c.Name, Email: c.Email, CreatedAt: c.CreatedAt}
}

type productResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Description   string    `json:"description,omitempty"`
	StockQuantity int       `json:"stockQuantity"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toProductResponse(s service.ProductSummary) productResponse {
	return productResponse{
		ID:            s.Product.ID,
		Name:          s.Product.Name,
		Price:         s.Product.Price,
		Description:   s.Product.Description,
		StockQuantity: s.StockQuantity,
		CreatedAt:     s.Product.CreatedAt,
	}
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type registerCustomerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *HTTPHandler) RegisterCustomer(c *gin.Context) {
	var req registerCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Message: "invalid request body", Status: http.StatusBadRequest, Timestamp: time.Now(),
		})
		return
	}
	customer, err := h.customers.Register(c.Request.Context(), service.RegisterCustomerInput{
		Name: req.Name, Email: req.Email, Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCustomerResponse(customer))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *HTTPHandler) LoginCustomer(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Message: "invalid request body", Status: http.StatusBadRequest, Timestamp: time.Now(),
		})
		return
	}
	customer, err := h.customers.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCustomerResponse(customer))
}

func (h *HTTPHandler) GetCustomer(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, service.ErrCustomerNotFound)
		return
	}
	customer, err := h.customers.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCustomerResponse(customer))
}

func (h *HTTPHandler) CustomerOrders(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, service.ErrCustomerNotFound)
		return
	}
	orders, err := h.customers.Orders(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

type buyRequest struct {
	CustomerID int64 `json:"customerId" binding:"required"`
	Quantity   int   `json:"quantity" binding:"required"`
}

// Buy places an order. The product is addressed by the id and/or name query
// parameters; when both are present they must refer to the same product.
func (h *HTTPHandler) Buy(c *gin.Context) {
	var req buyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Message: "invalid request body", Status: http.StatusBadRequest, Timestamp: time.Now(),
		})
		return
	}
	ref, err := refFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}

	orderID, err := h.purchases.Buy(c.Request.Context(), service.PurchaseRequest{
		CustomerID: req.CustomerID,
		Product:    ref,
		Quantity:   req.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"orderId": orderID, "message": "order placed successfully"})
}

func (h *HTTPHandler) ListProducts(c *gin.Context) {
	summaries, err := h.products.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]productResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toProductResponse(s))
	}
	c.JSON(http.StatusOK, out)
}

type registerAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Secret   string `json:"secret" binding:"required"`
}

func (h *HTTPHandler) RegisterAdmin(c *gin.Context) {
	var req registerAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Message: "invalid request body", Status: http.StatusBadRequest, Timestamp: time.Now(),
		})
		return
	}
	admin, err := h.admins.Register(c.Request.Context(), service.RegisterAdminInput{
		Email: req.Email, Password: req.Password, Secret: req.Secret,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": admin.ID, "email": admin.Email})
}

func (h *HTTPHandler) LoginAdmin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Message: "invalid request body", Status: http.StatusBadRequest, Timestamp: time.Now(),
		})
		return
	}
	admin, err := h.admins.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": admin.ID, "email": admin.Email})
}

type addProductRequest struct {
	Name         string  `json:"name" binding:"required"`
	Price        float64 `json:"price" binding:"required"`
	Description  string  `json:"description"`
	InitialStock int     `json:"initialStock"`
}

func (h *HTTPHandler) AddProduct(c *gin.Context) {
	var req addProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Message: "invalid request body", Status: http.StatusBadRequest, Timestamp: time.Now(),
		})
		return
	}
	summary, err := h.products.AddProduct(c.Request.Context(), service.AddProductInput{
		Name:         req.Name,
		Price:        req.Price,
		Description:  req.Description,
		InitialStock: req.InitialStock,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(*summary))
}

func (h *HTTPHandler) GetProduct(c *gin.Context) {
	ref, err := refFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	summary, err := h.products.GetProduct(c.Request.Context(), ref)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*summary))
}

type updateProductRequest struct {
	NewName        *string  `json:"newName"`
	NewDescription *string  `json:"newDescription"`
	NewPrice       *float64 `json:"newPrice"`
}

func (h *HTTPHandler) UpdateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Message: "invalid request body", Status: http.StatusBadRequest, Timestamp: time.Now(),
		})
		return
	}
	ref, err := refFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	summary, err := h.products.UpdateProduct(c.Request.Context(), ref, service.UpdateProductInput{
		NewName:        req.NewName,
		NewDescription: req.NewDescription,
		NewPrice:       req.NewPrice,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*summary))
}

func (h *HTTPHandler) DeleteProduct(c *gin.Context) {
	ref, err := refFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.products.DeleteProduct(c.Request.Context(), ref); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

type restockRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

func (h *HTTPHandler) AddToInventory(c *gin.Context) {
	var req restockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Message: "invalid request body", Status: http.StatusBadRequest, Timestamp: time.Now(),
		})
		return
	}
	ref, err := refFromQuery(c)
	if err != nil {
		writeError(c, err)
		return
	}
	summary, err := h.products.AddToInventory(c.Request.Context(), ref, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(*summary))
}
