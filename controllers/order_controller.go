package controllers

import (
	"log"
	"net/http"

	"coffee-shop/apperrors"
	"coffee-shop/middlewares"
	"coffee-shop/services"

	"github.com/gin-gonic/gin"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

func (ctl *OrderController) CreateOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("create", middlewares.Succeeded(c))
	}()

	var in services.CreateOrderInput
	if !bindOptionalJSON(c, &in) {
		return
	}
	userID, err := resolveUserID(c, in.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Creating an order for user: %s", userID)

	order, err := ctl.orders.Create(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrderDetails answers NotFound for orders owned by someone else so that
// order ids cannot be probed.
func (ctl *OrderController) GetOrderDetails(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("details", middlewares.Succeeded(c))
	}()

	orderID := c.Param("id")
	log.Printf("Fetching order: %s", orderID)

	order, err := ctl.orders.Get(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	if order.UserID != middlewares.CurrentUserID(c) && !middlewares.IsAdmin(c) {
		respondError(c, apperrors.NotFound("Order not found"))
		return
	}
	c.JSON(http.StatusOK, order)
}

func (ctl *OrderController) GetUserOrders(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("list", middlewares.Succeeded(c))
	}()

	userID, err := resolveUserID(c, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Fetching all orders for user: %s", userID)

	orders, err := ctl.orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (ctl *OrderController) GetAllOrders(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("list_all", middlewares.Succeeded(c))
	}()

	log.Printf("Fetching all orders (admin only)")
	orders, err := ctl.orders.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (ctl *OrderController) UpdateOrderStatus(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("update_status", middlewares.Succeeded(c))
	}()

	var in services.UpdateOrderStatusInput
	if !bindJSON(c, &in) {
		return
	}
	orderID := c.Param("id")
	log.Printf("Admin updating status for order: %s", orderID)

	order, err := ctl.orders.UpdateStatus(c.Request.Context(), orderID, in.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
