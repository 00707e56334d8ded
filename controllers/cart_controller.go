package controllers

import (
	"log"
	"net/http"

	"coffee-shop/middlewares"
	"coffee-shop/services"

	"github.com/gin-gonic/gin"
)

type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

func (ctl *CartController) GetCart(c *gin.Context) {
	defer func() {
		middlewares.RecordCartOperation("get", middlewares.Succeeded(c))
	}()

	userID, err := resolveUserID(c, c.Query("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Retrieving cart for user: %s", userID)

	cart, err := ctl.carts.Get(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (ctl *CartController) AddToCart(c *gin.Context) {
	defer func() {
		middlewares.RecordCartOperation("add", middlewares.Succeeded(c))
	}()

	var in services.AddToCartInput
	if !bindJSON(c, &in) {
		return
	}
	userID, err := resolveUserID(c, in.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Adding product to cart for user: %s", userID)

	cart, err := ctl.carts.AddItem(c.Request.Context(), userID, in.CoffeeID, in.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (ctl *CartController) RemoveFromCart(c *gin.Context) {
	defer func() {
		middlewares.RecordCartOperation("remove", middlewares.Succeeded(c))
	}()

	var in services.RemoveFromCartInput
	if !bindJSON(c, &in) {
		return
	}
	userID, err := resolveUserID(c, in.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Removing product from cart for user: %s", userID)

	cart, err := ctl.carts.RemoveItem(c.Request.Context(), userID, in.CoffeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (ctl *CartController) Checkout(c *gin.Context) {
	defer func() {
		middlewares.RecordCartOperation("checkout", middlewares.Succeeded(c))
	}()

	var in struct {
		UserID string `json:"userId"`
	}
	if !bindOptionalJSON(c, &in) {
		return
	}
	userID, err := resolveUserID(c, in.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Checking out cart for user: %s", userID)

	result, err := ctl.carts.Checkout(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
