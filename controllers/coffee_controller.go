package controllers

import (
	"fmt"
	"net/http"

	"coffee-shop/services"

	"github.com/gin-gonic/gin"
)

type CoffeeController struct {
	coffees *services.CoffeeService
}

func NewCoffeeController(coffees *services.CoffeeService) *CoffeeController {
	return &CoffeeController{coffees: coffees}
}

func (ctl *CoffeeController) ListCoffees(c *gin.Context) {
	coffees, err := ctl.coffees.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coffees)
}

func (ctl *CoffeeController) GetCoffee(c *gin.Context) {
	coffee, err := ctl.coffees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coffee)
}

func (ctl *CoffeeController) CreateCoffee(c *gin.Context) {
	var in services.CreateCoffeeInput
	if !bindJSON(c, &in) {
		return
	}
	coffee, err := ctl.coffees.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, coffee)
}

func (ctl *CoffeeController) UpdateCoffee(c *gin.Context) {
	var in services.UpdateCoffeeInput
	if !bindJSON(c, &in) {
		return
	}
	coffee, err := ctl.coffees.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coffee)
}

func (ctl *CoffeeController) DeleteCoffee(c *gin.Context) {
	coffee, err := ctl.coffees.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Removed product %s successfully", coffee.Name)})
}
