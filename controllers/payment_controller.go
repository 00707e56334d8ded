package controllers

import (
	"log"
	"net/http"

	"coffee-shop/services"

	"github.com/gin-gonic/gin"
)

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

func (ctl *PaymentController) InitializePayment(c *gin.Context) {
	var in services.InitializePaymentInput
	if !bindJSON(c, &in) {
		return
	}
	log.Printf("Initializing payment for order: %s", in.OrderID)

	session, err := ctl.payments.Initialize(c.Request.Context(), in.Email, in.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// VerifyPayment accepts the reference as a path parameter.
func (ctl *PaymentController) VerifyPayment(c *gin.Context) {
	ctl.verify(c, c.Param("reference"))
}

// VerifyPaymentBody accepts {"reference": ...} in the request body.
func (ctl *PaymentController) VerifyPaymentBody(c *gin.Context) {
	var in services.VerifyPaymentInput
	if !bindJSON(c, &in) {
		return
	}
	ctl.verify(c, in.Reference)
}

func (ctl *PaymentController) verify(c *gin.Context, reference string) {
	log.Printf("Verifying payment for reference: %s", reference)

	result, err := ctl.payments.Verify(c.Request.Context(), reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
