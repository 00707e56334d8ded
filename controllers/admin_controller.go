package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"coffee-shop/middlewares"
	"coffee-shop/models"
	"coffee-shop/services"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx"
)

// DeadLetterReporter forwards an operator report to the dead letter queue.
type DeadLetterReporter interface {
	PublishDeadLetter(ctx context.Context, orderID, reason string) error
}

type AdminController struct {
	orders      *services.OrderService
	deadLetters DeadLetterReporter
}

// NewAdminController builds the admin endpoints. With a nil deadLetters the
// dead letter endpoint only writes the report to the log.
func NewAdminController(orders *services.OrderService, deadLetters DeadLetterReporter) *AdminController {
	return &AdminController{orders: orders, deadLetters: deadLetters}
}

type deadLetterInput struct {
	OrderID string `json:"orderId" validate:"required"`
	Reason  string `json:"reason" validate:"required"`
}

// HandleDeadLetter records an order event that an operator or an external
// system reports as undeliverable and forwards it to the dead letter queue.
func (ctl *AdminController) HandleDeadLetter(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("dead_letter", middlewares.Succeeded(c))
	}()

	var in deadLetterInput
	if !bindJSON(c, &in) {
		return
	}
	log.Printf("Handling dead letter for order %s: %s", in.OrderID, in.Reason)
	if ctl.deadLetters != nil {
		if err := ctl.deadLetters.PublishDeadLetter(c.Request.Context(), in.OrderID, in.Reason); err != nil {
			log.Printf("Failed to forward dead letter for order %s: %v", in.OrderID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to forward dead letter"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Dead letter processed"})
}

var exportHeaders = []string{
	"Order ID", "User ID", "Status", "Order Total", "Product ID", "Product Name",
	"Unit Price", "Quantity", "Subtotal", "Created At", "Updated At",
}

// ExportOrders streams every order as an xlsx workbook, one row per item.
func (ctl *AdminController) ExportOrders(c *gin.Context) {
	orders, err := ctl.orders.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	file, err := buildOrdersWorkbook(orders)
	if err != nil {
		log.Printf("Failed to build orders workbook: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Transfer-Encoding", "binary")
	c.Header("Expires", "0")
	c.Status(http.StatusOK)

	if err := file.Write(c.Writer); err != nil {
		log.Printf("Failed to write orders workbook: %v", err)
	}
}

func buildOrdersWorkbook(orders []models.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, err
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, o := range orders {
		for _, item := range o.Items {
			row := sheet.AddRow()
			row.AddCell().SetString(o.ID)
			row.AddCell().SetString(o.UserID)
			row.AddCell().SetString(string(o.Status))
			row.AddCell().SetFloat(o.Total.InexactFloat64())
			row.AddCell().SetString(item.ProductID)
			row.AddCell().SetString(item.Name)
			row.AddCell().SetFloat(item.Price.InexactFloat64())
			row.AddCell().SetInt(item.Quantity)
			row.AddCell().SetFloat(item.Subtotal().InexactFloat64())
			row.AddCell().SetString(o.CreatedAt.Format("2006-01-02 15:04:05"))
			row.AddCell().SetString(o.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
	}
	return file, nil
}
