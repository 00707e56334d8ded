package routes

import (
	"net/http"

	"coffee-shop/config"
	"coffee-shop/controllers"
	"coffee-shop/middlewares"
	"coffee-shop/models"
	"coffee-shop/services"
	"coffee-shop/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the workflows the HTTP layer exposes.
type Services struct {
	Auth     *services.AuthService
	Coffees  *services.CoffeeService
	Carts    *services.CartService
	Orders   *services.OrderService
	Payments *services.PaymentService
	Hub      *ws.Hub
	// DeadLetters is nil when RabbitMQ is disabled.
	DeadLetters controllers.DeadLetterReporter
}

// SetupRouter builds the engine with every route registered.
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestLogger(gin.DefaultWriter), gin.Recovery())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authenticated := middlewares.AuthMiddleware(cfg.JWTSecret)
	adminOnly := middlewares.AuthMiddleware(cfg.JWTSecret, models.RoleAdmin)

	auth := controllers.NewAuthController(svc.Auth)
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", auth.Register)
		authGroup.POST("/login", auth.Login)
	}

	coffees := controllers.NewCoffeeController(svc.Coffees)
	coffeeGroup := r.Group("/coffees")
	{
		coffeeGroup.GET("", coffees.ListCoffees)
		coffeeGroup.GET("/:id", coffees.GetCoffee)
		coffeeGroup.POST("", adminOnly, coffees.CreateCoffee)
		coffeeGroup.PUT("/:id", adminOnly, coffees.UpdateCoffee)
		coffeeGroup.DELETE("/:id", adminOnly, coffees.DeleteCoffee)
	}

	carts := controllers.NewCartController(svc.Carts)
	cartGroup := r.Group("/cart", authenticated)
	{
		cartGroup.GET("", carts.GetCart)
		cartGroup.POST("/add", carts.AddToCart)
		cartGroup.POST("/remove", carts.RemoveFromCart)
		cartGroup.POST("/checkout", carts.Checkout)
	}

	orders := controllers.NewOrderController(svc.Orders)
	orderGroup := r.Group("/orders", authenticated)
	{
		orderGroup.POST("/create", orders.CreateOrder)
		orderGroup.GET("/user/:userId", orders.GetUserOrders)
		orderGroup.GET("/:id", orders.GetOrderDetails)
		orderGroup.GET("", adminOnly, orders.GetAllOrders)
		orderGroup.PUT("/:id", adminOnly, orders.UpdateOrderStatus)
	}

	payments := controllers.NewPaymentController(svc.Payments)
	paymentGroup := r.Group("/payments")
	{
		paymentGroup.POST("/initialize", payments.InitializePayment)
		paymentGroup.POST("/initiate", payments.InitializePayment)
		paymentGroup.GET("/verify/:reference", payments.VerifyPayment)
		paymentGroup.POST("/verify", payments.VerifyPaymentBody)
	}

	admin := controllers.NewAdminController(svc.Orders, svc.DeadLetters)
	adminGroup := r.Group("/admin", adminOnly)
	{
		adminGroup.POST("/dead-letter", admin.HandleDeadLetter)
		adminGroup.GET("/orders/export", admin.ExportOrders)
	}

	if svc.Hub != nil {
		r.GET("/ws/orders", middlewares.WSAuthMiddleware(cfg.JWTSecret, models.RoleAdmin), svc.Hub.ServeWS)
	}

	return r
}
