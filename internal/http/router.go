package api

import (
	"log"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"

	intconfig "smartbus/internal/config"
	"smartbus/internal/domain"
	h "smartbus/internal/http/handlers"
	"smartbus/internal/http/middleware"
)

func NewRouter(env intconfig.Env, hd *h.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	api.Use(middleware.Auth(hd.Auth))
	{
		api.GET("/health", hd.Health)
		api.GET("/db-check", hd.DBCheck)
		api.GET("/routes", hd.Routes)

		// Auth
		auth := api.Group("/auth")
		auth.POST("/signup", hd.SignUp)
		auth.POST("/signin", hd.SignIn)
		auth.POST("/logout", middleware.RequireAuth(), hd.Logout)
		auth.GET("/session", hd.Session)

		// Buses
		buses := api.Group("/buses")
		buses.GET("", hd.ListBuses)
		buses.GET("/companies", hd.ListCompanies)
		buses.GET("/:id", hd.GetBus)
		buses.GET("/:id/location", hd.GetBusLocation)
		api.GET("/driver-locations", hd.ListDriverLocations)

		// Booking flow
		bookings := api.Group("/bookings")
		bookings.POST("", hd.StartBooking)
		bookings.GET("/:id", hd.GetBooking)
		bookings.POST("/:id/bus", hd.SelectBookingBus)
		bookings.POST("/:id/continue", hd.ContinueBooking)
		bookings.POST("/:id/seats/:seat", hd.ToggleBookingSeat)
		bookings.PUT("/:id/payment/method", hd.SelectPaymentMethod)
		bookings.PUT("/:id/payment/details", hd.UpdatePaymentDetails)
		bookings.POST("/:id/proceed", hd.ProceedBooking)
		bookings.POST("/:id/confirm", hd.ConfirmBooking)
		bookings.POST("/:id/back", hd.BackBooking)
		bookings.DELETE("/:id", hd.CancelBooking)

		// Tickets
		tickets := api.Group("/tickets")
		tickets.GET("/:id", hd.GetTicket)
		tickets.POST("/:id/scan", hd.ScanTicket)
		tickets.GET("/:id/countdown", hd.TicketCountdown)
		tickets.GET("/:id/qr", hd.TicketQR)
		tickets.GET("/:id/e-ticket", hd.TicketPDF)

		// Admin dashboard
		admin := api.Group("/admin")
		admin.Use(middleware.RequireRoles(domain.RoleAdmin), middleware.RequireAdminSession(hd.Auth))
		admin.GET("/buses", hd.AdminListBuses)
		admin.POST("/buses", hd.AdminCreateBus)
		admin.PUT("/buses/:id", hd.AdminUpdateBus)
		admin.DELETE("/buses/:id", hd.AdminDeleteBus)
	}

	hd.SetRouter(r)
	return r
}
