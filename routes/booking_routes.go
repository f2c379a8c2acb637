package routes

import (
	"os"

	"github.com/gin-gonic/gin"

	"github.com/bookkeys/bookkeys/clients"
	"github.com/bookkeys/bookkeys/config/db"
	"github.com/bookkeys/bookkeys/controllers/availability_controller"
	"github.com/bookkeys/bookkeys/controllers/pages_controller"
	"github.com/bookkeys/bookkeys/controllers/request_controller"
	"github.com/bookkeys/bookkeys/controllers/slots_controller"
	"github.com/bookkeys/bookkeys/logger"
	middleware "github.com/bookkeys/bookkeys/middlewares"
	"github.com/bookkeys/bookkeys/models/request_models"
	"github.com/bookkeys/bookkeys/utils/mail"
)

// RegisterBookingRoutes wires the booking, availability and approval
// endpoints against the shared database pool and Graph tenant.
func RegisterBookingRoutes(router *gin.Engine) {
	creds, err := clients.NewCredentialCache(
		os.Getenv("TENANT_ID"),
		os.Getenv("CLIENT_ID"),
		os.Getenv("CLIENT_SECRET"),
	)
	if err != nil {
		logger.ErrorLogger.Fatalf("failed to initialize graph credentials: %v", err)
	}
	graph := clients.NewGraphClient(creds)
	mailer := mail.NewSenderFromEnv(graph)
	store := request_models.NewStore(db.DB)

	requestController := request_controller.NewRequestController(store, graph, mailer)
	slotsController := slots_controller.NewSlotsController(graph)
	availabilityController := availability_controller.NewAvailabilityController(graph)
	pagesController := pages_controller.NewPagesController()

	router.GET("/availability", availabilityController.GetAvailability)

	book := router.Group("/book")
	{
		book.GET("/pages", pagesController.ListPages)
		book.GET("/:slug/slots",
			middleware.NewRateLimiter("30-1m", "book-slots"),
			slotsController.GetSlots)
		book.POST("/:slug/request",
			middleware.CombinedRateLimiter("book-request", "5-1m", "20-10m"),
			requestController.BookRequest)
	}

	requests := router.Group("/requests")
	{
		requests.POST("/submit",
			middleware.CombinedRateLimiter("requests-submit", "5-1m", "20-10m"),
			requestController.SubmitRequest)
		requests.GET("", requestController.ListRequests)
		requests.GET("/:id/accept", requestController.AcceptRequest)
		requests.GET("/:id/decline", requestController.DeclineRequest)
	}
}
