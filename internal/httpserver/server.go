package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/tyemirov/tauth/pkg/sessionvalidator"
	"go.uber.org/zap"

	"github.com/sanatruk/snowpro-armenia/internal/catalog"
	"github.com/sanatruk/snowpro-armenia/pkg/booking"
)

const authClaimsKey = "auth_claims"

// BookingService is the booking surface the HTTP layer drives.
type BookingService interface {
	CreateBooking(ctx context.Context, studentID string, request booking.CreateBookingRequest) (booking.CreateBookingResult, error)
	CancelBooking(ctx context.Context, studentID string, request booking.CancelBookingRequest) (booking.CancelBookingResult, error)
	GetBooking(ctx context.Context, studentID string, bookingID string) (booking.Booking, []booking.Payment, error)
	ListBookings(ctx context.Context, studentID string) ([]booking.Booking, error)
	SubmitReview(ctx context.Context, studentID string, request booking.SubmitReviewRequest) (booking.Review, error)
}

// EventReconciler applies verified payment events.
type EventReconciler interface {
	Process(ctx context.Context, event booking.GatewayEvent) error
}

// WebhookVerifier checks webhook signatures and normalizes payloads.
type WebhookVerifier interface {
	VerifyAndParse(payload []byte, signatureHeader string) (booking.GatewayEvent, error)
}

// Dependencies carries the wired collaborators for the HTTP server.
type Dependencies struct {
	Logger     *zap.Logger
	Bookings   BookingService
	Reconciler EventReconciler
	Webhooks   WebhookVerifier
	Directory  catalog.Catalog
}

// Run boots the HTTP server using the supplied configuration and blocks
// until ctx is cancelled or the listener fails.
func Run(ctx context.Context, cfg Config, deps Dependencies) error {
	sessionValidator, err := sessionvalidator.New(sessionvalidator.Config{
		SigningKey: []byte(cfg.SessionSigningKey),
		Issuer:     cfg.SessionIssuer,
		CookieName: cfg.SessionCookieName,
	})
	if err != nil {
		return fmt.Errorf("session validator: %w", err)
	}

	handler := &httpHandler{
		logger:     deps.Logger,
		bookings:   deps.Bookings,
		reconciler: deps.Reconciler,
		webhooks:   deps.Webhooks,
		directory:  deps.Directory,
	}
	router := setupRouter(cfg, handler, sessionValidator)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Info("booking api listening", zap.String("addr", cfg.ListenAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
			deps.Logger.Warn("server shutdown error", zap.Error(shutdownErr))
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func setupRouter(cfg Config, handler *httpHandler, validator *sessionvalidator.Validator) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Origin", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/webhooks/stripe", handler.handleStripeWebhook)

	api := router.Group("/api")
	api.GET("/instructors", handler.handleListInstructors)
	api.GET("/instructors/:slug", handler.handleGetInstructor)
	api.GET("/instructors/:slug/reviews", handler.handleInstructorReviews)
	api.GET("/instructors/:slug/availability", handler.handleInstructorAvailability)
	api.GET("/resorts", handler.handleListResorts)
	api.GET("/resorts/:slug", handler.handleGetResort)

	authed := api.Group("")
	authed.Use(validator.GinMiddleware(authClaimsKey))
	authed.POST("/bookings", handler.handleCreateBooking)
	authed.GET("/bookings", handler.handleListBookings)
	authed.GET("/bookings/:id", handler.handleGetBooking)
	authed.POST("/bookings/:id/cancel", handler.handleCancelBooking)
	authed.POST("/reviews", handler.handleSubmitReview)

	return router
}

func getClaims(ctx *gin.Context) *sessionvalidator.Claims {
	claimsValue, ok := ctx.Get(authClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := claimsValue.(*sessionvalidator.Claims)
	return claims
}

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}
