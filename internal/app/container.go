package app

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glasswing-dev/reservation-backend/internal/api"
	"github.com/glasswing-dev/reservation-backend/internal/booking"
	"github.com/glasswing-dev/reservation-backend/internal/resource"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction            bool
	ProdOrigins             string
	DBPool                  *pgxpool.Pool
	RecurrenceExpansionDays int
	Logger                  *slog.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router *gin.Engine
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	// Resource Module
	resRepo := resource.NewPgxRepository(cfg.DBPool)
	resService := resource.NewService(resRepo)

	// Booking Module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	resolver := booking.NewResolver(bookingRepo, cfg.Logger)
	validationWindow := time.Duration(cfg.RecurrenceExpansionDays) * 24 * time.Hour
	bookingService := booking.NewService(bookingRepo, resolver, resService, validationWindow)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		ResService:     resService,
		BookingService: bookingService,
	})

	return &Container{Router: router}
}
