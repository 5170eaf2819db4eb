package app

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"ridehail/internal/domain"
	"ridehail/internal/handler"
	"ridehail/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	RideHandler      *handler.RideHandler
	DriverHandler    *handler.DriverHandler
	CarTypeHandler   *handler.CarTypeHandler
	IdempotencyStore middleware.IdempotencyStore // nil disables replay protection
	NewRelicApp      *newrelic.Application
	JWTSecret        []byte
	AllowedOrigins   []string
	Logger           *slog.Logger
}

var strictBinding sync.Once

// NewRouter creates a new Gin router with all routes registered.
// Request bodies with fields the API does not know are rejected.
func NewRouter(deps RouterDeps) *gin.Engine {
	strictBinding.Do(func() { binding.EnableDecoderDisallowUnknownFields = true })

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
		router.Use(middleware.NoticeErrors())
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	v1.Use(middleware.Auth(deps.JWTSecret))
	if deps.IdempotencyStore != nil {
		v1.Use(middleware.Idempotency(deps.IdempotencyStore, deps.Logger))
	}

	rider := middleware.RequireRoles(domain.RoleUser)
	driver := middleware.RequireRoles(domain.RoleDriver)

	{
		rides := v1.Group("/rides")
		rides.POST("", rider, deps.RideHandler.CreateRide)
		rides.GET("", rider, deps.RideHandler.ListRides)
		rides.GET("/:id", middleware.RequireRoles(domain.RoleUser, domain.RoleDriver, domain.RoleSuperAdmin), deps.RideHandler.GetRide)
		rides.POST("/:id/cancel", rider, deps.RideHandler.CancelRide)

		v1.POST("/fares/estimate", rider, deps.RideHandler.EstimateFares)
	}

	{
		drivers := v1.Group("/drivers", driver)
		drivers.POST("/register", deps.DriverHandler.Register)

		me := drivers.Group("/me")
		me.PUT("/vehicle", deps.DriverHandler.RegisterVehicle)
		me.GET("/rides/open", deps.DriverHandler.ListOpenRides)
		me.POST("/rides/:id/accept", deps.DriverHandler.AcceptRide)
		me.POST("/rides/:id/start", deps.DriverHandler.StartJourney)
		me.POST("/rides/:id/complete", deps.DriverHandler.CompleteRide)
		me.POST("/rides/:id/cancel", deps.DriverHandler.CancelRide)
	}

	{
		carTypes := v1.Group("/car-types")
		carTypes.GET("", deps.CarTypeHandler.List)
		carTypes.PUT("/:comfort", middleware.RequireRoles(domain.RoleSuperAdmin), deps.CarTypeHandler.Upsert)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{"Idempotent-Replayed"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
