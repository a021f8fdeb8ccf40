package router

import (
	"github.com/gin-gonic/gin"

	"tillpos/internal/config"
	"tillpos/internal/handler"
	"tillpos/internal/middleware"
)

type Handlers struct {
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Product *handler.ProductHandler
	Order   *handler.OrderHandler
	Shift   *handler.ShiftHandler
	Branch  *handler.BranchHandler
	Session *handler.SessionHandler
	Sync    *handler.SyncHandler
}

func New(cfg *config.Config, h Handlers) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigin))
	r.Use(middleware.ErrorHandler())

	r.GET("/health", h.Health.Health)

	api := r.Group("/api/v1")

	api.POST("/auth/login", middleware.LoginRateLimiter(), h.Auth.Login)

	auth := api.Group("")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	{
		auth.POST("/auth/logout", h.Auth.Logout)

		auth.GET("/session", h.Session.Current)
		auth.PUT("/session/branch", h.Session.SetBranch)
		auth.PUT("/session/cart", h.Session.SetCart)

		auth.GET("/products", h.Product.List)
		auth.GET("/branches", h.Branch.List)

		auth.POST("/shifts", h.Shift.Start)
		auth.POST("/shifts/:id/end", h.Shift.End)
		auth.GET("/shifts/active", h.Shift.Active)

		auth.POST("/orders", h.Order.Submit)
		auth.GET("/orders", h.Order.History)

		admin := auth.Group("")
		admin.Use(middleware.RequireRole("Admin"))
		{
			admin.POST("/products", h.Product.Save)
			admin.DELETE("/products/:id", h.Product.Delete)
			admin.POST("/products/:id/restock", h.Product.Restock)

			admin.POST("/branches", h.Branch.Create)

			admin.GET("/shifts", h.Shift.List)

			admin.POST("/users", h.Auth.CreateUser)
			admin.GET("/users", h.Auth.ListUsers)

			admin.GET("/sync/pending", h.Sync.Pending)
			admin.POST("/sync/run", h.Sync.Run)
		}
	}

	return r
}
