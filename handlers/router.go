package handlers

import (
	"github.com/labstack/echo/v4"

	mw "github.com/padraicbc/racingdb/middleware"
	"github.com/padraicbc/racingdb/models"
)

// Routes registers the API and the health check on e.
func (h *Handler) Routes(e *echo.Echo) {
	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.GET("", h.Welcome)
	api.RouteNotFound("/*", h.RouteNotFound)

	// Public
	guest := api.Group("/guest")
	guest.GET("/owner/:lname/horses", h.OwnerHorsesTrainers)
	guest.GET("/owner/horses", h.OwnerHorsesTrainers)
	guest.GET("/trainers/winners", h.TrainersWithWins)
	guest.GET("/trainers/winnings", h.TrainerTotalWinnings)
	guest.GET("/tracks/stats", h.TrackStats)

	// Protected when ADMIN_AUTH is on
	var guard []echo.MiddlewareFunc
	if h.opts.AdminAuth {
		api.POST("/signin", h.Signin)
		guard = append(guard, mw.JWT(h.opts.JWTKey), mw.RequireRole(models.RoleAdmin))
	}
	admin := api.Group("/admin", guard...)
	admin.POST("/race", h.AddRace)
	admin.POST("/race/result", h.AddRaceResult)
	admin.DELETE("/owner/:ownerId", h.DeleteOwner)
	admin.PUT("/horse/:horseId/stable", h.MoveHorseToStable)
	admin.POST("/trainer", h.ApproveTrainer)
	admin.GET("/horse/:horseId", h.HorseInfo)
	if h.opts.AdminAuth {
		admin.POST("/password-hash", h.PasswordHash)
	}
}
