package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/painpoint-labs/painpoint/internal/infrastructure/http/middleware"
	"github.com/painpoint-labs/painpoint/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	meetingHandler *Meeting
	graphHandler   *Graph
	commandHandler *Command
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, meetingHandler *Meeting, graphHandler *Graph, commandHandler *Command) *Router {
	return &Router{
		cfg:            cfg,
		meetingHandler: meetingHandler,
		graphHandler:   graphHandler,
		commandHandler: commandHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check stays outside the API key gate
	e.GET("/health", rt.healthCheck)

	v1 := e.Group("/v1", middleware.APIKey(rt.cfg.Server.APIKey))

	rt.setupMeetingRoutes(v1)
	rt.setupGraphRoutes(v1)

	v1.GET("/cmd", rt.commandHandler.Run)
}

func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	meetings := g.Group("/meetings")
	meetings.POST("", rt.meetingHandler.CreateMeeting)
	meetings.GET("/:id/status", rt.meetingHandler.GetMeetingStatus)
}

func (rt *Router) setupGraphRoutes(g *echo.Group) {
	opportunities := g.Group("/opportunities")
	opportunities.GET("/recent", rt.graphHandler.RecentOpportunities)
	opportunities.GET("/:id", rt.graphHandler.GetOpportunity)

	themes := g.Group("/themes")
	themes.GET("", rt.graphHandler.ListThemes)
	themes.GET("/:name/top-opportunities", rt.graphHandler.TopOpportunities)

	g.GET("/graph", rt.graphHandler.GetGraph)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().UTC().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}
