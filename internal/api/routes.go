package api

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rawblock/tametsi-solver/internal/driver"
)

// APIHandler holds everything the HTTP layer needs to drive a Driver and
// report catalog/solver state to callers.
type APIHandler struct {
	drv   *driver.Driver
	wsHub *Hub
}

// SetupRouter wires the puzzle catalog and solver driver behind a gin
// router, grouping routes into CORS-wrapped public endpoints and
// bearer-authenticated, rate-limited endpoints.
func SetupRouter(drv *driver.Driver, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var.
	// Production: ALLOWED_ORIGINS=https://example.com
	// Development: leave empty for *.
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{drv: drv, wsHub: wsHub}

	// ── Public endpoints (no auth) ─────────────────────────────
	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", wsHub.Subscribe)
		pub.GET("/catalog", handler.handleCatalog)
	}

	// ── Protected endpoints (require bearer token if API_AUTH_TOKEN set) ──
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	auth.Use(NewRateLimiter(30, 5).Middleware())
	{
		auth.POST("/puzzles/:name/load", handler.handleLoad)
		auth.POST("/solve/step", handler.handleStep)
		auth.POST("/solve/run", handler.handleRun)
		auth.POST("/solve/stop", handler.handleStop)
	}

	return r
}

// handleHealth reports service status for load balancers and dashboards.
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "tametsi-solver",
	})
}

// handleCatalog returns the puzzle names found by the most recent catalog
// scan.
func (h *APIHandler) handleCatalog(c *gin.Context) {
	listings := h.drv.Listings()
	names := make([]string, 0, len(listings))
	for _, l := range listings {
		names = append(names, l.Name)
	}
	c.JSON(http.StatusOK, gin.H{"puzzles": names})
}

// handleLoad resolves :name against the catalog and asks the driver to load
// it, replacing any puzzle currently in progress.
func (h *APIHandler) handleLoad(c *gin.Context) {
	name := c.Param("name")
	listing, ok := h.drv.Find(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such puzzle", "name": name})
		return
	}
	h.drv.Commands <- driver.LoadCommand{Listing: listing}
	c.JSON(http.StatusAccepted, gin.H{"status": "loading", "name": name})
}

// handleStep advances the loaded solver by exactly one Step.
func (h *APIHandler) handleStep(c *gin.Context) {
	h.drv.Commands <- driver.StepCommand{}
	c.JSON(http.StatusAccepted, gin.H{"status": "stepping"})
}

// handleRun puts the driver into continuous-stepping mode until the solver
// reaches a terminal result or a Stop command arrives.
func (h *APIHandler) handleRun(c *gin.Context) {
	h.drv.Commands <- driver.RunCommand{}
	c.JSON(http.StatusAccepted, gin.H{"status": "running"})
}

// handleStop leaves continuous-stepping mode without unloading the solver.
func (h *APIHandler) handleStop(c *gin.Context) {
	h.drv.Commands <- driver.StopCommand{}
	c.JSON(http.StatusAccepted, gin.H{"status": "stopped"})
}
