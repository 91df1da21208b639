package routes

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/pointsdesk/pointsdesk-golang/internal/handlers"
	"github.com/pointsdesk/pointsdesk-golang/internal/middleware"
)

// CORSMiddleware tells the browser the dashboard origin may call us.
func CORSMiddleware() gin.HandlerFunc {
	origin := os.Getenv("CORS_ORIGIN")
	if origin == "" {
		origin = "http://localhost:5173"
	}

	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Reply to the browser's preflight check with 204.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	// CORS must run before everything else.
	router.Use(CORSMiddleware())

	// --- Ping Route (Public) ---
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong!"})
	})

	// --- Auth Routes (Public) ---
	router.POST("/login/", h.Login)

	// --- Protected Routes (Login Required) ---
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(h.DB))
	{
		// --- Catalogue (read for every role) ---
		api.GET("/catalogue/", h.GetCatalogue)
		api.GET("/catalogue/grouped/", h.GetCatalogueGrouped)
		api.GET("/catalogue/:id/", h.GetCatalogueItem)

		// --- Redemption Requests (read) ---
		api.GET("/redemption-requests/", h.GetRedemptionRequests)
		api.GET("/redemption-requests/:id/", h.GetRedemptionRequest)

		// --- Points (read) ---
		api.GET("/users/:id/points/", h.GetAccountPoints)

		// --- Dashboard Stats ---
		api.GET("/dashboard/stats/", h.GetDashboardStats)

		// --- Inventory ---
		api.GET("/inventory/", h.GetInventory)

		// --- Sales-Agent-Only Routes ---
		// Requests are raised and withdrawn by the agent redeeming the
		// points; reviewing them is the superadmin's job below.
		agent := api.Group("/")
		agent.Use(middleware.SalesAgentMiddleware())
		{
			agent.POST("/redemption-requests/", h.CreateRedemptionRequest)
			agent.POST("/redemption-requests/:id/withdraw_request/", h.WithdrawRequest)
		}

		// --- Superadmin-Only Routes ---
		admin := api.Group("/")
		admin.Use(middleware.SuperadminMiddleware())
		{
			// Accounts
			admin.GET("/users/", h.GetAccounts)
			admin.POST("/users/", h.CreateAccount)
			admin.PUT("/users/:id/", h.UpdateAccount)
			admin.DELETE("/users/:id/", h.DeleteAccount)
			admin.PUT("/users/:id/ban/", h.BanAccount)
			admin.PUT("/users/:id/unban/", h.UnbanAccount)
			admin.POST("/users/:id/points/", h.GrantPoints)

			// Catalogue mutations + export
			admin.POST("/catalogue/", h.CreateCatalogueItem)
			admin.POST("/catalogue/export/", h.ExportCatalogue)
			admin.PUT("/catalogue/:id/", h.UpdateCatalogueItem)
			admin.PATCH("/catalogue/:id/", h.PatchCatalogueItem)
			admin.DELETE("/catalogue/:id/", h.DeleteCatalogueItem)

			// Redemption review + processing
			admin.POST("/redemption-requests/:id/approve_request/", h.ApproveRequest)
			admin.POST("/redemption-requests/:id/reject_request/", h.RejectRequest)
			admin.POST("/redemption-requests/:id/mark_as_processed/", h.MarkAsProcessed)
			admin.POST("/redemption-requests/:id/cancel_request/", h.CancelRequest)

			// Inventory mutations
			admin.POST("/inventory/", h.CreateInventoryItem)
			admin.PUT("/inventory/:id/", h.UpdateInventoryItem)
			admin.DELETE("/inventory/:id/", h.DeleteInventoryItem)

			// Destructive reset, guarded by password re-entry
			admin.POST("/dashboard/reset_all_points/", h.ResetAllPoints)
		}
	}

	return router
}
