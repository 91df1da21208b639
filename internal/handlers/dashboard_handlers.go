package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pointsdesk/pointsdesk-golang/internal/models"
)

//
// --- Dashboard Stats ---
//

type DashboardStats struct {
	PendingRequests  int `json:"pending_requests"`
	ApprovedRequests int `json:"approved_requests"`
	OnboardAccounts  int `json:"onboard_accounts"`
}

// GetDashboardStats is the handler for GET /api/dashboard/stats/
// Returns the three KPI counters plus the pending-requests table.
func (h *Handlers) GetDashboardStats(c *gin.Context) {
	stats := DashboardStats{}

	// 1. Pending Requests Count
	err := h.DB.QueryRow(
		"SELECT COUNT(*) FROM redemption_requests WHERE status = ?",
		models.StatusPending,
	).Scan(&stats.PendingRequests)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count pending requests"})
		return
	}

	// 2. Approved Requests Count
	err = h.DB.QueryRow(
		"SELECT COUNT(*) FROM redemption_requests WHERE status = ?",
		models.StatusApproved,
	).Scan(&stats.ApprovedRequests)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count approved requests"})
		return
	}

	// 3. On-Board Accounts Count (activated and not banned)
	err = h.DB.QueryRow(
		"SELECT COUNT(*) FROM users WHERE is_activated = ? AND is_banned = ?",
		true, false,
	).Scan(&stats.OnboardAccounts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count accounts"})
		return
	}

	// 4. Pending Requests Table
	pending, err := h.queryRequests(
		" WHERE status = ? ORDER BY created_at ASC LIMIT 20",
		models.StatusPending,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load pending requests"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":            stats,
		"pending_requests": pending,
	})
}

//
// --- Reset All Points ---
//

// ResetAllPointsInput defines the JSON input for the reset endpoint.
// The password re-authenticates the calling superadmin.
type ResetAllPointsInput struct {
	Password string `json:"password" binding:"required"`
}

// ResetAllPoints is the handler for POST /api/dashboard/reset_all_points/
// Writes one compensating RESET ledger entry per account with a
// non-zero balance, bringing every balance to exactly zero.
func (h *Handlers) ResetAllPoints(c *gin.Context) {
	userID := currentUserID(c)

	// 1. --- Bind & Validate JSON ---
	var input ResetAllPointsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Re-Authenticate the Caller ---
	var password models.Password
	err := h.DB.QueryRow("SELECT password_hash FROM users WHERE id = ?", userID).Scan(&password.Hash)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	match, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check password"})
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
		return
	}

	// 3. --- Write Compensating Entries ---
	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT user_id, SUM(amount)
		FROM points_transactions
		GROUP BY user_id
		HAVING SUM(amount) != 0`)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read balances"})
		return
	}

	type balanceRow struct {
		userID  int64
		balance int
	}
	var balances []balanceRow
	for rows.Next() {
		var row balanceRow
		if err := rows.Scan(&row.userID, &row.balance); err != nil {
			rows.Close()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan balances"})
			return
		}
		balances = append(balances, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating balances"})
		return
	}

	for _, row := range balances {
		err := h.AddPointsTransaction(tx, row.userID, models.PointsTxReset, -row.balance,
			"All points reset by "+actor(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write reset transaction"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "All points reset to zero",
		"accounts_reset": len(balances),
	})
}
