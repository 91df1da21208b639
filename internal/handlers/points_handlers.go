package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pointsdesk/pointsdesk-golang/internal/models"
)

//
// --- Points Ledger Helpers ---
//

// GetPointsBalance sums the ledger for one user. Accepts a Querier so
// a balance check inside a transaction sees the transaction's writes.
func (h *Handlers) GetPointsBalance(q Querier, userID int64) (int, error) {
	var balance sql.NullInt64
	err := q.QueryRow(
		"SELECT COALESCE(SUM(amount), 0) FROM points_transactions WHERE user_id = ?",
		userID,
	).Scan(&balance)
	if err != nil {
		return 0, err
	}
	return int(balance.Int64), nil
}

// AddPointsTransaction appends one ledger entry. Negative amounts
// deduct (redemptions, resets), positive amounts credit.
func (h *Handlers) AddPointsTransaction(q Querier, userID int64, txType string, amount int, notes string) error {
	_, err := q.Exec(`
		INSERT INTO points_transactions (user_id, tx_type, amount, notes, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		userID, txType, amount, notes, time.Now())
	return err
}

//
// --- Points Endpoints ---
//

// GetAccountPoints is the handler for GET /api/users/{id}/points/
// Returns the balance plus the most recent ledger entries.
func (h *Handlers) GetAccountPoints(c *gin.Context) {
	id := c.Param("id")

	var userID int64
	if err := h.DB.QueryRow("SELECT id FROM users WHERE id = ?", id).Scan(&userID); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	balance, err := h.GetPointsBalance(h.DB, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get points balance"})
		return
	}

	rows, err := h.DB.Query(`
		SELECT id, user_id, tx_type, amount, notes, created_at
		FROM points_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 20`, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get points history"})
		return
	}
	defer rows.Close()

	history := []models.PointsTransaction{}
	for rows.Next() {
		var tx models.PointsTransaction
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.TxType, &tx.Amount, &tx.Notes, &tx.CreatedAt); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan points history"})
			return
		}
		history = append(history, tx)
	}

	c.JSON(http.StatusOK, gin.H{
		"balance": balance,
		"history": history,
	})
}

// GrantPointsInput defines the JSON input for POST /api/users/{id}/points/
type GrantPointsInput struct {
	Amount int    `json:"amount" binding:"required"`
	Notes  string `json:"notes"`
}

// GrantPoints is the handler for POST /api/users/{id}/points/
// Superadmin-only manual adjustment (positive or negative).
func (h *Handlers) GrantPoints(c *gin.Context) {
	id := c.Param("id")

	var input GrantPointsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var userID int64
	if err := h.DB.QueryRow("SELECT id FROM users WHERE id = ?", id).Scan(&userID); err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	txType := models.PointsTxEarn
	if input.Amount < 0 {
		txType = models.PointsTxAdjust
	}
	if err := h.AddPointsTransaction(h.DB, userID, txType, input.Amount, input.Notes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add points transaction"})
		return
	}

	balance, err := h.GetPointsBalance(h.DB, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get points balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Points updated successfully",
		"balance": balance,
	})
}
