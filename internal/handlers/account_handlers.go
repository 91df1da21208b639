package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pointsdesk/pointsdesk-golang/internal/models"
)

//
// --- Account CRUD Handlers ---
//

// CreateAccountInput defines the JSON input for POST /api/users/
// Separate from models.Account so a client can never set an ID or
// ban fields on creation.
type CreateAccountInput struct {
	Username    string `json:"username" binding:"required"`
	FullName    string `json:"full_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Position    string `json:"position" binding:"required,oneof=SUPERADMIN SALES_AGENT"`
	IsActivated *bool  `json:"is_activated"`
}

// CreateAccount is the handler for POST /api/users/
func (h *Handlers) CreateAccount(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input CreateAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	activated := true
	if input.IsActivated != nil {
		activated = *input.IsActivated
	}

	// 3. --- Insert ---
	now := time.Now()
	result, err := h.DB.Exec(`
		INSERT INTO users
		(username, full_name, email, password_hash, position, is_activated, is_banned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		input.Username, input.FullName, input.Email, password.Hash,
		input.Position, activated, false, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "Duplicate") {
			c.JSON(http.StatusConflict, gin.H{"error": "Username is already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	id, _ := result.LastInsertId()
	account, err := h.getAccount(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load created account"})
		return
	}

	c.JSON(http.StatusCreated, account)
}

// GetAccounts is the handler for GET /api/users/
// Supports search over username/full name/email plus page/page_size.
func (h *Handlers) GetAccounts(c *gin.Context) {
	search := c.Query("search")

	// 1. --- Count Matching Rows ---
	where := ""
	var args []interface{}
	if search != "" {
		where = " WHERE username LIKE ? OR full_name LIKE ? OR email LIKE ?"
		term := "%" + search + "%"
		args = append(args, term, term, term)
	}

	var total int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count accounts"})
		return
	}

	page, pageSize, offset, totalPages := paginate(c, total)

	// 2. --- Fetch Page ---
	query := `
		SELECT id, username, full_name, email, position, is_activated,
		       is_banned, ban_reason, ban_message, ban_duration, ban_date, unban_date,
		       created_at, updated_at
		FROM users` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(
			&a.ID, &a.Username, &a.FullName, &a.Email, &a.Position, &a.IsActivated,
			&a.IsBanned, &a.BanReason, &a.BanMessage, &a.BanDuration, &a.BanDate, &a.UnbanDate,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan account row"})
			return
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error iterating account rows"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
		"results":     accounts,
	})
}

// UpdateAccountInput defines the JSON input for PUT /api/users/{id}/
type UpdateAccountInput struct {
	Username    *string `json:"username"`
	FullName    *string `json:"full_name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Password    *string `json:"password" binding:"omitempty,min=8"`
	Position    *string `json:"position" binding:"omitempty,oneof=SUPERADMIN SALES_AGENT"`
	IsActivated *bool   `json:"is_activated"`
}

// UpdateAccount is the handler for PUT /api/users/{id}/
func (h *Handlers) UpdateAccount(c *gin.Context) {
	id := c.Param("id")

	var input UpdateAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Build the SET clause from the provided fields only.
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now()}

	if input.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, *input.Username)
	}
	if input.FullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, *input.FullName)
	}
	if input.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, *input.Email)
	}
	if input.Position != nil {
		sets = append(sets, "position = ?")
		args = append(args, *input.Position)
	}
	if input.IsActivated != nil {
		sets = append(sets, "is_activated = ?")
		args = append(args, *input.IsActivated)
	}
	if input.Password != nil {
		var password models.Password
		if err := password.Set(*input.Password); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		sets = append(sets, "password_hash = ?")
		args = append(args, password.Hash)
	}

	args = append(args, id)
	result, err := h.DB.Exec("UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update account"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account updated successfully"})
}

// BanAccountInput defines the JSON input for PUT /api/users/{id}/ban/
// The server computes ban_date and unban_date from the duration so no
// client ever writes its own dates.
type BanAccountInput struct {
	Reason   string `json:"reason" binding:"required"`
	Message  string `json:"message"`
	Duration string `json:"duration" binding:"required,oneof=1 7 30 PERMANENT"`
}

// BanAccount is the handler for PUT /api/users/{id}/ban/
func (h *Handlers) BanAccount(c *gin.Context) {
	id := c.Param("id")

	// 1. --- Bind & Validate JSON ---
	var input BanAccountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Compute the Ban Window (UTC) ---
	banDate, unbanDate, err := models.BanWindow(input.Duration, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 3. --- Update ---
	result, err := h.DB.Exec(`
		UPDATE users
		SET is_banned = ?, ban_reason = ?, ban_message = ?, ban_duration = ?,
		    ban_date = ?, unban_date = ?, updated_at = ?
		WHERE id = ?`,
		true, input.Reason, input.Message, input.Duration,
		banDate, unbanDate, time.Now(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to ban account"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Account banned successfully",
		"ban_date":   banDate,
		"unban_date": unbanDate,
	})
}

// UnbanAccount is the handler for PUT /api/users/{id}/unban/
func (h *Handlers) UnbanAccount(c *gin.Context) {
	id := c.Param("id")

	result, err := h.DB.Exec(`
		UPDATE users
		SET is_banned = ?, ban_reason = NULL, ban_message = NULL,
		    ban_duration = NULL, ban_date = NULL, unban_date = NULL,
		    updated_at = ?
		WHERE id = ? AND is_banned = ?`,
		false, time.Now(), id, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unban account"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found or not banned"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account unbanned successfully"})
}

// DeleteAccount is the handler for DELETE /api/users/{id}/
// Accounts are hard-deleted; their points ledger goes with them.
func (h *Handlers) DeleteAccount(c *gin.Context) {
	id := c.Param("id")

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	result, err := tx.Exec("DELETE FROM users WHERE id = ?", id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	if _, err := tx.Exec("DELETE FROM points_transactions WHERE user_id = ?", id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete points ledger"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

// getAccount loads one account row by ID.
func (h *Handlers) getAccount(id int64) (*models.Account, error) {
	var a models.Account
	err := h.DB.QueryRow(`
		SELECT id, username, full_name, email, position, is_activated,
		       is_banned, ban_reason, ban_message, ban_duration, ban_date, unban_date,
		       created_at, updated_at
		FROM users WHERE id = ?`, id).Scan(
		&a.ID, &a.Username, &a.FullName, &a.Email, &a.Position, &a.IsActivated,
		&a.IsBanned, &a.BanReason, &a.BanMessage, &a.BanDuration, &a.BanDate, &a.UnbanDate,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
