package handlers

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pointsdesk/pointsdesk-golang/internal/auth"
	"github.com/pointsdesk/pointsdesk-golang/internal/models"
)

// LoginInput defines the JSON input for POST /login/
type LoginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /login/
// On success it returns the account's position so the dashboard knows
// which navigation shell to render.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Find User By Username ---
	var account models.Account
	query := `
		SELECT id, username, password_hash, position, is_activated,
		       is_banned, ban_message, unban_date
		FROM users WHERE username = ?`

	err := h.DB.QueryRow(query, input.Username).Scan(
		&account.ID,
		&account.Username,
		&account.PasswordHash,
		&account.Position,
		&account.IsActivated,
		&account.IsBanned,
		&account.BanMessage,
		&account.UnbanDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// 3. --- Check Account State ---
	if !account.IsActivated {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account has not been activated yet."})
		return
	}

	if account.IsBanned {
		// Timed bans are lifted lazily here as well as by the
		// background sweeper, so an expired ban never blocks a login.
		if account.BanExpired(time.Now()) {
			if err := h.liftBan(account.ID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to lift expired ban"})
				return
			}
		} else {
			msg := "Your account has been banned."
			if account.BanMessage != nil && *account.BanMessage != "" {
				msg = *account.BanMessage
			}
			c.JSON(http.StatusForbidden, gin.H{"error": msg})
			return
		}
	}

	// 4. --- Check Password ---
	var password models.Password
	password.Hash = account.PasswordHash

	match, err := password.Matches(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check password"})
		return
	}
	if !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	// 5. --- Generate JWT ---
	token, err := auth.GenerateToken(account.ID, account.Position)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	// 6. --- Send Success Response ---
	c.JSON(http.StatusOK, gin.H{
		"message":  "Login successful",
		"position": account.Position,
		"token":    token,
	})
}

// liftBan clears all ban fields on an account.
func (h *Handlers) liftBan(userID int64) error {
	_, err := h.DB.Exec(`
		UPDATE users
		SET is_banned = ?, ban_reason = NULL, ban_message = NULL,
		    ban_duration = NULL, ban_date = NULL, unban_date = NULL,
		    updated_at = ?
		WHERE id = ?`,
		false, time.Now(), userID)
	return err
}

// SweepExpiredBans lifts every timed ban whose unban date has passed.
// Called by the background worker in main.
func (h *Handlers) SweepExpiredBans() {
	result, err := h.DB.Exec(`
		UPDATE users
		SET is_banned = ?, ban_reason = NULL, ban_message = NULL,
		    ban_duration = NULL, ban_date = NULL, unban_date = NULL,
		    updated_at = ?
		WHERE is_banned = ? AND unban_date IS NOT NULL AND unban_date <= ?`,
		false, time.Now(), true, time.Now().UTC())
	if err != nil {
		return
	}
	if n, err := result.RowsAffected(); err == nil && n > 0 {
		// Visible in the server log so expired bans are auditable.
		log.Printf("Lifted %d expired ban(s)", n)
	}
}
