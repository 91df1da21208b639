package handlers

import (
	"database/sql"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pointsdesk/pointsdesk-golang/internal/models"
)

//
// --- Redemption Request Handlers ---
//

// RequestItemInput is one line of a new redemption request. Units is
// the quantity the multiplier applies to (square footage, invoice
// amount, days, EU SRP) and is ignored for fixed-pricing items.
type RequestItemInput struct {
	VariantCode string  `json:"variant_code" binding:"required"`
	Quantity    int     `json:"quantity" binding:"required,gt=0"`
	Units       float64 `json:"units" binding:"gte=0"`
}

// CreateRequestInput defines the JSON input for POST /api/redemption-requests/
type CreateRequestInput struct {
	RequestedFor string             `json:"requested_for" binding:"required"`
	Remarks      string             `json:"remarks"`
	Items        []RequestItemInput `json:"items" binding:"required,min=1"`
}

// CreateRedemptionRequest is the handler for POST /api/redemption-requests/
// Creates the header and all items in one transaction, totals the
// points server-side and commits catalogue stock for each line.
func (h *Handlers) CreateRedemptionRequest(c *gin.Context) {
	userID := currentUserID(c)

	// 1. --- Bind & Validate JSON ---
	var input CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Begin Transaction ---
	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	// 3. --- Resolve Items & Commit Stock ---
	now := time.Now()
	totalPoints := 0
	var resolved []models.RedemptionRequestItem

	for _, in := range input.Items {
		var item models.CatalogueItem
		err := tx.QueryRow(`
			SELECT id, item_code, item_name, pricing_type, points, multiplier,
			       stock, committed_stock, min_order_qty, max_order_qty
			FROM catalogue_items
			WHERE item_code = ? AND is_archived = ?`,
			in.VariantCode, false).Scan(
			&item.ID, &item.ItemCode, &item.ItemName, &item.PricingType,
			&item.Points, &item.Multiplier, &item.Stock, &item.CommittedStock,
			&item.MinOrderQty, &item.MaxOrderQty)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown or archived variant: " + in.VariantCode})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}

		// Order quantity limits apply to fixed-pricing items.
		if item.PricingType == models.PricingFixed {
			if in.Quantity < item.MinOrderQty {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity below minimum for " + item.ItemCode})
				return
			}
			if item.MaxOrderQty > 0 && in.Quantity > item.MaxOrderQty {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Quantity above maximum for " + item.ItemCode})
				return
			}
		}

		// Points per item: flat for FIXED, multiplier * units otherwise.
		pointsPerItem := item.Points
		if models.IsMultiplierPricing(item.PricingType) {
			if in.Units <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Units are required for " + item.ItemCode})
				return
			}
			pointsPerItem = int(math.Round(item.Multiplier * in.Units))
		}

		// Commit stock with a guard so two concurrent requests can
		// never oversell a variant.
		result, err := tx.Exec(`
			UPDATE catalogue_items
			SET committed_stock = committed_stock + ?, updated_at = ?
			WHERE id = ? AND stock - committed_stock >= ?`,
			in.Quantity, now, item.ID, in.Quantity)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit stock"})
			return
		}
		if n, _ := result.RowsAffected(); n == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Insufficient available stock for " + item.ItemCode})
			return
		}

		lineTotal := pointsPerItem * in.Quantity
		totalPoints += lineTotal
		resolved = append(resolved, models.RedemptionRequestItem{
			VariantCode:       item.ItemCode,
			CatalogueItemName: item.ItemName,
			Quantity:          in.Quantity,
			PointsPerItem:     pointsPerItem,
			TotalPoints:       lineTotal,
		})
	}

	// 4. --- Check the Requester Can Afford It ---
	balance, err := h.GetPointsBalance(tx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get points balance"})
		return
	}
	if balance < totalPoints {
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient points. Your balance is lower than the request total."})
		return
	}

	// 5. --- Insert Header + Items ---
	referenceNo := uuid.NewString()
	result, err := tx.Exec(`
		INSERT INTO redemption_requests
		(reference_no, requested_by, requested_by_name, requested_for,
		 status, sales_approval_status, marketing_approval_status, processing_status,
		 total_points, remarks, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		referenceNo, userID, actor(c), input.RequestedFor,
		models.StatusPending, models.StatusPending, models.StatusPending,
		models.ProcessingNotProcessed, totalPoints, input.Remarks, now, now)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create redemption request"})
		return
	}
	requestID, _ := result.LastInsertId()

	for _, item := range resolved {
		_, err := tx.Exec(`
			INSERT INTO redemption_request_items
			(request_id, variant_code, catalogue_item_name, quantity, points_per_item, total_points)
			VALUES (?, ?, ?, ?, ?, ?)`,
			requestID, item.VariantCode, item.CatalogueItemName,
			item.Quantity, item.PointsPerItem, item.TotalPoints)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create request item"})
			return
		}
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Redemption request created successfully",
		"id":           requestID,
		"reference_no": referenceNo,
		"total_points": totalPoints,
	})
}

// GetRedemptionRequests is the handler for GET /api/redemption-requests/
// Filters: status, processing_status, requested_by ("me" or an ID).
func (h *Handlers) GetRedemptionRequests(c *gin.Context) {
	var conds []string
	var args []interface{}

	if status := c.Query("status"); status != "" {
		conds = append(conds, "status = ?")
		args = append(args, status)
	}
	if ps := c.Query("processing_status"); ps != "" {
		conds = append(conds, "processing_status = ?")
		args = append(args, ps)
	}
	if by := c.Query("requested_by"); by != "" {
		if by == "me" {
			conds = append(conds, "requested_by = ?")
			args = append(args, currentUserID(c))
		} else {
			conds = append(conds, "requested_by = ?")
			args = append(args, by)
		}
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := h.DB.QueryRow("SELECT COUNT(*) FROM redemption_requests"+where, args...).Scan(&total); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count redemption requests"})
		return
	}

	page, pageSize, offset, totalPages := paginate(c, total)

	requests, err := h.queryRequests(where+" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		append(args, pageSize, offset)...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       total,
		"page":        page,
		"page_size":   pageSize,
		"total_pages": totalPages,
		"results":     requests,
	})
}

// GetRedemptionRequest is the handler for GET /api/redemption-requests/{id}/
func (h *Handlers) GetRedemptionRequest(c *gin.Context) {
	requests, err := h.queryRequests(" WHERE id = ?", c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database query failed"})
		return
	}
	if len(requests) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Redemption request not found"})
		return
	}

	request := requests[0]
	items, err := h.queryRequestItems(h.DB, request.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load request items"})
		return
	}
	request.Items = items

	c.JSON(http.StatusOK, request)
}

// ApproveRequestInput defines the JSON input for the approval endpoint.
type ApproveRequestInput struct {
	Leg string `json:"leg" binding:"required,oneof=sales marketing"`
}

// ApproveRequest is the handler for POST /api/redemption-requests/{id}/approve_request/
// Each leg (sales, marketing) approves independently; the overall
// status flips to APPROVED once both have approved.
func (h *Handlers) ApproveRequest(c *gin.Context) {
	id := c.Param("id")

	var input ApproveRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	column := "sales_approval_status"
	if input.Leg == models.ApprovalLegMarketing {
		column = "marketing_approval_status"
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	now := time.Now()

	// Guard: only a pending request with a pending leg can be approved.
	result, err := tx.Exec(`
		UPDATE redemption_requests
		SET `+column+` = ?, reviewed_by = ?, reviewed_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND `+column+` = ?`,
		models.StatusApproved, actor(c), now, now,
		id, models.StatusPending, models.StatusPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve request"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Request is not pending or this approval was already given"})
		return
	}

	// Flip the overall status once both legs have approved.
	if _, err := tx.Exec(`
		UPDATE redemption_requests
		SET status = ?, updated_at = ?
		WHERE id = ? AND sales_approval_status = ? AND marketing_approval_status = ?`,
		models.StatusApproved, now, id, models.StatusApproved, models.StatusApproved); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize approval"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Approval recorded successfully"})
}

// RejectRequestInput defines the JSON input for the reject endpoint.
type RejectRequestInput struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectRequest is the handler for POST /api/redemption-requests/{id}/reject_request/
// Rejection is terminal and releases the committed stock.
func (h *Handlers) RejectRequest(c *gin.Context) {
	id := c.Param("id")

	var input RejectRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(`
		UPDATE redemption_requests
		SET status = ?, rejection_reason = ?, reviewed_by = ?, reviewed_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		models.StatusRejected, input.Reason, actor(c), now, now,
		id, models.StatusPending)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject request"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Request not found or is no longer pending"})
		return
	}

	if err := h.releaseCommittedStock(tx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to release committed stock"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request rejected successfully"})
}

// MarkAsProcessed is the handler for POST /api/redemption-requests/{id}/mark_as_processed/
// Deducts the requester's points through the ledger and turns the
// committed stock into a real deduction, all in one transaction.
func (h *Handlers) MarkAsProcessed(c *gin.Context) {
	id := c.Param("id")

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	var requestedBy int64
	var referenceNo string
	var totalPoints int
	err = tx.QueryRow(`
		SELECT requested_by, reference_no, total_points
		FROM redemption_requests WHERE id = ?`, id).Scan(&requestedBy, &referenceNo, &totalPoints)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Redemption request not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	now := time.Now()
	result, err := tx.Exec(`
		UPDATE redemption_requests
		SET processing_status = ?, processed_by = ?, processed_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND processing_status = ?`,
		models.ProcessingProcessed, actor(c), now, now,
		id, models.StatusApproved, models.ProcessingNotProcessed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark request as processed"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Request is not approved or was already processed"})
		return
	}

	// Turn the commitment into a deduction per item.
	items, err := h.queryRequestItems(tx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load request items"})
		return
	}
	for _, item := range items {
		if _, err := tx.Exec(`
			UPDATE catalogue_items
			SET stock = stock - ?, committed_stock = committed_stock - ?, updated_at = ?
			WHERE item_code = ?`,
			item.Quantity, item.Quantity, now, item.VariantCode); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deduct stock"})
			return
		}
	}

	// Deduct the points through the ledger.
	notes := "Redemption request " + referenceNo + " processed"
	if err := h.AddPointsTransaction(tx, requestedBy, models.PointsTxRedeem, -totalPoints, notes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deduct points"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request marked as processed"})
}

// CancelRequestInput defines the JSON input for the cancel endpoint.
type CancelRequestInput struct {
	Remarks string `json:"remarks" binding:"required"`
}

// CancelRequest is the handler for POST /api/redemption-requests/{id}/cancel_request/
// Cancels an approved-but-unprocessed request and releases its stock.
func (h *Handlers) CancelRequest(c *gin.Context) {
	id := c.Param("id")

	var input CancelRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(`
		UPDATE redemption_requests
		SET processing_status = ?, remarks = ?, cancelled_by = ?, cancelled_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND processing_status = ?`,
		models.ProcessingCancelled, input.Remarks, actor(c), now, now,
		id, models.StatusApproved, models.ProcessingNotProcessed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel request"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Request is not approved or was already processed"})
		return
	}

	if err := h.releaseCommittedStock(tx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to release committed stock"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request cancelled successfully"})
}

// WithdrawRequestInput defines the JSON input for the withdraw endpoint.
type WithdrawRequestInput struct {
	Reason string `json:"reason"`
}

// WithdrawRequest is the handler for POST /api/redemption-requests/{id}/withdraw_request/
// Requester-initiated: only their own request, only while it is still
// pending and the sales leg has not approved.
func (h *Handlers) WithdrawRequest(c *gin.Context) {
	id := c.Param("id")
	userID := currentUserID(c)

	var input WithdrawRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := h.DB.Begin()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	defer tx.Rollback()

	// The WHERE clause is exactly the CanWithdraw guard plus ownership.
	now := time.Now()
	result, err := tx.Exec(`
		UPDATE redemption_requests
		SET status = ?, withdrawal_reason = ?, withdrawn_at = ?, updated_at = ?
		WHERE id = ? AND requested_by = ? AND status = ? AND sales_approval_status != ?`,
		models.StatusRejected, input.Reason, now, now,
		id, userID, models.StatusPending, models.StatusApproved)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to withdraw request"})
		return
	}
	if n, _ := result.RowsAffected(); n == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Request can no longer be withdrawn"})
		return
	}

	if err := h.releaseCommittedStock(tx, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to release committed stock"})
		return
	}

	if err := tx.Commit(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit transaction"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Request withdrawn successfully"})
}

//
// --- Query Helpers ---
//

// queryRequests runs a SELECT with the standard column list and the
// given suffix, deriving the allowed actions for every row.
func (h *Handlers) queryRequests(suffix string, args ...interface{}) ([]models.RedemptionRequest, error) {
	query := `
		SELECT id, reference_no, requested_by, requested_by_name, requested_for,
		       status, sales_approval_status, marketing_approval_status, processing_status,
		       total_points, remarks, rejection_reason, withdrawal_reason,
		       reviewed_by, reviewed_at, processed_by, processed_at,
		       cancelled_by, cancelled_at, withdrawn_at, created_at, updated_at
		FROM redemption_requests` + suffix

	rows, err := h.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []models.RedemptionRequest{}
	for rows.Next() {
		var r models.RedemptionRequest
		if err := rows.Scan(
			&r.ID, &r.ReferenceNo, &r.RequestedBy, &r.RequestedByName, &r.RequestedFor,
			&r.Status, &r.SalesApprovalStatus, &r.MarketingApprovalStatus, &r.ProcessingStatus,
			&r.TotalPoints, &r.Remarks, &r.RejectionReason, &r.WithdrawalReason,
			&r.ReviewedBy, &r.ReviewedAt, &r.ProcessedBy, &r.ProcessedAt,
			&r.CancelledBy, &r.CancelledAt, &r.WithdrawnAt, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		r.DeriveActions()
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// queryRequestItems loads the items of one request. Accepts a Querier
// so the transition handlers can read inside their transaction.
func (h *Handlers) queryRequestItems(q Querier, requestID interface{}) ([]models.RedemptionRequestItem, error) {
	rows, err := q.Query(`
		SELECT id, request_id, variant_code, catalogue_item_name, quantity, points_per_item, total_points
		FROM redemption_request_items
		WHERE request_id = ?
		ORDER BY id ASC`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.RedemptionRequestItem{}
	for rows.Next() {
		var item models.RedemptionRequestItem
		if err := rows.Scan(&item.ID, &item.RequestID, &item.VariantCode, &item.CatalogueItemName,
			&item.Quantity, &item.PointsPerItem, &item.TotalPoints); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// releaseCommittedStock gives back the stock committed by a request
// when it is rejected, cancelled or withdrawn.
func (h *Handlers) releaseCommittedStock(tx *sql.Tx, requestID string) error {
	items, err := h.queryRequestItems(tx, requestID)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, item := range items {
		if _, err := tx.Exec(`
			UPDATE catalogue_items
			SET committed_stock = committed_stock - ?, updated_at = ?
			WHERE item_code = ? AND committed_stock >= ?`,
			item.Quantity, now, item.VariantCode, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}
