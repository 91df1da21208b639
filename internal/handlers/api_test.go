package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pointsdesk/pointsdesk-golang/internal/database"
	"github.com/pointsdesk/pointsdesk-golang/internal/handlers"
	"github.com/pointsdesk/pointsdesk-golang/internal/models"
	"github.com/pointsdesk/pointsdesk-golang/internal/routes"
)

// setupTestServer builds the full router over an in-memory database,
// seeds the bootstrap superadmin and returns its bearer token. The
// seed goes straight into the users table because account creation
// itself requires a superadmin token.
func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.NewTestDB(t)
	h := &handlers.Handlers{DB: db}
	server := httptest.NewServer(routes.SetupRouter(h))
	t.Cleanup(server.Close)

	var password models.Password
	if err := password.Set("password123"); err != nil {
		t.Fatalf("hashing seed password: %v", err)
	}
	now := time.Now()
	_, err := db.Exec(`
		INSERT INTO users
		(username, full_name, email, password_hash, position, is_activated, is_banned, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		"admin", "Site Admin", "admin@pointsdesk.test", password.Hash,
		models.PositionSuperadmin, true, false, now, now)
	if err != nil {
		t.Fatalf("seeding superadmin: %v", err)
	}

	return server, login(t, server, "admin", "password123")
}

func login(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(server.URL+"/login/", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatal("empty token from login")
	}
	return token
}

func doJSON(t *testing.T, method, url, token string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var bodyReader *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}

	var decoded map[string]interface{}
	data := new(bytes.Buffer)
	data.ReadFrom(resp.Body)
	resp.Body.Close()
	json.Unmarshal(data.Bytes(), &decoded)
	return resp, decoded
}

func createAgent(t *testing.T, server *httptest.Server, adminToken, username string) int64 {
	t.Helper()

	resp, body := doJSON(t, "POST", server.URL+"/api/users/", adminToken, map[string]interface{}{
		"username":  username,
		"full_name": "Agent " + username,
		"email":     username + "@pointsdesk.test",
		"password":  "password123",
		"position":  models.PositionSalesAgent,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating agent %s: %d %v", username, resp.StatusCode, body)
	}
	return int64(body["id"].(float64))
}

func TestLoginEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	// Wrong password.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/login/", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Missing field fails validation before any lookup.
	body, _ = json.Marshal(map[string]string{"username": "admin"})
	resp, _ = http.Post(server.URL+"/login/", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAccountsSearchPagination(t *testing.T) {
	server, adminToken := setupTestServer(t)

	for i := 1; i <= 10; i++ {
		createAgent(t, server, adminToken, fmt.Sprintf("agent-%02d", i))
	}

	// 10 matches at the default page size of 7 => 2 pages.
	resp, body := doJSON(t, "GET", server.URL+"/api/users/?search=agent-", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list accounts: %d", resp.StatusCode)
	}
	if count := int(body["count"].(float64)); count != 10 {
		t.Errorf("expected count 10, got %d", count)
	}
	if pages := int(body["total_pages"].(float64)); pages != 2 {
		t.Errorf("expected 2 pages, got %d", pages)
	}
	if results := body["results"].([]interface{}); len(results) != 7 {
		t.Errorf("expected 7 rows on page 1, got %d", len(results))
	}

	// Page 2 holds the remaining 3.
	_, body = doJSON(t, "GET", server.URL+"/api/users/?search=agent-&page=2", adminToken, nil)
	if results := body["results"].([]interface{}); len(results) != 3 {
		t.Errorf("expected 3 rows on page 2, got %d", len(results))
	}

	// An out-of-range page clamps instead of returning an empty page.
	_, body = doJSON(t, "GET", server.URL+"/api/users/?search=agent-&page=99", adminToken, nil)
	if page := int(body["page"].(float64)); page != 2 {
		t.Errorf("expected clamp to page 2, got %d", page)
	}
	if results := body["results"].([]interface{}); len(results) != 3 {
		t.Errorf("expected clamped page to hold 3 rows, got %d", len(results))
	}
}

func TestCreateAccountValidation(t *testing.T) {
	server, adminToken := setupTestServer(t)

	// Missing email must fail validation and write nothing.
	resp, _ := doJSON(t, "POST", server.URL+"/api/users/", adminToken, map[string]interface{}{
		"username":  "incomplete",
		"full_name": "No Email",
		"password":  "password123",
		"position":  models.PositionSalesAgent,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing email, got %d", resp.StatusCode)
	}

	_, body := doJSON(t, "GET", server.URL+"/api/users/?search=incomplete", adminToken, nil)
	if count := int(body["count"].(float64)); count != 0 {
		t.Errorf("expected no account written, found %d", count)
	}
}

func TestBanLifecycle(t *testing.T) {
	server, adminToken := setupTestServer(t)
	agentID := createAgent(t, server, adminToken, "bannable")

	// Ban for 7 days; the server computes both dates.
	resp, body := doJSON(t, "PUT", fmt.Sprintf("%s/api/users/%d/ban/", server.URL, agentID), adminToken,
		map[string]string{"reason": "Policy violation", "message": "Banned for a week", "duration": "7"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ban: %d %v", resp.StatusCode, body)
	}

	banDate, err := time.Parse(time.RFC3339, body["ban_date"].(string))
	if err != nil {
		t.Fatalf("parsing ban_date: %v", err)
	}
	unbanDate, err := time.Parse(time.RFC3339, body["unban_date"].(string))
	if err != nil {
		t.Fatalf("parsing unban_date: %v", err)
	}
	if got := unbanDate.Sub(banDate); got != 7*24*time.Hour {
		t.Errorf("expected a 7 day ban window, got %v", got)
	}

	// Banned accounts cannot log in.
	loginBody, _ := json.Marshal(map[string]string{"username": "bannable", "password": "password123"})
	loginResp, _ := http.Post(server.URL+"/login/", "application/json", bytes.NewReader(loginBody))
	if loginResp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for banned login, got %d", loginResp.StatusCode)
	}
	loginResp.Body.Close()

	// Unban restores access.
	resp, _ = doJSON(t, "PUT", fmt.Sprintf("%s/api/users/%d/unban/", server.URL, agentID), adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unban: %d", resp.StatusCode)
	}
	login(t, server, "bannable", "password123")
}

func TestSalesAgentCannotManageAccounts(t *testing.T) {
	server, adminToken := setupTestServer(t)
	createAgent(t, server, adminToken, "limited")
	agentToken := login(t, server, "limited", "password123")

	resp, _ := doJSON(t, "POST", server.URL+"/api/users/", agentToken, map[string]interface{}{
		"username":  "sneaky",
		"full_name": "Sneaky",
		"email":     "sneaky@pointsdesk.test",
		"password":  "password123",
		"position":  models.PositionSuperadmin,
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for sales agent creating accounts, got %d", resp.StatusCode)
	}
}

// createCatalogueItem seeds one fixed-pricing variant and returns its row ID.
func createCatalogueItem(t *testing.T, server *httptest.Server, adminToken, code string, points, stock int) int64 {
	t.Helper()

	resp, body := doJSON(t, "POST", server.URL+"/api/catalogue/", adminToken, map[string]interface{}{
		"item_name":    "Item " + code,
		"description":  "Test item",
		"legend":       models.LegendMerch,
		"pricing_type": models.PricingFixed,
		"variants": []map[string]interface{}{
			{"item_code": code, "points": points, "price": 9.99, "stock": stock},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("creating catalogue item %s: %d %v", code, resp.StatusCode, body)
	}
	ids := body["ids"].([]interface{})
	return int64(ids[0].(float64))
}

func TestCatalogueFlow(t *testing.T) {
	server, adminToken := setupTestServer(t)

	// One catalogue item with two variants.
	resp, body := doJSON(t, "POST", server.URL+"/api/catalogue/", adminToken, map[string]interface{}{
		"item_name":    "Branded Mug",
		"description":  "Ceramic mug",
		"legend":       models.LegendMerch,
		"pricing_type": models.PricingFixed,
		"variants": []map[string]interface{}{
			{"item_code": "mug-white", "points": 150, "price": 9.99, "stock": 10},
			{"item_code": "mug-black", "points": 180, "price": 11.99, "stock": 5},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create catalogue item: %d %v", resp.StatusCode, body)
	}
	ids := body["ids"].([]interface{})
	if len(ids) != 2 {
		t.Fatalf("expected 2 variant IDs, got %d", len(ids))
	}
	firstID := int64(ids[0].(float64))

	// Both variants on one page; no next/previous links.
	_, body = doJSON(t, "GET", server.URL+"/api/catalogue/", adminToken, nil)
	if count := int(body["count"].(float64)); count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}
	if body["next"] != nil || body["previous"] != nil {
		t.Errorf("expected null next/previous on a single page, got %v / %v", body["next"], body["previous"])
	}

	// Grouped listing nests both variants under one parent.
	_, body = doJSON(t, "GET", server.URL+"/api/catalogue/grouped/", adminToken, nil)
	groups := body["results"].([]interface{})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	variants := groups[0].(map[string]interface{})["variants"].([]interface{})
	if len(variants) != 2 {
		t.Errorf("expected 2 variants in group, got %d", len(variants))
	}

	// Archive one variant; the default listing hides it.
	resp, _ = doJSON(t, "PATCH", fmt.Sprintf("%s/api/catalogue/%d/", server.URL, firstID), adminToken,
		map[string]bool{"is_archived": true})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("archive: %d", resp.StatusCode)
	}

	_, body = doJSON(t, "GET", server.URL+"/api/catalogue/", adminToken, nil)
	if count := int(body["count"].(float64)); count != 1 {
		t.Errorf("expected 1 visible variant after archiving, got %d", count)
	}
	_, body = doJSON(t, "GET", server.URL+"/api/catalogue/?include_archived=true", adminToken, nil)
	if count := int(body["count"].(float64)); count != 2 {
		t.Errorf("expected 2 variants with include_archived, got %d", count)
	}

	// Archiving the same row twice is a no-op conflict.
	resp, _ = doJSON(t, "PATCH", fmt.Sprintf("%s/api/catalogue/%d/", server.URL, firstID), adminToken,
		map[string]bool{"is_archived": true})
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for double archive, got %d", resp.StatusCode)
	}
}

func TestExportValidation(t *testing.T) {
	server, adminToken := setupTestServer(t)
	createCatalogueItem(t, server, adminToken, "mug-1", 150, 10)

	// No columns selected: rejected before any file is generated.
	resp, body := doJSON(t, "POST", server.URL+"/api/catalogue/export/", adminToken,
		map[string]interface{}{"format": "excel", "columns": []string{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty columns, got %d %v", resp.StatusCode, body)
	}

	// A valid selection produces an XLSX (zip) payload.
	req, _ := http.NewRequest("POST", server.URL+"/api/catalogue/export/",
		bytes.NewReader([]byte(`{"format":"excel","columns":["item_code","points"]}`)))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	req.Header.Set("Content-Type", "application/json")
	fileResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("export request: %v", err)
	}
	defer fileResp.Body.Close()
	if fileResp.StatusCode != http.StatusOK {
		t.Fatalf("export: %d", fileResp.StatusCode)
	}
	data := new(bytes.Buffer)
	data.ReadFrom(fileResp.Body)
	if !bytes.HasPrefix(data.Bytes(), []byte("PK")) {
		t.Error("expected zip magic bytes in XLSX export")
	}
}

func TestRedemptionLifecycle(t *testing.T) {
	server, adminToken := setupTestServer(t)
	itemID := createCatalogueItem(t, server, adminToken, "mug-1", 150, 10)

	agentID := createAgent(t, server, adminToken, "redeemer")
	agentToken := login(t, server, "redeemer", "password123")

	// Fund the agent.
	resp, _ := doJSON(t, "POST", fmt.Sprintf("%s/api/users/%d/points/", server.URL, agentID), adminToken,
		map[string]interface{}{"amount": 1000, "notes": "Quarterly allocation"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("granting points: %d", resp.StatusCode)
	}

	// Agent raises a request for 2 mugs = 300 points.
	resp, body := doJSON(t, "POST", server.URL+"/api/redemption-requests/", agentToken,
		map[string]interface{}{
			"requested_for": "Acme Hardware",
			"items": []map[string]interface{}{
				{"variant_code": "mug-1", "quantity": 2},
			},
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create request: %d %v", resp.StatusCode, body)
	}
	requestID := int64(body["id"].(float64))
	if total := int(body["total_points"].(float64)); total != 300 {
		t.Errorf("expected total 300 points, got %d", total)
	}

	// Creation committed the stock.
	_, item := doJSON(t, "GET", fmt.Sprintf("%s/api/catalogue/%d/", server.URL, itemID), adminToken, nil)
	if committed := int(item["committed_stock"].(float64)); committed != 2 {
		t.Errorf("expected 2 committed, got %d", committed)
	}
	if available := int(item["available_stock"].(float64)); available != 8 {
		t.Errorf("expected 8 available, got %d", available)
	}

	// Pending + sales not approved: withdrawal is offered.
	_, body = doJSON(t, "GET", fmt.Sprintf("%s/api/redemption-requests/%d/", server.URL, requestID), agentToken, nil)
	actions := body["allowed_actions"].(map[string]interface{})
	if actions["can_withdraw"] != true {
		t.Error("expected pending request to allow withdrawal")
	}

	// Sales approval closes the withdrawal window.
	resp, _ = doJSON(t, "POST", fmt.Sprintf("%s/api/redemption-requests/%d/approve_request/", server.URL, requestID),
		adminToken, map[string]string{"leg": "sales"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sales approval: %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, "POST", fmt.Sprintf("%s/api/redemption-requests/%d/withdraw_request/", server.URL, requestID),
		agentToken, map[string]string{"reason": "Changed my mind"})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 withdrawing after sales approval, got %d", resp.StatusCode)
	}

	// Marketing approval flips the overall status.
	resp, _ = doJSON(t, "POST", fmt.Sprintf("%s/api/redemption-requests/%d/approve_request/", server.URL, requestID),
		adminToken, map[string]string{"leg": "marketing"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("marketing approval: %d", resp.StatusCode)
	}
	_, body = doJSON(t, "GET", fmt.Sprintf("%s/api/redemption-requests/%d/", server.URL, requestID), adminToken, nil)
	if body["status"] != models.StatusApproved {
		t.Errorf("expected APPROVED after both legs, got %v", body["status"])
	}

	// Processing deducts points and stock.
	resp, _ = doJSON(t, "POST", fmt.Sprintf("%s/api/redemption-requests/%d/mark_as_processed/", server.URL, requestID),
		adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark as processed: %d", resp.StatusCode)
	}

	_, points := doJSON(t, "GET", fmt.Sprintf("%s/api/users/%d/points/", server.URL, agentID), adminToken, nil)
	if balance := int(points["balance"].(float64)); balance != 700 {
		t.Errorf("expected balance 700 after processing, got %d", balance)
	}

	_, item = doJSON(t, "GET", fmt.Sprintf("%s/api/catalogue/%d/", server.URL, itemID), adminToken, nil)
	if stock := int(item["stock"].(float64)); stock != 8 {
		t.Errorf("expected stock 8 after processing, got %d", stock)
	}
	if committed := int(item["committed_stock"].(float64)); committed != 0 {
		t.Errorf("expected 0 committed after processing, got %d", committed)
	}

	// A second processing attempt loses the guard race on purpose.
	resp, _ = doJSON(t, "POST", fmt.Sprintf("%s/api/redemption-requests/%d/mark_as_processed/", server.URL, requestID),
		adminToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for double processing, got %d", resp.StatusCode)
	}
}

func TestWithdrawReleasesStock(t *testing.T) {
	server, adminToken := setupTestServer(t)
	itemID := createCatalogueItem(t, server, adminToken, "cap-1", 50, 4)

	agentID := createAgent(t, server, adminToken, "withdrawer")
	agentToken := login(t, server, "withdrawer", "password123")
	doJSON(t, "POST", fmt.Sprintf("%s/api/users/%d/points/", server.URL, agentID), adminToken,
		map[string]interface{}{"amount": 500})

	resp, body := doJSON(t, "POST", server.URL+"/api/redemption-requests/", agentToken,
		map[string]interface{}{
			"requested_for": "Acme Hardware",
			"items":         []map[string]interface{}{{"variant_code": "cap-1", "quantity": 3}},
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create request: %d %v", resp.StatusCode, body)
	}
	requestID := int64(body["id"].(float64))

	resp, _ = doJSON(t, "POST", fmt.Sprintf("%s/api/redemption-requests/%d/withdraw_request/", server.URL, requestID),
		agentToken, map[string]string{"reason": "Ordered too many"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("withdraw: %d", resp.StatusCode)
	}

	_, item := doJSON(t, "GET", fmt.Sprintf("%s/api/catalogue/%d/", server.URL, itemID), adminToken, nil)
	if committed := int(item["committed_stock"].(float64)); committed != 0 {
		t.Errorf("expected committed stock released, got %d", committed)
	}
}

func TestReviewEndpointsRequireSuperadmin(t *testing.T) {
	server, adminToken := setupTestServer(t)
	createCatalogueItem(t, server, adminToken, "mug-1", 100, 10)

	agentID := createAgent(t, server, adminToken, "self-approver")
	agentToken := login(t, server, "self-approver", "password123")
	doJSON(t, "POST", fmt.Sprintf("%s/api/users/%d/points/", server.URL, agentID), adminToken,
		map[string]interface{}{"amount": 500})

	resp, body := doJSON(t, "POST", server.URL+"/api/redemption-requests/", agentToken,
		map[string]interface{}{
			"requested_for": "Acme Hardware",
			"items":         []map[string]interface{}{{"variant_code": "mug-1", "quantity": 1}},
		})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create request: %d %v", resp.StatusCode, body)
	}
	requestID := int64(body["id"].(float64))

	// The requester cannot approve either leg of their own request.
	for _, leg := range []string{"sales", "marketing"} {
		resp, _ = doJSON(t, "POST",
			fmt.Sprintf("%s/api/redemption-requests/%d/approve_request/", server.URL, requestID),
			agentToken, map[string]string{"leg": leg})
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected 403 for agent approving leg %s, got %d", leg, resp.StatusCode)
		}
	}
	resp, _ = doJSON(t, "POST",
		fmt.Sprintf("%s/api/redemption-requests/%d/reject_request/", server.URL, requestID),
		agentToken, map[string]string{"reason": "nope"})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for agent rejecting, got %d", resp.StatusCode)
	}

	// Nothing moved.
	_, body = doJSON(t, "GET",
		fmt.Sprintf("%s/api/redemption-requests/%d/", server.URL, requestID), adminToken, nil)
	if body["status"] != models.StatusPending {
		t.Errorf("expected request still PENDING, got %v", body["status"])
	}
	if body["sales_approval_status"] != models.StatusPending {
		t.Errorf("expected sales leg still PENDING, got %v", body["sales_approval_status"])
	}

	// Raising requests is the agent's side of the workflow.
	resp, _ = doJSON(t, "POST", server.URL+"/api/redemption-requests/", adminToken,
		map[string]interface{}{
			"requested_for": "Acme Hardware",
			"items":         []map[string]interface{}{{"variant_code": "mug-1", "quantity": 1}},
		})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for superadmin creating a request, got %d", resp.StatusCode)
	}
}

func TestWithdrawnDistinctFromRejected(t *testing.T) {
	server, adminToken := setupTestServer(t)
	createCatalogueItem(t, server, adminToken, "cap-1", 50, 10)

	agentID := createAgent(t, server, adminToken, "labeler")
	agentToken := login(t, server, "labeler", "password123")
	doJSON(t, "POST", fmt.Sprintf("%s/api/users/%d/points/", server.URL, agentID), adminToken,
		map[string]interface{}{"amount": 500})

	newRequest := func() int64 {
		resp, body := doJSON(t, "POST", server.URL+"/api/redemption-requests/", agentToken,
			map[string]interface{}{
				"requested_for": "Acme Hardware",
				"items":         []map[string]interface{}{{"variant_code": "cap-1", "quantity": 1}},
			})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create request: %d %v", resp.StatusCode, body)
		}
		return int64(body["id"].(float64))
	}

	rejectedID := newRequest()
	withdrawnID := newRequest()

	resp, _ := doJSON(t, "POST",
		fmt.Sprintf("%s/api/redemption-requests/%d/reject_request/", server.URL, rejectedID),
		adminToken, map[string]string{"reason": "Out of budget"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reject: %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, "POST",
		fmt.Sprintf("%s/api/redemption-requests/%d/withdraw_request/", server.URL, withdrawnID),
		agentToken, map[string]string{"reason": "Changed my mind"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("withdraw: %d", resp.StatusCode)
	}

	// Both rows carry status REJECTED, but the derived label keeps a
	// requester withdrawal distinguishable from a review rejection.
	_, body := doJSON(t, "GET",
		fmt.Sprintf("%s/api/redemption-requests/%d/", server.URL, rejectedID), adminToken, nil)
	if body["status"] != models.StatusRejected || body["display_status"] != "Rejected" {
		t.Errorf("rejected request: status %v, display_status %v", body["status"], body["display_status"])
	}
	_, body = doJSON(t, "GET",
		fmt.Sprintf("%s/api/redemption-requests/%d/", server.URL, withdrawnID), adminToken, nil)
	if body["status"] != models.StatusRejected || body["display_status"] != "Withdrawn" {
		t.Errorf("withdrawn request: status %v, display_status %v", body["status"], body["display_status"])
	}
}

func TestInsufficientStockRejected(t *testing.T) {
	server, adminToken := setupTestServer(t)
	createCatalogueItem(t, server, adminToken, "rare-1", 10, 1)

	agentID := createAgent(t, server, adminToken, "greedy")
	agentToken := login(t, server, "greedy", "password123")
	doJSON(t, "POST", fmt.Sprintf("%s/api/users/%d/points/", server.URL, agentID), adminToken,
		map[string]interface{}{"amount": 500})

	resp, _ := doJSON(t, "POST", server.URL+"/api/redemption-requests/", agentToken,
		map[string]interface{}{
			"requested_for": "Acme Hardware",
			"items":         []map[string]interface{}{{"variant_code": "rare-1", "quantity": 2}},
		})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for insufficient stock, got %d", resp.StatusCode)
	}
}

func TestResetAllPoints(t *testing.T) {
	server, adminToken := setupTestServer(t)
	agentID := createAgent(t, server, adminToken, "pointed")

	doJSON(t, "POST", fmt.Sprintf("%s/api/users/%d/points/", server.URL, agentID), adminToken,
		map[string]interface{}{"amount": 350})

	// Wrong password: re-authentication fails, nothing written.
	resp, _ := doJSON(t, "POST", server.URL+"/api/dashboard/reset_all_points/", adminToken,
		map[string]string{"password": "not-my-password"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", resp.StatusCode)
	}
	_, points := doJSON(t, "GET", fmt.Sprintf("%s/api/users/%d/points/", server.URL, agentID), adminToken, nil)
	if balance := int(points["balance"].(float64)); balance != 350 {
		t.Errorf("expected balance untouched after failed reset, got %d", balance)
	}

	// Correct password zeroes every balance.
	resp, body := doJSON(t, "POST", server.URL+"/api/dashboard/reset_all_points/", adminToken,
		map[string]string{"password": "password123"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reset: %d %v", resp.StatusCode, body)
	}
	_, points = doJSON(t, "GET", fmt.Sprintf("%s/api/users/%d/points/", server.URL, agentID), adminToken, nil)
	if balance := int(points["balance"].(float64)); balance != 0 {
		t.Errorf("expected balance 0 after reset, got %d", balance)
	}
}

func TestDashboardStats(t *testing.T) {
	server, adminToken := setupTestServer(t)
	createCatalogueItem(t, server, adminToken, "mug-1", 100, 10)

	agentID := createAgent(t, server, adminToken, "reporter")
	agentToken := login(t, server, "reporter", "password123")
	doJSON(t, "POST", fmt.Sprintf("%s/api/users/%d/points/", server.URL, agentID), adminToken,
		map[string]interface{}{"amount": 500})
	doJSON(t, "POST", server.URL+"/api/redemption-requests/", agentToken,
		map[string]interface{}{
			"requested_for": "Acme Hardware",
			"items":         []map[string]interface{}{{"variant_code": "mug-1", "quantity": 1}},
		})

	_, body := doJSON(t, "GET", server.URL+"/api/dashboard/stats/", adminToken, nil)
	stats := body["stats"].(map[string]interface{})
	if pending := int(stats["pending_requests"].(float64)); pending != 1 {
		t.Errorf("expected 1 pending request, got %d", pending)
	}
	// Superadmin + agent are both on board.
	if onboard := int(stats["onboard_accounts"].(float64)); onboard != 2 {
		t.Errorf("expected 2 onboard accounts, got %d", onboard)
	}
	if rows := body["pending_requests"].([]interface{}); len(rows) != 1 {
		t.Errorf("expected 1 pending table row, got %d", len(rows))
	}
}
