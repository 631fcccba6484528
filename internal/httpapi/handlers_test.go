package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"swiftpos/backend/internal/cache"
	"swiftpos/backend/internal/checkout"
	"swiftpos/backend/internal/service"
	"swiftpos/backend/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path. Sales
// settle locally through the service.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, cache.NoopCatalogCache{}, time.Second)
	sessions := checkout.NewManager(svc, svc)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, sessions, auth, "*")
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func login(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (body: %s)", username, rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	token, _ := body["accessToken"].(string)
	if token == "" {
		t.Fatalf("expected accessToken in login response, got %v", body)
	}
	return token
}

func TestHandleHealth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	handler := newTestAPI(t).Handler()

	var last int
	for i := 0; i < 6; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"username": "admin",
			"password": "wrong",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after repeated attempts, got %d", last)
	}
}

func TestProductsRequireAuth(t *testing.T) {
	handler := newTestAPI(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestListProductsAsCashier(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/products", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	products, ok := body["products"].([]any)
	if !ok || len(products) == 0 {
		t.Fatalf("expected seeded product list, got %v", body)
	}
}

func TestProductCreateForbiddenForCashier(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", token, map[string]any{
		"sku":        "NEW-01",
		"name":       "New Thing",
		"price":      "1.00",
		"categoryId": 1,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestProductCrudAsAdmin(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/products", token, map[string]any{
		"sku":           "BEV-TEA-01",
		"name":          "Green Tea",
		"price":         "9.90",
		"stockQuantity": 10,
		"categoryId":    1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	created := decodeBody(t, rec)["product"].(map[string]any)
	id := int64(created["id"].(float64))

	rec = doJSON(t, handler, http.MethodPatch, fmt.Sprintf("/api/v1/products/%d", id), token, map[string]any{
		"price": "10.50",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", id), token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestCheckoutFlowEndToEnd(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/checkout/sessions", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("open session: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	session := decodeBody(t, rec)["session"].(map[string]any)
	sessionID := session["id"].(string)

	base := "/api/v1/checkout/sessions/" + sessionID

	// Same product twice: one line, quantity 2.
	for i := 0; i < 2; i++ {
		rec = doJSON(t, handler, http.MethodPost, base+"/items", token, map[string]any{"productId": 1})
		if rec.Code != http.StatusOK {
			t.Fatalf("add item: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
		}
	}
	view := decodeBody(t, rec)["session"].(map[string]any)
	lines := view["lines"].([]any)
	if len(lines) != 1 {
		t.Fatalf("expected 1 deduplicated line, got %d", len(lines))
	}
	if qty := lines[0].(map[string]any)["quantity"].(float64); qty != 2 {
		t.Fatalf("expected quantity 2, got %v", qty)
	}

	rec = doJSON(t, handler, http.MethodPatch, base, token, map[string]any{
		"customerId":    1,
		"paymentMethod": "pix",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set customer: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, base+"/finish", token, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("finish: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	sale := decodeBody(t, rec)["sale"].(map[string]any)
	if sale["status"] != "COMPLETED" {
		t.Fatalf("expected COMPLETED sale, got %v", sale)
	}
	if sale["total"] != "29.8" {
		t.Fatalf("expected total 29.8, got %v", sale["total"])
	}
}

func TestCheckoutFinishWithoutCustomerReturnsValidation(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/checkout/sessions", token, nil)
	sessionID := decodeBody(t, rec)["session"].(map[string]any)["id"].(string)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/checkout/sessions/"+sessionID+"/finish", token, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	preconditions, ok := body["preconditions"].([]any)
	if !ok || len(preconditions) != 2 {
		t.Fatalf("expected both preconditions reported, got %v", body)
	}
}

func TestCheckoutUnknownSession(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/checkout/sessions/nope", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSaleCancelRequiresAdmin(t *testing.T) {
	handler := newTestAPI(t).Handler()
	adminToken := login(t, handler, "admin", "admin123")
	cashierToken := login(t, handler, "cashier", "cashier123")

	// Create a sale through a checkout session first.
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/checkout/sessions", cashierToken, nil)
	sessionID := decodeBody(t, rec)["session"].(map[string]any)["id"].(string)
	base := "/api/v1/checkout/sessions/" + sessionID
	doJSON(t, handler, http.MethodPost, base+"/items", cashierToken, map[string]any{"productId": 2})
	doJSON(t, handler, http.MethodPatch, base, cashierToken, map[string]any{"customerId": 1})
	rec = doJSON(t, handler, http.MethodPost, base+"/finish", cashierToken, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("finish: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	saleID := decodeBody(t, rec)["sale"].(map[string]any)["id"].(string)

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/sales/"+saleID+"/cancel", cashierToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cashier cancel: expected 403, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/sales/"+saleID+"/cancel", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin cancel: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if got := decodeBody(t, rec)["sale"].(map[string]any)["status"]; got != "CANCELED" {
		t.Fatalf("expected CANCELED, got %v", got)
	}
}

func TestDirectSaleSubmission(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"items": []map[string]any{
			{"productId": 2, "quantity": 3, "unitPrice": "2.50"},
		},
		"customerId":    1,
		"paymentMethod": "cash",
		"status":        "COMPLETED",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	// The response is the bare sale object, as salesapi.Client expects.
	sale := decodeBody(t, rec)
	if sale["status"] != "COMPLETED" || sale["total"] != "7.5" {
		t.Fatalf("unexpected sale response: %v", sale)
	}
}

func TestDirectSaleSubmissionStockConflict(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "cashier", "cashier123")

	// Product 12 is seeded with zero stock.
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"items": []map[string]any{
			{"productId": 12, "quantity": 1, "unitPrice": "3.90"},
		},
		"customerId":    1,
		"paymentMethod": "card",
		"status":        "COMPLETED",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestDashboardForbiddenForCashier(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "cashier", "cashier123")

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/reports/dashboard", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestDashboardAsAdmin(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/reports/dashboard?from=2026-08-01&to=2026-08-28", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if _, ok := decodeBody(t, rec)["report"]; !ok {
		t.Fatalf("expected report in response")
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	handler := newTestAPI(t).Handler()
	token := login(t, handler, "admin", "admin123")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/customers", token, map[string]any{
		"name":     "Ana",
		"surprise": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}
