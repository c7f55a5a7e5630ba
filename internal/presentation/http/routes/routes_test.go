package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/config"
	"github.com/sangkips/investify-pos/internal/domain/checkout"
	"github.com/sangkips/investify-pos/internal/infrastructure/memory"
	"github.com/sangkips/investify-pos/internal/infrastructure/seed"
	"github.com/sangkips/investify-pos/internal/infrastructure/txretry"
	"github.com/sangkips/investify-pos/internal/presentation/http/handler"
	"github.com/sangkips/investify-pos/internal/presentation/http/middleware"
	"github.com/sangkips/investify-pos/pkg/metrics"
	"github.com/sangkips/investify-pos/pkg/printer"
	"github.com/sangkips/investify-pos/pkg/utils"
)

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Kind      string          `json:"kind"`
	Retryable bool            `json:"retryable"`
	Data      json.RawMessage `json:"data"`
	Detail    json.RawMessage `json:"detail"`
}

type sessionData struct {
	Session struct {
		ID            uuid.UUID `json:"id"`
		Step          string    `json:"step"`
		ReceiptNumber string    `json:"receipt_number"`
		Lines         []struct {
			ItemID   uuid.UUID `json:"item_id"`
			Quantity int       `json:"quantity"`
		} `json:"lines"`
		Totals struct {
			Total string `json:"total"`
		} `json:"totals"`
	} `json:"session"`
	Warnings []struct {
		Code string `json:"code"`
	} `json:"warnings"`
	Transition *struct {
		Step       string `json:"step"`
		Redirected bool   `json:"redirected"`
		Reason     string `json:"reason"`
	} `json:"transition"`
	Outcome *struct {
		Simulated bool `json:"simulated"`
		Receipt   struct {
			ID            uuid.UUID `json:"id"`
			ReceiptNumber string    `json:"receipt_number"`
			Total         string    `json:"total"`
		} `json:"receipt"`
	} `json:"outcome"`
}

type testServer struct {
	t        *testing.T
	router   *gin.Engine
	store    *memory.Store
	printer  *printer.BufferPrinter
	business uuid.UUID
	token    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	business := uuid.New()
	store := memory.NewSeededStore(txretry.Policy{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}, nil, business)
	inventory := service.NewInventoryService(store.Products(), store.Customers())
	receipts := service.NewReceiptService(store.Receipts())
	checkoutService := service.NewCheckoutService(store, nil, nil, nil, 5*time.Second)
	guard := checkout.NewGuard(utils.NewReceiptNumberGenerator("RCP", true).Next)
	sessions := service.NewSessionService(memory.NewSessionStore(time.Hour), store.Receipts(), inventory, checkoutService, guard, service.SessionServiceConfig{}, nil)
	buf := printer.NewBufferPrinter()
	printerService := service.NewPrinterService(buf, receipts, service.ReceiptHeader{StoreName: "Duka"}, printer.TypeNone, nil)

	jwt := utils.NewJWTManager("test-secret", time.Hour, "")
	token, err := jwt.GenerateAccessToken(uuid.New(), business, "Till 1", []string{"cashier"})
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	reg := prometheus.NewRegistry()
	router := Setup(&Handlers{
		POS:     handler.NewPOSHandler(sessions, inventory, printerService),
		Receipt: handler.NewReceiptHandler(receipts),
		Printer: handler.NewPrinterHandler(printerService),
	}, &Deps{
		JWTManager:      jwt,
		Cfg:             &config.Config{App: config.AppConfig{Name: "investify-pos"}},
		IdempotencyRepo: memory.NewIdempotencyRepository(),
		RateLimiter:     middleware.NewBusinessRateLimiter(middleware.RateLimiterConfig{RequestsPerSecond: 1000, BurstSize: 1000}),
		Metrics:         metrics.NewServerMetrics(reg),
		Gatherer:        reg,
		Simulated:       true,
	})

	return &testServer{t: t, router: router, store: store, printer: buf, business: business, token: token}
}

func (s *testServer) do(method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) session(env envelope) sessionData {
	s.t.Helper()
	var data sessionData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		s.t.Fatalf("decode session: %v (%s)", err, env.Data)
	}
	return data
}

func (s *testServer) open() uuid.UUID {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/api/v1/pos/sessions", nil)
	if w.Code != http.StatusCreated {
		s.t.Fatalf("open: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return s.session(env).Session.ID
}

func (s *testServer) stock(code string) int {
	s.t.Helper()
	w, env := s.do(http.MethodGet, "/api/v1/pos/products/"+seed.ProductID(s.business, code).String(), nil)
	if w.Code != http.StatusOK {
		s.t.Fatalf("product: expected 200, got %d", w.Code)
	}
	var p struct {
		Stock int `json:"stock"`
	}
	_ = json.Unmarshal(env.Data, &p)
	return p.Stock
}

func TestRequiresToken(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	w, _ := s.do(http.MethodPost, "/api/v1/pos/sessions", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestCheckoutOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.open()
	base := "/api/v1/pos/sessions/" + id.String()

	w, env := s.do(http.MethodPost, base+"/lines", map[string]interface{}{
		"product_id": seed.ProductID(s.business, "BLN-001"),
		"quantity":   2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("add line: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// no payment yet: review redirects
	_, env = s.do(http.MethodPost, base+"/steps/reviewing", nil)
	data := s.session(env)
	if data.Transition == nil || !data.Transition.Redirected || data.Transition.Step != "setting_payment" {
		t.Fatalf("expected redirect to setting_payment, got %+v", data.Transition)
	}

	s.do(http.MethodPut, base+"/payment", map[string]string{"payment_method": "cash"})
	s.do(http.MethodPut, base+"/discount", map[string]string{"amount": "200"})
	_, env = s.do(http.MethodPut, base+"/tax", map[string]string{"percent": "7.5"})
	if total := s.session(env).Session.Totals.Total; total != "1935" {
		t.Errorf("expected total 1935, got %s", total)
	}

	_, env = s.do(http.MethodPost, base+"/steps/reviewing", nil)
	data = s.session(env)
	if data.Transition.Redirected || data.Session.ReceiptNumber == "" {
		t.Fatalf("expected review with a receipt number, got %+v", data)
	}
	number := data.Session.ReceiptNumber

	w, _ = s.do(http.MethodPost, base+"/commit", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("commit without idempotency key: expected 400, got %d", w.Code)
	}

	w, env = s.do(http.MethodPost, base+"/commit", map[string]bool{"print": true}, middleware.IdempotencyKeyHeader, "commit-1")
	if w.Code != http.StatusCreated {
		t.Fatalf("commit: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data = s.session(env)
	if data.Outcome == nil || data.Outcome.Receipt.ReceiptNumber != number || !data.Outcome.Simulated {
		t.Fatalf("unexpected outcome %+v", data.Outcome)
	}
	if data.Session.Step != "completed" || len(data.Session.Lines) != 0 {
		t.Errorf("expected a reset flow on completed, got %+v", data.Session)
	}
	first := w.Body.String()

	replay, _ := s.do(http.MethodPost, base+"/commit", nil, middleware.IdempotencyKeyHeader, "commit-1")
	if replay.Header().Get(middleware.ReplayedHeader) != "true" || replay.Body.String() != first {
		t.Errorf("expected the stored response to be replayed, got %d %s", replay.Code, replay.Body.String())
	}
	if got := s.stock("BLN-001"); got != 8 {
		t.Errorf("expected stock 8 after one sale, got %d", got)
	}
	if len(s.printer.Jobs()) != 1 {
		t.Errorf("expected one print job, got %d", len(s.printer.Jobs()))
	}

	w, _ = s.do(http.MethodGet, "/api/v1/receipts/number/"+number, nil)
	if w.Code != http.StatusOK {
		t.Errorf("receipt by number: expected 200, got %d", w.Code)
	}

	w, env = s.do(http.MethodPost, "/api/v1/receipts/"+data.Outcome.Receipt.ID.String()+"/print", nil)
	var printed struct {
		Printed bool `json:"printed"`
	}
	_ = json.Unmarshal(env.Data, &printed)
	if w.Code != http.StatusOK || !printed.Printed || len(s.printer.Jobs()) != 2 {
		t.Errorf("reprint: expected a second job, got %d %s", w.Code, w.Body.String())
	}
}

func TestInsufficientStockOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.open()
	base := "/api/v1/pos/sessions/" + id.String()

	s.do(http.MethodPost, base+"/lines", map[string]interface{}{"product_id": seed.ProductID(s.business, "TEA-250"), "quantity": 3})
	s.do(http.MethodPut, base+"/payment", map[string]string{"payment_method": "mobile_money"})
	s.do(http.MethodPost, base+"/steps/reviewing", nil)

	// a second till sells the last units first
	other := s.open()
	otherBase := "/api/v1/pos/sessions/" + other.String()
	s.do(http.MethodPost, otherBase+"/lines", map[string]interface{}{"product_id": seed.ProductID(s.business, "TEA-250"), "quantity": 2})
	s.do(http.MethodPut, otherBase+"/payment", map[string]string{"payment_method": "cash"})
	s.do(http.MethodPost, otherBase+"/steps/reviewing", nil)
	if w, _ := s.do(http.MethodPost, otherBase+"/commit", nil, middleware.IdempotencyKeyHeader, "other"); w.Code != http.StatusCreated {
		t.Fatalf("competing commit: expected 201, got %d", w.Code)
	}

	w, env := s.do(http.MethodPost, base+"/commit", nil, middleware.IdempotencyKeyHeader, "mine")
	if w.Code != http.StatusConflict || env.Kind != "insufficient_stock" {
		t.Fatalf("expected 409 insufficient_stock, got %d %s", w.Code, env.Kind)
	}
	var shortages []struct {
		Available int `json:"available"`
		Requested int `json:"requested"`
	}
	if err := json.Unmarshal(env.Detail, &shortages); err != nil || len(shortages) != 1 || shortages[0].Available != 1 {
		t.Errorf("unexpected detail %s", env.Detail)
	}

	// the failure is not stored: the same key may retry
	w, _ = s.do(http.MethodPost, base+"/commit", nil, middleware.IdempotencyKeyHeader, "mine")
	if w.Header().Get(middleware.ReplayedHeader) == "true" {
		t.Error("failed commits must not be replayed")
	}
}

func TestAddLineWarnsOnStockLimit(t *testing.T) {
	s := newTestServer(t)
	id := s.open()

	w, env := s.do(http.MethodPost, "/api/v1/pos/sessions/"+id.String()+"/lines", map[string]interface{}{
		"product_id": seed.ProductID(s.business, "TEA-250"),
		"quantity":   5,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := s.session(env)
	if len(data.Warnings) != 1 || data.Warnings[0].Code != "stock_limit_reached" || data.Session.Lines[0].Quantity != 3 {
		t.Errorf("expected clamped line with warning, got %+v", data)
	}

	w, env = s.do(http.MethodPost, "/api/v1/pos/sessions/"+id.String()+"/lines", map[string]interface{}{
		"product_id": seed.ProductID(s.business, "MLK-500"),
		"quantity":   1,
	})
	if w.Code != http.StatusConflict || env.Kind != "out_of_stock" {
		t.Errorf("expected 409 out_of_stock, got %d %s", w.Code, env.Kind)
	}
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)
	id := s.open()
	base := "/api/v1/pos/sessions/" + id.String()

	w, env := s.do(http.MethodPut, base+"/payment", map[string]string{"payment_method": "barter"})
	if w.Code != http.StatusUnprocessableEntity || env.Kind != "validation_error" {
		t.Errorf("expected 422 for unknown payment method, got %d %s", w.Code, env.Kind)
	}
	w, _ = s.do(http.MethodPut, base+"/discount", map[string]string{"amount": "-5"})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for negative discount, got %d", w.Code)
	}
	w, _ = s.do(http.MethodGet, "/api/v1/pos/sessions/not-a-uuid", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", w.Code)
	}
	w, _ = s.do(http.MethodGet, "/api/v1/pos/sessions/"+uuid.NewString(), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown session, got %d", w.Code)
	}
}

func TestCloseSession(t *testing.T) {
	s := newTestServer(t)
	id := s.open()

	w, _ := s.do(http.MethodDelete, "/api/v1/pos/sessions/"+id.String(), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w, _ = s.do(http.MethodGet, "/api/v1/pos/sessions/"+id.String(), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after close, got %d", w.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	s.open()

	w, _ := s.do(http.MethodGet, "/health", nil)
	var health map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &health)
	if w.Code != http.StatusOK || health["simulated"] != true {
		t.Errorf("unexpected health response %d %s", w.Code, w.Body.String())
	}

	w, _ = s.do(http.MethodGet, "/metrics", nil)
	if !bytes.Contains(w.Body.Bytes(), []byte(`pos_http_requests_total{handler="/api/v1/pos/sessions",status="201"} 1`)) {
		t.Errorf("expected request counter in metrics output:\n%s", w.Body.String())
	}
}

func TestSearchCustomersOverHTTP(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/api/v1/pos/customers?q=kamau", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var customers []struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	if err := json.Unmarshal(env.Data, &customers); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(customers) != 1 || customers[0].ID != seed.CustomerID(s.business, "Brian Kamau") {
		t.Errorf("expected Brian Kamau, got %+v", customers)
	}

	if w, _ := s.do(http.MethodGet, "/api/v1/pos/customers?limit=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad limit, got %d", w.Code)
	}
}

func TestLineQuantityBoundsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.open()
	base := "/api/v1/pos/sessions/" + id.String()

	w, env := s.do(http.MethodPost, base+"/lines", map[string]interface{}{"product_id": seed.ProductID(s.business, "BLN-001"), "quantity": int64(9223372036854775807)})
	if w.Code != http.StatusUnprocessableEntity || env.Kind != "validation_error" {
		t.Fatalf("expected 422 for an oversized quantity, got %d %s", w.Code, w.Body.String())
	}
	var body struct {
		Errors []struct {
			Field string `json:"field"`
		} `json:"errors"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if len(body.Errors) != 1 || body.Errors[0].Field != "quantity" {
		t.Errorf("expected a quantity field error, got %s", w.Body.String())
	}

	if w, _ := s.do(http.MethodGet, base, nil); w.Code != http.StatusOK {
		t.Errorf("flow should still load, got %d", w.Code)
	}
}

func TestUnknownRouteAndBadToken(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/api/v1/nope", nil)
	if w.Code != http.StatusNotFound || env.Kind != "not_found" {
		t.Errorf("expected 404 not_found, got %d %s", w.Code, env.Kind)
	}

	s.token = "garbage"
	w, env = s.do(http.MethodGet, "/api/v1/pos/products", nil)
	if w.Code != http.StatusUnauthorized || env.Kind != "unauthorized" {
		t.Errorf("expected 401 unauthorized, got %d %s", w.Code, env.Kind)
	}
}
