package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/marketplace_backend/middlewares"
	"github.com/mmdatafocus/marketplace_backend/models"
	"github.com/mmdatafocus/marketplace_backend/models/memstore"
	"github.com/mmdatafocus/marketplace_backend/utils"
	"github.com/mmdatafocus/marketplace_backend/workflow"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeScans struct {
	classes []models.SellerClass
	ctxErrs []error
	err     error
}

func (s *fakeScans) RunOnce(ctx context.Context, class models.SellerClass) (*workflow.ScanResult, error) {
	s.classes = append(s.classes, class)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	if s.err != nil {
		return nil, s.err
	}
	return &workflow.ScanResult{SellerClass: class}, nil
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *memstore.Store
	scans  *fakeScans
	token  string
	admin  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	store := memstore.New()
	require.NoError(t, store.CreateOrganization(ctx, &models.Organization{ID: "org-1", Name: "Market", Wallet: decimal.NewFromInt(1000)}))
	require.NoError(t, store.CreateUser(ctx, &models.User{ID: "user-1", OrganizationId: "org-1", Name: "Cashier", Wallet: decimal.NewFromInt(50)}))
	require.NoError(t, store.CreateSeller(ctx, &models.Seller{ID: "seller-1", OrganizationId: "org-1", Name: "Shop", SellerClass: models.SellerClassGeneral}))
	require.NoError(t, store.CreateSeller(ctx, &models.Seller{ID: "seller-2", OrganizationId: "org-2", Name: "Elsewhere", SellerClass: models.SellerClassGeneral}))

	scans := &fakeScans{}
	h := &Handler{Store: store, Logger: logger, Notifier: workflow.NopNotifier{}, Scans: scans}
	r := gin.New()
	r.Use(middlewares.SessionMiddleware())
	h.RegisterRoutes(r)

	token, err := utils.JwtGenerate("user-1", "org-1", "Cashier", "U")
	require.NoError(t, err)
	admin, err := utils.JwtGenerate("user-1", "org-1", "Cashier", utils.RoleAdmin)
	require.NoError(t, err)

	return &testServer{t: t, router: r, store: store, scans: scans, token: token, admin: admin}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out.Data
}

func TestRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/todo-lists", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/todo-lists", "not-a-jwt", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/todo-lists", s.token, nil).Code)
}

func TestPurchaseThenCompleteBankTransfer(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/purchases", s.token, gin.H{
		"seller_id":      "seller-1",
		"amount":         "120.50",
		"quantity":       2,
		"payment_method": "BANK_TRANSFER",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeData[workflow.PurchaseResult](t, w)
	require.Len(t, created.Todos, 1)
	todoId := created.Todos[0].ID
	assert.Equal(t, "user-1", created.Purchase.UserId)

	w = s.do(http.MethodGet, "/api/todo-lists?status=OPEN&event=PURCHASE_INITIATED_WITH_BANK_TRANSFER", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decodeData[[]json.RawMessage](t, w)
	assert.Len(t, items, 1)

	path := "/api/todo-lists/" + strconv.Itoa(todoId) + "/complete"
	w = s.do(http.MethodPost, path, s.token, gin.H{
		"event":       "PURCHASE_INITIATED_WITH_BANK_TRANSFER",
		"purchase_id": created.Purchase.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, path, s.token, gin.H{
		"event":        "PURCHASE_INITIATED_WITH_BANK_TRANSFER",
		"purchase_id":  created.Purchase.ID,
		"payment_date": time.Date(2026, 6, 2, 8, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	done := decodeData[models.TodoList](t, w)
	assert.Equal(t, models.TodoListStatusDone, done.Status)

	w = s.do(http.MethodPost, path, s.token, gin.H{
		"event":        "PURCHASE_INITIATED_WITH_BANK_TRANSFER",
		"purchase_id":  created.Purchase.ID,
		"payment_date": time.Date(2026, 6, 2, 8, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCompleteTodoListValidation(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/todo-lists/abc/complete", s.token, gin.H{"event": "ORDER_PICKUP_INITIATED"}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/todo-lists/1/complete", s.token, gin.H{}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/todo-lists/1/complete", s.token, gin.H{"event": "UNKNOWN"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/api/todo-lists/99/complete", s.token, gin.H{"event": "ORDER_PICKUP_INITIATED"}).Code)
}

func TestPurchaseForForeignSellerIsNotFound(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/purchases", s.token, gin.H{
		"seller_id":      "seller-2",
		"amount":         "10",
		"quantity":       1,
		"payment_method": "CASH",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/purchases", s.token, gin.H{
		"seller_id":      "seller-1",
		"amount":         "10",
		"quantity":       1,
		"payment_method": "CHEQUE",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestThresholdSettingsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/threshold-settings", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	empty := decodeData[models.ThresholdSettings](t, w)
	assert.Equal(t, "org-1", empty.OrganizationId)
	assert.False(t, empty.SellerSalesBalanceUpperThreshold.Valid)

	w = s.do(http.MethodPut, "/api/threshold-settings", s.token, gin.H{"seller_sales_balance_upper_threshold": "-5"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPut, "/api/threshold-settings", s.token, gin.H{
		"seller_sales_balance_upper_threshold": "5000",
		"company_cash_balance_lower_threshold": nil,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/threshold-settings", s.token, nil)
	got := decodeData[models.ThresholdSettings](t, w)
	assert.True(t, got.SellerSalesBalanceUpperThreshold.Decimal.Equal(decimal.NewFromInt(5000)))
	assert.False(t, got.CompanyCashBalanceLowerThreshold.Valid)
}

func TestCashReconciliationAndStatsEndpoints(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.store.UpsertThresholdSettings(ctx, &models.ThresholdSettings{
		OrganizationId:                   "org-1",
		CompanyCashBalanceLowerThreshold: decimal.NewNullDecimal(decimal.NewFromInt(500)),
	}))

	w := s.do(http.MethodPost, "/api/cash-reconciliations", s.token, gin.H{"counted_amount": "100"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decodeData[workflow.CashReconciliationResult](t, w)
	require.Len(t, rec.Todos, 1)
	assert.Equal(t, models.TodoListEventCompanyCashBalanceBelowThreshold, rec.Todos[0].Event)

	w = s.do(http.MethodPost, "/api/seller-stats/increment", s.token, gin.H{"seller_id": "seller-1", "amount": "200", "quantity": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	stats := decodeData[models.SellerPurchaseStats](t, w)
	assert.True(t, stats.TotalSales.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 3, stats.TotalQuantity)

	w = s.do(http.MethodPost, "/api/seller-stats/increment", s.token, gin.H{"seller_id": "seller-2", "amount": "1", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportTodoLists(t *testing.T) {
	s := newTestServer(t)
	_, err := workflow.RegisterEvent(context.Background(), s.store, models.TodoListEventCompanyCashBalanceBelowThreshold, workflow.EventPayload{OrganizationId: "org-1"})
	require.NoError(t, err)

	w := s.do(http.MethodGet, "/api/todo-lists/export", s.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "todo-lists.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(todoListSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, todoListHeadings, rows[0])
	assert.Equal(t, "COMPANY_CASH_BALANCE_BELOW_THRESHOLD", rows[1][1])
	assert.Equal(t, "organization Market", rows[1][3])
	assert.Equal(t, "1000.00", rows[1][4])
}

func TestListTodoListsRejectsBadFilter(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/todo-lists?status=CLOSED", s.token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/todo-lists?from=yesterday", s.token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/api/todo-lists?limit=-1", s.token, nil).Code)
}

func TestThresholdScanOpsEndpoint(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/internal/ops/threshold-scan/general", s.token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/internal/ops/threshold-scan/business", s.admin, nil).Code)

	w := s.do(http.MethodPost, "/internal/ops/threshold-scan/general", s.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.SellerClass{models.SellerClassGeneral}, s.scans.classes)

	s.scans.err = utils.ErrScanInProgress
	assert.Equal(t, http.StatusConflict, s.do(http.MethodPost, "/internal/ops/threshold-scan/private", s.admin, nil).Code)
}

func TestThresholdScanOpsEndpointOutlivesClient(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/internal/ops/threshold-scan/private", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+s.admin)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, s.scans.ctxErrs, 1)
	assert.NoError(t, s.scans.ctxErrs[0])
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{utils.ErrorRecordNotFound, http.StatusNotFound},
		{utils.ErrMissingParameter, http.StatusBadRequest},
		{workflow.ErrInvalidIncrement, http.StatusBadRequest},
		{fmt.Errorf("todo 3: %w", utils.ErrEventMismatch), http.StatusBadRequest},
		{utils.ErrTodoAlreadyDone, http.StatusConflict},
		{utils.ErrTransactionTimeout, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
