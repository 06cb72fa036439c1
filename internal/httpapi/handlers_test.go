package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendite/backend/internal/cache"
	"vendite/backend/internal/domain"
	"vendite/backend/internal/logger"
	"vendite/backend/internal/service"
	"vendite/backend/internal/store"
	"vendite/backend/internal/store/memory"
)

const adminPassword = "Admin-pass-123"

type testServer struct {
	handler http.Handler
	auth    *AuthManager
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	ctx := context.Background()
	kv := memory.New()
	users := store.NewUsers(kv)
	_, err := users.SeedAdmin(ctx, "admin", adminPassword)
	require.NoError(t, err)

	svc := service.New(kv, cache.NewLocalViewCache(time.Minute), time.Minute, logger.Nop())
	auth := NewAuthManager(ctx, testSecret, time.Hour, users)
	for _, u := range []domain.StaffCreateRequest{
		{Username: "carla", Password: "negozio-pass", Role: domain.RoleNegozio},
		{Username: "shopify", Password: "ecommerce-pass", Role: domain.RoleEcommerce},
		{Username: "guest", Password: "viewer-pass", Role: domain.RoleViewer},
	} {
		_, err := auth.CreateStaff(ctx, u)
		require.NoError(t, err)
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "http://127.0.0.1:3000"
	}
	opts.Logger = logger.Nop()
	return &testServer{handler: New(svc, auth, opts).Handler(), auth: auth}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp domain.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func (s *testServer) upload(t *testing.T, kind, token, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/"+kind, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Options{})
	rec := srv.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok":true`)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	srv := newTestServer(t, Options{})
	rec := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "admin", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadStoreSalesPreview(t *testing.T) {
	srv := newTestServer(t, Options{})
	token := srv.login(t, "carla", "negozio-pass")

	csv := "Data;Utente;SKU;Quant.;Prezzo\n15/12/2024;carla;X;2;50\n"
	rec := srv.upload(t, "store-sales", token, "vendite.csv", []byte(csv))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var preview domain.UploadPreview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	require.NotNil(t, preview.StoreSales)
	assert.True(t, preview.StoreSales.Success)
	require.Len(t, preview.StoreSales.Data, 1)
	assert.Equal(t, 100.0, preview.StoreSales.Data[0].Amount)

	rec = srv.upload(t, "inventory", token, "magazzino.csv", []byte(csv))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.upload(t, "orders", token, "vendite.csv", []byte(csv))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.upload(t, "store-sales", token, "vendite.pdf", []byte("%PDF-1.4"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestBulkRecordsLifecycle(t *testing.T) {
	srv := newTestServer(t, Options{})
	shop := srv.login(t, "shopify", "ecommerce-pass")
	admin := srv.login(t, "admin", adminPassword)

	batch := domain.Batch{Kind: domain.KindSales, Sales: []domain.SaleRecord{
		{Date: "2025-10-01T00:00:00.000Z", User: "ecommerce", Channel: domain.ChannelEcommerce, SKU: "A", Quantity: 2, Price: 10, Amount: 20},
		{Date: "2025-10-01T00:00:00.000Z", User: "ecommerce", Channel: domain.ChannelEcommerce, SKU: "A", Quantity: 2, Price: 10, Amount: 20},
	}}
	rec := srv.do(t, http.MethodPost, "/api/v1/records/bulk", shop, batch)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result domain.BulkResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, domain.BulkResult{SavedCount: 2}, result)

	rec = srv.do(t, http.MethodGet, "/api/v1/records?kind=sales", shop, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Records []domain.StoredRecord `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Records, 2)
	id := listing.Records[0].ID

	rec = srv.do(t, http.MethodDelete, "/api/v1/records/sales/"+id, shop, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = srv.do(t, http.MethodDelete, "/api/v1/records/sales/"+id, admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(t, http.MethodDelete, "/api/v1/records/sales/"+id, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/records?kind=sales&refresh=1", shop, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.Records, 1)
	assert.NotEqual(t, id, listing.Records[0].ID)

	rec = srv.do(t, http.MethodGet, "/api/v1/records?kind=orders", shop, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(t, http.MethodGet, "/api/v1/audit-logs", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "record.delete")
}

func TestBulkRejectsInvalidPayloads(t *testing.T) {
	srv := newTestServer(t, Options{})
	viewer := srv.login(t, "guest", "viewer-pass")
	shop := srv.login(t, "carla", "negozio-pass")

	rec := srv.do(t, http.MethodPost, "/api/v1/records/bulk", viewer, domain.Batch{Kind: domain.KindSales})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/records/bulk", shop, map[string]any{"kind": "sales", "extra": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/records/bulk", shop, domain.Batch{Kind: domain.KindSales, Sales: []domain.SaleRecord{
		{Date: "2025-10-01T00:00:00.000Z", Channel: domain.ChannelNegozioDonna, SKU: "A", Quantity: 1, Price: -5, Amount: 5},
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPaymentMappingsEndpoints(t *testing.T) {
	srv := newTestServer(t, Options{})
	admin := srv.login(t, "admin", adminPassword)
	viewer := srv.login(t, "guest", "viewer-pass")

	mapping := domain.PaymentMapping{PaymentMethod: "Zalando Pay", MacroArea: "Marketplace", Channel: domain.ChannelMarketplace}
	rec := srv.do(t, http.MethodPut, "/api/v1/payment-mappings", viewer, mapping)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = srv.do(t, http.MethodPut, "/api/v1/payment-mappings", admin, mapping)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodGet, "/api/v1/payment-mappings", viewer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listing struct {
		Mappings []domain.PaymentMapping `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, []domain.PaymentMapping{mapping}, listing.Mappings)

	rec = srv.do(t, http.MethodDelete, "/api/v1/payment-mappings?payment_method=zalando+pay", admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = srv.do(t, http.MethodDelete, "/api/v1/payment-mappings?payment_method=zalando+pay", admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = srv.do(t, http.MethodDelete, "/api/v1/payment-mappings", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersEndpoint(t *testing.T) {
	srv := newTestServer(t, Options{})
	admin := srv.login(t, "admin", adminPassword)
	shop := srv.login(t, "carla", "negozio-pass")

	req := domain.StaffCreateRequest{Username: "mario", Password: "uomo-pass-1", Role: domain.RoleNegozio}
	rec := srv.do(t, http.MethodPost, "/api/v1/users", shop, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/v1/users", admin, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = srv.do(t, http.MethodPost, "/api/v1/users", admin, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	srv.login(t, "mario", "uomo-pass-1")

	rec = srv.do(t, http.MethodGet, "/api/v1/users", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"mario"`)
}
