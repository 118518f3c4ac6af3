package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/ppob-membership/config"
	"github.com/oksasatya/ppob-membership/internal/container"
	"github.com/oksasatya/ppob-membership/internal/domain/entity"
	"github.com/oksasatya/ppob-membership/internal/infrastructure/memory"
	"github.com/oksasatya/ppob-membership/pkg/helpers"
	"github.com/oksasatya/ppob-membership/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Init()
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type api struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.NewStore(nil)
	store.AddService(entity.Service{Code: "PULSA", Name: "Pulsa", Icon: "https://example.com/pulsa.png", Tariff: decimal.NewFromInt(10000)})
	store.AddService(entity.Service{Code: "PLN", Name: "Listrik", Tariff: decimal.NewFromInt(100000), Status: entity.StatusDeleted})
	store.AddBanner(entity.Banner{Name: "Banner 1", Image: "https://example.com/b1.png", Description: "Promo"})

	cfg := &config.Config{
		AppName:             "ppob-test",
		JWTSecret:           "test-secret",
		JWTTTL:              time.Hour,
		CookieDomain:        "localhost",
		DebugMetricsEnabled: true,
	}
	c := container.New(cfg, helpers.NopLogger(), container.Repositories{
		Users:     store.Users(),
		Services:  store.Services(),
		Banners:   store.Banners(),
		Histories: store.Transactions(),
		Tx:        store,
	}, container.Infra{})

	engine := gin.New()
	reg := NewRegistry(engine)
	InitModules(reg, c)
	reg.RegisterAll()
	return &api{t: t, engine: engine}
}

func (a *api) do(method, path, body string) (int, envelope) {
	a.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func (a *api) registerAndLogin(email string) {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/registration", `{"email":"`+email+`","first_name":"Budi","last_name":"Santoso","password":"rahasia123"}`)
	require.Equal(a.t, http.StatusOK, code, env.Message)

	code, env = a.do(http.MethodPost, "/login", `{"email":"`+email+`","password":"rahasia123"}`)
	require.Equal(a.t, http.StatusOK, code, env.Message)
	a.token = decode[map[string]string](a.t, env.Data)["token"]
	require.NotEmpty(a.t, a.token)
}

func TestMembershipFlow(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(http.MethodPost, "/registration", `{"email":"budi@example.com","first_name":"Budi","last_name":"Santoso","password":"rahasia123"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, env.Status)
	assert.Equal(t, "Registrasi berhasil silahkan login", env.Message)
	assert.Equal(t, "null", string(env.Data))

	code, env = a.do(http.MethodPost, "/registration", `{"email":"BUDI@example.com","first_name":"Budi","last_name":"Santoso","password":"rahasia123"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 102, env.Status)
	assert.Equal(t, "email already registered", env.Message)

	code, env = a.do(http.MethodPost, "/registration", `{"email":"not-an-email","first_name":"Budi","last_name":"Santoso","password":"rahasia123"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, 102, env.Status)

	code, env = a.do(http.MethodPost, "/login", `{"email":"budi@example.com","password":"salah-sekali"}`)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, 103, env.Status)
	assert.Equal(t, "Username atau password salah", env.Message)

	code, env = a.do(http.MethodPost, "/login", `{"email":"budi@example.com","password":"rahasia123"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login Sukses", env.Message)
	a.token = decode[map[string]string](t, env.Data)["token"]

	code, env = a.do(http.MethodGet, "/profile", "")
	require.Equal(t, http.StatusOK, code)
	profile := decode[map[string]string](t, env.Data)
	assert.Equal(t, "budi@example.com", profile["email"])
	assert.Equal(t, "Budi", profile["first_name"])
	assert.Equal(t, "", profile["profile_image"])

	code, env = a.do(http.MethodPut, "/profile/update", `{"first_name":"Budiman"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Update Profile berhasil", env.Message)
	profile = decode[map[string]string](t, env.Data)
	assert.Equal(t, "Budiman", profile["first_name"])
	assert.Equal(t, "Santoso", profile["last_name"])

	code, env = a.do(http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Logout berhasil", env.Message)
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	a := newAPI(t)
	for _, path := range []string{"/profile", "/services", "/balance", "/transaction/history"} {
		code, env := a.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, code, path)
		assert.Equal(t, 108, env.Status, path)
		assert.Equal(t, "Token tidak valid atau kadaluwarsa", env.Message, path)
	}

	a.token = "garbage"
	code, env := a.do(http.MethodGet, "/balance", "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, 108, env.Status)
}

func TestInformationRoutes(t *testing.T) {
	a := newAPI(t)

	code, env := a.do(http.MethodGet, "/banner", "")
	require.Equal(t, http.StatusOK, code)
	banners := decode[[]map[string]string](t, env.Data)
	require.Len(t, banners, 1)
	assert.Equal(t, "Banner 1", banners[0]["banner_name"])
	assert.Equal(t, "Promo", banners[0]["description"])

	a.registerAndLogin("sari@example.com")
	code, env = a.do(http.MethodGet, "/services", "")
	require.Equal(t, http.StatusOK, code)
	services := decode[[]map[string]any](t, env.Data)
	require.Len(t, services, 1)
	assert.Equal(t, "PULSA", services[0]["service_code"])
	assert.Equal(t, float64(10000), services[0]["service_tariff"])
}

func TestLedgerFlow(t *testing.T) {
	a := newAPI(t)
	a.registerAndLogin("budi@example.com")

	code, env := a.do(http.MethodGet, "/balance", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Get Balance Berhasil", env.Message)
	assert.JSONEq(t, `{"balance":0}`, string(env.Data))

	code, env = a.do(http.MethodPost, "/topup", `{"amount":50000}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "Top Up Balance berhasil", env.Message)
	assert.JSONEq(t, `{"balance":50000}`, string(env.Data))

	code, env = a.do(http.MethodPost, "/topup", `{"top_up_amount":1000}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.JSONEq(t, `{"balance":51000}`, string(env.Data))

	for _, body := range []string{`{"amount":"50000"}`, `{"amount":-1}`, `{"amount":0}`, `{}`, `{"amount":null}`} {
		code, env = a.do(http.MethodPost, "/topup", body)
		assert.Equal(t, http.StatusBadRequest, code, body)
		assert.Equal(t, 102, env.Status, body)
	}

	code, env = a.do(http.MethodPost, "/transaction", `{"service_code":"PULSA"}`)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "Transaksi berhasil", env.Message)
	receipt := decode[map[string]any](t, env.Data)
	assert.Regexp(t, `^INV\d{8}-003$`, receipt["invoice_number"])
	assert.Equal(t, "PULSA", receipt["service_code"])
	assert.Equal(t, "Pulsa", receipt["service_name"])
	assert.Equal(t, "PAYMENT", receipt["transaction_type"])
	assert.Equal(t, float64(10000), receipt["total_amount"])
	assert.NotEmpty(t, receipt["created_on"])

	code, env = a.do(http.MethodPost, "/transaction", `{"service_code":"PLN"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "service not found", env.Message)

	code, _ = a.do(http.MethodPost, "/transaction", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(http.MethodGet, "/balance", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"balance":41000}`, string(env.Data))

	code, env = a.do(http.MethodGet, "/transaction/history?offset=0&limit=2", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Get History Berhasil", env.Message)
	page := decode[struct {
		Offset  int              `json:"offset"`
		Limit   *int             `json:"limit"`
		Records []map[string]any `json:"records"`
	}](t, env.Data)
	assert.Equal(t, 0, page.Offset)
	require.NotNil(t, page.Limit)
	assert.Equal(t, 2, *page.Limit)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "PAYMENT", page.Records[0]["transaction_type"])
	assert.Equal(t, "Pulsa", page.Records[0]["description"])
	assert.Equal(t, "TOPUP", page.Records[1]["transaction_type"])
	assert.Equal(t, float64(1000), page.Records[1]["total_amount"])

	code, env = a.do(http.MethodGet, "/transaction/history", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[struct {
		Records []map[string]any `json:"records"`
	}](t, env.Data).Records, 3)

	code, env = a.do(http.MethodGet, "/transaction/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "offset and limit must not be negative", env.Message)

	code, _ = a.do(http.MethodGet, "/transaction/history?offset=-1&limit=2", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(http.MethodGet, "/transaction/search?q=pulsa", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"records":[]}`, string(env.Data))
}

func TestHealthAndDebugRoutes(t *testing.T) {
	a := newAPI(t)
	code, env := a.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"ok":true}`, string(env.Data))

	req := httptest.NewRequest(http.MethodGet, "/debug/vars", nil)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memstats")
}
