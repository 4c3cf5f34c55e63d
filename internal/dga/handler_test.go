package dga

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dga_gateway_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockService is a mock type for dga.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Login(ctx context.Context, appID, mToken string, version APIVersion) (*user.User, *FlowError) {
	args := m.Called(ctx, appID, mToken, version)
	var u *user.User
	if args.Get(0) != nil {
		u = args.Get(0).(*user.User)
	}
	var fe *FlowError
	if args.Get(1) != nil {
		fe = args.Get(1).(*FlowError)
	}
	return u, fe
}

func (m *MockService) Notify(ctx context.Context, appID, userID, message string) (interface{}, *FlowError) {
	args := m.Called(ctx, appID, userID, message)
	var fe *FlowError
	if args.Get(1) != nil {
		fe = args.Get(1).(*FlowError)
	}
	return args.Get(0), fe
}

func setupHandlerTest(t *testing.T) (*MockService, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mockSvc := new(MockService)
	router := gin.New()
	NewHandler(mockSvc, zap.NewNop()).RegisterRoutes(router)
	return mockSvc, router
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestPrimaryLoginRejectsMissingFields(t *testing.T) {
	mockSvc, router := setupHandlerTest(t)

	for _, body := range []string{`{}`, `{"appId":"app-1"}`, `{"appId":123,"mToken":"m"}`, `not json`} {
		w := postJSON(router, "/api/dga", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)

		resp := decodeBody(t, w)
		assert.Equal(t, false, resp["ok"])
		assert.NotEmpty(t, resp["error"])
		assert.NotContains(t, resp, "step")
	}

	mockSvc.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPrimaryLoginSuccessEnvelope(t *testing.T) {
	mockSvc, router := setupHandlerTest(t)
	mockSvc.On("Login", mock.Anything, "app-1", "mtok-1", VersionPrimary).Return(savedUser(), nil)

	w := postJSON(router, "/api/dga", `{"appId":"app-1","mToken":"mtok-1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["ok"])
	saved, ok := resp["saved"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "u1", saved["userId"])
	assert.Equal(t, float64(7), saved["id"])
}

func TestPrimaryLoginSoftFailureIs200(t *testing.T) {
	mockSvc, router := setupHandlerTest(t)
	mockSvc.On("Login", mock.Anything, "app-1", "mtok-1", VersionPrimary).Return(nil, &FlowError{
		Step:       StepDeproc,
		StatusCode: http.StatusOK,
		Message:    "Deproc returned NULL (Token Expired / invalid payload)",
		Soft:       true,
	})

	w := postJSON(router, "/api/dga", `{"appId":"app-1","mToken":"mtok-1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "deproc", resp["step"])
}

func TestPrimaryLoginProviderFaultIs502(t *testing.T) {
	mockSvc, router := setupHandlerTest(t)
	mockSvc.On("Login", mock.Anything, "app-1", "mtok-1", VersionPrimary).Return(nil, &FlowError{
		Step:       StepValidate,
		StatusCode: http.StatusBadGateway,
		Message:    "validate HTTP 401",
	})

	w := postJSON(router, "/api/dga", `{"appId":"app-1","mToken":"mtok-1"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "validate", resp["step"])
	assert.Equal(t, "validate HTTP 401", resp["error"])
}

func TestLegacyLoginViaOpParameter(t *testing.T) {
	mockSvc, router := setupHandlerTest(t)
	mockSvc.On("Login", mock.Anything, "app-1", "mtok-1", VersionLegacy).Return(savedUser(), nil)

	w := postJSON(router, "/api/dga?op=login", `{"appId":"app-1","mToken":"mtok-1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, "Login successful", resp["message"])
	data, ok := resp["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "u1", data["userId"])
	assert.Equal(t, "app-1", data["appId"])
	assert.Equal(t, "A", data["firstName"])
}

func TestLegacyLoginRewritePath(t *testing.T) {
	mockSvc, router := setupHandlerTest(t)
	mockSvc.On("Login", mock.Anything, "", "", VersionLegacy).Return(nil, &FlowError{
		StatusCode: http.StatusBadRequest,
		Message:    "Missing Data",
	})

	w := postJSON(router, "/test2/auth/login", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "Missing Data", resp["message"])
}

func TestLegacyLoginDeprocDetail(t *testing.T) {
	mockSvc, router := setupHandlerTest(t)
	mockSvc.On("Login", mock.Anything, "app-1", "mtok-1", VersionLegacy).Return(nil, &FlowError{
		Step:       StepDeproc,
		StatusCode: http.StatusBadGateway,
		Message:    "deproc HTTP 403",
		Detail:     "forbidden by provider",
	})

	w := postJSON(router, "/test2/auth/login", `{"appId":"app-1","mToken":"mtok-1"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "forbidden by provider", resp["detail"])
}

func TestLegacyNotifySuccessEnvelope(t *testing.T) {
	mockSvc, router := setupHandlerTest(t)
	mockSvc.On("Notify", mock.Anything, "app-1", "u1", "hello").
		Return(map[string]interface{}{"messageCode": float64(200)}, nil)

	w := postJSON(router, "/test2/notify/send", `{"appId":"app-1","userId":"u1","message":"hello"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "ส่ง Notification สำเร็จ", resp["message"])
	assert.NotNil(t, resp["result"])
}

func TestLegacyNotifyFailureEnvelope(t *testing.T) {
	mockSvc, router := setupHandlerTest(t)
	mockSvc.On("Notify", mock.Anything, "app-1", "u1", "").Return(nil, &FlowError{
		Step:       StepNotification,
		StatusCode: http.StatusBadGateway,
		Message:    "Notification HTTP 500",
		Detail:     "push down",
	})

	w := postJSON(router, "/test2/notify/send", `{"appId":"app-1","userId":"u1"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	resp := decodeBody(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Notification HTTP 500", resp["message"])
	assert.Equal(t, "push down", resp["error"])
}

func TestNotifyViaOpParameter(t *testing.T) {
	mockSvc, router := setupHandlerTest(t)
	mockSvc.On("Notify", mock.Anything, "app-1", "u1", "").
		Return(map[string]interface{}{"messageCode": float64(200)}, nil)

	w := postJSON(router, "/api/dga?op=notify", `{"appId":"app-1","userId":"u1"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["success"])
}
