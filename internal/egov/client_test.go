package egov

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"dga_gateway_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		ConsumerKey:    "test-consumer-key",
		ConsumerSecret: "test-consumer-secret",
		AgentID:        "test-agent",
		EgovTimeout:    5 * time.Second,
	}
	c := NewClient(cfg, zap.NewNop())
	c.validateURL = srv.URL + "/validate"
	c.deprocURL = srv.URL + "/deproc"
	c.notifyURL = srv.URL + "/notify"
	return c
}

func TestValidateTokenSuccess(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "test-consumer-key", r.Header.Get("Consumer-Key"))
		assert.Equal(t, "no-store", r.Header.Get("Cache-Control"))
		assert.Equal(t, "test-consumer-secret", r.URL.Query().Get("ConsumerSecret"))
		assert.Equal(t, "test-agent", r.URL.Query().Get("AgentID"))
		w.Write([]byte(`{"Result":"tok-123"}`))
	})

	token, err := c.ValidateToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestValidateTokenMissingResult(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	_, err := c.ValidateToken(context.Background())
	require.Error(t, err)

	callErr, ok := err.(*CallError)
	require.True(t, ok)
	assert.Equal(t, "validate", callErr.Call)
	assert.Equal(t, http.StatusOK, callErr.StatusCode)
}

func TestValidateTokenEmptyResult(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Result":""}`))
	})

	_, err := c.ValidateToken(context.Background())
	require.Error(t, err)
}

func TestValidateTokenErrorExcerptIsBounded(t *testing.T) {
	long := strings.Repeat("x", 2000)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(long))
	})

	_, err := c.ValidateToken(context.Background())
	require.Error(t, err)

	callErr, ok := err.(*CallError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, callErr.StatusCode)
	assert.Len(t, callErr.Excerpt, validateExcerptLimit)
}

func TestDecryptPayloadSendsCasingAndToken(t *testing.T) {
	for _, casing := range []DeprocCasing{DeprocCasingAppId, DeprocCasingAppid} {
		t.Run(string(casing), func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "tok-123", r.Header.Get("Token"))
				assert.Equal(t, "test-consumer-key", r.Header.Get("Consumer-Key"))

				body, _ := io.ReadAll(r.Body)
				var fields map[string]string
				require.NoError(t, json.Unmarshal(body, &fields))
				assert.Equal(t, "app-1", fields[string(casing)])
				assert.Equal(t, "mtok-1", fields["MToken"])
				// Only the selected casing must be present.
				assert.Len(t, fields, 2)

				w.Write([]byte(`{"result":` + citizenJSON + `}`))
			})

			res, err := c.DecryptPayload(context.Background(), "app-1", "mtok-1", "tok-123", casing)
			require.NoError(t, err)
			require.NotNil(t, res.Payload)
			assert.NotNil(t, ExtractCitizenData(res.Payload))
		})
	}
}

func TestDecryptPayloadNonSuccessStatus(t *testing.T) {
	long := strings.Repeat("y", 2000)
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(long))
	})

	_, err := c.DecryptPayload(context.Background(), "app-1", "mtok-1", "tok-123", DeprocCasingAppId)
	require.Error(t, err)

	callErr, ok := err.(*CallError)
	require.True(t, ok)
	assert.Equal(t, "deproc", callErr.Call)
	assert.Equal(t, http.StatusForbidden, callErr.StatusCode)
	assert.Len(t, callErr.Excerpt, deprocExcerptLimit)
}

func TestDecryptPayloadEmptyBodyIsNotAnError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	res, err := c.DecryptPayload(context.Background(), "app-1", "mtok-1", "tok-123", DeprocCasingAppId)
	require.NoError(t, err)
	assert.Nil(t, res.Payload)
}

func TestSendNotificationPayload(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok-123", r.Header.Get("Token"))

		body, _ := io.ReadAll(r.Body)
		var req struct {
			AppID        string             `json:"appId"`
			Data         []NotificationItem `json:"data"`
			SendDateTime string             `json:"sendDateTime"`
		}
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "app-1", req.AppID)
		require.Len(t, req.Data, 1)
		assert.Equal(t, "hello", req.Data[0].Message)
		assert.Equal(t, "u1", req.Data[0].UserID)

		_, err := time.Parse(time.RFC3339, req.SendDateTime)
		assert.NoError(t, err)

		w.Write([]byte(`{"messageCode":200}`))
	})

	result, err := c.SendNotification(context.Background(), "app-1", "u1", "hello", "tok-123")
	require.NoError(t, err)

	m, ok := result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(200), m["messageCode"])
}

func TestSendNotificationNonSuccessStatus(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`push rejected`))
	})

	_, err := c.SendNotification(context.Background(), "app-1", "u1", "hello", "tok-123")
	require.Error(t, err)

	callErr, ok := err.(*CallError)
	require.True(t, ok)
	assert.Equal(t, "notification", callErr.Call)
}

func TestExcerptNeverSplitsRunes(t *testing.T) {
	thai := []byte("ข้อมูลไม่ถูกต้อง " + strings.Repeat("ท", 200))

	for limit := 1; limit <= len(thai); limit++ {
		e := excerpt(thai, limit)
		assert.True(t, utf8.ValidString(e), "limit %d produced invalid UTF-8", limit)
		assert.LessOrEqual(t, len(e), limit)
	}

	// ASCII bodies still cut at exactly the limit.
	assert.Len(t, excerpt([]byte(strings.Repeat("x", 500)), 300), 300)
}
