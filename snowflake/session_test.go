package snowflake

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snowchat/config"
)

func testConfig() config.Config {
	return config.Config{
		User:      "analyst",
		Password:  "hunter2",
		Account:   "myorg-myaccount",
		Warehouse: "COMPUTE_WH",
		Database:  "REVENUE",
		Schema:    "PUBLIC",
		Role:      "ANALYST_ROLE",
		Host:      "myorg-myaccount.snowflakecomputing.com",
		Stage:     "SEMANTIC_MODELS",
		File:      "revenue.yaml",
	}
}

// newTestSession points the REST side of a Session at a test server.
func newTestSession(srv *httptest.Server) *Session {
	return &Session{
		cfg:        testConfig(),
		httpClient: srv.Client(),
		baseURL:    srv.URL,
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, loginPath, r.URL.Path)
		require.NotEmpty(t, r.URL.Query().Get("request_id"))
		assert.Equal(t, "REVENUE", r.URL.Query().Get("databaseName"))
		assert.Equal(t, "COMPUTE_WH", r.URL.Query().Get("warehouse"))

		var body struct {
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "analyst", body.Data["LOGIN_NAME"])
		assert.Equal(t, "myorg-myaccount", body.Data["ACCOUNT_NAME"])

		fmt.Fprint(w, `{"success":true,"data":{"token":"sess-1","masterToken":"master-1","validityInSeconds":3600}}`)
	}))
	defer srv.Close()

	s := newTestSession(srv)
	require.NoError(t, s.login(context.Background()))

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", token)
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"message":"Incorrect username or password was specified."}`)
	}))
	defer srv.Close()

	err := newTestSession(srv).login(context.Background())
	require.Error(t, err)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "login", connErr.Op)
	assert.Contains(t, err.Error(), "Incorrect username")
}

func TestLoginHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway timeout", http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	err := newTestSession(srv).login(context.Background())
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "login", connErr.Op)
}

func TestTokenRenewsWhenExpired(t *testing.T) {
	var renewAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, renewPath, r.URL.Path)
		renewAuth = r.Header.Get("Authorization")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sess-old", body["oldSessionToken"])
		assert.Equal(t, "RENEW", body["requestType"])

		fmt.Fprint(w, `{"success":true,"data":{"sessionToken":"sess-new","validityInSecondsST":3600}}`)
	}))
	defer srv.Close()

	s := newTestSession(srv)
	s.token = "sess-old"
	s.masterToken = "master-1"
	s.expiresAt = time.Now().Add(-time.Minute)

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-new", token)
	assert.Equal(t, `Snowflake Token="master-1"`, renewAuth)
	assert.True(t, s.expiresAt.After(time.Now()))
}

func TestTokenFreshNoRenew(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for a fresh token")
	}))
	defer srv.Close()

	s := newTestSession(srv)
	s.token = "sess-1"
	s.expiresAt = time.Now().Add(time.Hour)

	token, err := s.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", token)
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{[]byte("blob"), "blob"},
		{int64(42), "42"},
		{3.14, "3.14"},
		{"text", "text"},
		{ts, "2025-03-14 09:26:53"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatValue(tt.in))
	}
}

func TestBuildDSN(t *testing.T) {
	dsn, err := buildDSN(testConfig())
	require.NoError(t, err)
	assert.Contains(t, dsn, "analyst")
	assert.Contains(t, dsn, "REVENUE")
}
