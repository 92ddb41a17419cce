// Package snowflake manages the Snowflake session shared by the whole app.
//
// Design decisions:
//   - One Session per process, established before the chat starts and
//     reused for every interaction. There is no reconnect path: a failed
//     Connect is fatal to the app, matching the UI contract.
//   - SQL runs through database/sql on the gosnowflake driver.
//   - The Cortex Analyst REST API authenticates with the classic session
//     token ("Snowflake Token=..."), which the driver does not expose, so
//     the Session performs its own login-request and keeps the token
//     fresh. Token() always returns a live token; renewal uses the master
//     token under a mutex.
package snowflake

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	sf "github.com/snowflakedb/gosnowflake"

	"snowchat/applog"
	"snowchat/config"
)

const (
	clientAppID   = "snowchat"
	clientVersion = "0.1.0"

	loginPath = "/session/v1/login-request"
	renewPath = "/session/token-request"

	// Renew slightly before the server-side deadline.
	tokenSlack = 30 * time.Second
)

// ConnectionError wraps any failure to establish or maintain the session.
type ConnectionError struct {
	Op  string // "login", "connect", "ping", "renew"
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("snowflake %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Session is the process-wide Snowflake session: a database/sql handle for
// query execution plus a REST session token for the analyst API.
type Session struct {
	cfg config.Config
	db  *sql.DB

	httpClient *http.Client
	baseURL    string

	mu          sync.Mutex
	token       string
	masterToken string
	expiresAt   time.Time
}

// Connect establishes the session: REST login first (cheapest failure),
// then the driver connection, verified with a ping.
func Connect(ctx context.Context, cfg config.Config) (*Session, error) {
	s := &Session{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.BaseURL(),
	}

	if err := s.login(ctx); err != nil {
		return nil, err
	}

	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, &ConnectionError{Op: "connect", Err: err}
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, &ConnectionError{Op: "connect", Err: err}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{Op: "ping", Err: err}
	}

	s.db = db
	applog.Event(applog.CategoryConnect, "session established for %s@%s/%s", cfg.User, cfg.Account, cfg.Database)
	return s, nil
}

// buildDSN maps config onto a gosnowflake DSN. Key-pair (JWT) auth is used
// for the driver when a private key is configured.
func buildDSN(cfg config.Config) (string, error) {
	sfCfg := &sf.Config{
		Account:     cfg.Account,
		User:        cfg.User,
		Password:    cfg.Password,
		Database:    cfg.Database,
		Schema:      cfg.Schema,
		Warehouse:   cfg.Warehouse,
		Role:        cfg.Role,
		Host:        cfg.Host,
		Application: clientAppID,
	}

	key, err := cfg.PrivateKey()
	if err != nil {
		return "", err
	}
	if key != nil {
		sfCfg.Authenticator = sf.AuthTypeJwt
		sfCfg.PrivateKey = key
	}

	return sf.DSN(sfCfg)
}

// Close releases the driver pool. The UI never calls this on the happy
// path — teardown is left to process exit, like the original page — but
// tests and future callers can.
func (s *Session) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Token returns the current session token, renewing it first when the
// validity window has lapsed. Safe for concurrent use.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Now().After(s.expiresAt.Add(-tokenSlack)) {
		if err := s.renewLocked(ctx); err != nil {
			return "", err
		}
	}
	return s.token, nil
}

// loginResponse is the subset of the login/renew payloads we care about.
type loginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Token             string  `json:"token"`
		SessionToken      string  `json:"sessionToken"`
		MasterToken       string  `json:"masterToken"`
		ValidityInSeconds float64 `json:"validityInSeconds"`
		ValidityInSecsST  float64 `json:"validityInSecondsST"`
	} `json:"data"`
}

func (s *Session) login(ctx context.Context) error {
	body := map[string]any{
		"data": map[string]any{
			"LOGIN_NAME":         s.cfg.User,
			"PASSWORD":           s.cfg.Password,
			"ACCOUNT_NAME":       s.cfg.Account,
			"CLIENT_APP_ID":      clientAppID,
			"CLIENT_APP_VERSION": clientVersion,
		},
	}

	query := url.Values{
		"request_id":   {uuid.NewString()},
		"databaseName": {s.cfg.Database},
		"schemaName":   {s.cfg.Schema},
		"warehouse":    {s.cfg.Warehouse},
		"roleName":     {s.cfg.Role},
	}

	resp, err := s.post(ctx, loginPath, query, body, "")
	if err != nil {
		return &ConnectionError{Op: "login", Err: err}
	}

	s.token = resp.Data.Token
	s.masterToken = resp.Data.MasterToken
	s.expiresAt = expiry(resp.Data.ValidityInSeconds)
	if s.token == "" {
		return &ConnectionError{Op: "login", Err: fmt.Errorf("no session token in response")}
	}
	applog.Event(applog.CategoryConnect, "rest session token acquired (valid %.0fs)", resp.Data.ValidityInSeconds)
	return nil
}

// renewLocked swaps the session token using the master token.
// Caller holds s.mu.
func (s *Session) renewLocked(ctx context.Context) error {
	body := map[string]any{
		"oldSessionToken": s.token,
		"requestType":     "RENEW",
	}
	query := url.Values{"request_id": {uuid.NewString()}}

	resp, err := s.post(ctx, renewPath, query, body, s.masterToken)
	if err != nil {
		return &ConnectionError{Op: "renew", Err: err}
	}

	// Renew responses use sessionToken; fall back to token for safety.
	token := resp.Data.SessionToken
	if token == "" {
		token = resp.Data.Token
	}
	if token == "" {
		return &ConnectionError{Op: "renew", Err: fmt.Errorf("no session token in response")}
	}

	s.token = token
	validity := resp.Data.ValidityInSecsST
	if validity == 0 {
		validity = resp.Data.ValidityInSeconds
	}
	s.expiresAt = expiry(validity)
	applog.Event(applog.CategoryConnect, "rest session token renewed (valid %.0fs)", validity)
	return nil
}

// post sends one JSON request to the session API and decodes the envelope.
// authToken, when set, goes out as the Snowflake token scheme.
func (s *Session) post(ctx context.Context, path string, query url.Values, body any, authToken string) (*loginResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+path+"?"+query.Encode(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Snowflake Token=%q", authToken))
	}

	httpResp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", httpResp.StatusCode, truncate(string(respBody), 200))
	}

	var resp loginResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("rejected: %s", resp.Message)
	}
	return &resp, nil
}

func expiry(validitySeconds float64) time.Time {
	if validitySeconds <= 0 {
		validitySeconds = 3600
	}
	return time.Now().Add(time.Duration(validitySeconds) * time.Second)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
