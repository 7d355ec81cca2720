// Package e2e drives a running tracker server through its HTTP API.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TestContext holds the per-scenario HTTP state.
type TestContext struct {
	BaseURL    string
	SigningKey string
	Issuer     string
	Audience   string

	client       *http.Client
	token        string
	lastStatus   int
	lastBody     []byte
	lastResponse map[string]any
}

// NewTestContext reads the target server settings from the environment.
func NewTestContext() *TestContext {
	return &TestContext{
		BaseURL:    envOr("TRACKER_E2E_BASE_URL", "http://localhost:8080"),
		SigningKey: envOr("TRACKER_AUTH_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Issuer:     envOr("TRACKER_AUTH_ISSUER", "tracker"),
		Audience:   envOr("TRACKER_AUTH_AUDIENCE", "tracker-client"),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Reset clears response state between scenarios.
func (tc *TestContext) Reset() {
	tc.token = ""
	tc.lastStatus = 0
	tc.lastBody = nil
	tc.lastResponse = nil
}

// IssueToken signs a survey-scoped token the way the server expects it.
func (tc *TestContext) IssueToken(surveyID, userID int64) error {
	now := time.Now()
	claims := jwt.MapClaims{
		"survey_id": surveyID,
		"user_id":   userID,
		"iss":       tc.Issuer,
		"aud":       []string{tc.Audience},
		"iat":       now.Unix(),
		"exp":       now.Add(time.Hour).Unix(),
		"jti":       "e2e-" + strconv.FormatInt(now.UnixNano(), 10),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tc.SigningKey))
	if err != nil {
		return err
	}
	tc.token = signed
	return nil
}

func (tc *TestContext) ClearToken() { tc.token = "" }

func (tc *TestContext) PUTRaw(path, body string) error {
	return tc.do(http.MethodPut, path, bytes.NewBufferString(body))
}

func (tc *TestContext) GET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *TestContext) do(method, path string, body io.Reader) error {
	req, err := http.NewRequest(method, tc.BaseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tc.token != "" {
		req.Header.Set("Authorization", "Bearer "+tc.token)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	tc.lastStatus = resp.StatusCode
	tc.lastBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.lastResponse = nil
	if len(tc.lastBody) > 0 {
		var decoded map[string]any
		if json.Unmarshal(tc.lastBody, &decoded) == nil {
			tc.lastResponse = decoded
		}
	}
	return nil
}

func (tc *TestContext) GetLastStatusCode() int { return tc.lastStatus }

func (tc *TestContext) GetResponseBody() string { return string(tc.lastBody) }

// GetResponseField returns a top-level field of the last JSON object response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.lastResponse == nil {
		return nil, fmt.Errorf("last response is not a JSON object: %s", tc.lastBody)
	}
	v, ok := tc.lastResponse[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.lastBody)
	}
	return v, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
