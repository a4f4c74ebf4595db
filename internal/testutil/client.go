package testutil

import (
	"bytes"
	"testing"
	"time"

	"sylvectl/internal/api"
	"sylvectl/internal/session"
	"sylvectl/internal/utils"
)

// APIClient is an api.Client pointed at a SylveServer with a logged-in session.
type APIClient struct {
	*api.Client
	Session *session.Session
	Log     *bytes.Buffer
}

// NewAPIClient returns a client for srv that never retries and logs verbosely
// into a buffer.
func NewAPIClient(t *testing.T, srv *SylveServer) *APIClient {
	t.Helper()
	s := session.New(srv.URL)
	s.SetToken("tok-123", time.Now())
	s.SetHostname("node-a")

	var buf bytes.Buffer
	c, err := api.NewClient(api.Config{
		BaseURL:    srv.URL,
		Timeout:    5 * time.Second,
		MaxRetries: -1,
		Logger:     utils.NewLogger(&buf, true),
	}, s)
	if err != nil {
		t.Fatalf("failed to create API client: %v", err)
	}
	return &APIClient{Client: c, Session: s, Log: &buf}
}
