// Package session holds the credentials attached to every Sylve API request
// and persists them in the OS keyring between runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"sylvectl/internal/credentials"
)

// TokenLifetime matches the one-day expiry Sylve gives login tokens.
const TokenLifetime = 24 * time.Hour

// ErrNoSession is returned by Load when nothing is stored for a server.
var ErrNoSession = errors.New("no stored session")

// Session is the request context for one server: the bearer token, the
// optional cluster token and the node requests are routed to.
type Session struct {
	mu           sync.RWMutex
	server       string
	token        *oauth2.Token
	clusterToken string
	hostname     string
	nodeID       string
	username     string
	authType     string
	source       credentials.Source
}

// New returns an empty session for server.
func New(server string) *Session {
	return &Session{server: server, source: credentials.SourceNone}
}

// Server returns the server URL the session belongs to.
func (s *Session) Server() string {
	return s.server
}

// SetToken installs a bearer token that expires after TokenLifetime.
func (s *Session) SetToken(token string, issued time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = &oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
		Expiry:      issued.Add(TokenLifetime),
	}
}

// AuthToken returns the bearer token, or nil when it is missing or expired.
func (s *Session) AuthToken() *oauth2.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.token.Valid() {
		return nil
	}
	tok := *s.token
	return &tok
}

// Expiry returns when the token stops being sent.
func (s *Session) Expiry() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return time.Time{}
	}
	return s.token.Expiry
}

// LoggedIn reports whether a usable token is held.
func (s *Session) LoggedIn() bool {
	return s.AuthToken() != nil
}

// ClusterToken returns the cluster token, if any.
func (s *Session) ClusterToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clusterToken
}

// SetClusterToken sets the token sent as X-Cluster-Token.
func (s *Session) SetClusterToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusterToken = token
}

// CurrentHostname returns the node requests are routed to.
func (s *Session) CurrentHostname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hostname
}

// SetHostname switches the node targeted via X-Current-Hostname.
func (s *Session) SetHostname(hostname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hostname = hostname
}

// SetNodeID records the cluster node id of the current host.
func (s *Session) SetNodeID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodeID = id
}

// NodeID returns the cluster node id of the current host.
func (s *Session) NodeID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodeID
}

// SetUser records who logged in and how.
func (s *Session) SetUser(username, authType string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.authType = authType
}

// Username returns the logged-in user.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Source reports where the token came from.
func (s *Session) Source() credentials.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// record is the JSON blob kept in the keyring.
type record struct {
	Token        string    `json:"token"`
	Expiry       time.Time `json:"expiry"`
	ClusterToken string    `json:"clusterToken,omitempty"`
	Hostname     string    `json:"hostname,omitempty"`
	NodeID       string    `json:"nodeId,omitempty"`
	Username     string    `json:"username,omitempty"`
	AuthType     string    `json:"authType,omitempty"`
}

func (s *Session) record() record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r := record{
		ClusterToken: s.clusterToken,
		Hostname:     s.hostname,
		NodeID:       s.nodeID,
		Username:     s.username,
		AuthType:     s.authType,
	}
	if s.token != nil {
		r.Token = s.token.AccessToken
		r.Expiry = s.token.Expiry
	}
	return r
}

// Store persists sessions through a credentials.Manager, one per server.
type Store struct {
	creds *credentials.Manager
}

// NewStore creates a session store.
func NewStore(creds *credentials.Manager) *Store {
	return &Store{creds: creds}
}

// Save writes s to the keyring.
func (st *Store) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s.record())
	if err != nil {
		return err
	}
	if err := st.creds.Set(ctx, s.server, string(data)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads the session for server. SYLVECTL_TOKEN replaces the stored
// token when set, and is enough on its own when nothing is stored.
func (st *Store) Load(ctx context.Context, server string) (*Session, error) {
	s := New(server)

	secret, ok, err := st.creds.Get(ctx, server)
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if ok {
		var r record
		if err := json.Unmarshal([]byte(secret), &r); err != nil {
			return nil, fmt.Errorf("stored session is corrupt: %w", err)
		}
		s.token = &oauth2.Token{AccessToken: r.Token, TokenType: "Bearer", Expiry: r.Expiry}
		s.clusterToken = r.ClusterToken
		s.hostname = r.Hostname
		s.nodeID = r.NodeID
		s.username = r.Username
		s.authType = r.AuthType
		s.source = credentials.SourceKeyring
	}

	if tok, src := st.creds.EnvToken(); tok != "" {
		// Env tokens carry no expiry of their own.
		s.token = &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}
		s.source = src
		return s, nil
	}

	if !ok {
		return s, ErrNoSession
	}
	return s, nil
}

// Clear removes the stored session for server.
func (st *Store) Clear(ctx context.Context, server string) error {
	return st.creds.Delete(ctx, server)
}
