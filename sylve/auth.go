package sylve

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"sylvectl/internal/api"
	"sylvectl/internal/schema"
	"sylvectl/internal/utils"
)

// Authentication backends.
const (
	AuthSylve = "sylve"
	AuthPAM   = "pam"
)

// ErrOnlyAdmin is returned when a non-admin account tries to log in.
var ErrOnlyAdmin = errors.New("only admin users may log in")

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	AuthType string `json:"authType" validate:"required,oneof=sylve pam"`
	Remember bool   `json:"remember"`
}

// LoginResponse is the session material handed out on login.
type LoginResponse struct {
	Token        string `json:"token" validate:"required"`
	Hostname     string `json:"hostname" validate:"required"`
	NodeID       string `json:"nodeId"`
	ClusterToken string `json:"clusterToken"`
}

var loginSchema = schema.Object[LoginResponse]()

// Login exchanges credentials for a token. Input is checked before any
// request is made.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return LoginResponse{}, errors.New("credentials are required")
	}
	if err := schema.Check(req); err != nil {
		return LoginResponse{}, err
	}

	r := api.Execute(ctx, c.api, "/auth/login", loginSchema, http.MethodPost, req)
	if r.Err == nil {
		return r.Value, nil
	}
	switch {
	case r.Err.Code == "only_admin_allowed" || r.Err.Message == "only_admin_allowed":
		return LoginResponse{}, ErrOnlyAdmin
	case r.Err.Kind == api.KindAuthExpired, r.Status == http.StatusUnauthorized:
		return LoginResponse{}, utils.ErrInvalidCredentials(req.Username)
	case r.Err.Kind == api.KindEnvelope:
		return LoginResponse{}, utils.ErrAPIFailure("login", r.Err.Code, r.Err.Message)
	}
	return LoginResponse{}, r.Err
}
