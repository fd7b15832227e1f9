package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"afisha/internal/delivery/http/helpers"
	"afisha/internal/domain"
)

// fakeAuthService implements domain.AuthService for handler tests.
type fakeAuthService struct {
	token string
	user  *domain.User
	err   error

	lastEmail    string
	lastPassword string
}

func (f *fakeAuthService) Login(_ context.Context, email, password string) (string, *domain.User, error) {
	f.lastEmail = email
	f.lastPassword = password
	return f.token, f.user, f.err
}

func TestAuthController_Login(t *testing.T) {
	tests := []struct {
		name         string
		body         any
		svc          *fakeAuthService
		wantStatus   int
		wantBodyCode string
	}{
		{
			name:       "success",
			body:       LoginRequest{Email: "user@example.com", Password: "secret123"},
			svc:        &fakeAuthService{token: "jwt-token", user: &domain.User{ID: "user-1", Email: "user@example.com"}},
			wantStatus: http.StatusOK,
		},
		{
			name:         "missing password",
			body:         LoginRequest{Email: "user@example.com"},
			svc:          &fakeAuthService{},
			wantStatus:   http.StatusBadRequest,
			wantBodyCode: helpers.ErrCodeBadRequest,
		},
		{
			name:         "wrong credentials",
			body:         LoginRequest{Email: "user@example.com", Password: "wrong"},
			svc:          &fakeAuthService{err: domain.ErrForbidden},
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "store failure",
			body:         LoginRequest{Email: "user@example.com", Password: "secret123"},
			svc:          &fakeAuthService{err: errors.New("db down")},
			wantStatus:   http.StatusInternalServerError,
			wantBodyCode: helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewAuthController(testLogger, tt.svc)
			req := authedRequest(t, http.MethodPost, "http://test/auth/login", "", tt.body, nil)
			rr := httptest.NewRecorder()

			c.Login(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBodyCode != "" {
				envelope := decodeEnvelope(t, rr)
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantBodyCode, envelope.Error.Code)
			}
			if tt.wantStatus == http.StatusOK {
				assert.Contains(t, rr.Body.String(), `"token":"jwt-token"`)
				assert.Contains(t, rr.Body.String(), `"token_type":"Bearer"`)
				assert.Equal(t, "user@example.com", tt.svc.lastEmail)
			}
		})
	}
}
