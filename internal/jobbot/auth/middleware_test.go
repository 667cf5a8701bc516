package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddleware(t *testing.T) {
	const (
		validSecret   = "test-secret"
		invalidSecret = "wrong-secret"
	)

	generateToken := func(secret, subject string, expiresAt time.Time) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		})
		tokenString, _ := token.SignedString([]byte(secret))
		return tokenString
	}
	valid, err := GenerateToken(100, validSecret)
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
		wantOwner  int64
	}{
		{name: "public path", path: "/api/health", wantStatus: http.StatusOK},
		{name: "protected valid token", path: "/v1/companies/ABC123/jobs", header: "Bearer " + valid, wantStatus: http.StatusOK, wantOwner: 100},
		{name: "protected missing header", path: "/v1/companies/ABC123/jobs", wantStatus: http.StatusUnauthorized},
		{name: "protected missing bearer prefix", path: "/v1/companies/ABC123/jobs", header: valid, wantStatus: http.StatusUnauthorized},
		{
			name:       "protected invalid signature",
			path:       "/v1/companies/ABC123/jobs",
			header:     "Bearer " + generateToken(invalidSecret, "100", time.Now().Add(time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "protected expired token",
			path:       "/v1/companies/ABC123/jobs",
			header:     "Bearer " + generateToken(validSecret, "100", time.Now().Add(-time.Hour)),
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOwner int64
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotOwner, _ = OwnerFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			HTTPMiddleware(next, validSecret).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOwner, gotOwner)
		})
	}
}

func TestOwnerFromContext_NonNumericSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-number",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("s"))
	require.NoError(t, err)

	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = OwnerFromContext(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/v1/companies/X/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	HTTPMiddleware(next, "s").ServeHTTP(httptest.NewRecorder(), req)

	assert.False(t, ok)
}

func TestGenerateToken(t *testing.T) {
	signed, err := GenerateToken(42, "secret")
	require.NoError(t, err)

	claims, err := validateToken(signed, "secret")
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.True(t, claims.ExpiresAt.After(time.Now()))

	_, err = validateToken(signed, "other")
	assert.Error(t, err)
}
