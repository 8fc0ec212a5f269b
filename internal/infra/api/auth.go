package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleService = "service"

var errMissingToken = errors.New("missing token")

// ServiceClaims identify a caller allowed to drive internal endpoints (cron jobs, operators).
type ServiceClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TriggerAuth signs and verifies HS256 bearer tokens for the internal endpoints.
type TriggerAuth struct {
	secret []byte
}

func NewTriggerAuth(secret string) *TriggerAuth {
	return &TriggerAuth{secret: []byte(secret)}
}

func (a *TriggerAuth) Enabled() bool { return len(a.secret) > 0 }

// Mint issues a service token; a zero ttl means no expiry.
func (a *TriggerAuth) Mint(subject string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", errors.New("trigger secret is not configured")
	}
	now := time.Now()
	claims := ServiceClaims{
		Role: RoleService,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   subject,
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *TriggerAuth) ParseFromRequest(r *http.Request) (*ServiceClaims, error) {
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return nil, errMissingToken
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *TriggerAuth) parse(tok string) (*ServiceClaims, error) {
	claims := &ServiceClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role != RoleService {
		return nil, errors.New("insufficient role")
	}
	return claims, nil
}

// RequireService rejects requests without a valid service token. With no secret configured
// the internal endpoints are closed.
func (a *TriggerAuth) RequireService(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "trigger disabled"})
			return
		}
		if _, err := a.ParseFromRequest(r); err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}
