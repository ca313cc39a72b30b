package auth

// Terminology: User Identifiers
//   - UserID / userID: the MongoDB ObjectID (_id) of the user record, carried as the JWT subject
//   - Identifier: the string a user types to log in (email or nim)

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Token constants                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

const (
	Issuer = "votehub"

	// MinSecretLength is the shortest signing secret accepted without a warning.
	MinSecretLength = 32

	bearerPrefix = "Bearer "
)

var (
	ErrEmptySecret  = errors.New("jwt secret is empty")
	ErrInvalidToken = errors.New("invalid token")
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// Principal is the authenticated user injected into r.Context().
type Principal struct {
	ID    string
	Name  string
	Email string
	NIM   string
	Admin bool
}

// UserFetcher loads fresh user data for a token subject. It returns nil when
// the user no longer exists.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *Principal
}

// Claims are the JWT claims issued at login.
type Claims struct {
	Admin bool   `json:"adm"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*Principal, bool) {
	u, ok := r.Context().Value(currentUserKey).(*Principal)
	return u, ok
}

// WithTestUser injects a principal directly, bypassing token parsing.
func WithTestUser(r *http.Request, p *Principal) *http.Request {
	return withUser(r, p)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Manager                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Manager issues and verifies HS256 login tokens and provides the
// authentication middleware.
type Manager struct {
	secret  []byte
	ttl     time.Duration
	fetcher UserFetcher
	log     *zap.Logger
	now     func() time.Time
}

// NewManager creates a Manager signing with secret. Tokens expire after ttl.
func NewManager(secret string, ttl time.Duration, logger *zap.Logger) (*Manager, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if len(secret) < MinSecretLength {
		logger.Warn("jwt secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		log:    logger,
		now:    time.Now,
	}, nil
}

// SetUserFetcher makes LoadUser re-read the user on every request so that
// deleted users and role changes take effect before the token expires.
func (m *Manager) SetUserFetcher(f UserFetcher) {
	m.fetcher = f
}

// Issue signs a token for p and returns it with its expiry time.
func (m *Manager) Issue(p Principal) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := Claims{
		Admin: p.Admin,
		Name:  p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, exp, nil
}

// Parse verifies a signed token and returns its claims.
func (m *Manager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// LoadUser injects the user into context when the request carries a valid
// bearer token. Requests without one pass through unauthenticated.
func (m *Manager) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.Parse(raw)
		if err != nil {
			m.log.Debug("rejecting bearer token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if m.fetcher == nil {
			r = withUser(r, &Principal{ID: claims.Subject, Name: claims.Name, Admin: claims.Admin})
			next.ServeHTTP(w, r)
			return
		}

		if u := m.fetcher.FetchUser(r.Context(), claims.Subject); u != nil {
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadUser).
func (m *Manager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin ensures the user in context is an admin.
// Not signed in → 401; signed in without admin rights → 403.
func (m *Manager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !u.Admin {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// helpers

func withUser(r *http.Request, u *Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(h[len(bearerPrefix):])
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
