package docgate

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL bounds the life of minted admin tokens.
const tokenTTL = 12 * time.Hour

// adminClaims is the JWT payload for admin bearer tokens.
type adminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// mintToken creates a signed short-lived admin token. Requires a
// configured JWT secret.
func (s *Service) mintToken() (string, time.Time, error) {
	if s.signKey == nil {
		return "", time.Time{}, fmt.Errorf("docgate: no jwt secret configured")
	}
	now := time.Now()
	expires := now.Add(tokenTTL)
	claims := &adminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Role: "admin",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// validateToken parses and checks an admin bearer token.
// Strictly pins the signing method to HS256 to prevent algorithm confusion.
func (s *Service) validateToken(tokenStr string) error {
	if s.signKey == nil {
		return fmt.Errorf("docgate: no jwt secret configured")
	}
	token, err := jwt.ParseWithClaims(tokenStr, &adminClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v (only HS256 allowed)", t.Header["alg"])
		}
		return s.signKey, nil
	})
	if err != nil {
		return err
	}
	claims, ok := token.Claims.(*adminClaims)
	if !ok || !token.Valid || claims.Role != "admin" {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// checkBasic verifies HTTP basic credentials against the configured hash.
// The only recognised user is "admin".
func (s *Service) checkBasic(r *http.Request) bool {
	if s.cfg.AdminPasswordHash == "" {
		return false
	}
	user, pass, ok := r.BasicAuth()
	if !ok || user != "admin" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(pass)) == nil
}

// requireAdmin guards admin routes. A bearer token minted by the token
// endpoint is checked before falling back to basic auth.
func (s *Service) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AdminPasswordHash == "" {
			writeError(w, http.StatusForbidden, ErrAdminDisabled)
			return
		}
		if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
			if err := s.validateToken(strings.TrimPrefix(h, "Bearer ")); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}
		if s.checkBasic(r) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("WWW-Authenticate", `Basic realm="domwalk admin"`)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
	})
}
