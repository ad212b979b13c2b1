package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	adminClaimsKey contextKey = "adminClaims"
	patientKey     contextKey = "patientIdentity"
)

var errMissingBearer = errors.New("missing bearer token")

// PatientClaims are issued by the hospital login service for a verified patient.
type PatientClaims struct {
	PatientID string `json:"patient_id"`
	AccountID string `json:"account_id,omitempty"`
	Phone     string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated patient attached to a request.
type Identity struct {
	UserID    string
	PatientID string
	AccountID string
	Phone     string
}

// Metadata renders the identity as request metadata keys.
func (id Identity) Metadata() map[string]string {
	out := map[string]string{}
	if id.UserID != "" {
		out["user_id"] = id.UserID
		out["auth_user_id"] = id.UserID
	}
	if id.PatientID != "" {
		out["patient_id"] = id.PatientID
	}
	if id.AccountID != "" {
		out["account_id"] = id.AccountID
	}
	if id.Phone != "" {
		out["patient_phone"] = id.Phone
	}
	return out
}

func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
		return "", errMissingBearer
	}
	return strings.TrimPrefix(auth, "Bearer "), nil
}

func parseHMAC(tokenString, secret string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}

// AdminJWT enforces a simple HMAC-signed JWT for admin endpoints.
func AdminJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "admin auth disabled", http.StatusUnauthorized)
				return
			}
			tokenString, err := bearerToken(r)
			if err != nil {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			claims := jwt.RegisteredClaims{}
			if err := parseHMAC(tokenString, secret, &claims); err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaimsFromContext returns admin JWT claims if present.
func AdminClaimsFromContext(ctx context.Context) (jwt.RegisteredClaims, bool) {
	claims, ok := ctx.Value(adminClaimsKey).(jwt.RegisteredClaims)
	return claims, ok
}

// PatientAuth attaches the patient identity when a valid bearer token is
// present. Requests without a token pass through unauthenticated; a token that
// fails verification is rejected.
func PatientAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil || secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims := PatientClaims{}
			if err := parseHMAC(tokenString, secret, &claims); err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			id := Identity{
				UserID:    claims.Subject,
				PatientID: claims.PatientID,
				AccountID: claims.AccountID,
				Phone:     claims.Phone,
			}
			if id.UserID == "" && id.PatientID == "" {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPatient(r.Context(), id)))
		})
	}
}

// WithPatient returns a context carrying id.
func WithPatient(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, patientKey, id)
}

// PatientFromContext returns the authenticated patient if present.
func PatientFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(patientKey).(Identity)
	return id, ok
}
