package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const patientIDKey contextKey = "patientID"

// PatientJWT enforces an HMAC-signed JWT session token and resolves the
// caller to a patient id (the token subject).
func PatientJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "patient auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			patientID, err := uuid.Parse(claims.Subject)
			if err != nil {
				http.Error(w, "invalid token subject", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), patientIDKey, patientID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithPatientID returns a context carrying the patient id. Useful for
// handlers invoked outside the HTTP middleware chain.
func WithPatientID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, patientIDKey, id)
}

// PatientIDFromContext returns the authenticated patient's id if present.
func PatientIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(patientIDKey).(uuid.UUID)
	return id, ok
}
