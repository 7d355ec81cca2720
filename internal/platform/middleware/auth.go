package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"tracker/pkg/requestcontext"
)

// SurveyAccessValidator verifies bearer tokens.
type SurveyAccessValidator interface {
	ValidateToken(tokenString string) (*SurveyClaims, error)
}

// SurveyClaims are the verified claims of a survey access token.
type SurveyClaims struct {
	SurveyID int64
	UserID   int64
}

// RequireSurveyAccess rejects requests without a valid bearer token and
// stores the granted survey in the request context.
func RequireSurveyAccess(validator SurveyAccessValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, logger, r, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeUnauthorized(w, logger, r, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithSurveyAccess(ctx, requestcontext.Access{
				SurveyID: claims.SurveyID,
				UserID:   claims.UserID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, logger *slog.Logger, r *http.Request, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, err := w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to write unauthorized response",
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}
}
