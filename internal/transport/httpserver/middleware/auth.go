package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"trpg-scheduler/internal/config"
	"trpg-scheduler/pkg/logger"
)

// IdentityAuth validates bearer tokens against the external identity
// provider. Session management lives entirely outside this service; the
// middleware only resolves a token to a user id.
type IdentityAuth struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	skipAuth bool
	mockUser User
	log      logger.Logger
}

type identityResponse struct {
	ID       string `json:"id"`
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	Metadata struct {
		Name string `json:"name"`
	} `json:"user_metadata"`
}

func NewIdentityAuth(cfg config.AuthConfig, log logger.Logger) *IdentityAuth {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &IdentityAuth{
		baseURL:  strings.TrimRight(cfg.URL, "/"),
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		skipAuth: cfg.SkipAuth,
		mockUser: User{
			ID:   strings.TrimSpace(cfg.MockUserID),
			Name: strings.TrimSpace(cfg.MockUserName),
		},
		log: log,
	}
}

func (a *IdentityAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipAuth {
			if a.mockUser.ID == "" {
				writeAuthError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock user id not configured")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), a.mockUser)))
			return
		}

		if a.baseURL == "" {
			writeAuthError(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, a.baseURL+"/auth/v1/user", nil)
		if err != nil {
			unauthorized(w)
			return
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if a.apiKey != "" {
			req.Header.Set("apikey", a.apiKey)
		}

		resp, err := a.client.Do(req)
		if err != nil {
			a.log.BusinessError("auth: identity provider unreachable", err)
			unauthorized(w)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			unauthorized(w)
			return
		}

		var payload identityResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			unauthorized(w)
			return
		}

		userID := payload.ID
		if userID == "" {
			userID = payload.Sub
		}
		if userID == "" {
			unauthorized(w)
			return
		}

		user := User{
			ID:    userID,
			Email: payload.Email,
			Name:  payload.Metadata.Name,
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func bearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	writeAuthError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]map[string]string{
		"error": {"code": code, "message": message},
	})
}
