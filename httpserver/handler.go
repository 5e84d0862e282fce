package httpserver

import (
	"context"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/AmmannChristian/go-tokenproxy/oauth2client"
)

//go:generate mockgen -destination=../internal/mocks/mock_token_provider.go -package=mocks github.com/AmmannChristian/go-tokenproxy/httpserver TokenProvider

// TokenProvider hands out the current upstream access token.
// *oauth2client.TokenManager implements it.
type TokenProvider interface {
	GetTokenWithContext(ctx context.Context) (string, error)
}

// Handler serves the gateway endpoints.
type Handler struct {
	tokens TokenProvider
	logger logrus.FieldLogger
}

// NewHandler returns a Handler backed by tokens. A nil logger discards output.
func NewHandler(tokens TokenProvider, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = discardLogger()
	}
	return &Handler{tokens: tokens, logger: logger}
}

// HealthCheck answers GET / with a plain "OK".
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "OK")
}

// Token answers GET /token with the cached or freshly exchanged access token.
// Every provider failure becomes a 500 carrying the error message.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.GetTokenWithContext(r.Context())
	if err != nil {
		h.logger.WithError(err).WithField("kind", errorKind(err)).Error("token request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}

func errorKind(err error) string {
	switch {
	case oauth2client.IsAuthConfigError(err):
		return "auth_config"
	case oauth2client.IsUpstreamError(err):
		return "upstream"
	default:
		return "internal"
	}
}

func discardLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
