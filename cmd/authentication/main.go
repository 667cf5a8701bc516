// This is a **mock authentication service** that issues operator API tokens
// for one owner, simulating a login flow.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/artlix/backend/internal/jobbot/auth"
	"go.uber.org/zap"
)

const (
	defaultPort   = "8081"       // Default port for the authentication service
	defaultSecret = "jwt_secret" // Secret for signing JWT
)

// TokenResponse represents the response structure
type TokenResponse struct {
	Token string `json:"token"`
}

type tokenIssuer struct {
	secret  string
	ownerID int64
	logger  *zap.Logger
}

// ServeHTTP signs a token for the configured owner and returns it as JSON.
func (t *tokenIssuer) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	token, err := auth.GenerateToken(t.ownerID, t.secret)
	if err != nil {
		t.logger.Error("Failed to generate token", zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(TokenResponse{Token: token}); err != nil {
		t.logger.Error("Failed to encode token", zap.Error(err))
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	ownerID, err := strconv.ParseInt(os.Getenv("OWNER_ID"), 10, 64)
	if err != nil {
		logger.Fatal("OWNER_ID must be the owner's Telegram user id", zap.Error(err))
	}

	issuer := &tokenIssuer{
		secret:  getEnv("JWT_SECRET", defaultSecret),
		ownerID: ownerID,
		logger:  logger,
	}
	port := getEnv("AUTH_PORT", defaultPort)

	mux := http.NewServeMux()
	mux.Handle("/token", issuer)

	logger.Info("Authentication service running", zap.String("port", port), zap.Int64("owner_id", ownerID))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Fatal("Authentication service stopped", zap.Error(err))
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
