package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mentorhub/mentorhub-api/api"
	"github.com/mentorhub/mentorhub-api/config"
)

// Metrics serves the in-process route metrics snapshot. Access requires an
// operator JWT signed with the shared secret and carrying an admin claim,
// separate from end-user bearer tokens.
type Metrics struct {
	JWTSecret []byte
}

// MetricsHandler returns the current metrics snapshot
func (m Metrics) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	if err := m.authorize(r); err != nil {
		config.ErrorStatus("metrics access denied", http.StatusUnauthorized, w, err)
		return
	}

	snap := api.GetMetrics().Snapshot()
	b, err := json.Marshal(snap)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

func (m Metrics) authorize(r *http.Request) error {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return fmt.Errorf("missing bearer token")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.JWTSecret, nil
	})
	if err != nil {
		return err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return fmt.Errorf("invalid token")
	}
	if admin, _ := claims["admin"].(bool); !admin {
		return fmt.Errorf("token is not an admin token")
	}
	return nil
}
