package realtime

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TicketTTL is how long a websocket ticket stays valid. Tickets are minted
// over the authenticated REST surface and redeemed once at upgrade time.
const TicketTTL = 2 * time.Minute

// MintTicket signs a short-lived HS256 token identifying the user for the
// websocket upgrade.
func MintTicket(secret []byte, userID string) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("jwt secret is not set")
	}
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(TicketTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyTicket validates a ticket and returns the user id it was minted for.
func VerifyTicket(secret []byte, ticket string) (string, error) {
	token, err := jwt.Parse(ticket, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid ticket")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("ticket has no subject")
	}
	return sub, nil
}
