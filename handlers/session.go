package handlers

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionCookieName = "cart_session"
	sessionLifetime   = 30 * 24 * time.Hour
)

// SessionClaims carry the cart id bound to the client session.
type SessionClaims struct {
	CartID string `json:"cart_id"`
	jwt.RegisteredClaims
}

// cartIDFromSession reads the cart id bound to the request's session
// cookie. A missing, malformed or tampered cookie reads as "no cart bound".
func cartIDFromSession(c *gin.Context) (uuid.UUID, bool) {
	tokenString, err := c.Cookie(sessionCookieName)
	if err != nil {
		return uuid.Nil, false
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(sessionSecret), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	cartID, err := uuid.Parse(claims.CartID)
	if err != nil {
		return uuid.Nil, false
	}
	return cartID, true
}

// bindCartToSession sets the session cookie binding the cart to the client.
func bindCartToSession(c *gin.Context, cartID uuid.UUID) {
	claims := &SessionClaims{
		CartID: cartID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(sessionSecret))
	if err != nil {
		log.Printf("failed to sign session token: %v", err)
		return
	}

	c.SetCookie(sessionCookieName, signed, int(sessionLifetime.Seconds()), "/", "", false, true)
}
