package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The signing key comes from JWT_SECRET, with a development fallback
// so a fresh checkout runs without any configuration.
func secretKey() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("pointsdesk-dev-secret-change-me")
}

// GenerateToken creates a new JWT for a given user ID and position.
// The position rides along so the middleware can gate role groups
// without a lookup on every request.
func GenerateToken(userID int64, position string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,                                // subject = user ID
		"pos": position,                              // account position (role)
		"exp": time.Now().Add(time.Hour * 72).Unix(), // expires in 3 days
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey())
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken parses and validates a JWT token string.
// It returns the user ID and position if the token is valid.
func ValidateToken(tokenString string) (int64, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Reject tokens signed with a different algorithm.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secretKey(), nil
	})
	if err != nil {
		return 0, "", err // expired, malformed, bad signature
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", errors.New("invalid token")
	}

	// JSON numbers decode as float64.
	userIDFloat, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", errors.New("invalid subject claim")
	}

	position, _ := claims["pos"].(string)

	return int64(userIDFloat), position, nil
}
