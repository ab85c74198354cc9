package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid id token")

type Issuer struct {
	Name     string
	Audience string
	Secret   []byte
}

// NewIDToken выпускает HS256 ID token так же, как это делает внешний провайдер.
// Сервис сам токены пользователям не выдаёт: функция нужна для тестов и cmd/idtoken.
func NewIDToken(iss Issuer, email string, ttl time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)

	now := time.Now()
	claims["iss"] = iss.Name
	claims["aud"] = iss.Audience
	claims["email"] = email
	claims["typ"] = "id"
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()

	return token.SignedString(iss.Secret)
}

// ParseIDToken verifies signature, issuer, audience and expiry and returns
// the email claim. A typ claim is optional but must be "id" when present.
func ParseIDToken(iss Issuer, raw string) (string, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return iss.Secret, nil
	},
		jwt.WithIssuer(iss.Name),
		jwt.WithAudience(iss.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}

	// typ необязателен: внешний провайдер его не ставит, а access-токены отсекаем
	if typ, ok := claims["typ"]; ok && typ != "id" {
		return "", fmt.Errorf("%w: unexpected token type %v", ErrInvalidToken, claims["typ"])
	}

	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", fmt.Errorf("%w: email claim missing", ErrInvalidToken)
	}

	return email, nil
}
