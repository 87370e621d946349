package security

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// RoleAdmin — роль, которую получает администратор после входа
const RoleAdmin = "admin"

// Claims представляет набор данных, встраиваемых в JWT-токен администратора
type Claims struct {
	jwt.RegisteredClaims
	UserID string
	Role   string
}

const exp = time.Hour * 24

// ErrInvalidToken возвращается, если токен не прошёл проверку
var ErrInvalidToken = errors.New("invalid token")

// GenerateJWT создает JWT-токен администратора для указанного userID
func GenerateJWT(userID, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(exp)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID: userID,
		Role:   RoleAdmin,
	})

	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseJWT проверяет подпись и срок действия токена.
// Ошибка истечения срока оборачивает jwt.ErrTokenExpired.
func ParseJWT(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Role != RoleAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CheckPassword сравнивает пароли за постоянное время.
// Пустой ожидаемый пароль запрещает вход.
func CheckPassword(given, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(expected)) == 1
}
