package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

// Claims токена, который выдаёт сервис входа: {id, role, name}
type Claims struct {
	UserID int64  `json:"id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Verifier проверяет HS256 токены
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// ParseToken проверяет подпись и срок действия и возвращает вызывающего
func (v *Verifier) ParseToken(tokenString string) (model.Caller, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return model.Caller{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return model.Caller{}, jwt.ErrTokenInvalidClaims
	}

	role, ok := model.ParseRole(claims.Role)
	if !ok {
		return model.Caller{}, fmt.Errorf("%w: unknown role %q", jwt.ErrTokenInvalidClaims, claims.Role)
	}
	if claims.UserID <= 0 {
		return model.Caller{}, errors.New("token has no user id")
	}

	return model.Caller{ID: claims.UserID, Role: role, Name: claims.Name}, nil
}

// NewToken подписывает токен для вызывающего. Нужен для тестов и служебных утилит
func (v *Verifier) NewToken(caller model.Caller, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: caller.ID,
		Role:   caller.Role.String(),
		Name:   caller.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
