package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

type JwtCustomClaim struct {
	UserId         string `json:"user_id"`
	OrganizationId string `json:"organization_id"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	jwt.StandardClaims
}

const RoleAdmin = "A"

var ErrMissingJwtSecret = errors.New("API_SECRET must be set when GO_ENV=production")

var jwtSecret = []byte(getJwtSecret())

func getJwtSecret() string {
	secret := os.Getenv("API_SECRET")
	if secret == "" {
		return "Marketplace-Secret"
	}
	return secret
}

// CheckJwtSecret refuses the built-in development signing key in production.
func CheckJwtSecret() error {
	production := strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production")
	if production && strings.TrimSpace(os.Getenv("API_SECRET")) == "" {
		return ErrMissingJwtSecret
	}
	return nil
}

func JwtGenerate(userId string, organizationId string, name string, role string) (string, error) {
	tokenLifespan, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil {
		tokenLifespan = 24
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		UserId:         userId,
		OrganizationId: organizationId,
		Name:           name,
		Role:           role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(time.Hour * time.Duration(tokenLifespan)).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})

	return t.SignedString(jwtSecret)
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return jwtSecret, nil
	})
}
