package tokens

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

const refreshType = "refresh"

var (
	ErrUnexpectedMethod = errors.New("unexpected sign method")
	ErrNotRefresh       = errors.New("not a refresh token")
	ErrInvalidSubject   = errors.New("invalid subject")
)

type AccessClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// UserID parses the numeric subject.
func (c *AccessClaims) UserID() (uint, error) {
	return parseSubject(c.Subject)
}

// Validate runs after the registered claims are checked, so a token without a
// usable subject never authenticates.
func (c *AccessClaims) Validate() error {
	_, err := c.UserID()
	return err
}

func (c *RefreshClaims) UserID() (uint, error) {
	return parseSubject(c.Subject)
}

func parseSubject(sub string) (uint, error) {
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidSubject
	}
	return uint(id), nil
}

func Keyfunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrUnexpectedMethod
		}
		return secret, nil
	}
}

func AccessClaimsFromToken(tokenStr string, accessSecret []byte) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, Keyfunc(accessSecret))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return &claims, nil
}

func RefreshClaimsFromToken(tokenStr string, refreshSecret []byte) (*RefreshClaims, error) {
	var claims RefreshClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, Keyfunc(refreshSecret))
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Type != refreshType {
		return nil, ErrNotRefresh
	}
	return &claims, nil
}
