// Package auth issues and validates the HS256 session tokens handed out at
// login and refresh.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/romcom/romcom-auth/internal/common"
	"github.com/romcom/romcom-auth/internal/server/models"
)

const issuer = "romcom-auth"

// Claims carries the identity of the session owner. UserData is the JSON
// snapshot of the public user fields at issue time.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	UserName string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	UserData string `json:"user_data"`
}

type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("empty signing secret")
	}
	return &Signer{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a token for u that expires after ttl. It returns the token
// and its expiry.
func (s *Signer) Issue(u models.User, ttl time.Duration) (string, time.Time, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("marshal user data: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(u.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   u.ID,
		UserName: u.UserName,
		Email:    u.Email,
		Role:     u.RoleName,
		UserData: string(data),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate checks signature, algorithm and expiry and returns the identity
// snapshot from the token. Expired tokens yield common.ErrTokenExpired, any
// other problem common.ErrInvalidToken.
func (s *Signer) Validate(tokenString string) (*models.User, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	var u models.User
	if err := json.Unmarshal([]byte(claims.UserData), &u); err != nil {
		return nil, fmt.Errorf("%w: user data: %v", common.ErrInvalidToken, err)
	}
	if u.ID != claims.UserID || u.ID <= 0 {
		return nil, fmt.Errorf("%w: user id mismatch", common.ErrInvalidToken)
	}
	return &u, nil
}
