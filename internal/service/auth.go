package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Taniksha-shah/pixelated-tic-tac-toe/internal/apperror"
)

const hostSubject = "host"

var ErrEmptySecret = errors.New("jwt secret key is empty")

// AuthService issues the tokens a host presents to take its seat back after reconnecting.
// A token is only good for the room and the host epoch it was issued for.
type AuthService interface {
	GenerateHostToken(roomID string, hostEpoch int) (string, error)
	VerifyHostToken(token, roomID string, hostEpoch int) error
}

type hostClaims struct {
	RoomID    string `json:"room_id"`
	HostEpoch int    `json:"host_epoch"`
	jwt.RegisteredClaims
}

type authServiceImpl struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

func NewAuthService(secretKey string, ttl time.Duration) (AuthService, error) {
	if secretKey == "" {
		return nil, ErrEmptySecret
	}

	return &authServiceImpl{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}, nil
}

func (that *authServiceImpl) GenerateHostToken(roomID string, hostEpoch int) (string, error) {
	now := that.now()

	claims := hostClaims{
		RoomID:    roomID,
		HostEpoch: hostEpoch,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   hostSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(that.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(that.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

func (that *authServiceImpl) VerifyHostToken(tokenString, roomID string, hostEpoch int) error {
	claims := &hostClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return that.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(hostSubject),
		jwt.WithTimeFunc(that.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", apperror.ErrInvalidToken, err)
	}

	if claims.RoomID != roomID {
		return fmt.Errorf("%w: token is issued for another room", apperror.ErrInvalidToken)
	}

	if claims.HostEpoch != hostEpoch {
		return fmt.Errorf("%w: token is issued for a previous host", apperror.ErrInvalidToken)
	}

	return nil
}
