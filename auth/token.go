package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"zone-alerts-vms/be/models"
	"zone-alerts-vms/be/repository"
	"zone-alerts-vms/be/utils"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 2 * time.Hour

// UserFinder resolves a decrypted identity back to a stored user.
// It must return repository.ErrNotFound for unknown ids.
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// Claims carry the Fernet-encrypted user id so bearers never see the raw,
// sequential database id.
type Claims struct {
	EncryptedID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenCodec issues and validates bearer tokens. Its secrets are fixed at
// construction and shared by every request.
type TokenCodec struct {
	secret []byte
	cipher *utils.Cipher
	users  UserFinder
	now    func() time.Time
}

func NewTokenCodec(signingSecret string, cipher *utils.Cipher, users UserFinder) *TokenCodec {
	return &TokenCodec{
		secret: []byte(signingSecret),
		cipher: cipher,
		users:  users,
		now:    time.Now,
	}
}

// WithClock returns a copy of the codec that reads time from now.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *TokenCodec) Issue(userID uint) (string, error) {
	encryptedID, err := c.cipher.Encrypt(strconv.FormatUint(uint64(userID), 10))
	if err != nil {
		return "", fmt.Errorf("encrypting identity: %w", err)
	}

	now := c.now()
	claims := Claims{
		EncryptedID: encryptedID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Validate checks signature then expiry, decrypts the identity and loads
// the user. Store failures other than a missing row are returned wrapped
// and match none of the auth sentinels.
func (c *TokenCodec) Validate(ctx context.Context, tokenString string) (*models.User, error) {
	userID, err := c.identity(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := c.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolving token identity: %w", err)
	}
	return user, nil
}

func (c *TokenCodec) identity(tokenString string) (uint, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.EncryptedID == "" {
		return 0, fmt.Errorf("%w: missing identity", ErrTokenInvalid)
	}

	plain, err := c.cipher.Decrypt(claims.EncryptedID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	id, err := strconv.ParseUint(plain, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: malformed identity", ErrTokenInvalid)
	}
	return uint(id), nil
}
