// Package auth resolves the calling account of a gRPC request. The account is
// taken from an HS256 bearer token when a signing key is configured, or from
// the x-forum-account header when the service sits behind a trusted proxy.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"

	apperrors "github.com/agoraledger/forum/internal/platform/errors"
	"github.com/agoraledger/forum/internal/platform/requestctx"
	grpcmeta "github.com/agoraledger/forum/internal/services/forum/api/grpc/metadata"
)

const bearerPrefix = "bearer "

// Config configures caller resolution.
type Config struct {
	// SigningKey enables token mode. Empty means trusted-header mode.
	SigningKey []byte
	// Issuer, when set, must match the token iss claim.
	Issuer string
	Now    func() time.Time
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// TokenMode reports whether callers must present a signed token.
func (c Config) TokenMode() bool {
	return len(c.SigningKey) > 0
}

// IssueToken signs a token naming account as subject.
func (c Config) IssueToken(account string, ttl time.Duration) (string, error) {
	if !c.TokenMode() {
		return "", errors.New("signing key is not configured")
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return "", errors.New("account is required")
	}
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:  account,
		Issuer:   c.Issuer,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken checks the signature and claims of token and returns its
// subject.
func (c Config) VerifyToken(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.SigningKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeCallerUnauthenticated, "invalid bearer token", err)
	}
	if c.Issuer != "" && claims.Issuer != c.Issuer {
		return "", apperrors.New(apperrors.CodeCallerUnauthenticated, "token issuer mismatch")
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", apperrors.New(apperrors.CodeCallerUnauthenticated, "token subject is required")
	}
	return subject, nil
}

// ResolveAccount returns the caller account carried by the incoming
// metadata, or "" when the call is anonymous.
func (c Config) ResolveAccount(ctx context.Context) (string, error) {
	if !c.TokenMode() {
		return strings.TrimSpace(grpcmeta.IncomingValue(ctx, grpcmeta.AccountHeader)), nil
	}
	header := grpcmeta.IncomingValue(ctx, grpcmeta.AuthorizationHeader)
	if header == "" {
		return "", nil
	}
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", apperrors.New(apperrors.CodeCallerUnauthenticated, "authorization must be a bearer token")
	}
	return c.VerifyToken(strings.TrimSpace(header[len(bearerPrefix):]))
}

// UnaryServerInterceptor stores the resolved account in the request context.
// Anonymous calls pass through; handlers that need a caller reject them.
func UnaryServerInterceptor(cfg Config) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		account, err := cfg.ResolveAccount(ctx)
		if err != nil {
			return nil, apperrors.HandleError(err, grpcmeta.LocaleFromContext(ctx))
		}
		if account != "" {
			ctx = requestctx.WithAccountID(ctx, account)
		}
		return handler(ctx, req)
	}
}
