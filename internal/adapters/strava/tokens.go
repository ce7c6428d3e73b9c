package strava

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/pablo-ross/komornicka100/internal/adapters/store"
	"github.com/pablo-ross/komornicka100/pkg/logger"
	"github.com/pablo-ross/komornicka100/pkg/metrics"
)

// DefaultTokenURL is the production Strava OAuth token endpoint.
const DefaultTokenURL = "https://www.strava.com/oauth/token"

// defaultRefreshLeeway refreshes tokens that expire within five minutes, so a
// token never goes stale mid verification.
const defaultRefreshLeeway = 5 * time.Minute

// CredentialStore is the slice of the store the token service needs.
type CredentialStore interface {
	Credential(ctx context.Context, userID string) (*store.Credential, error)
	SaveCredential(ctx context.Context, cred *store.Credential) error
}

// TokenService hands out fresh access tokens, refreshing and persisting
// credentials as they near expiry.
type TokenService struct {
	creds        CredentialStore
	clientID     string
	clientSecret string
	tokenURL     string
	leeway       time.Duration
	now          func() time.Time
	logger       logger.Logger
}

// NewTokenService creates a token service backed by the given credential store.
func NewTokenService(creds CredentialStore, clientID, clientSecret string, opts ...TokenOption) *TokenService {
	s := &TokenService{
		creds:        creds,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     DefaultTokenURL,
		leeway:       defaultRefreshLeeway,
		now:          time.Now,
		logger:       logger.Get().Named("tokens"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AccessToken returns a valid access token for the user, refreshing the
// stored credential first when it is expired or about to expire.
func (s *TokenService) AccessToken(ctx context.Context, userID string) (string, error) {
	cred, err := s.creds.Credential(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrNoCredential
		}
		return "", fmt.Errorf("load credential: %w", err)
	}

	expiresAt := time.Unix(cred.ExpiresAt, 0)
	if expiresAt.After(s.now().Add(s.leeway)) {
		return cred.AccessToken, nil
	}

	tok, err := s.refresh(ctx, cred.RefreshToken)
	if err != nil {
		metrics.RecordTokenError()
		s.logger.Warn(ctx, "token refresh failed",
			logger.String("user_id", userID), logger.Error(err))
		return "", fmt.Errorf("%w: %s", ErrTokenRefresh, err)
	}

	cred.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		cred.RefreshToken = tok.RefreshToken
	}
	cred.ExpiresAt = tok.Expiry.Unix()
	cred.TokenType = tok.TokenType
	cred.UpdatedAt = s.now()

	if err := s.creds.SaveCredential(ctx, cred); err != nil {
		return "", fmt.Errorf("persist refreshed credential: %w", err)
	}

	metrics.RecordTokenRefresh()
	s.logger.Info(ctx, "access token refreshed", logger.String("user_id", userID))
	return cred.AccessToken, nil
}

func (s *TokenService) refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	cfg := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: s.tokenURL},
	}
	src := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return src.Token()
}
