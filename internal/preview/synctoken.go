package preview

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// syncAudience scopes sync tokens so no other HS256 token signed with the secret passes.
const syncAudience = "template-sync"

var (
	// ErrSyncDisabled is returned when no sync secret is configured.
	ErrSyncDisabled = errors.New("preview: template sync is disabled")
	// ErrSyncTokenInvalid is returned for malformed tokens, bad signatures and foreign claims.
	ErrSyncTokenInvalid = errors.New("preview: sync token is invalid")
	// ErrSyncTokenExpired is returned once a token's expiry has passed.
	ErrSyncTokenExpired = errors.New("preview: sync token has expired")
)

// SyncSigner issues and verifies the vendor-bound HS256 tokens a parent editor presents
// with template-sync. A nil signer, or one built with an empty secret, refuses every token.
type SyncSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// SyncOption customises a SyncSigner.
type SyncOption func(*SyncSigner)

// WithSyncClock injects a custom clock, primarily for tests.
func WithSyncClock(now func() time.Time) SyncOption {
	return func(s *SyncSigner) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSyncSigner builds a signer for secret. Issued tokens stay valid for ttl.
func NewSyncSigner(secret string, ttl time.Duration, opts ...SyncOption) *SyncSigner {
	s := &SyncSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		// Claims are checked against the injected clock in Verify.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Enabled reports whether the signer can issue and accept tokens.
func (s *SyncSigner) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

// Issue returns a token authorising template-sync for vendorID.
func (s *SyncSigner) Issue(vendorID string) (string, error) {
	if !s.Enabled() {
		return "", ErrSyncDisabled
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   vendorID,
		Audience:  jwt.ClaimStrings{syncAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks that token was issued for vendorID and has not expired.
func (s *SyncSigner) Verify(vendorID, token string) error {
	if !s.Enabled() {
		return ErrSyncDisabled
	}
	if token == "" {
		return ErrSyncTokenInvalid
	}
	claims := &jwt.RegisteredClaims{}
	if _, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}); err != nil {
		return ErrSyncTokenInvalid
	}
	if claims.Subject != vendorID || !claims.VerifyAudience(syncAudience, true) {
		return ErrSyncTokenInvalid
	}
	if !claims.VerifyExpiresAt(s.now(), true) {
		return ErrSyncTokenExpired
	}
	return nil
}
