package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Header constants per RFC 7519.
const (
	headerType      = "JWT"
	headerAlgorithm = "HS256"
)

type header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// StandardClaims holds the registered claims used by the account module.
// Temporal claims are Unix timestamps; zero values are treated as unset.
type StandardClaims struct {
	ID        string `json:"jti,omitempty"`
	Subject   string `json:"sub,omitempty"`
	Issuer    string `json:"iss,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Valid checks the temporal claims against now.
func (c StandardClaims) Valid(now time.Time) error {
	ts := now.Unix()
	if c.ExpiresAt > 0 && ts > c.ExpiresAt {
		return ErrExpiredToken
	}
	if c.NotBefore > 0 && ts < c.NotBefore {
		return ErrInvalidToken
	}
	return nil
}

// Service signs and verifies tokens with a single HMAC-SHA256 key.
type Service struct {
	signingKey []byte
}

// New creates a token service. The key should be at least 32 bytes.
func New(signingKey []byte) (*Service, error) {
	if len(signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	return &Service{signingKey: signingKey}, nil
}

// NewFromString is New for string-based configuration.
func NewFromString(signingKey string) (*Service, error) {
	return New([]byte(signingKey))
}

// Generate signs claims into a compact token string.
func (s *Service) Generate(claims any) (string, error) {
	if claims == nil {
		return "", ErrMissingClaims
	}

	headerJSON, err := json.Marshal(header{Type: headerType, Algorithm: headerAlgorithm})
	if err != nil {
		return "", fmt.Errorf("failed to marshal header: %w", err)
	}
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	payload := encode(headerJSON) + "." + encode(claimsJSON)
	return payload + "." + s.sign(payload), nil
}

// Parse verifies token and unmarshals its claims into claims. The signature
// is checked before anything is decoded from the claims segment.
func (s *Service) Parse(token string, claims any) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ErrInvalidToken
	}

	payload := parts[0] + "." + parts[1]
	expected := s.sign(payload)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(parts[2])) != 1 {
		return ErrInvalidSignature
	}

	headerJSON, err := decode(parts[0])
	if err != nil {
		return ErrInvalidToken
	}
	var h header
	if err := json.Unmarshal(headerJSON, &h); err != nil {
		return ErrInvalidToken
	}
	if h.Algorithm != headerAlgorithm {
		return ErrUnsupportedAlg
	}

	claimsJSON, err := decode(parts[1])
	if err != nil {
		return ErrInvalidToken
	}
	if err := json.Unmarshal(claimsJSON, claims); err != nil {
		return ErrInvalidToken
	}

	var std StandardClaims
	if err := json.Unmarshal(claimsJSON, &std); err == nil {
		if err := std.Valid(time.Now()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) sign(payload string) string {
	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write([]byte(payload))
	return encode(mac.Sum(nil))
}

func encode(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func decode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
