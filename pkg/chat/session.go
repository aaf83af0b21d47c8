// Package chat describes the signed chat session a client forwards after
// login.
package chat

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
)

var ErrInvalidArgument = errors.New("invalid argument")

// Session is immutable. The signature is not verified here.
type Session struct {
	id        uuid.UUID
	publicKey crypto.PublicKey
	signature []byte
	expiresAt time.Time
}

func NewSession(id uuid.UUID, publicKey crypto.PublicKey, signature []byte, expiresAt time.Time) (Session, error) {
	switch {
	case id == uuid.Nil:
		return Session{}, fmt.Errorf("%w: session uuid is nil", ErrInvalidArgument)
	case publicKey == nil:
		return Session{}, fmt.Errorf("%w: public key is nil", ErrInvalidArgument)
	case signature == nil:
		return Session{}, fmt.Errorf("%w: signature is nil", ErrInvalidArgument)
	case expiresAt.IsZero():
		return Session{}, fmt.Errorf("%w: expiry is not set", ErrInvalidArgument)
	}

	return Session{
		id:        id,
		publicKey: publicKey,
		signature: append([]byte(nil), signature...),
		expiresAt: expiresAt,
	}, nil
}

// ParseSession builds a session from the fields of the player session
// packet: the key expiry in unix milliseconds and the DER encoded X.509
// public key.
func ParseSession(id uuid.UUID, expiresAtMillis int64, publicKeyDER, signature []byte) (Session, error) {
	pub, err := x509.ParsePKIXPublicKey(publicKeyDER)
	if err != nil {
		return Session{}, fmt.Errorf("%w: public key: %v", ErrInvalidArgument, err)
	}
	return NewSession(id, pub, signature, time.UnixMilli(expiresAtMillis))
}

func (s Session) UUID() uuid.UUID {
	return s.id
}

func (s Session) PublicKey() crypto.PublicKey {
	return s.publicKey
}

// Signature returns a copy of Mojang's signature over the public key.
func (s Session) Signature() []byte {
	return append([]byte(nil), s.signature...)
}

func (s Session) ExpiresAt() time.Time {
	return s.expiresAt
}

func (s Session) HasExpired() bool {
	return s.HasExpiredAt(time.Now())
}

func (s Session) HasExpiredAt(t time.Time) bool {
	return s.expiresAt.Before(t)
}
