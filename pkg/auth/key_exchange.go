package auth

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

const (
	keyBitSize        = 1024
	verifyTokenLength = 4
)

// KeyExchange holds the server's RSA key pair for the login encryption
// request. One instance is shared by all connections.
type KeyExchange struct {
	privKey   *rsa.PrivateKey
	publicKey []byte
}

func NewKeyExchange() (*KeyExchange, error) {
	key, err := rsa.GenerateKey(rand.Reader, keyBitSize)
	if err != nil {
		return nil, fmt.Errorf("%w: generate key: %v", ErrCipher, err)
	}
	return newKeyExchange(key)
}

func newKeyExchange(key *rsa.PrivateKey) (*KeyExchange, error) {
	pubKey, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal public key: %v", ErrCipher, err)
	}

	return &KeyExchange{
		privKey:   key,
		publicKey: pubKey,
	}, nil
}

// PublicKey returns the DER encoded public key sent to the client.
func (kx *KeyExchange) PublicKey() []byte {
	return append([]byte(nil), kx.publicKey...)
}

func (kx *KeyExchange) VerifyToken() ([]byte, error) {
	verifyToken := make([]byte, verifyTokenLength)
	if _, err := rand.Read(verifyToken); err != nil {
		return nil, err
	}
	return verifyToken, nil
}

// DecryptSharedSecret checks the client's encrypted copy of verifyToken and
// returns the decrypted shared secret.
func (kx *KeyExchange) DecryptSharedSecret(verifyToken, encVerifyToken, encSharedSecret []byte) ([]byte, error) {
	decVerifyToken, err := kx.privKey.Decrypt(rand.Reader, encVerifyToken, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: verify token: %v", ErrCipher, err)
	}

	if !bytes.Equal(verifyToken, decVerifyToken) {
		return nil, ErrVerifyToken
	}

	sharedSecret, err := kx.privKey.Decrypt(rand.Reader, encSharedSecret, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: shared secret: %v", ErrCipher, err)
	}
	return sharedSecret, nil
}

// ServerHash is the hash of sharedSecret and this key pair's public key
// with the empty server id modern clients use.
func (kx *KeyExchange) ServerHash(sharedSecret []byte) string {
	return ServerHash("", sharedSecret, kx.publicKey)
}
