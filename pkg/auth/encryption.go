package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"net"

	"github.com/haveachin/barebones/pkg/crypto/cfb8"
	"go.uber.org/atomic"
)

// errorLocker fails instead of blocking when it is already held.
type errorLocker struct {
	locked atomic.Bool
}

func (l *errorLocker) lock() error {
	if !l.locked.CompareAndSwap(false, true) {
		return ErrConcurrentUse
	}
	return nil
}

func (l *errorLocker) unlock() {
	l.locked.Store(false)
}

// EncryptionContext holds the two cipher streams of one connection. Each
// direction must be driven by a single goroutine; overlapping calls on the
// same direction fail with ErrConcurrentUse.
type EncryptionContext struct {
	encrypt   cipher.Stream
	decrypt   cipher.Stream
	encryptMu errorLocker
	decryptMu errorLocker
}

func NewEncryptionContext(encrypt, decrypt cipher.Stream) (*EncryptionContext, error) {
	if encrypt == nil || decrypt == nil {
		return nil, fmt.Errorf("%w: cipher stream is nil", ErrCipher)
	}

	return &EncryptionContext{
		encrypt: encrypt,
		decrypt: decrypt,
	}, nil
}

// NewAESEncryptionContext sets up AES/CFB8 with the shared secret as both
// key and IV, the way the Minecraft protocol does.
func NewAESEncryptionContext(sharedSecret []byte) (*EncryptionContext, error) {
	if len(sharedSecret) != aes.BlockSize {
		return nil, fmt.Errorf("%w: shared secret must be %d bytes, got %d", ErrCipher, aes.BlockSize, len(sharedSecret))
	}

	encBlock, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	decBlock, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}

	return NewEncryptionContext(
		cfb8.NewEncrypter(encBlock, sharedSecret),
		cfb8.NewDecrypter(decBlock, sharedSecret),
	)
}

// Encrypt returns the ciphertext of p and advances the encrypt stream.
func (ec *EncryptionContext) Encrypt(p []byte) ([]byte, error) {
	out := make([]byte, len(p))
	if err := xor(&ec.encryptMu, ec.encrypt, out, p); err != nil {
		return nil, err
	}
	return out, nil
}

// Decrypt returns the plaintext of p and advances the decrypt stream.
func (ec *EncryptionContext) Decrypt(p []byte) ([]byte, error) {
	out := make([]byte, len(p))
	if err := xor(&ec.decryptMu, ec.decrypt, out, p); err != nil {
		return nil, err
	}
	return out, nil
}

func xor(l *errorLocker, s cipher.Stream, dst, src []byte) error {
	if err := l.lock(); err != nil {
		return err
	}
	defer l.unlock()

	return xorStream(s, dst, src)
}

// xorStream expects the caller to hold the direction's lock.
func xorStream(s cipher.Stream, dst, src []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCipher, r)
		}
	}()

	s.XORKeyStream(dst, src)
	return nil
}

// Conn wraps c so everything read is decrypted and everything written is
// encrypted with this context.
func (ec *EncryptionContext) Conn(c net.Conn) net.Conn {
	return &encryptedConn{
		Conn: c,
		ec:   ec,
	}
}

type encryptedConn struct {
	net.Conn
	ec *EncryptionContext
}

// Read takes the decrypt lock before touching the socket, so a concurrent
// reader gets ErrConcurrentUse without consuming any bytes. After ErrCipher
// the stream is out of step with the peer and the connection must be closed.
func (c *encryptedConn) Read(p []byte) (int, error) {
	if err := c.ec.decryptMu.lock(); err != nil {
		return 0, err
	}
	defer c.ec.decryptMu.unlock()

	n, err := c.Conn.Read(p)
	if n > 0 {
		if xerr := xorStream(c.ec.decrypt, p[:n], p[:n]); xerr != nil {
			return 0, xerr
		}
	}
	return n, err
}

func (c *encryptedConn) Write(p []byte) (int, error) {
	encrypted, err := c.ec.Encrypt(p)
	if err != nil {
		return 0, err
	}
	return c.Conn.Write(encrypted)
}
