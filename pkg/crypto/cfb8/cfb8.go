// Package cfb8 implements the 8 bit cipher feedback mode Minecraft uses to
// encrypt connections after login.
package cfb8

import "crypto/cipher"

type cfb8 struct {
	block     cipher.Block
	register  []byte
	keyStream []byte
	decrypt   bool
}

// NewEncrypter returns a stream that encrypts with block in CFB8 mode. The
// length of iv must equal the block size.
func NewEncrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(block, iv, false)
}

// NewDecrypter returns a stream that decrypts with block in CFB8 mode.
func NewDecrypter(block cipher.Block, iv []byte) cipher.Stream {
	return newCFB8(block, iv, true)
}

func newCFB8(block cipher.Block, iv []byte, decrypt bool) *cfb8 {
	blockSize := block.BlockSize()
	if len(iv) != blockSize {
		panic("cfb8: IV length must equal block size")
	}

	return &cfb8{
		block:     block,
		register:  append(make([]byte, 0, blockSize), iv...),
		keyStream: make([]byte, blockSize),
		decrypt:   decrypt,
	}
}

// XORKeyStream processes src one byte at a time; dst and src may overlap
// entirely.
func (c *cfb8) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("cfb8: output smaller than input")
	}

	last := len(c.register) - 1
	for i, b := range src {
		c.block.Encrypt(c.keyStream, c.register)
		out := b ^ c.keyStream[0]

		feedback := out
		if c.decrypt {
			feedback = b
		}

		copy(c.register, c.register[1:])
		c.register[last] = feedback
		dst[i] = out
	}
}
