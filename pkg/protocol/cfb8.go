package protocol

import (
	"crypto/aes"
	"crypto/cipher"
)

// KeySize is the length of the shared secret negotiated during login.
const KeySize = 16

// cfb8 implements 8-bit cipher feedback mode. Each byte is encrypted with
// the first byte of the block cipher's output over a shift register that
// is fed with the ciphertext, so the stream can be cut at any byte.
type cfb8 struct {
	block   cipher.Block
	sr      []byte // shift register window, len = 2*blockSize
	pos     int    // start of the current register within sr
	out     []byte
	decrypt bool
}

func newCFB8(block cipher.Block, iv []byte, decrypt bool) *cfb8 {
	bs := block.BlockSize()
	c := &cfb8{
		block:   block,
		sr:      make([]byte, 2*bs),
		out:     make([]byte, bs),
		decrypt: decrypt,
	}
	copy(c.sr, iv)
	return c
}

// XORKeyStream implements cipher.Stream. dst and src may overlap exactly.
func (c *cfb8) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic("protocol: cfb8 output smaller than input")
	}
	bs := c.block.BlockSize()
	for i, b := range src {
		c.block.Encrypt(c.out, c.sr[c.pos:c.pos+bs])
		x := b ^ c.out[0]
		dst[i] = x

		// The register always shifts in the ciphertext byte.
		ct := x
		if c.decrypt {
			ct = b
		}
		if c.pos+bs == len(c.sr) {
			copy(c.sr, c.sr[c.pos+1:])
			c.pos = 0
			c.sr[bs-1] = ct
		} else {
			c.sr[c.pos+bs] = ct
			c.pos++
		}
	}
}

// NewCFB8Encrypter returns the outbound stream for key, using key as IV.
func NewCFB8Encrypter(key [KeySize]byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return newCFB8(block, key[:], false), nil
}

// NewCFB8Decrypter returns the inbound stream for key, using key as IV.
func NewCFB8Decrypter(key [KeySize]byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return newCFB8(block, key[:], true), nil
}
