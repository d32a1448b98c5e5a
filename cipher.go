package megaupload

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"sync"
)

// streamCipher encrypts chunks under AES-128 counter mode with a
// single logical counter spanning the whole upload (spec §4.3). The
// counter block is nonce(8B, BE) || counter(8B, BE, starting at 0),
// incrementing every 16 bytes of keystream — so chunk K's encryption
// must continue exactly where chunk K-1 left off. Encrypting the
// chunks out of order would desynchronize the counter from the file
// offset it's supposed to track, hence the strict-order check.
//
// Mutual exclusion matches spec §4.3/§5: only one encryption may be in
// flight at a time, and the coordinator is responsible for calling
// Encrypt in ascending chunk-index order.
type streamCipher struct {
	mu        sync.Mutex
	block     cipher.Block
	stream    cipher.Stream
	lastIndex int
}

// newStreamCipher builds the single long-lived CTR stream for the
// upload's lifetime, seeded from km.Nonce per spec §3.
func newStreamCipher(km KeyMaterial) (*streamCipher, error) {
	block, err := aes.NewCipher(km.ContentKey[:])
	if err != nil {
		return nil, fmt.Errorf("megaupload: init stream cipher: %w", err)
	}
	var iv [16]byte
	copy(iv[:8], km.Nonce[:])
	return &streamCipher{
		block:     block,
		stream:    cipher.NewCTR(block, iv[:]),
		lastIndex: -1,
	}, nil
}

// Encrypt encrypts plaintext for chunkIndex into a newly allocated
// slice and returns it; plaintext is left unchanged. It rejects any call where chunkIndex != lastIndex+1.
func (c *streamCipher) Encrypt(chunkIndex int, plaintext []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if chunkIndex != c.lastIndex+1 {
		return nil, fmt.Errorf("%w: expected chunk %d, got %d", ErrOrder, c.lastIndex+1, chunkIndex)
	}

	ciphertext := make([]byte, len(plaintext))
	c.stream.XORKeyStream(ciphertext, plaintext)
	c.lastIndex = chunkIndex
	return ciphertext, nil
}

// ctrBlockFor is kept only to document the relationship between a
// chunk's byte offset and the CTR counter value it consumes: after
// encrypting `start` bytes of keystream, the counter equals
// start/16. Go's cipher.NewCTR advances its internal counter for us,
// so nothing here resets it between chunks. Nothing in the package
// or its tests calls this function.
func ctrBlockFor(nonce [nonceSize]byte, counter uint64) [16]byte {
	var block [16]byte
	copy(block[:8], nonce[:])
	binary.BigEndian.PutUint64(block[8:], counter)
	return block
}
