package megaupload

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKeyMaterial() KeyMaterial {
	var km KeyMaterial
	for i := range km.ContentKey {
		km.ContentKey[i] = byte(i)
	}
	for i := range km.Nonce {
		km.Nonce[i] = byte(0x10 + i)
	}
	return km
}

func TestStreamCipherRejectsOutOfOrder(t *testing.T) {
	sc, err := newStreamCipher(testKeyMaterial())
	require.NoError(t, err)

	_, err = sc.Encrypt(1, make([]byte, 16))
	assert.True(t, errors.Is(err, ErrOrder))

	_, err = sc.Encrypt(0, make([]byte, 16))
	assert.NoError(t, err)

	_, err = sc.Encrypt(0, make([]byte, 16))
	assert.True(t, errors.Is(err, ErrOrder))
}

func TestStreamCipherRoundTripsAgainstPlainCTR(t *testing.T) {
	km := testKeyMaterial()
	plain := make([]byte, 3*16+5)
	for i := range plain {
		plain[i] = byte(i)
	}

	// reference: one shot AES-CTR over the whole plaintext with
	// nonce||0 as the initial counter block (spec §8's round-trip
	// property).
	block, err := aes.NewCipher(km.ContentKey[:])
	require.NoError(t, err)
	var iv [16]byte
	copy(iv[:8], km.Nonce[:])
	want := make([]byte, len(plain))
	cipher.NewCTR(block, iv[:]).XORKeyStream(want, plain)

	sc, err := newStreamCipher(km)
	require.NoError(t, err)

	got := make([]byte, 0, len(plain))
	chunkSizes := []int{16, 16, 16, 5}
	offset := 0
	for i, n := range chunkSizes {
		out, err := sc.Encrypt(i, plain[offset:offset+n])
		require.NoError(t, err)
		got = append(got, out...)
		offset += n
	}

	assert.Equal(t, want, got)
}
