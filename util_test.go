package megaupload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestA32BytesRoundTrip(t *testing.T) {
	words := []uint32{0x00010203, 0x10111213, 0xffeeddcc}
	b := bytesFromA32(words)
	assert.Equal(t, words, a32FromBytes(b))
}

func TestBase64URLRoundTrip(t *testing.T) {
	in := []byte{0, 1, 2, 250, 251, 252, 253, 254, 255}
	encoded := base64URLEncode(in)
	assert.NotContains(t, string(encoded), "+")
	assert.NotContains(t, string(encoded), "/")
	assert.NotContains(t, string(encoded), "=")

	decoded, err := base64URLDecode(encoded)
	require.NoError(t, err)
	assert.Equal(t, in, decoded)
}

func TestPadZero(t *testing.T) {
	assert.Equal(t, []byte{1, 2, 3, 0}, padZero([]byte{1, 2, 3}, 4))
	assert.Equal(t, []byte{1, 2, 3, 4}, padZero([]byte{1, 2, 3, 4}, 4))
}

func TestLeftPadFinalBlock(t *testing.T) {
	// partial final block: zeros go in front of the tail, not after it.
	assert.Equal(t, []byte{0, 1, 2, 3}, leftPadFinalBlock([]byte{1, 2, 3}, 4))

	// exact multiple: untouched, no extra block appended.
	assert.Equal(t, []byte{1, 2, 3, 4}, leftPadFinalBlock([]byte{1, 2, 3, 4}, 4))

	// leading complete blocks are copied verbatim; only the tail block
	// is zero-padded, and at its front.
	assert.Equal(t, []byte{1, 2, 3, 4, 0, 0, 5, 6}, leftPadFinalBlock([]byte{1, 2, 3, 4, 5, 6}, 4))

	// empty input pads to nothing, not a spurious zero block.
	assert.Empty(t, leftPadFinalBlock(nil, 4))
}
