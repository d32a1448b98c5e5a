package megaupload

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRequester struct {
	lastPayload any
	response    json.RawMessage
	err         error
}

func (f *fakeRequester) Request(ctx context.Context, payload any) (json.RawMessage, error) {
	f.lastPayload = payload
	return f.response, f.err
}

func TestRegistrarEncryptsAttributesRoundTrip(t *testing.T) {
	km := testKeyMaterial()
	metaMAC := [metaMACSize]byte{1, 2, 3, 4, 5, 6, 7, 8}
	wireKey := packWireKey(km, metaMAC)

	var masterKey [attrKeySize]byte
	for i := range masterKey {
		masterKey[i] = byte(0x20 + i)
	}

	req := &fakeRequester{response: json.RawMessage(`{"ok":true}`)}
	registrar, err := NewRegistrar(req, masterKey[:], nil)
	require.NoError(t, err)

	attrs := Attributes{Name: "report.pdf", Label: 2, Favourite: true}
	resp, err := registrar.Register(context.Background(), "token123", "folder-1", wireKey, attrs)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{"ok":true}`), resp)

	payload, ok := req.lastPayload.(nodeCreateRequest)
	require.True(t, ok)
	assert.Equal(t, "p", payload.Action)
	assert.Equal(t, "folder-1", payload.Target)
	require.Len(t, payload.Nodes, 1)
	assert.Equal(t, "token123", payload.Nodes[0].Handle)
	assert.Equal(t, nodeTypeFile, payload.Nodes[0].Type)

	// spec §8 invariant: recomputing the attribute key from the wire
	// key and decrypting encrypted_attrs_b64 yields a zero-padded
	// "MEGA"+canonical-JSON re-encoding of the input attributes.
	attrKey := attributeKey(wireKey)
	decryptedAttrs := decryptAttrsForTest(t, attrKey, payload.Nodes[0].Attrs)
	assert.True(t, strings.HasPrefix(decryptedAttrs, "MEGA{"))

	var wire megaAttrsWire
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(decryptedAttrs, "MEGA")), &wire))
	assert.Equal(t, "report.pdf", wire.N)
	assert.Equal(t, 2, wire.Lbl)
	assert.Equal(t, 1, wire.Fav)

	// spec §8 invariant: ECB-decrypting encrypted_wire_key_b64 with the
	// master key yields the exact 32-byte wire key.
	decryptedKey := decryptWireKeyForTest(t, masterKey, payload.Nodes[0].Key)
	assert.Equal(t, wireKey, decryptedKey)
}

func decryptAttrsForTest(t *testing.T, attrKey [attrKeySize]byte, encoded string) string {
	t.Helper()
	raw, err := base64URLDecode([]byte(encoded))
	require.NoError(t, err)

	block, err := aes.NewCipher(attrKey[:])
	require.NoError(t, err)
	var zeroIV [16]byte
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, zeroIV[:]).CryptBlocks(out, raw)
	return strings.TrimRight(string(out), "\x00")
}

func decryptWireKeyForTest(t *testing.T, masterKey [attrKeySize]byte, encoded string) [wireKeySize]byte {
	t.Helper()
	raw, err := base64URLDecode([]byte(encoded))
	require.NoError(t, err)
	require.Len(t, raw, wireKeySize)

	block, err := aes.NewCipher(masterKey[:])
	require.NoError(t, err)

	var out [wireKeySize]byte
	ecbDecryptBlocks(block, out[:], raw)
	return out
}

func TestNewRegistrarRejectsWrongMasterKeySize(t *testing.T) {
	_, err := NewRegistrar(&fakeRequester{}, make([]byte, 10), nil)
	assert.Error(t, err)
}

func TestRegistrarPropagatesServiceError(t *testing.T) {
	req := &fakeRequester{err: NewServiceError(5)}
	registrar, err := NewRegistrar(req, make([]byte, attrKeySize), nil)
	require.NoError(t, err)

	_, err = registrar.Register(context.Background(), "tok", "folder", [wireKeySize]byte{}, Attributes{Name: "x"})
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 5, svcErr.Code)
}
