package megaupload

import (
	"crypto/rand"
	"fmt"
)

const (
	contentKeySize  = 16
	nonceSize       = 8
	keyMaterialSize = contentKeySize + nonceSize
	metaMACSize     = 8
	wireKeySize     = 32
	attrKeySize     = 16
)

// KeyMaterial is the 24-byte (content_key, nonce) tuple spec §3 defines:
// the content key seeds both the CTR stream and the CBC-MAC, the nonce
// seeds both the CTR block prefix and the MAC's initial value.
type KeyMaterial struct {
	ContentKey [contentKeySize]byte
	Nonce      [nonceSize]byte
}

// NewKeyMaterial generates a random content key and nonce, as the
// teacher's UploadFile does with its inline mrand.Int31 loop — here
// sourced from crypto/rand instead, since nothing about this value
// needs to be reproducible or fast, only unpredictable.
func NewKeyMaterial() (KeyMaterial, error) {
	var km KeyMaterial
	if _, err := rand.Read(km.ContentKey[:]); err != nil {
		return km, fmt.Errorf("megaupload: generate content key: %w", err)
	}
	if _, err := rand.Read(km.Nonce[:]); err != nil {
		return km, fmt.Errorf("megaupload: generate nonce: %w", err)
	}
	return km, nil
}

// KeyMaterialFromBytes accepts a caller-supplied 24-byte override
// (spec §4.6 step 2, "Derive or accept the 24-byte key material").
func KeyMaterialFromBytes(b []byte) (KeyMaterial, error) {
	var km KeyMaterial
	if len(b) != keyMaterialSize {
		return km, fmt.Errorf("megaupload: key material override must be %d bytes, got %d", keyMaterialSize, len(b))
	}
	copy(km.ContentKey[:], b[:contentKeySize])
	copy(km.Nonce[:], b[contentKeySize:])
	return km, nil
}

// metaMACFromAccumulator folds the 16-byte MAC accumulator into the
// 8-byte meta-MAC, per spec §3/§4.4: split into four big-endian 32-bit
// words w0..w3, meta-MAC = BE(w0^w1) || BE(w2^w3).
func metaMACFromAccumulator(acc [16]byte) [metaMACSize]byte {
	w := a32FromBytes(acc[:])
	var out [metaMACSize]byte
	copy(out[:4], bytesFromA32([]uint32{w[0] ^ w[1]}))
	copy(out[4:], bytesFromA32([]uint32{w[2] ^ w[3]}))
	return out
}

// packWireKey builds the 32-byte wire key per spec §3:
//
//	word[0..4] = content_key_words XOR (nonce_words || meta_mac_words)
//	word[4..6] = nonce_words
//	word[6..8] = meta_mac_words
func packWireKey(km KeyMaterial, metaMAC [metaMACSize]byte) [wireKeySize]byte {
	ck := a32FromBytes(km.ContentKey[:])
	nonceW := a32FromBytes(km.Nonce[:])
	mmW := a32FromBytes(metaMAC[:])

	words := make([]uint32, 8)
	words[0] = ck[0] ^ nonceW[0]
	words[1] = ck[1] ^ nonceW[1]
	words[2] = ck[2] ^ mmW[0]
	words[3] = ck[3] ^ mmW[1]
	words[4] = nonceW[0]
	words[5] = nonceW[1]
	words[6] = mmW[0]
	words[7] = mmW[1]

	var out [wireKeySize]byte
	copy(out[:], bytesFromA32(words))
	return out
}

// attributeKey derives the 16-byte attribute key from the 32-byte wire
// key, per spec §4.7 step 1: interpreting the wire key as eight
// big-endian 32-bit words k[0..8], attrKey = BE(k0^k4)||BE(k1^k5)||BE(k2^k6)||BE(k3^k7).
func attributeKey(wireKey [wireKeySize]byte) [attrKeySize]byte {
	k := a32FromBytes(wireKey[:])
	words := []uint32{k[0] ^ k[4], k[1] ^ k[5], k[2] ^ k[6], k[3] ^ k[7]}
	var out [attrKeySize]byte
	copy(out[:], bytesFromA32(words))
	return out
}
