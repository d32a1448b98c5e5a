package megaupload

import (
	"crypto/cipher"
	"encoding/base64"
	"encoding/binary"
)

// a32FromBytes interprets b (a multiple of 4 bytes) as big-endian
// 32-bit words, the layout spec §3/§4.4 use throughout for key and MAC
// arithmetic.
func a32FromBytes(b []byte) []uint32 {
	a := make([]uint32, len(b)/4)
	for i := range a {
		a[i] = binary.BigEndian.Uint32(b[i*4:])
	}
	return a
}

// bytesFromA32 is the inverse of a32FromBytes.
func bytesFromA32(a []uint32) []byte {
	b := make([]byte, len(a)*4)
	for i, v := range a {
		binary.BigEndian.PutUint32(b[i*4:], v)
	}
	return b
}

// base64URLEncode encodes using MEGA's URL-safe, unpadded base64
// alphabet (spec §4.7 step 2/3).
func base64URLEncode(b []byte) []byte {
	enc := base64.RawURLEncoding
	out := make([]byte, enc.EncodedLen(len(b)))
	enc.Encode(out, b)
	return out
}

// base64URLDecode is the inverse of base64URLEncode. It tolerates a
// trailing newline or missing padding, matching the liberal decoding
// the teacher's own base64urldecode performs against live server
// responses.
func base64URLDecode(b []byte) ([]byte, error) {
	enc := base64.RawURLEncoding
	out := make([]byte, enc.DecodedLen(len(b)))
	n, err := enc.Decode(out, b)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// padZero right-pads b with zero bytes up to the next multiple of n.
// Used for the attribute JSON payload (spec §4.7 step 2), which is
// zero-filled at the tail of its last block.
func padZero(b []byte, n int) []byte {
	if rem := len(b) % n; rem != 0 {
		b = append(b, make([]byte, n-rem)...)
	}
	return b
}

// leftPadFinalBlock pads b up to the next multiple of n by inserting
// zero bytes in front of the final partial block, leaving every
// complete leading block untouched. Used by the MAC engine's
// per-chunk CBC-MAC (spec §4.4: "left-zero-padding the final partial
// block"), which is not the same padding as padZero's trailing fill.
func leftPadFinalBlock(b []byte, n int) []byte {
	full := (len(b) / n) * n
	tail := b[full:]
	if len(tail) == 0 {
		out := make([]byte, full)
		copy(out, b[:full])
		return out
	}
	out := make([]byte, full+n)
	copy(out, b[:full])
	copy(out[full+n-len(tail):], tail)
	return out
}

// ecbEncryptBlocks AES-ECB-encrypts src into dst, one AES block at a
// time. Go's stdlib has no cipher.BlockMode for ECB, so this is built
// directly from the already-instantiated cipher.Block, the same way
// the teacher's blockEncrypt/blockDecrypt helpers operate: one
// Encrypt/Decrypt call per 16-byte block, no chaining between blocks.
func ecbEncryptBlocks(block cipher.Block, dst, src []byte) {
	bs := block.BlockSize()
	for i := 0; i+bs <= len(src); i += bs {
		block.Encrypt(dst[i:i+bs], src[i:i+bs])
	}
}

func ecbDecryptBlocks(block cipher.Block, dst, src []byte) {
	bs := block.BlockSize()
	for i := 0; i+bs <= len(src); i += bs {
		block.Decrypt(dst[i:i+bs], src[i:i+bs])
	}
}
