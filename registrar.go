package megaupload

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

const nodeTypeFile = 0

// Attributes is the file-attribute object the registrar encrypts
// under the derived wire key, per spec §4.7 step 2. Name is required;
// Label and Favourite are the optional fields spec §4.7 names
// ("lbl": int, "fav": 1), grounded on
// original_source/megapy/core/attributes.py's Attributes.unparse.
type Attributes struct {
	Name      string
	Label     int
	Favourite bool
}

// megaAttrsWire is the internal MEGA attribute JSON shape.
type megaAttrsWire struct {
	N   string `json:"n"`
	Lbl int    `json:"lbl,omitempty"`
	Fav int    `json:"fav,omitempty"`
}

func (a Attributes) wire() megaAttrsWire {
	w := megaAttrsWire{N: a.Name}
	if a.Label != 0 {
		w.Lbl = a.Label
	}
	if a.Favourite {
		w.Fav = 1
	}
	return w
}

// Registrar implements C7: it encrypts the attributes object under
// the derived wire key, ECB-encrypts the wire key under the caller's
// master key, and submits the node-creation payload.
type Registrar struct {
	requester Requester
	masterKey [attrKeySize]byte
	log       logrus.FieldLogger
}

// NewRegistrar builds a Registrar bound to a 16-byte session master
// key (spec §6: "provided by the authenticated session").
func NewRegistrar(requester Requester, masterKey []byte, log logrus.FieldLogger) (*Registrar, error) {
	if len(masterKey) != attrKeySize {
		return nil, fmt.Errorf("megaupload: master key must be %d bytes, got %d", attrKeySize, len(masterKey))
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Registrar{requester: requester, log: log}
	copy(r.masterKey[:], masterKey)
	return r, nil
}

// encryptAttrs implements spec §4.7 step 2: derive the attribute key,
// encode attributes as MEGA's "MEGA"+JSON string, zero-pad to a
// multiple of 16 bytes, AES-128-CBC encrypt with an all-zero IV, base64url-encode.
func encryptAttrs(attrKey [attrKeySize]byte, attrs Attributes) (string, error) {
	payload, err := json.Marshal(attrs.wire())
	if err != nil {
		return "", fmt.Errorf("megaupload: marshal attributes: %w", err)
	}

	plaintext := append([]byte("MEGA"), payload...)
	plaintext = padZero(plaintext, 16)

	block, err := aes.NewCipher(attrKey[:])
	if err != nil {
		return "", fmt.Errorf("megaupload: init attribute cipher: %w", err)
	}
	var zeroIV [16]byte
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, zeroIV[:]).CryptBlocks(ciphertext, plaintext)

	return string(base64URLEncode(ciphertext)), nil
}

// encryptWireKey ECB-encrypts the 32-byte wire key as two independent
// blocks under the master key (spec §4.7 step 3), base64url-encoded.
func encryptWireKey(masterKey [attrKeySize]byte, wireKey [wireKeySize]byte) (string, error) {
	block, err := aes.NewCipher(masterKey[:])
	if err != nil {
		return "", fmt.Errorf("megaupload: init master cipher: %w", err)
	}
	encrypted := make([]byte, wireKeySize)
	ecbEncryptBlocks(block, encrypted, wireKey[:])
	return string(base64URLEncode(encrypted)), nil
}

// Register encrypts attrs under wireKey, wraps wireKey under the
// master key, and submits the node-creation payload (spec §4.7 step
// 4-5). A response that is a bare JSON integer is returned as a
// *ServiceError carrying the negated value, as the uploader does.
func (r *Registrar) Register(ctx context.Context, token string, targetID string, wireKey [wireKeySize]byte, attrs Attributes) (json.RawMessage, error) {
	attrKey := attributeKey(wireKey)

	encAttrs, err := encryptAttrs(attrKey, attrs)
	if err != nil {
		return nil, err
	}
	encKey, err := encryptWireKey(r.masterKey, wireKey)
	if err != nil {
		return nil, err
	}

	payload := nodeCreateRequest{
		Action: "p",
		Target: targetID,
		Nodes: []nodeCreateNode{{
			Handle: token,
			Type:   nodeTypeFile,
			Attrs:  encAttrs,
			Key:    encKey,
		}},
	}

	r.log.WithFields(logrus.Fields{"target": targetID, "token": token}).Debug("registering node")

	resp, err := r.requester.Request(ctx, payload)
	if err != nil {
		return nil, err
	}
	var code int
	if json.Unmarshal(resp, &code) == nil {
		return nil, NewServiceError(-code)
	}
	return resp, nil
}
