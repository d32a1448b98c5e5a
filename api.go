package megaupload

import (
	"context"
	"encoding/json"
	"fmt"
)

// Requester is the opaque sink the core treats the API client as
// (spec §1: "request(JSON) -> JSON|int"). Everything below it —
// authentication, session handling, transport — is an external
// collaborator out of this package's scope.
type Requester interface {
	// Request submits a JSON-encodable payload and returns either the
	// decoded JSON response or a numeric MEGA error code.
	Request(ctx context.Context, payload any) (json.RawMessage, error)
}

// uploadURLRequest is the `u`-request spec §6 names: obtaining the
// upload base URL for a file of the given size.
type uploadURLRequest struct {
	Action string `json:"a"`
	Size   int64  `json:"s"`
	MS     int    `json:"ms"`
	R      int    `json:"r"`
	E      int    `json:"e"`
}

type uploadURLResponse struct {
	P string `json:"p"`
}

// RequestUploadURL issues the `u` request and returns the base URL
// chunks should be POSTed under (spec §6). This is the one piece of
// RPC plumbing the core still owns, since Coordinator.Run needs an
// upload base URL before it can post any chunk.
func RequestUploadURL(ctx context.Context, r Requester, size int64) (string, error) {
	raw, err := r.Request(ctx, uploadURLRequest{Action: "u", Size: size, MS: 0, R: 0, E: 0})
	if err != nil {
		return "", err
	}

	var resp uploadURLResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: parsing upload-url response: %v", ErrProtocol, err)
	}
	if resp.P == "" {
		return "", fmt.Errorf("%w: empty upload url in response", ErrProtocol)
	}
	return resp.P, nil
}

// nodeCreateNode is one entry of the "n" array in the node-creation
// payload (spec §4.7 step 4).
type nodeCreateNode struct {
	Handle string `json:"h"`
	Type   int    `json:"t"`
	Attrs  string `json:"a"`
	Key    string `json:"k"`
}

// nodeCreateRequest is the exact node-creation payload shape spec
// §4.7 step 4 specifies.
type nodeCreateRequest struct {
	Action string           `json:"a"`
	Target string           `json:"t"`
	Nodes  []nodeCreateNode `json:"n"`
}
