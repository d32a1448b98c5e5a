package megaupload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
)

// defaultUploadTimeout is the per-request timeout spec §4.5 specifies.
const defaultUploadTimeout = 120 * time.Second

// serviceErrorPattern is the tightened response-body classifier spec
// §9's second ambiguity calls for: a body is a service error code only
// when it is exactly a '-' followed by one or more ASCII digits.
// Anything else numeric-looking (e.g. "42", "+7") is a valid token,
// unlike the legacy Python's `-int(body)` heuristic in
// original_source/legacy/legacy/upload/chunk_uploader.py, which would
// misclassify any integer-parseable body.
var serviceErrorPattern = regexp.MustCompile(`^-[0-9]+$`)

// chunkUploader posts one encrypted chunk per call to
// <upload_base>/<start> and parses the response per spec §4.5.
type chunkUploader struct {
	client     *http.Client
	uploadBase string
	log        logrus.FieldLogger
}

func newChunkUploader(uploadBase string, timeout time.Duration, log logrus.FieldLogger) *chunkUploader {
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}
	return &chunkUploader{
		client:     &http.Client{Timeout: timeout},
		uploadBase: uploadBase,
		log:        log,
	}
}

// Upload posts encrypted to <upload_base>/<start> and returns the
// server's response token. isLastChunk controls whether an empty body
// is treated as a protocol error (only the final chunk is required to
// carry a completion token — spec §4.5 rule 2).
func (u *chunkUploader) Upload(ctx context.Context, chunkIndex int, start int64, encrypted []byte, isLastChunk bool) (string, error) {
	url := fmt.Sprintf("%s/%d", u.uploadBase, start)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encrypted))
	if err != nil {
		return "", fmt.Errorf("%w: build request for chunk %d: %v", ErrTransport, chunkIndex, err)
	}
	req.ContentLength = int64(len(encrypted))

	u.log.WithFields(logrus.Fields{"chunk_index": chunkIndex, "start": start, "size": len(encrypted)}).Debug("uploading chunk")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: chunk %d: %v", ErrTransport, chunkIndex, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: chunk %d: http status %s", ErrTransport, chunkIndex, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: chunk %d: reading response: %v", ErrTransport, chunkIndex, err)
	}

	return u.parseResponse(chunkIndex, body, isLastChunk)
}

func (u *chunkUploader) parseResponse(chunkIndex int, body []byte, isLastChunk bool) (string, error) {
	text := string(body)

	if serviceErrorPattern.MatchString(text) {
		var code int
		fmt.Sscanf(text, "%d", &code)
		return "", NewServiceError(-code)
	}

	if text == "" {
		if isLastChunk {
			return "", fmt.Errorf("%w: empty response for final chunk %d", ErrProtocol, chunkIndex)
		}
		// Earlier chunks may legitimately return an empty or
		// intermediate body; only the last chunk's token matters
		// (spec §4.5 rule 2).
		return "", nil
	}

	return text, nil
}
