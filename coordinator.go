package megaupload

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// UploadRequest names everything the Coordinator needs to drive one
// upload (spec §4.6's contract: file_path, target_id, attributes,
// key_override?, concurrency_cap).
type UploadRequest struct {
	FilePath       string
	TargetID       string
	Attributes     Attributes
	KeyOverride    []byte // optional 24-byte (content_key || nonce) override
	ConcurrencyCap int    // 0 means UploadConfig.ConcurrencyCap
	UploadBaseURL  string // from an out-of-scope `u` request; see api.go's RequestUploadURL
}

// UploadResult is what the Coordinator hands back once the node has
// been registered.
type UploadResult struct {
	Token    string
	WireKey  [wireKeySize]byte
	Response json.RawMessage
}

// Coordinator implements C6: it drives C1->C2->C3->(C4+C5) for every
// chunk, honors the concurrency cap, collects the completion token,
// finalizes the MAC, derives the wire key, and hands off to the
// Registrar. Grounded on the teacher's UploadFile worker-pool shape
// (workch/donech/quitch channels), re-expressed with
// golang.org/x/sync/errgroup + semaphore, per SPEC_FULL.md's domain
// stack.
type Coordinator struct {
	cfg       UploadConfig
	registrar *Registrar
	metrics   *Metrics
}

// NewCoordinator builds a Coordinator bound to a Registrar (and hence
// to a Requester and master key) and an UploadConfig.
func NewCoordinator(cfg UploadConfig, registrar *Registrar, metrics *Metrics) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Coordinator{cfg: cfg, registrar: registrar, metrics: metrics}
}

// Run executes the full upload pipeline for req and returns the
// server's node-creation response, per spec §4.6.
func (c *Coordinator) Run(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	uploadID := uuid.NewString()
	log := withUploadFields(c.cfg.Logger, uploadID, req.TargetID)

	ctx, span := startUploadSpan(ctx, uploadID)
	defer span.End()

	start := time.Now()
	defer func() { c.metrics.UploadDuration.Observe(time.Since(start).Seconds()) }()

	info, err := os.Stat(req.FilePath)
	if err != nil || !info.Mode().IsRegular() {
		c.metrics.UploadsFailed.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, req.FilePath)
	}
	size := info.Size()

	km, err := c.keyMaterial(req.KeyOverride)
	if err != nil {
		return nil, err
	}

	if req.UploadBaseURL == "" {
		return nil, fmt.Errorf("megaupload: UploadRequest.UploadBaseURL is required")
	}

	sc, err := newStreamCipher(km)
	if err != nil {
		return nil, err
	}
	mac, err := newMACEngine(km)
	if err != nil {
		return nil, err
	}

	uploader := newChunkUploader(req.UploadBaseURL, c.cfg.ChunkTimeout, log)

	concurrencyCap := req.ConcurrencyCap
	if concurrencyCap <= 0 {
		concurrencyCap = c.cfg.ConcurrencyCap
	}

	chunks := PlanChunks(size)
	log.WithField("chunks", len(chunks)).Debug("planned chunks")

	var lastToken string
	if len(chunks) > 0 {
		lastToken, err = c.runChunks(ctx, chunks, size, req.FilePath, concurrencyCap, sc, mac, uploader, log)
		if err != nil {
			// shut the MAC worker down; the chunk error is what is reported
			mac.Finalize(ctx, c.cfg.MACDrainTimeout)
			c.metrics.UploadsFailed.WithLabelValues("chunk_pipeline").Inc()
			return nil, err
		}
	}

	metaMAC, err := mac.Finalize(ctx, c.cfg.MACDrainTimeout)
	if err != nil {
		c.metrics.UploadsFailed.WithLabelValues("integrity").Inc()
		return nil, err
	}

	wireKey := packWireKey(km, metaMAC)

	resp, err := c.registrar.Register(ctx, lastToken, req.TargetID, wireKey, req.Attributes)
	if err != nil {
		c.metrics.UploadsFailed.WithLabelValues("register").Inc()
		return nil, err
	}

	return &UploadResult{Token: lastToken, WireKey: wireKey, Response: resp}, nil
}

func (c *Coordinator) keyMaterial(override []byte) (KeyMaterial, error) {
	if override != nil {
		return KeyMaterialFromBytes(override)
	}
	return NewKeyMaterial()
}

// runChunks drives the chunk pipeline: reads may complete out of
// order within the concurrency cap, cipher.Encrypt and mac.Submit are
// serialized in ascending chunk-index order via a per-index ticket
// channel, and uploads proceed unordered once a chunk's turn has
// passed (spec §4.6's ordering-guarantee summary).
func (c *Coordinator) runChunks(
	ctx context.Context,
	chunks []ChunkBoundary,
	fileSize int64,
	path string,
	concurrencyCap int,
	sc *streamCipher,
	mac *macEngine,
	uploader *chunkUploader,
	log logrus.FieldLogger,
) (string, error) {
	reader := newFileReader(path, int64(concurrencyCap))
	sem := semaphore.NewWeighted(int64(concurrencyCap))

	// tickets[i] becomes readable once chunk i-1's cipher+MAC-submit
	// step has run; tickets[0] starts pre-signaled.
	tickets := make([]chan struct{}, len(chunks)+1)
	for i := range tickets {
		tickets[i] = make(chan struct{}, 1)
	}
	tickets[0] <- struct{}{}

	var mu sync.Mutex
	var lastToken string

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range chunks {
		b := b
		isLast := b.Index == len(chunks)-1

		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			_, chunkSpan := startChunkSpan(gctx, b.Index)
			defer chunkSpan.End()

			plaintext, err := reader.ReadChunk(gctx, b, fileSize)
			if err != nil {
				return err
			}

			select {
			case <-tickets[b.Index]:
			case <-gctx.Done():
				return gctx.Err()
			}

			ciphertext, err := sc.Encrypt(b.Index, plaintext)
			if err != nil {
				return err
			}
			mac.Submit(plaintext)
			c.metrics.MACQueueDepth.Set(float64(mac.QueueDepth()))
			tickets[b.Index+1] <- struct{}{}

			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			token, err := uploader.Upload(gctx, b.Index, b.Start, ciphertext, isLast)
			sem.Release(1)
			if err != nil {
				return err
			}

			c.metrics.ChunksUploaded.Inc()
			c.metrics.BytesUploaded.Add(float64(len(plaintext)))

			// Only the chunk with the greatest start (the final
			// chunk) carries the real completion token; earlier
			// chunks' bodies are empty or intermediate and must be
			// discarded even if non-empty (spec §4.5 rule 2).
			if isLast {
				mu.Lock()
				lastToken = token
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return "", err
	}

	if lastToken == "" {
		return "", fmt.Errorf("%w: no completion token returned for final chunk", ErrProtocol)
	}

	log.WithField("token", lastToken).Debug("all chunks uploaded")
	return lastToken, nil
}
