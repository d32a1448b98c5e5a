package megaupload

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/crypto/pbkdf2"
)

// Default settings, generalized from the teacher's package constants
// (API_URL, RETRIES, UPLOAD_WORKERS, MAX_UPLOAD_WORKERS, TIMEOUT).
const (
	DefaultConcurrencyCap  = 4
	MaxConcurrencyCap      = 16
	DefaultRetries         = 5
	DefaultChunkTimeout    = defaultUploadTimeout
	DefaultMACDrainTimeout = 30 * time.Second

	pbkdf2Iterations = 100_000
	pbkdf2KeyLen     = 16
)

// UploadConfig carries the tunables the teacher's unexported `config`
// struct held (retries, worker count, timeout; the upload base URL is
// passed per upload in UploadRequest instead), widened per
// SPEC_FULL.md's ambient stack with a logger and an optional on-disk
// settings overlay loaded via viper.
type UploadConfig struct {
	ConcurrencyCap  int
	Retries         int
	ChunkTimeout    time.Duration
	MACDrainTimeout time.Duration
	Logger          logrus.FieldLogger
}

// DefaultUploadConfig returns the teacher's defaults, widened with the
// MAC drain timeout spec §4.6 step 6 requires.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		ConcurrencyCap:  DefaultConcurrencyCap,
		Retries:         DefaultRetries,
		ChunkTimeout:    DefaultChunkTimeout,
		MACDrainTimeout: DefaultMACDrainTimeout,
		Logger:          logrus.StandardLogger(),
	}
}

// LoadUploadConfig overlays settings from an optional configuration
// file/environment (viper, matching nas-ai/api's and
// kenneth/s3-encryption-gateway's config layers) on top of the
// defaults. name is passed to viper.SetConfigName; paths are
// additional search directories. A missing config file is not an
// error — the defaults stand.
func LoadUploadConfig(name string, paths ...string) (UploadConfig, error) {
	cfg := DefaultUploadConfig()

	v := viper.New()
	v.SetConfigName(name)
	v.SetEnvPrefix("MEGAUPLOAD")
	v.AutomaticEnv()
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetDefault("concurrency_cap", cfg.ConcurrencyCap)
	v.SetDefault("retries", cfg.Retries)
	v.SetDefault("chunk_timeout_seconds", int(cfg.ChunkTimeout.Seconds()))
	v.SetDefault("mac_drain_timeout_seconds", int(cfg.MACDrainTimeout.Seconds()))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("megaupload: reading config: %w", err)
		}
	}

	cap := v.GetInt("concurrency_cap")
	if cap <= 0 || cap > MaxConcurrencyCap {
		return cfg, fmt.Errorf("megaupload: concurrency_cap %d out of range (1..%d)", cap, MaxConcurrencyCap)
	}
	cfg.ConcurrencyCap = cap
	cfg.Retries = v.GetInt("retries")
	cfg.ChunkTimeout = time.Duration(v.GetInt("chunk_timeout_seconds")) * time.Second
	cfg.MACDrainTimeout = time.Duration(v.GetInt("mac_drain_timeout_seconds")) * time.Second

	return cfg, nil
}

// unwrapCachedMasterKey decrypts a master key that was previously
// cached to disk wrapped under a passphrase-derived key, using
// AES-128-CBC with a zero IV over the wrapped blob and PBKDF2-HMAC
// (golang.org/x/crypto/pbkdf2 — the teacher's own go.mod dependency,
// unexercised by the single retrieved file) to turn the passphrase
// into the unwrap key. This exists purely as local-cache convenience;
// the session master key itself always comes from the authenticated
// session (spec §6) and this path never touches the network.
func unwrapCachedMasterKey(passphrase string, salt []byte, wrapped []byte) ([]byte, error) {
	if len(wrapped) != attrKeySize {
		return nil, fmt.Errorf("megaupload: wrapped master key must be %d bytes, got %d", attrKeySize, len(wrapped))
	}
	unwrapKey := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)

	block, err := aes.NewCipher(unwrapKey)
	if err != nil {
		return nil, fmt.Errorf("megaupload: init unwrap cipher: %w", err)
	}
	var zeroIV [16]byte
	out := make([]byte, attrKeySize)
	cipher.NewCBCDecrypter(block, zeroIV[:]).CryptBlocks(out, wrapped)
	return out, nil
}
