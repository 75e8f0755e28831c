package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16

	algorithmID = "argon2id"
)

// ErrInvalidInput is returned by [Hasher.Hash] when the plaintext is empty.
var ErrInvalidInput = errors.New("password input empty")

// Config holds argon2id cost parameters. All fields have enforced minimums;
// see [NewHasher].
type Config struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Hasher derives and verifies argon2id password hashes. Instances are
// immutable after construction and safe for concurrent use.
type Hasher struct {
	config Config
}

// NewHasher validates cfg against the package minimums and returns a
// ready-to-use [Hasher].
func NewHasher(cfg Config) (*Hasher, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, errors.New("password memory must be >= 8192 KB")
	case cfg.Time < minTimeCost:
		return nil, errors.New("password time must be >= 1")
	case cfg.Parallelism < minParallelism:
		return nil, errors.New("password parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, errors.New("password salt length must be >= 16")
	case cfg.KeyLength < minKeyLength:
		return nil, errors.New("password key length must be >= 16")
	}

	return &Hasher{config: cfg}, nil
}

// Hash derives the stored form for plaintext using the configured cost
// parameters and a fresh random salt. The plaintext is used byte-for-byte
// as provided (no Unicode normalization) and is never logged or echoed.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrInvalidInput
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey(
		[]byte(plaintext),
		salt,
		h.config.Time,
		h.config.Memory,
		h.config.Parallelism,
		h.config.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash of plaintext under the parameters embedded in
// storedForm and compares in constant time. A parse failure of storedForm
// is an error; a clean mismatch is (false, nil).
func (h *Hasher) Verify(plaintext string, storedForm string) (bool, error) {
	parsed, err := parseStored(storedForm)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(plaintext),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.key)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

// NeedsUpgrade reports whether storedForm was produced with weaker
// parameters than the current configuration and should be re-hashed on the
// next successful verification.
func (h *Hasher) NeedsUpgrade(storedForm string) (bool, error) {
	parsed, err := parseStored(storedForm)
	if err != nil {
		return false, err
	}

	upgrade := h.config.Memory > parsed.memory ||
		h.config.Time > parsed.time ||
		h.config.Parallelism > parsed.parallelism ||
		h.config.KeyLength != uint32(len(parsed.key))

	return upgrade, nil
}

type storedHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parseStored(s string) (*storedHash, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, errors.New("malformed stored hash")
	}
	if parts[1] != algorithmID {
		return nil, errors.New("unsupported hash algorithm")
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, errors.New("missing argon2 version")
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	out := &storedHash{}
	var seen int
	for _, pair := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.New("malformed cost parameters")
		}
		switch k {
		case "m":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minMemoryKB) {
				return nil, errors.New("invalid memory parameter")
			}
			out.memory = uint32(n)
		case "t":
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil || n < uint64(minTimeCost) {
				return nil, errors.New("invalid time parameter")
			}
			out.time = uint32(n)
		case "p":
			n, err := strconv.ParseUint(v, 10, 8)
			if err != nil || n < uint64(minParallelism) {
				return nil, errors.New("invalid parallelism parameter")
			}
			out.parallelism = uint8(n)
		default:
			return nil, errors.New("unsupported cost parameter")
		}
		seen++
	}
	if seen != 3 || out.memory == 0 || out.time == 0 || out.parallelism == 0 {
		return nil, errors.New("incomplete cost parameters")
	}

	var err error
	if out.salt, err = base64.StdEncoding.DecodeString(parts[4]); err != nil {
		return nil, errors.New("invalid salt encoding")
	}
	if len(out.salt) < int(minSaltLength) {
		return nil, errors.New("invalid salt length")
	}
	if out.key, err = base64.StdEncoding.DecodeString(parts[5]); err != nil {
		return nil, errors.New("invalid key encoding")
	}
	if len(out.key) == 0 {
		return nil, errors.New("invalid key length")
	}

	return out, nil
}
