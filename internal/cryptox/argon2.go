// Package cryptox hashes and verifies user passwords.
//
// Digests are argon2id PHC strings:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
//
// Salt and hash are unpadded standard base64. The parameters travel with the
// digest, so raising them later does not break existing credentials.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithm = "argon2id"

var ErrMalformedDigest = errors.New("malformed password digest")

// Params are the argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory  uint32 `json:"memory_kib"`
	Time    uint32 `json:"time"`
	Threads uint8  `json:"threads"`
	SaltLen uint32 `json:"salt_len"`
	KeyLen  uint32 `json:"key_len"`
}

func DefaultParams() Params {
	return Params{
		Memory:  64 * 1024,
		Time:    1,
		Threads: 4,
		SaltLen: 16,
		KeyLen:  32,
	}
}

func (p Params) validate() error {
	switch {
	case p.Memory < 8*uint32(p.Threads):
		return fmt.Errorf("argon2 memory must be at least 8*threads KiB")
	case p.Time < 1:
		return fmt.Errorf("argon2 time must be >= 1")
	case p.Threads < 1:
		return fmt.Errorf("argon2 threads must be >= 1")
	case p.SaltLen < 8:
		return fmt.Errorf("argon2 salt must be >= 8 bytes")
	case p.KeyLen < 16:
		return fmt.Errorf("argon2 key must be >= 16 bytes")
	}
	return nil
}

type Hasher struct {
	params Params
	rand   io.Reader
	dummy  string
}

// NewHasher validates p and prepares a throwaway digest used by VerifyDummy.
func NewHasher(p Params) (*Hasher, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	h := &Hasher{params: p, rand: rand.Reader}
	dummy, err := h.Hash("romcom-dummy-password")
	if err != nil {
		return nil, err
	}
	h.dummy = dummy
	return h, nil
}

// Hash returns a freshly salted digest of plaintext. Two calls with the same
// input produce different strings; use Verify to compare.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, h.params.SaltLen)
	if _, err := io.ReadFull(h.rand, salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithm,
		argon2.Version,
		h.params.Memory, h.params.Time, h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether plaintext matches digest. The comparison is
// constant-time. A digest that cannot be parsed yields ErrMalformedDigest.
func (h *Hasher) Verify(plaintext, digest string) (bool, error) {
	d, err := parseDigest(digest)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey([]byte(plaintext), d.salt, d.time, d.memory, d.threads, uint32(len(d.key)))

	return subtle.ConstantTimeCompare(key, d.key) == 1, nil
}

// VerifyDummy spends the same work as Verify against a digest nobody owns.
// Callers use it when the account does not exist.
func (h *Hasher) VerifyDummy(plaintext string) {
	_, _ = h.Verify(plaintext, h.dummy)
}

type digest struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseDigest(s string) (*digest, error) {
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithm {
		return nil, ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, ErrMalformedDigest
	}

	var d digest
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.memory, &d.time, &d.threads); err != nil {
		return nil, ErrMalformedDigest
	}
	if d.time == 0 || d.threads == 0 {
		return nil, ErrMalformedDigest
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(d.salt) == 0 {
		return nil, ErrMalformedDigest
	}
	if d.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.key) == 0 {
		return nil, ErrMalformedDigest
	}

	return &d, nil
}
