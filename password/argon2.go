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
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	argon2Prefix          = "$argon2id$"
	argon2Segments        = 6
)

// Config holds argon2id cost parameters.
type Config struct {
	Memory      uint32 `yaml:"memory"`
	Time        uint32 `yaml:"time"`
	Parallelism uint8  `yaml:"parallelism"`
	SaltLength  uint32 `yaml:"salt_length"`
	KeyLength   uint32 `yaml:"key_length"`
}

// DefaultArgon2Config returns the parameters used when argon2id is selected.
func DefaultArgon2Config() Config {
	return Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2 produces PHC-encoded argon2id digests:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
type Argon2 struct {
	config Config
}

type argon2Digest struct {
	Config
	salt []byte
	sum  []byte
}

func NewArgon2(cfg Config) (*Argon2, error) {
	switch {
	case cfg.Memory < minMemoryKB:
		return nil, errors.New("password: argon2 memory must be >= 8192 KB")
	case cfg.Time < 1:
		return nil, errors.New("password: argon2 time must be >= 1")
	case cfg.Parallelism < 1:
		return nil, errors.New("password: argon2 parallelism must be >= 1")
	case cfg.SaltLength < minSaltLength:
		return nil, errors.New("password: argon2 salt length must be >= 16")
	case cfg.KeyLength < minKeyLength:
		return nil, errors.New("password: argon2 key length must be >= 16")
	}
	return &Argon2{config: cfg}, nil
}

func (a *Argon2) Hash(plaintext string) (string, error) {
	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	sum := argon2.IDKey([]byte(plaintext), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		a.config.Memory,
		a.config.Time,
		a.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Verify recomputes the key with the digest's own parameters and compares in
// constant time.
func (a *Argon2) Verify(plaintext, digest string) (bool, error) {
	d, err := decodeArgon2(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(plaintext), d.salt, d.Time, d.Memory, d.Parallelism, d.KeyLength)
	return subtle.ConstantTimeCompare(computed, d.sum) == 1, nil
}

func (a *Argon2) Recognizes(digest string) bool {
	return strings.HasPrefix(digest, argon2Prefix)
}

// NeedsUpgrade reports whether digest was produced with weaker parameters
// than the configured ones.
func (a *Argon2) NeedsUpgrade(digest string) (bool, error) {
	d, err := decodeArgon2(digest)
	if err != nil {
		return false, err
	}
	return a.config.Memory > d.Memory ||
		a.config.Time > d.Time ||
		a.config.Parallelism > d.Parallelism ||
		a.config.KeyLength != d.KeyLength, nil
}

func decodeArgon2(digest string) (*argon2Digest, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != argon2Segments || parts[0] != "" || parts[1] != "argon2id" {
		return nil, ErrUnsupportedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, errors.New("password: unsupported argon2 version")
	}

	d := &argon2Digest{}
	for _, pair := range strings.Split(parts[3], ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, errors.New("password: malformed argon2 parameters")
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, errors.New("password: malformed argon2 parameters")
		}
		switch key {
		case "m":
			d.Memory = uint32(n)
		case "t":
			d.Time = uint32(n)
		case "p":
			if n > 255 {
				return nil, errors.New("password: malformed argon2 parameters")
			}
			d.Parallelism = uint8(n)
		default:
			return nil, errors.New("password: unknown argon2 parameter " + key)
		}
	}
	if d.Memory < minMemoryKB || d.Time < 1 || d.Parallelism < 1 {
		return nil, errors.New("password: argon2 parameters out of range")
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(d.salt) < int(minSaltLength) {
		return nil, errors.New("password: invalid argon2 salt")
	}
	if d.sum, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.sum) == 0 {
		return nil, errors.New("password: invalid argon2 hash")
	}
	d.KeyLength = uint32(len(d.sum))
	d.SaltLength = uint32(len(d.salt))
	return d, nil
}
