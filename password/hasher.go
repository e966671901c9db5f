package password

import (
	"errors"
	"strings"
)

// ErrUnsupportedDigest is returned when no registered hasher recognizes a digest.
var ErrUnsupportedDigest = errors.New("password: unsupported digest format")

// Hasher hashes plaintext passwords and verifies them against stored digests.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
	// Recognizes reports whether digest was produced by this algorithm.
	Recognizes(digest string) bool
}

// Set hashes with its primary Hasher and verifies digests produced by any
// member, so stored bcrypt digests keep working after switching to argon2id
// and the reverse.
type Set struct {
	primary Hasher
	others  []Hasher
}

// NewSet returns a Set that hashes with primary.
func NewSet(primary Hasher, others ...Hasher) *Set {
	return &Set{primary: primary, others: others}
}

func (s *Set) Hash(plaintext string) (string, error) {
	return s.primary.Hash(plaintext)
}

func (s *Set) Verify(plaintext, digest string) (bool, error) {
	if s.primary.Recognizes(digest) {
		return s.primary.Verify(plaintext, digest)
	}
	for _, h := range s.others {
		if h.Recognizes(digest) {
			return h.Verify(plaintext, digest)
		}
	}
	return false, ErrUnsupportedDigest
}

func (s *Set) Recognizes(digest string) bool {
	if s.primary.Recognizes(digest) {
		return true
	}
	for _, h := range s.others {
		if h.Recognizes(digest) {
			return true
		}
	}
	return false
}

type upgrader interface {
	NeedsUpgrade(digest string) (bool, error)
}

// NeedsRehash reports whether digest should be replaced by a fresh Hash:
// it was produced by a non-primary algorithm or with weaker parameters.
// Unreadable digests report false.
func (s *Set) NeedsRehash(digest string) bool {
	if !s.primary.Recognizes(digest) {
		return s.Recognizes(digest)
	}
	u, ok := s.primary.(upgrader)
	if !ok {
		return false
	}
	needs, err := u.NeedsUpgrade(digest)
	return err == nil && needs
}

// Algorithm names accepted by New.
const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// New builds a Set whose primary algorithm is algorithm. The other supported
// algorithm is always registered for verification.
func New(algorithm string, bcryptCost int, argon Config) (*Set, error) {
	b, err := NewBcrypt(bcryptCost)
	if err != nil {
		return nil, err
	}
	a, err := NewArgon2(argon)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(algorithm) {
	case "", AlgorithmBcrypt:
		return NewSet(b, a), nil
	case AlgorithmArgon2id:
		return NewSet(a, b), nil
	default:
		return nil, errors.New("password: unknown algorithm " + algorithm)
	}
}
