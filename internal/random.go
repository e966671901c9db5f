package internal

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// RandomString draws n characters uniformly from alphabet using crypto/rand.
func RandomString(alphabet string, n int) (string, error) {
	if n <= 0 {
		return "", errors.New("random string length must be positive")
	}
	runes := []rune(alphabet)
	if len(runes) < 2 {
		return "", errors.New("random string alphabet too small")
	}

	var b strings.Builder
	b.Grow(n)

	max := big.NewInt(int64(len(runes)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteRune(runes[idx.Int64()])
	}
	return b.String(), nil
}

// StripRunes returns alphabet without any rune that appears in exclude.
func StripRunes(alphabet, exclude string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(exclude, r) {
			return -1
		}
		return r
	}, alphabet)
}
