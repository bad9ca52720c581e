// Package ident generates record identifiers.
package ident

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	copySuffixLen = 7
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// New returns a fresh id. Ids are UUIDv7 strings: crypto-random, and
// lexically sortable by creation time.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the system random source does.
		return uuid.NewString()
	}
	return id.String()
}

// Copy derives a distinct id for a duplicate of original, of the form
// <original>-copy-<unixMillis>-<random>.
func Copy(original string, now time.Time) string {
	return original + "-copy-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + randomSuffix(copySuffixLen)
}

func randomSuffix(n int) string {
	buf := make([]byte, n)
	limit := big.NewInt(int64(len(base36)))
	for i := range buf {
		v, err := rand.Int(rand.Reader, limit)
		if err != nil {
			buf[i] = base36[time.Now().UnixNano()%int64(len(base36))]
			continue
		}
		buf[i] = base36[v.Int64()]
	}
	return string(buf)
}
