// internal/daily/daily.go
//
// Deterministic "board of the day".
// Every player who asks for the daily board on a given UTC date is dealt the
// same layout: the shuffle seed is HMAC(salt, YYYY-MM-DD).

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns the shuffle seed for the date containing t.
func Seed(t time.Time, salt string) uint64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(t)))
	sum := h.Sum(nil)
	// first 8 bytes are plenty for a shuffle seed
	return binary.BigEndian.Uint64(sum[:8])
}
