package cart

import (
	"crypto/rand"
	"fmt"
	"time"
)

// No 0/O/1/I/L so a code survives being read out over the phone.
const refAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const refRandomLen = 6

// newReferenceCode builds codes like CHK-20250301-7FKQ4Z. Uniqueness is
// enforced by the orders.reference_code unique index, not here; a collision
// surfaces as gorm.ErrDuplicatedKey and the caller retries.
func newReferenceCode(now time.Time) (string, error) {
	buf := make([]byte, refRandomLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reference code: %w", err)
	}
	for i, b := range buf {
		buf[i] = refAlphabet[int(b)%len(refAlphabet)]
	}
	return fmt.Sprintf("CHK-%s-%s", now.Format("20060102"), buf), nil
}
