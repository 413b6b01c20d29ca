package orderid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Origin tags distinguishing where an order was placed.
const (
	OriginBot = "B"
	OriginWeb = "W"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const randomLen = 6

// New builds an identifier like W-7KQ2ZD-300826: origin tag, random segment
// drawn from a cryptographically secure source, creation date. Identifiers
// sort by day and are collision-resistant within one; the orders table
// additionally carries a unique constraint on them.
func New(origin string, now time.Time) (string, error) {
	buf := make([]byte, randomLen)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", fmt.Errorf("failed to draw random index: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%s-%s", origin, buf, now.Format("020106")), nil
}
