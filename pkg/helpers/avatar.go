package helpers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// RandomAvatarURL picks a uniform random avatar out of a fixed pool
// (1..poolSize) and returns its URL.
func RandomAvatarURL(baseURL string, poolSize int) string {
	if poolSize <= 0 {
		poolSize = 100
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(poolSize)))
	if err != nil {
		// fall back to the first pool entry; avatar choice is cosmetic
		return fmt.Sprintf("%s/1.png", strings.TrimRight(baseURL, "/"))
	}
	return fmt.Sprintf("%s/%d.png", strings.TrimRight(baseURL, "/"), n.Int64()+1)
}
