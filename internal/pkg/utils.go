package pkg

import (
	"math/rand"
	"strings"
)

const digits = "0123456789"

// RandomDigits returns a random numeric string of length n.
func RandomDigits(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(digits[rand.Intn(len(digits))])
	}
	return sb.String()
}
