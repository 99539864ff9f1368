package util

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const randomAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateTimestampWithPrefix builds an identifier from a prefix and the
// current time in nanoseconds, e.g. "TO-1714986912345678900".
func GenerateTimestampWithPrefix(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// GenerateRandomString returns n characters drawn from A-Z0-9.
func GenerateRandomString(n int) string {
	var sb strings.Builder
	max := big.NewInt(int64(len(randomAlphabet)))

	for i := 0; i < n; i++ {
		idx, _ := rand.Int(rand.Reader, max)
		sb.WriteByte(randomAlphabet[idx.Int64()])
	}

	return sb.String()
}

// Base36Timestamp returns the given time in upper case base36 millisecond
// precision, the encoding used inside ticket numbers.
func Base36Timestamp(t time.Time) string {
	return strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}

// RoundCurrency rounds an amount to the conventional two minor-unit
// decimals, half away from zero.
func RoundCurrency(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// ToMinorUnits converts a major-unit amount to minor units, the
// representation payment gateways expect.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
