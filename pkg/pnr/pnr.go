// Package pnr generates Passenger Name Records, the human-facing booking
// identifiers printed on itineraries.
package pnr

import (
	"crypto/rand"
	"math/big"
)

const (
	// DefaultLength is the standard airline PNR length.
	DefaultLength = 6
	// DefaultCharset excludes lowercase to match ticketing conventions.
	DefaultCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generator produces random PNR codes from a fixed charset.
type Generator struct {
	length  int
	charset string
}

// NewGenerator returns a Generator. Non-positive length or an empty charset
// fall back to the defaults.
func NewGenerator(length int, charset string) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	if charset == "" {
		charset = DefaultCharset
	}
	return &Generator{length: length, charset: charset}
}

// Generate returns a new random code. Uniqueness across bookings is the
// caller's responsibility; the booking service checks the repository and
// retries on collision.
func (g *Generator) Generate() (string, error) {
	max := big.NewInt(int64(len(g.charset)))
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = g.charset[n.Int64()]
	}
	return string(buf), nil
}
