package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	uniqueIDMin = 10000000
	uniqueIDMax = 99999999
)

// NewUniqueID returns a random 8-digit identifier (10000000-99999999).
// Callers check it against the users collection and draw again on collision.
func NewUniqueID() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(uniqueIDMax-uniqueIDMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+uniqueIDMin, 10), nil
}
