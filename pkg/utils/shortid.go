package utils

import "crypto/rand"

// shortIDAlphabet keeps card links lowercase and unambiguous in URLs.
const shortIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// ShortIDLength is the length of generated card ids.
const ShortIDLength = 7

// NewShortID returns a random 7-character lowercase alphanumeric id used
// as the card's public unique id.
func NewShortID() (string, error) {
	buf := make([]byte, ShortIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = shortIDAlphabet[int(b)%len(shortIDAlphabet)]
	}
	return string(buf), nil
}
