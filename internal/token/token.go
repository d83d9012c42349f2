// Package token generates the opaque identifiers embedded in share links.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"strconv"
	"time"
)

const randomBytes = 16

// Generate returns a URL-safe token of the form <millis-base36>-<random>.
// The timestamp part keeps tokens roughly sortable by creation time, the
// random part carries 128 bits of entropy so tokens cannot be guessed.
func Generate() string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)

	buf := make([]byte, randomBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform entropy source is broken,
		// nothing sensible to fall back to
		panic(err)
	}

	return ts + "-" + base64.RawURLEncoding.EncodeToString(buf)
}
