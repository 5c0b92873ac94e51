package lookup

import (
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"
)

// Header names carried by every signed request.
const (
	HeaderAuthKey  = "X-Auth-Key"
	HeaderAuthDate = "X-Auth-Date"
	HeaderAuth     = "Authorization"
)

// BuildAuthHeaders computes request credentials for the given instant.
// The signature is the lowercase hex SHA-1 of key, secret and the unix
// timestamp concatenated. Output depends only on the inputs truncated to
// the second.
func BuildAuthHeaders(key, secret string, now time.Time) http.Header {
	ts := strconv.FormatInt(now.Unix(), 10)
	sum := sha1.Sum([]byte(key + secret + ts))

	h := make(http.Header, 3)
	h.Set(HeaderAuthKey, key)
	h.Set(HeaderAuthDate, ts)
	h.Set(HeaderAuth, hex.EncodeToString(sum[:]))
	return h
}
