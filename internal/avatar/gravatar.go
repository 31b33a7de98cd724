// Package avatar derives display avatars from account data.
package avatar

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// DefaultSize is the gravatar size used when none is requested.
const DefaultSize = 80

// GravatarURL returns the identicon-backed gravatar for email at size pixels.
// The email is trimmed and lowercased before hashing.
func GravatarURL(email string, size int) string {
	if size <= 0 {
		size = DefaultSize
	}
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("http://www.gravatar.com/avatar/%s?d=identicon&s=%d", hex.EncodeToString(sum[:]), size)
}
