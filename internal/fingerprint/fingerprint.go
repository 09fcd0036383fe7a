// Package fingerprint derives a stable content identity for a page, independent
// of which backup file currently contains it.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// separator joins title and text before hashing. The unit separator does not
// occur in page titles, so ("ab", "c") and ("a", "bc") hash differently.
const separator = "\x1f"

// Page returns the hex SHA-256 fingerprint of a page's title and text.
// Same content always yields the same fingerprint, regardless of the file path
// or modification time of the backup that produced it.
func Page(title, text string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte(separator))
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
