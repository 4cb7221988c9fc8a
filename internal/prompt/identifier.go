package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"unicode"

	"github.com/promptlens/promptlens/internal/placeholder"
)

// identifierLength is the number of hex characters kept from the hash.
const identifierLength = 8

// GenerateIdentifier derives a short stable identifier from the emoji in the
// title, the normalized title text and the placeholder names used by the
// content. Collisions are possible and are not resolved.
func GenerateIdentifier(title, content string) string {
	var emoji, text strings.Builder
	for _, r := range title {
		if isEmoji(r) {
			emoji.WriteRune(r)
			continue
		}
		text.WriteRune(unicode.ToLower(r))
	}
	normalized := strings.Join(strings.Fields(text.String()), " ")

	names := placeholder.Names(content)
	sort.Strings(names)

	sum := sha256.Sum256([]byte(emoji.String() + "\x1f" + normalized + "\x1f" + strings.Join(names, ",")))
	return hex.EncodeToString(sum[:])[:identifierLength]
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r == 0x200D || r == 0xFE0F || r == 0x20E3:
		return true
	}
	return false
}
