package broker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// sessionNameLen keeps the name inside the role-session-name length limit
// while leaving 128 bits of the digest, enough that distinct tag sets do
// not collide in practice.
const sessionNameLen = 32

// SessionName derives a stable session name from the tag set. Tags are
// sorted before hashing, so the same multiset of tags in any order yields
// the same name, and no random suffix is needed for uniqueness. Each field
// is length-prefixed before hashing so that tag boundaries survive any
// delimiter characters inside names or values.
func SessionName(tags []Tag) string {
	sorted := make([]Tag, len(tags))
	copy(sorted, tags)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Value < sorted[j].Value
	})
	h := sha256.New()
	for _, t := range sorted {
		fmt.Fprintf(h, "%d:%s%d:%s", len(t.Name), t.Name, len(t.Value), t.Value)
	}
	return hex.EncodeToString(h.Sum(nil))[:sessionNameLen]
}
