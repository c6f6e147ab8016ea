package display

import (
	"fmt"

	"github.com/DeBrosOfficial/notefeed/pkg/nostr"
)

// DefaultFilter is the feed filter: text notes, optionally from one author
// given as hex or npub.
func DefaultFilter(author string) (nostr.Filter, error) {
	return BuildFilter([]int{nostr.KindTextNote}, author, 0)
}

// BuildFilter makes a filter for kinds, narrowed to author when set
func BuildFilter(kinds []int, author string, limit int) (nostr.Filter, error) {
	if len(kinds) == 0 {
		return nostr.Filter{}, fmt.Errorf("at least one kind is required")
	}

	f := nostr.Filter{
		Kinds: append([]int(nil), kinds...),
		Limit: limit,
	}
	if author != "" {
		pk, err := nostr.DecodePublicKey(author)
		if err != nil {
			return nostr.Filter{}, fmt.Errorf("invalid author: %w", err)
		}
		f.Authors = []string{pk}
	}
	return f, nil
}
