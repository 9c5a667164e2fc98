package redis

const (
	// KeyPrefixItem is the prefix for item keys
	KeyPrefixItem = "tlama:item:"
	// KeyAllItems is the key for the set of all item URLs
	KeyAllItems = "tlama:items:all"
)

// ItemKey returns the Redis key for an item by URL
func ItemKey(url string) string {
	return KeyPrefixItem + url
}
