package badger

// KeyPrefixItem is the prefix for item keys
const KeyPrefixItem = "tlama:item:"

// ItemKey returns the badger key for an item by URL
func ItemKey(url string) []byte {
	return []byte(KeyPrefixItem + url)
}
