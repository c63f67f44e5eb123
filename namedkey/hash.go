package namedkey

import "unicode"

// hashMultiplier is the multiplier used in the Windows Registry name hash:
// hash = hash*37 + toupper(char), accumulated over each character.
const hashMultiplier = 37

// Hash computes the Windows Registry name hash for name, the same function
// an "lh" subkey list entry stores alongside each child offset so a lookup
// can reject mismatches without a full string compare.
func Hash(name string) uint32 {
	var hash uint32
	for _, r := range name {
		hash = hash*hashMultiplier + uint32(unicode.ToUpper(r))
	}
	return hash
}
