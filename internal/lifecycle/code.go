package lifecycle

import (
	"math/rand"
	"strings"
)

// codeLength is the length of a devolution code.
const codeLength = 5

// GenerateCode produces a devolution code by drawing codeLength
// characters with replacement, uniformly at random, from the characters
// of seed, in practice the object id. Repeats are possible and the
// alphabet is bounded by the seed, which is fine: codes are only looked
// up together with the owning institution and the SOLICITED status.
// Not usable as a secret. Returns "" for an empty seed.
func GenerateCode(seed string) string {
	base := []rune(seed)
	if len(base) == 0 {
		return ""
	}

	var code strings.Builder
	for i := 0; i < codeLength; i++ {
		code.WriteRune(base[rand.Intn(len(base))])
	}
	return code.String()
}
