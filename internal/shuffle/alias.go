package shuffle

import "math"

const (
	leadChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	tailChars = leadChars + "0123456789"
)

// Alias encodes index as a short identifier.
//
// The first character is drawn from the 52 ASCII letters and every following
// character from letters and digits, so the sequence runs a..z, A..Z, aa, ab,
// .. and no alias starts with a digit. Alias is injective over 0..math.MaxInt
// and panics on a negative index.
func Alias(index int) string {
	if index < 0 {
		panic("shuffle: negative alias index")
	}

	// find the length whose block contains index
	n := index
	length := 1
	block := len(leadChars)
	for n >= block {
		n -= block
		length++
		// the next block exceeds math.MaxInt, so it holds every remaining n
		if block > math.MaxInt/len(tailChars) {
			break
		}
		block *= len(tailChars)
	}

	buf := make([]byte, length)
	for i := length - 1; i > 0; i-- {
		buf[i] = tailChars[n%len(tailChars)]
		n /= len(tailChars)
	}
	buf[0] = leadChars[n]
	return string(buf)
}
