package idparse

// mrzWeights are applied cyclically to each character of a checked MRZ field.
var mrzWeights = [3]int{7, 3, 1}

// nricWeights apply to the seven digits of an NRIC/FIN number.
var nricWeights = [7]int{2, 7, 6, 5, 4, 3, 2}

// Check letters indexed by the weighted sum mod 11.
var (
	nricCheckLetters = [11]byte{'J', 'Z', 'I', 'H', 'G', 'F', 'E', 'D', 'C', 'B', 'A'}
	finCheckLetters  = [11]byte{'X', 'W', 'U', 'T', 'R', 'Q', 'P', 'N', 'M', 'L', 'K'}
)

// nricSeriesOffset is added to the sum for numbers issued from 2000 onwards
// (T and G prefixes).
const nricSeriesOffset = 4

// NRICLength is the length of a Singapore NRIC or FIN number.
const NRICLength = 9

// mrzCharValue returns the check-digit value of an MRZ character: digits are
// their numeric value, A-Z are 10-35 and the filler '<' is 0.
func mrzCharValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'Z':
		return int(c) - 55, true
	case c == '<':
		return 0, true
	}
	return 0, false
}

// MRZCheckDigit computes the ICAO 9303 check digit (0-9) of field. It returns
// false if field contains a character outside [0-9A-Z<].
func MRZCheckDigit(field string) (int, bool) {
	sum := 0
	for i := 0; i < len(field); i++ {
		v, ok := mrzCharValue(field[i])
		if !ok {
			return 0, false
		}
		sum += v * mrzWeights[i%len(mrzWeights)]
	}
	return sum % 10, true
}

// ValidMRZCheckDigit reports whether check is the correct check digit for field.
func ValidMRZCheckDigit(field string, check byte) bool {
	if check < '0' || check > '9' {
		return false
	}
	want, ok := MRZCheckDigit(field)
	return ok && want == int(check-'0')
}

// NRICCheckLetter computes the check letter for the first eight characters of
// an NRIC/FIN number (prefix letter and seven digits). The second return value
// is false for an unknown prefix, a non-digit body or an input shorter than eight
// characters.
func NRICCheckLetter(id string) (byte, bool) {
	if len(id) < NRICLength-1 {
		return 0, false
	}

	var letters *[11]byte
	sum := 0
	switch id[0] {
	case 'S':
		letters = &nricCheckLetters
	case 'T':
		letters = &nricCheckLetters
		sum = nricSeriesOffset
	case 'F':
		letters = &finCheckLetters
	case 'G':
		letters = &finCheckLetters
		sum = nricSeriesOffset
	default:
		return 0, false
	}

	for i, w := range nricWeights {
		c := id[i+1]
		if c < '0' || c > '9' {
			return 0, false
		}
		sum += int(c-'0') * w
	}
	return letters[sum%11], true
}

// ValidNRIC reports whether id is a nine-character NRIC/FIN number whose last
// character is the correct check letter.
func ValidNRIC(id string) bool {
	if len(id) != NRICLength {
		return false
	}
	want, ok := NRICCheckLetter(id)
	return ok && id[NRICLength-1] == want
}
