package hexconv

// Halfbyte maps an ASCII character to its hex value. Non-hex characters are mapped to 0xFF.
var Halfbyte = func() (table [256]byte) {
	for i := range table {
		table[i] = 0xFF
	}

	for c := '0'; c <= '9'; c++ {
		table[c] = byte(c - '0')
	}

	for c := 'a'; c <= 'f'; c++ {
		table[c] = byte(c-'a') + 10
		table[c-'a'+'A'] = byte(c-'a') + 10
	}

	return table
}()

// Parse decodes a hex number of at most maxDigits digits. Empty, too long or non-hex
// input isn't ok.
func Parse(str string, maxDigits int) (n uint64, ok bool) {
	if len(str) == 0 || len(str) > maxDigits {
		return 0, false
	}

	for i := 0; i < len(str); i++ {
		val := Halfbyte[str[i]]
		if val == 0xFF {
			return 0, false
		}

		n = (n << 4) | uint64(val)
	}

	return n, true
}
