package strutil

import "strings"

func LStripWS(str string) string {
	for i := 0; i < len(str); i++ {
		switch str[i] {
		case ' ', '\t':
		default:
			return str[i:]
		}
	}

	return ""
}

func RStripWS(str string) string {
	for i := len(str); i > 0; i-- {
		switch str[i-1] {
		case ' ', '\t':
		default:
			return str[:i]
		}
	}

	return ""
}

func StripWS(str string) string {
	return RStripWS(LStripWS(str))
}

// StripCR drops a single trailing carriage return, if presented.
func StripCR(str string) string {
	if len(str) > 0 && str[len(str)-1] == '\r' {
		return str[:len(str)-1]
	}

	return str
}

// CutHeader splits a header value from its parameters, which begin with the first semicolon.
func CutHeader(header string) (value, params string) {
	sep := strings.IndexByte(header, ';')
	if sep == -1 {
		return header, ""
	}

	return header[:sep], LStripWS(header[sep+1:])
}

// IsProhibitedChar tells whether the byte is ASCII-nonprintable.
func IsProhibitedChar(c byte) bool {
	return c < 0x20 || c > 0x7e
}
