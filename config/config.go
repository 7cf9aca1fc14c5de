package config

import (
	"time"
)

type (
	Headers struct {
		// MaxNumber is the maximal number of header lines allowed in a single message head.
		MaxNumber int
		// MaxEncodingTokens is a limit of how many encodings can be applied at the body
		// in a single message, summed over Content-Encoding and Transfer-Encoding.
		MaxEncodingTokens int
	}

	Body struct {
		// MaxSize describes the maximal size of a body, that can be processed. Declared
		// Content-Length values and de-framed chunked bodies above it are rejected.
		MaxSize uint64
		// TempFileThreshold is the body length in bytes starting from which bodies are
		// persisted to a temporary file instead of being kept in memory.
		TempFileThreshold int
		// TempDir is the directory for temporary body files. Empty string stands for
		// os.TempDir().
		TempDir string `test:"nullable"`
	}

	Chunked struct {
		// BlockSize is the size of a single chunk produced when the body is framed.
		BlockSize int
		// MaxLengthDigits limits the number of hex digits in a chunk-length token. 8 digits
		// implicitly limit a single chunk to 4GiB.
		MaxLengthDigits int
	}

	Assembler struct {
		// MaxHeadSize limits the number of bytes accumulated before the head/body boundary
		// is found.
		MaxHeadSize int
		// Timeout is the maximal lifetime of a pending message. Zero disables the timer.
		Timeout time.Duration
	}
)

// Config holds limits and pre-allocation settings used across the codec.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors.
type Config struct {
	Headers   Headers
	Body      Body
	Chunked   Chunked
	Assembler Assembler
}

// Default returns default config.
func Default() *Config {
	return &Config{
		Headers: Headers{
			MaxNumber:         50,
			MaxEncodingTokens: 4, // 1 for chunked, leaving at most 3 compressors to be composed
		},
		Body: Body{
			MaxSize:           512 * 1024 * 1024, // 512 megabytes
			TempFileThreshold: 4 * 1024 * 1024,
		},
		Chunked: Chunked{
			BlockSize:       4 * 1024,
			MaxLengthDigits: 8,
		},
		Assembler: Assembler{
			MaxHeadSize: 16 * 1024,
			Timeout:     90 * time.Second,
		},
	}
}
