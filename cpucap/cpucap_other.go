//go:build !arm64 && !amd64
// +build !arm64,!amd64

// File: cpucap/cpucap_other.go
// Author: momentics <momentics@gmail.com>
//
// Fallback for architectures without a feature query: all bits cleared,
// forcing the software transform path.

package cpucap

func archQuery() Flags {
	return 0
}
