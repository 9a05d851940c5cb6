//go:build amd64
// +build amd64

// File: cpucap/cpucap_amd64.go
// Author: momentics <momentics@gmail.com>
//
// x86-64 feature query. The SHA extension bits stay cleared here: the
// pipeline only consumes them on ARM where the hash extensions gate
// dedicated paths.

package cpucap

import "golang.org/x/sys/cpu"

func archQuery() Flags {
	var f Flags
	if cpu.X86.HasSSE2 {
		f |= CapVector
	}
	if cpu.X86.HasAES {
		f |= CapAES
	}
	if cpu.X86.HasPCLMULQDQ {
		f |= CapPMULL
	}
	return f
}
