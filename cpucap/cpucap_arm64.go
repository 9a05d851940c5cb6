//go:build arm64
// +build arm64

// File: cpucap/cpucap_arm64.go
// Author: momentics <momentics@gmail.com>
//
// ARM64 feature query via hwcap-backed golang.org/x/sys/cpu.

package cpucap

import "golang.org/x/sys/cpu"

func archQuery() Flags {
	var f Flags
	if cpu.ARM64.HasASIMD {
		f |= CapVector
	}
	if cpu.ARM64.HasAES {
		f |= CapAES
	}
	if cpu.ARM64.HasPMULL {
		f |= CapPMULL
	}
	if cpu.ARM64.HasSHA1 {
		f |= CapSHA1
	}
	if cpu.ARM64.HasSHA2 {
		f |= CapSHA2
	}
	return f
}
