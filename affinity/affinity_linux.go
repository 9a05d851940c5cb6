//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux implementation: sched_setaffinity via golang.org/x/sys/unix for
// pinning, sysfs cpufreq for core topology. No cgo required.

package affinity

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// setAffinityPlatform binds the calling thread to one CPU.
// The caller is expected to have locked the goroutine to its OS thread.
func setAffinityPlatform(cpuID int) error {
	if cpuID < 0 || cpuID >= runtime.NumCPU() {
		return fmt.Errorf("affinity: cpu %d out of range", cpuID)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity(%d): %w", cpuID, err)
	}
	return nil
}

// preferredCPUsPlatform orders logical CPUs by cpuinfo_max_freq so that
// on big.LITTLE topologies the performance cores come first. When no
// frequency information is readable the ordering is unknown and nil is
// returned, which disables pinning.
func preferredCPUsPlatform() []int {
	n := runtime.NumCPU()
	type cpuFreq struct {
		id   int
		freq int64
	}
	freqs := make([]cpuFreq, 0, n)
	readable := false
	for id := 0; id < n; id++ {
		f, err := readMaxFreq(id)
		if err == nil {
			readable = true
		}
		freqs = append(freqs, cpuFreq{id: id, freq: f})
	}
	if !readable {
		return nil
	}
	sort.SliceStable(freqs, func(i, j int) bool {
		return freqs[i].freq > freqs[j].freq
	})
	out := make([]int, n)
	for i, cf := range freqs {
		out[i] = cf.id
	}
	return out
}

func readMaxFreq(cpuID int) (int64, error) {
	path := fmt.Sprintf("/sys/devices/system/cpu/cpu%d/cpufreq/cpuinfo_max_freq", cpuID)
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
}
