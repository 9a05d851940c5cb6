// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity and topology. Platform-specific
// implementations live in separate files guarded by build tags.

package affinity

// SetAffinity pins the current OS thread to a given logical CPU on
// supported platforms. On unsupported platforms returns an error; the
// caller treats that as "run unpinned".
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}

// PreferredCPUs returns logical CPU ids ordered by descending preference
// for latency-sensitive workers, derived from a runtime topology query
// (highest maximum frequency first on asymmetric cores). Returns nil
// when topology cannot be determined; callers must then skip pinning.
func PreferredCPUs() []int {
	return preferredCPUsPlatform()
}
