// Package memprobe reports currently available physical memory, used by
// the cache to decide which tier a new entry belongs in.
package memprobe

import "github.com/shirou/gopsutil/v4/mem"

// availableBytes is swapped out in tests so cache tiering decisions can
// be exercised deterministically without depending on the host's actual
// memory pressure.
var availableBytes = func() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// AvailableGB returns the amount of currently available physical RAM, in
// whole gigabytes (integer division by 10^9, matching spec.md §4.1's
// "available RAM...integer-divided by 10^9").
func AvailableGB() (int, error) {
	b, err := availableBytes()
	if err != nil {
		return 0, err
	}
	return int(b / 1_000_000_000), nil
}
