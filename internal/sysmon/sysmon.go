// Package sysmon samples system-wide CPU and memory usage for the host
// gauges served next to the calcpatch metrics.
package sysmon

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// Stats holds a single snapshot of system-wide resource usage.
type Stats struct {
	CPUPercent float64 // 0.0 .. 100.0
	MemPercent float64 // 0.0 .. 100.0
}

// SampleContext collects one snapshot. CPU usage is the delta since the
// previous call. Fields that cannot be read are left at zero and the first
// error is returned.
func SampleContext(ctx context.Context) (Stats, error) {
	var (
		s        Stats
		firstErr error
	)
	pcts, err := cpu.PercentWithContext(ctx, 0, false)
	switch {
	case err != nil:
		firstErr = err
	case len(pcts) > 0:
		s.CPUPercent = pcts[0]
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	switch {
	case err != nil:
		if firstErr == nil {
			firstErr = err
		}
	case vm != nil:
		s.MemPercent = vm.UsedPercent
	}
	return s, firstErr
}

// Sample is SampleContext without a deadline, reporting zero values on
// error. Its shape fits metrics.Metrics.RegisterHost.
func Sample() (cpuPercent, memPercent float64) {
	s, _ := SampleContext(context.Background())
	return s.CPUPercent, s.MemPercent
}
