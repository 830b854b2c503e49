package caretaker

import (
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Resources is a point-in-time sample of host resource counters.
type Resources struct {
	MemoryUsedPct float64 `json:"memory_used_pct"`
	MemoryUsedMB  uint64  `json:"memory_used_mb"`
	MemoryTotalMB uint64  `json:"memory_total_mb"`
	DiskUsedPct   float64 `json:"disk_used_pct"`
	DiskUsedGB    float64 `json:"disk_used_gb"`
	DiskTotalGB   float64 `json:"disk_total_gb"`
	Load1         float64 `json:"load_1"`
	Load5         float64 `json:"load_5"`
	Load15        float64 `json:"load_15"`
}

// Sampler reads host resource counters.
type Sampler interface {
	Sample() (Resources, error)
}

// SystemSampler samples the live host via gopsutil.
type SystemSampler struct {
	DiskPath string // mount point to report disk usage for, default "/"
}

func (s SystemSampler) Sample() (Resources, error) {
	var res Resources

	vm, err := mem.VirtualMemory()
	if err != nil {
		return res, err
	}
	res.MemoryUsedPct = vm.UsedPercent
	res.MemoryUsedMB = vm.Used / 1024 / 1024
	res.MemoryTotalMB = vm.Total / 1024 / 1024

	path := s.DiskPath
	if path == "" {
		path = "/"
	}
	du, err := disk.Usage(path)
	if err != nil {
		return res, err
	}
	res.DiskUsedPct = du.UsedPercent
	res.DiskUsedGB = float64(du.Used) / 1e9
	res.DiskTotalGB = float64(du.Total) / 1e9

	avg, err := load.Avg()
	if err != nil {
		return res, err
	}
	res.Load1 = avg.Load1
	res.Load5 = avg.Load5
	res.Load15 = avg.Load15

	return res, nil
}
