package observability

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point-in-time view of host resources, surfaced by the
// /api/system endpoint and logged at startup.
type Snapshot struct {
	Hostname        string  `json:"hostname"`
	Platform        string  `json:"platform"`
	UptimeSeconds   uint64  `json:"uptime_seconds"`
	CPUPercent      float64 `json:"cpu_percent"`
	CPUCount        int     `json:"cpu_count"`
	MemTotalMB      uint64  `json:"mem_total_mb"`
	MemUsedMB       uint64  `json:"mem_used_mb"`
	MemUsedPercent  float64 `json:"mem_used_percent"`
	DiskTotalGB     uint64  `json:"disk_total_gb"`
	DiskFreeGB      uint64  `json:"disk_free_gb"`
	DiskUsedPercent float64 `json:"disk_used_percent"`
	CollectedAt     string  `json:"collected_at"`
}

// Collect gathers a Snapshot. Individual probe failures leave the matching
// fields zero; monitoring must never fail a request.
func Collect() Snapshot {
	snap := Snapshot{CollectedAt: time.Now().Format(time.RFC3339)}

	if info, err := host.Info(); err == nil {
		snap.Hostname = info.Hostname
		snap.Platform = info.Platform
		snap.UptimeSeconds = info.Uptime
	}
	if counts, err := cpu.Counts(true); err == nil {
		snap.CPUCount = counts
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemTotalMB = vm.Total / 1024 / 1024
		snap.MemUsedMB = vm.Used / 1024 / 1024
		snap.MemUsedPercent = vm.UsedPercent
	}
	if du, err := disk.Usage("/"); err == nil {
		snap.DiskTotalGB = du.Total / 1024 / 1024 / 1024
		snap.DiskFreeGB = du.Free / 1024 / 1024 / 1024
		snap.DiskUsedPercent = du.UsedPercent
	}
	return snap
}

// FreeMemoryGB reports currently available RAM, used as a coarse gate when
// resolving the recognition device.
func FreeMemoryGB() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return float64(vm.Available) / (1024 * 1024 * 1024)
}
