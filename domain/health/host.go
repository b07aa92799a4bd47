package health

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is the host view reported by /debug. Collection failures leave
// the affected fields zero and are listed in Errors.
type HostStats struct {
	NumCPU        int      `json:"num_cpu"`
	Load1         float64  `json:"load_1"`
	Load5         float64  `json:"load_5"`
	MemoryPercent float64  `json:"memory_used_percent"`
	MemoryTotalMB uint64   `json:"memory_total_mb"`
	Errors        []string `json:"errors,omitempty"`
}

func collectHost(ctx context.Context) HostStats {
	out := HostStats{NumCPU: runtime.NumCPU()}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		out.Load1, out.Load5 = avg.Load1, avg.Load5
	} else {
		out.Errors = append(out.Errors, "load: "+err.Error())
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		out.MemoryPercent = vm.UsedPercent
		out.MemoryTotalMB = vm.Total / 1024 / 1024
	} else {
		out.Errors = append(out.Errors, "memory: "+err.Error())
	}
	return out
}
