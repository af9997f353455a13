package metrics

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/process"
)

var (
	// ProcessRSS is the resident set size at the last RecordProcessStats call
	ProcessRSS = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rootflat_process_rss_bytes",
			Help: "Resident memory of the rootflat process",
		},
	)

	// ProcessCPU is user plus system CPU time at the last RecordProcessStats call
	ProcessCPU = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rootflat_process_cpu_seconds",
			Help: "CPU time consumed by the rootflat process",
		},
	)
)

// RecordProcessStats samples memory and CPU usage of the current process
func RecordProcessStats() error {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return err
	}

	memInfo, err := proc.MemoryInfo()
	if err != nil {
		return err
	}
	ProcessRSS.Set(float64(memInfo.RSS))

	cpuTime, err := proc.Times()
	if err != nil {
		return err
	}
	ProcessCPU.Set(cpuTime.User + cpuTime.System)
	return nil
}
