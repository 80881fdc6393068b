// Package monitor periodically samples host CPU and process memory and
// publishes them as metrics. It never gates a request; spec.md has no
// admission-control concept, so this stays purely observational, unlike
// the teacher's ResourceGuard which used the same gopsutil readings to
// reject connections.
package monitor

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"distshm/internal/metrics"
)

// Run samples resource usage every interval until ctx is cancelled.
func Run(ctx context.Context, interval time.Duration, logger zerolog.Logger) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logger.Warn().Err(err).Msg("failed to get process handle, memory sampling disabled")
		proc = nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample(proc, logger)
		}
	}
}

func sample(proc *process.Process, logger zerolog.Logger) {
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		metrics.HostCPUPercent.Set(percents[0])
	}

	if proc == nil {
		return
	}
	if info, err := proc.MemoryInfo(); err == nil && info != nil {
		metrics.ProcessMemoryBytes.Set(float64(info.RSS))
	} else if err != nil {
		logger.Debug().Err(err).Msg("failed to sample process memory")
	}
}
