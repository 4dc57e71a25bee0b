package core

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

// SystemStatus is the aggregate status served to the admin overview endpoint.
type SystemStatus struct {
	Activity ActivityCounters `json:"activity"`
	Memory   struct {
		UsedBytes  uint64 `json:"used_bytes"`
		TotalBytes uint64 `json:"total_bytes"`
	} `json:"memory"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// CollectSystemStatus aggregates activity counters, process memory, and uptime.
// Counter read failures are ignored to keep the endpoint best-effort.
func CollectSystemStatus(ctx context.Context, metrics *MetricsService, startedAt time.Time) SystemStatus {
	var st SystemStatus

	if metrics != nil {
		if counters, err := metrics.Counters(ctx); err == nil {
			st.Activity = counters
		}
	}

	// Memory (best-effort from /proc/meminfo)
	used, total := readMemInfo()
	st.Memory.UsedBytes = used
	st.Memory.TotalBytes = total

	if !startedAt.IsZero() {
		st.UptimeSeconds = int64(time.Since(startedAt).Seconds())
	}

	return st
}

// readMemInfo returns used and total bytes using /proc/meminfo.
// If unavailable, returns zeros.
func readMemInfo() (used, total uint64) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, 0
	}
	defer f.Close()
	var memTotal, memAvailable uint64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "MemTotal:") {
			memTotal = parseKiBLine(line)
		} else if strings.HasPrefix(line, "MemAvailable:") {
			memAvailable = parseKiBLine(line)
		}
	}
	if memTotal == 0 {
		return 0, 0
	}
	if memAvailable > memTotal {
		memAvailable = memTotal
	}
	return (memTotal - memAvailable) * 1024, memTotal * 1024
}

func parseKiBLine(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
