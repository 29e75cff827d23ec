package host

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/procfs"
)

const (
	COUNTER_CATEGORY_PROCESSOR = "processor"
	COUNTER_CATEGORY_MEMORY    = "memory"
	COUNTER_CATEGORY_SYSTEM    = "system"

	// CPU_SAMPLE_WINDOW is the delay between the two samples of a first read.
	CPU_SAMPLE_WINDOW = 250 * time.Millisecond
)

var ErrUnsupportedCounter = errors.New("unsupported counter")

type cpuTimes struct {
	idle  float64
	total float64
}

// cpuSampler keeps the previous /proc/stat sample per cpu so each read
// reports the load since the last one.
type cpuSampler struct {
	mu   sync.Mutex
	prev map[string]cpuTimes
}

// Counter serves the counters the agent knows how to map onto procfs:
// Processor/% Processor Time/{_Total|N}, Memory/Available MBytes,
// Memory/% Committed Bytes In Use, System/Processes and System/System Up Time.
func (h *Host) Counter(ctx context.Context, category, counter, instance string) (float64, error) {
	switch strings.ToLower(category) {
	case COUNTER_CATEGORY_PROCESSOR:
		if strings.EqualFold(counter, "% Processor Time") {
			return h.cpuLoad(ctx, instance)
		}
	case COUNTER_CATEGORY_MEMORY:
		switch strings.ToLower(counter) {
		case "available mbytes":
			mem, err := h.meminfo()
			if err != nil {
				return 0, err
			}
			return float64(kb(mem.MemAvailable) / 1024), nil
		case "% committed bytes in use":
			mem, err := h.meminfo()
			if err != nil {
				return 0, err
			}
			if kb(mem.CommitLimit) == 0 {
				return 0, nil
			}
			return float64(kb(mem.CommittedAS)) / float64(kb(mem.CommitLimit)) * 100, nil
		}
	case COUNTER_CATEGORY_SYSTEM:
		switch strings.ToLower(counter) {
		case "processes":
			return h.processCount()
		case "system up time":
			fs, err := h.procFS()
			if err != nil {
				return 0, err
			}
			stat, err := fs.Stat()
			if err != nil {
				return 0, err
			}
			if stat.BootTime == 0 {
				return 0, fmt.Errorf("%w: no btime in /proc/stat", ErrUnsupportedCounter)
			}
			return time.Since(time.Unix(int64(stat.BootTime), 0)).Seconds(), nil
		}
	}
	return 0, fmt.Errorf("%w: %s/%s/%s", ErrUnsupportedCounter, category, counter, instance)
}

func (h *Host) cpuLoad(ctx context.Context, instance string) (float64, error) {
	line := "cpu"
	if instance != "" && instance != "_Total" {
		if _, err := strconv.ParseInt(instance, 10, 64); err != nil {
			return 0, fmt.Errorf("%w: processor instance %q", ErrUnsupportedCounter, instance)
		}
		line = "cpu" + instance
	}

	h.cpu.mu.Lock()
	defer h.cpu.mu.Unlock()
	if h.cpu.prev == nil {
		h.cpu.prev = map[string]cpuTimes{}
	}

	prev, ok := h.cpu.prev[line]
	if !ok {
		first, err := h.cpuTimes(line)
		if err != nil {
			return 0, err
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(CPU_SAMPLE_WINDOW):
		}
		prev = first
	}
	cur, err := h.cpuTimes(line)
	if err != nil {
		return 0, err
	}
	h.cpu.prev[line] = cur
	return cpuPercent(prev, cur), nil
}

func cpuPercent(prev, cur cpuTimes) float64 {
	if cur.total <= prev.total {
		return 0
	}
	total := cur.total - prev.total
	idle := cur.idle - prev.idle
	if cur.idle < prev.idle {
		idle = 0
	}
	load := (total - idle) / total * 100
	if load < 0 {
		return 0
	}
	return load
}

func (h *Host) cpuTimes(line string) (cpuTimes, error) {
	fs, err := h.procFS()
	if err != nil {
		return cpuTimes{}, err
	}
	stat, err := fs.Stat()
	if err != nil {
		return cpuTimes{}, err
	}
	cpu := stat.CPUTotal
	if line != "cpu" {
		n, _ := strconv.ParseInt(strings.TrimPrefix(line, "cpu"), 10, 64)
		var ok bool
		if cpu, ok = stat.CPU[n]; !ok {
			return cpuTimes{}, fmt.Errorf("%w: no %s line in /proc/stat", ErrUnsupportedCounter, line)
		}
	}
	return cpuTimes{
		idle:  cpu.Idle + cpu.Iowait,
		total: cpu.User + cpu.Nice + cpu.System + cpu.Idle + cpu.Iowait + cpu.IRQ + cpu.SoftIRQ + cpu.Steal,
	}, nil
}

func (h *Host) meminfo() (procfs.Meminfo, error) {
	fs, err := h.procFS()
	if err != nil {
		return procfs.Meminfo{}, err
	}
	return fs.Meminfo()
}

func kb(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}

func (h *Host) processCount() (float64, error) {
	fs, err := h.procFS()
	if err != nil {
		return 0, err
	}
	procs, err := fs.AllProcs()
	if err != nil {
		return 0, err
	}
	return float64(len(procs)), nil
}
