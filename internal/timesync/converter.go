// Package timesync converts kernel monotonic timestamps to wall-clock time.
package timesync

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Converter maps monotonic nanoseconds-since-boot, as stamped by the
// kernel probe, onto wall-clock time. The boot instant is captured once
// at construction.
type Converter struct {
	bootTime time.Time
}

// NewConverter builds a converter from the system boot time. It prefers
// the btime line of /proc/stat and falls back to now minus /proc/uptime
// when that is unavailable.
func NewConverter() (*Converter, error) {
	bootTime, err := readBootTime("/proc/stat")
	if err != nil {
		bootTime, err = bootTimeFromUptime("/proc/uptime")
	}
	if err != nil {
		return nil, fmt.Errorf("determining system boot time: %w", err)
	}
	return &Converter{bootTime: bootTime}, nil
}

// NewConverterAt builds a converter with a fixed boot instant. Used by
// the synthetic backend and in tests, where timestamps are scripted.
func NewConverterAt(bootTime time.Time) *Converter {
	return &Converter{bootTime: bootTime}
}

// MonotonicToWallClock converts nanoseconds since boot to wall-clock time.
func (c *Converter) MonotonicToWallClock(monotonicNanos uint64) time.Time {
	//nolint:gosec // uint64 to int64 conversion is safe for realistic uptimes
	return c.bootTime.Add(time.Duration(monotonicNanos))
}

// BootTime returns the boot instant used for conversions.
func (c *Converter) BootTime() time.Time {
	return c.bootTime
}

// readBootTime parses the btime field (seconds since the epoch) from a
// /proc/stat-format file.
func readBootTime(path string) (time.Time, error) {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer func() {
		_ = file.Close() //nolint:errcheck // Read-only file, defer cleanup
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && fields[0] == "btime" {
			sec, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil {
				return time.Time{}, fmt.Errorf("parsing btime: %w", err)
			}
			return time.Unix(sec, 0), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return time.Time{}, err
	}
	return time.Time{}, fmt.Errorf("btime not found in %s", path)
}

// bootTimeFromUptime estimates boot time as now minus the first field
// of a /proc/uptime-format file (uptime in seconds).
func bootTimeFromUptime(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return time.Time{}, fmt.Errorf("empty uptime file %s", path)
	}
	uptime, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing uptime: %w", err)
	}
	return time.Now().Add(-time.Duration(uptime * float64(time.Second))), nil
}
