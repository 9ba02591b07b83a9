//go:build linux

package bpf

import (
	"github.com/cilium/ebpf"
)

//go:generate go run github.com/cilium/ebpf/cmd/bpf2go -target amd64 fileMonitor ./file_monitor.bpf.c -- -I. -I/usr/include

// FileMonitorObjects provides access to the loaded BPF objects.
type FileMonitorObjects = fileMonitorObjects

// FileMonitorPrograms provides access to the BPF programs.
type FileMonitorPrograms = fileMonitorPrograms

// FileMonitorMaps provides access to the BPF maps.
type FileMonitorMaps = fileMonitorMaps

// LoadFileMonitorObjects loads the BPF programs and maps.
func LoadFileMonitorObjects(obj *fileMonitorObjects, opts *ebpf.CollectionOptions) error {
	return loadFileMonitorObjects(obj, opts)
}
