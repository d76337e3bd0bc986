package util

import (
	"runtime"
)

// HeapStats reports live heap bytes and bytes obtained from the OS, in MB.
func HeapStats() (allocMB, sysMB uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc / 1024 / 1024, m.Sys / 1024 / 1024
}
