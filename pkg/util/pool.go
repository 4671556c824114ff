package util

import "runtime"

const (
	minPoolSize = 4
	maxPoolSize = 32
)

// GetOptimalPoolSize returns the worker and parser pool size used by the
// extraction pipeline: twice the CPU count, clamped to [4, 32].
//
// Parsing happens in cgo, so running more workers than cores keeps the CPUs
// busy while goroutines are parked in C calls. Parser pools and the
// aggregator's worker pool must use the same number or workers block waiting
// for a free parser.
func GetOptimalPoolSize() int {
	n := runtime.NumCPU() * 2
	if n < minPoolSize {
		n = minPoolSize
	}
	if n > maxPoolSize {
		n = maxPoolSize
	}
	return n
}

// PoolSize returns override when positive, otherwise GetOptimalPoolSize.
func PoolSize(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
