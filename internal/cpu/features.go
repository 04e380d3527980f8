// Package cpu reports host properties that influence transpose tuning:
// instruction-set features (used to key tuning wisdom), the cache line size,
// and a cycle counter for micro-benchmarks.
package cpu

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Features describes the host CPU.
type Features struct {
	HasSSE2   bool
	HasAVX2   bool
	HasAVX512 bool
	HasNEON   bool

	// CacheLineBytes is the cache line size the Go toolchain assumes for
	// this architecture.
	CacheLineBytes int
	Architecture   string
}

// Feature bits used by Mask.
const (
	FeatureSSE2 uint64 = 1 << iota
	FeatureAVX2
	FeatureAVX512
	FeatureNEON
)

var (
	detectOnce sync.Once
	detected   Features
)

// DetectFeatures reports the features of the current process's CPU. The
// result is computed once.
func DetectFeatures() Features {
	detectOnce.Do(func() {
		detected = Features{
			HasSSE2:        cpu.X86.HasSSE2,
			HasAVX2:        cpu.X86.HasAVX2,
			HasAVX512:      cpu.X86.HasAVX512,
			HasNEON:        cpu.ARM64.HasASIMD,
			CacheLineBytes: int(unsafe.Sizeof(cpu.CacheLinePad{})),
			Architecture:   runtime.GOARCH,
		}
	})

	return detected
}

// Mask packs the feature flags into the bit set stored in wisdom keys.
func (f Features) Mask() uint64 {
	var mask uint64

	if f.HasSSE2 {
		mask |= FeatureSSE2
	}

	if f.HasAVX2 {
		mask |= FeatureAVX2
	}

	if f.HasAVX512 {
		mask |= FeatureAVX512
	}

	if f.HasNEON {
		mask |= FeatureNEON
	}

	return mask
}

// String renders the features as "arch[feat,feat] line=N".
func (f Features) String() string {
	var flags []string

	if f.HasSSE2 {
		flags = append(flags, "sse2")
	}

	if f.HasAVX2 {
		flags = append(flags, "avx2")
	}

	if f.HasAVX512 {
		flags = append(flags, "avx512")
	}

	if f.HasNEON {
		flags = append(flags, "neon")
	}

	var sb strings.Builder
	sb.WriteString(f.Architecture)
	sb.WriteString("[")
	sb.WriteString(strings.Join(flags, ","))
	sb.WriteString("] line=")
	sb.WriteString(strconv.Itoa(f.CacheLineBytes))

	return sb.String()
}
