//go:build arm64

package cpu

const timeBasedCounter = false

// readCycleCounter reads the virtual counter (CNTVCT_EL0).
// Implemented in cycles_arm64.s
//
//go:noescape
func readCycleCounter() int64

// readCounterFrequency reads CNTFRQ_EL0.
// Implemented in cycles_arm64.s
//
//go:noescape
func readCounterFrequency() int64

func getCounterFrequencyHz() int64 {
	return readCounterFrequency()
}
