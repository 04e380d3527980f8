package cpu

import (
	"sync"
	"time"
)

// ReadCycleCounter reads the CPU's cycle counter (TSC on x86, CNTVCT on
// ARM64). Other platforms fall back to time.Now in nanoseconds.
func ReadCycleCounter() int64 {
	return readCycleCounter()
}

// CyclesSince returns the cycles elapsed since start.
func CyclesSince(start int64) int64 {
	return ReadCycleCounter() - start
}

// CyclesToNanoseconds converts a cycle count to approximate nanoseconds.
// Only use the result for reporting.
func CyclesToNanoseconds(cycles int64) int64 {
	calibrateOnce.Do(initCycleCounter)

	if counterFrequencyHz != 0 {
		// Fixed-frequency counter (ARM64 CNTFRQ_EL0).
		return int64(float64(cycles) * 1e9 / float64(counterFrequencyHz))
	}

	if cyclesPerNanosecond == 0 {
		// time.Now fallback: cycles are already nanoseconds.
		return cycles
	}

	return int64(float64(cycles) / cyclesPerNanosecond)
}

// Sample is one timed measurement.
type Sample struct {
	Cycles int64
	Wall   time.Duration
}

// Stopwatch measures both the cycle counter and wall time.
type Stopwatch struct {
	startCycles int64
	startWall   time.Time
}

// StartStopwatch starts a measurement.
func StartStopwatch() Stopwatch {
	return Stopwatch{startWall: time.Now(), startCycles: ReadCycleCounter()}
}

// Stop returns the elapsed cycles and wall time since the stopwatch started.
func (s Stopwatch) Stop() Sample {
	cycles := CyclesSince(s.startCycles)

	return Sample{Cycles: cycles, Wall: time.Since(s.startWall)}
}

var (
	calibrateOnce sync.Once

	// cyclesPerNanosecond is the measured TSC rate on platforms without a
	// frequency register. Zero means "counter is already in nanoseconds".
	cyclesPerNanosecond float64

	// counterFrequencyHz is the fixed counter frequency where the hardware
	// reports one.
	counterFrequencyHz int64
)

func initCycleCounter() {
	counterFrequencyHz = getCounterFrequencyHz()

	if counterFrequencyHz == 0 {
		calibrateCycleCounter()
	}
}

// calibrateCycleCounter spins for a few milliseconds and compares the
// counter against wall time.
func calibrateCycleCounter() {
	const calibrationDuration = 5 * time.Millisecond

	start := time.Now()
	startCycles := ReadCycleCounter()

	for time.Since(start) < calibrationDuration {
		// spin
	}

	cycles := ReadCycleCounter() - startCycles
	nanoseconds := time.Since(start).Nanoseconds()

	if nanoseconds > 0 && cycles > 0 && !timeBasedCounter {
		cyclesPerNanosecond = float64(cycles) / float64(nanoseconds)
	}
}
