package planner

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cwbudde/algo-transpose/internal/layout"
	"github.com/cwbudde/algo-transpose/internal/tptypes"
	"github.com/cwbudde/algo-transpose/internal/transpose"
)

// WisdomKey identifies a tuning decision: the same matrix edge on the same
// element width and CPU feature set.
type WisdomKey struct {
	Size         int
	ElementBytes int
	CPUFeatures  uint64
}

// Tuning holds the parameters a decision was measured with.
type Tuning struct {
	BlockSize          int
	InnerBlockSize     int
	OuterBlockSize     int
	PadResidue         int
	RecursionThreshold int
}

// WisdomEntry is a recorded decision.
type WisdomEntry struct {
	Key       WisdomKey
	Strategy  tptypes.KernelStrategy
	Tuning    Tuning
	NsPerOp   float64
	Timestamp time.Time
}

// wisdomFields is the number of ':' separated fields per line:
// size:elembytes:features:strategy:block:inner:outer:pad:threshold:nsperop:timestamp
const wisdomFields = 11

// Wisdom is a concurrency-safe cache of tuning decisions.
type Wisdom struct {
	mu      sync.RWMutex
	entries map[WisdomKey]WisdomEntry
}

// DefaultWisdom is the process-wide cache consulted by estimate planning.
var DefaultWisdom = NewWisdom()

// NewWisdom returns an empty cache.
func NewWisdom() *Wisdom {
	return &Wisdom{entries: make(map[WisdomKey]WisdomEntry)}
}

// Store records entry, replacing any entry with the same key.
func (w *Wisdom) Store(entry WisdomEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries[entry.Key] = entry
}

// Lookup returns the entry for key.
func (w *Wisdom) Lookup(key WisdomKey) (WisdomEntry, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	entry, ok := w.entries[key]

	return entry, ok
}

// LookupStrategy returns only the recorded strategy for the given key
// fields, or KernelAuto when nothing is recorded.
func (w *Wisdom) LookupStrategy(size, elementBytes int, features uint64) (tptypes.KernelStrategy, bool) {
	entry, ok := w.Lookup(WisdomKey{Size: size, ElementBytes: elementBytes, CPUFeatures: features})
	if !ok {
		return tptypes.KernelAuto, false
	}

	return entry.Strategy, true
}

// Len returns the number of entries.
func (w *Wisdom) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()

	return len(w.entries)
}

// Clear removes all entries.
func (w *Wisdom) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	clear(w.entries)
}

// Entries returns a snapshot sorted by size, then element width, then
// features.
func (w *Wisdom) Entries() []WisdomEntry {
	w.mu.RLock()
	out := make([]WisdomEntry, 0, len(w.entries))

	for _, e := range w.entries {
		out = append(out, e)
	}
	w.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Size != b.Size {
			return a.Size < b.Size
		}

		if a.ElementBytes != b.ElementBytes {
			return a.ElementBytes < b.ElementBytes
		}

		return a.CPUFeatures < b.CPUFeatures
	})

	return out
}

// Export writes one line per entry in key order.
func (w *Wisdom) Export(out io.Writer) error {
	bw := bufio.NewWriter(out)

	for _, e := range w.Entries() {
		_, err := fmt.Fprintf(bw, "%d:%d:%d:%s:%d:%d:%d:%d:%d:%s:%d\n",
			e.Key.Size, e.Key.ElementBytes, e.Key.CPUFeatures,
			e.Strategy,
			e.Tuning.BlockSize, e.Tuning.InnerBlockSize, e.Tuning.OuterBlockSize,
			e.Tuning.PadResidue, e.Tuning.RecursionThreshold,
			strconv.FormatFloat(e.NsPerOp, 'f', -1, 64),
			e.Timestamp.Unix())
		if err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Import reads entries written by Export. Blank lines and lines starting
// with '#' are skipped. Entries are merged into w; a malformed line aborts
// the import and reports its line number.
func (w *Wisdom) Import(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	var parsed []WisdomEntry

	line := 0
	for scanner.Scan() {
		line++

		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		entry, err := parseWisdomLine(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		parsed = append(parsed, entry)
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	for _, e := range parsed {
		w.Store(e)
	}

	return nil
}

func parseWisdomLine(text string) (WisdomEntry, error) {
	fields := strings.Split(text, ":")
	if len(fields) != wisdomFields {
		return WisdomEntry{}, fmt.Errorf("expected %d fields, got %d", wisdomFields, len(fields))
	}

	ints := make([]int, 0, 7)

	for _, idx := range []int{0, 1, 4, 5, 6, 7, 8} {
		v, err := strconv.Atoi(fields[idx])
		if err != nil {
			return WisdomEntry{}, fmt.Errorf("field %d: %w", idx+1, err)
		}

		ints = append(ints, v)
	}

	features, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return WisdomEntry{}, fmt.Errorf("features: %w", err)
	}

	strategy, err := tptypes.ParseKernelStrategy(fields[3])
	if err != nil {
		return WisdomEntry{}, err
	}

	nsPerOp, err := strconv.ParseFloat(fields[9], 64)
	if err != nil {
		return WisdomEntry{}, fmt.Errorf("ns/op: %w", err)
	}

	unix, err := strconv.ParseInt(fields[10], 10, 64)
	if err != nil {
		return WisdomEntry{}, fmt.Errorf("timestamp: %w", err)
	}

	if ints[0] < 1 {
		return WisdomEntry{}, fmt.Errorf("size %d must be positive", ints[0])
	}

	if ints[1] < 1 {
		return WisdomEntry{}, fmt.Errorf("element width %d must be positive", ints[1])
	}

	if strategy == tptypes.KernelAuto {
		return WisdomEntry{}, fmt.Errorf("strategy %q is not a kernel", fields[3])
	}

	tuning := Tuning{
		BlockSize:          ints[2],
		InnerBlockSize:     ints[3],
		OuterBlockSize:     ints[4],
		PadResidue:         ints[5],
		RecursionThreshold: ints[6],
	}
	if err := tuning.Validate(); err != nil {
		return WisdomEntry{}, err
	}

	return WisdomEntry{
		Key:       WisdomKey{Size: ints[0], ElementBytes: ints[1], CPUFeatures: features},
		Strategy:  strategy,
		Tuning:    tuning,
		NsPerOp:   nsPerOp,
		Timestamp: time.Unix(unix, 0),
	}, nil
}

// Validate checks the fields as stored. Zero is only valid for PadResidue,
// where it means an unpadded layout.
func (t Tuning) Validate() error {
	if t.BlockSize < 1 {
		return fmt.Errorf("block size %d must be positive", t.BlockSize)
	}

	if err := transpose.CheckTiles(t.InnerBlockSize, t.OuterBlockSize); err != nil {
		return err
	}

	if t.PadResidue < 0 || t.PadResidue >= layout.Period {
		return fmt.Errorf("pad residue %d outside [0,%d)", t.PadResidue, layout.Period)
	}

	if t.RecursionThreshold < 1 {
		return fmt.Errorf("recursion threshold %d must be positive", t.RecursionThreshold)
	}

	return nil
}
