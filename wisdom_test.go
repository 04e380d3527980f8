package algotranspose

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWisdom(t *testing.T) {
	t.Parallel()

	wisdom := NewWisdom()
	require.NotNil(t, wisdom)
	assert.Zero(t, wisdom.Len())
}

func TestExportWisdomTo_ImportWisdom(t *testing.T) {
	// Touches DefaultWisdom; not parallel.
	ClearWisdom()
	t.Cleanup(ClearWisdom)

	w := NewWisdom()
	w.Store(WisdomEntry{
		Key:       WisdomKey{Size: 777, ElementBytes: ElementBytes, CPUFeatures: 1},
		Strategy:  KernelTwoLevel,
		Tuning:    DefaultOptions().Tuning(),
		NsPerOp:   42,
		Timestamp: time.Unix(1700000000, 0),
	})

	path := filepath.Join(t.TempDir(), "wisdom.txt")
	require.NoError(t, ExportWisdomTo(path, w))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "777:4:1:block2:64:4:1040:47:4:42:1700000000\n", string(data))

	require.NoError(t, ImportWisdom(path))
	assert.Equal(t, 1, WisdomLen())

	s, ok := DefaultWisdom.LookupStrategy(777, ElementBytes, 1)
	require.True(t, ok)
	assert.Equal(t, KernelTwoLevel, s)

	out := filepath.Join(t.TempDir(), "default.txt")
	require.NoError(t, ExportWisdom(out))

	exported, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(exported))
}

func TestImportWisdom_Errors(t *testing.T) {
	t.Parallel()

	err := ImportWisdom(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open wisdom file")

	bad := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("not wisdom\n"), 0o600))

	err = ImportWisdom(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestImportWisdomFromString(t *testing.T) {
	// Touches DefaultWisdom; not parallel.
	ClearWisdom()
	t.Cleanup(ClearWisdom)

	data := strings.Join([]string{
		"# tuned on a test box",
		"1501:4:0:recursive:64:4:1040:0:8:1:1",
		"1502:4:0:row:64:4:1040:47:4:1:1",
	}, "\n")

	require.NoError(t, ImportWisdomFromString(data))
	assert.Equal(t, 2, WisdomLen())

	ClearWisdom()
	assert.Zero(t, WisdomLen())

	require.Error(t, ImportWisdomFromString("1:2:3"))
	assert.Zero(t, WisdomLen())
}

func TestNewPlan_AutoUsesDefaultWisdom(t *testing.T) {
	// Touches DefaultWisdom; not parallel.
	ClearWisdom()
	t.Cleanup(ClearWisdom)

	const n = 1503

	p, err := NewPlan(n, KernelAuto, Options{})
	require.NoError(t, err)
	assert.Equal(t, KernelBlock, p.Strategy())

	features := NewPlanner(PlanOptions{}).features
	require.NoError(t, ImportWisdomFromString(
		"1503:4:"+strconv.FormatUint(features, 10)+":recursive:64:4:1040:0:16:1:1"))

	p, err = NewPlan(n, KernelAuto, Options{})
	require.NoError(t, err)
	assert.Equal(t, KernelRecursive, p.Strategy())
	assert.Equal(t, 16, p.Options().RecursionThreshold)
	assert.True(t, p.Options().Unpadded)
	assert.Equal(t, n, p.Stride())
}

func TestNewPlan_RejectsInvalidWisdomTuning(t *testing.T) {
	// Touches DefaultWisdom; not parallel.
	ClearWisdom()
	t.Cleanup(ClearWisdom)

	features := NewPlanner(PlanOptions{}).features
	valid := DefaultOptions().Tuning()

	tests := []struct {
		name     string
		n        int
		strategy KernelStrategy
		mutate   func(*Tuning)
		want     error
	}{
		{"zero block", 1601, KernelBlock, func(t *Tuning) { t.BlockSize = 0 }, ErrInvalidBlock},
		{"zero inner", 1602, KernelTwoLevel, func(t *Tuning) { t.InnerBlockSize = 0 }, ErrInvalidBlock},
		{"zero outer", 1603, KernelTwoLevel, func(t *Tuning) { t.OuterBlockSize = 0 }, ErrInvalidBlock},
		{"uneven tiles", 1604, KernelTwoLevel, func(t *Tuning) { t.OuterBlockSize = 6 }, ErrInvalidBlock},
		{"zero threshold", 1605, KernelRecursive, func(t *Tuning) { t.RecursionThreshold = 0 }, ErrInvalidThreshold},
		{"pad out of range", 1606, KernelRow, func(t *Tuning) { t.PadResidue = 70 }, ErrInvalidPadding},
	}

	for _, tt := range tests {
		tuning := valid
		tt.mutate(&tuning)

		DefaultWisdom.Store(WisdomEntry{
			Key:      WisdomKey{Size: tt.n, ElementBytes: ElementBytes, CPUFeatures: features},
			Strategy: tt.strategy,
			Tuning:   tuning,
		})

		var (
			p   *Plan
			err error
		)

		require.NotPanics(t, func() { p, err = NewPlan(tt.n, KernelAuto, Options{}) }, tt.name)
		require.ErrorIs(t, err, tt.want, tt.name)
		assert.Nil(t, p, tt.name)
	}
}

func TestImportWisdomFromString_RejectsZeroTile(t *testing.T) {
	// Touches DefaultWisdom; not parallel.
	ClearWisdom()
	t.Cleanup(ClearWisdom)

	features := NewPlanner(PlanOptions{}).features
	line := "100:4:" + strconv.FormatUint(features, 10) + ":block:0:4:1040:47:4:1.5:0"

	err := ImportWisdomFromString(line)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
	assert.Zero(t, WisdomLen())

	p, err := NewPlan(100, KernelAuto, Options{})
	require.NoError(t, err)
	assert.Equal(t, KernelBlock, p.Strategy())
	assert.Equal(t, DefaultBlockSize, p.Options().BlockSize)
	require.NoError(t, p.Transpose(p.NewMatrix()))
}
