package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	algotranspose "github.com/cwbudde/algo-transpose"
	"github.com/cwbudde/algo-transpose/internal/config"
	"github.com/cwbudde/algo-transpose/internal/history"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestParseSizes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"1000", []int{1000}, false},
		{"1, 2,3", []int{1, 2, 3}, false},
		{"64,,128,", []int{64, 128}, false},
		{"", []int{}, false},
		{"0", nil, true},
		{"-4", nil, true},
		{"x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := parseSizes(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"row", "block"}, splitList(" row , block,"))
	assert.Nil(t, splitList(""))
}

func TestBuildCases(t *testing.T) {
	t.Parallel()

	t.Run("list", func(t *testing.T) {
		t.Parallel()

		sw := config.SweepDefaults(config.SweepList)
		sw.Sizes = []int{8, 16}
		sw.Strategies = []string{"row", "recursive"}

		cases, err := buildCases(sw, algotranspose.Options{})
		require.NoError(t, err)
		require.Len(t, cases, 4)
		assert.Equal(t, 8, cases[0].N)
		assert.Equal(t, algotranspose.KernelRow, cases[0].Strategy)
		assert.Equal(t, algotranspose.KernelRecursive, cases[3].Strategy)
	})

	t.Run("linear", func(t *testing.T) {
		t.Parallel()

		sw := config.SweepDefaults(config.SweepLinear)
		sw.Strategies = []string{"block"}

		cases, err := buildCases(sw, algotranspose.Options{})
		require.NoError(t, err)
		assert.Len(t, cases, 4096/64)
	})

	t.Run("block", func(t *testing.T) {
		t.Parallel()

		sw := config.SweepDefaults(config.SweepBlock)
		sw.BlockN = 256

		cases, err := buildCases(sw, algotranspose.Options{})
		require.NoError(t, err)
		require.Len(t, cases, 20)

		for i, c := range cases {
			assert.Equal(t, 256, c.N)
			assert.Equal(t, algotranspose.KernelBlock, c.Strategy)
			assert.Equal(t, 4*(i+1), c.Options.BlockSize)
		}
	})

	t.Run("bad strategy", func(t *testing.T) {
		t.Parallel()

		sw := config.SweepDefaults(config.SweepGeometric)
		sw.Strategies = []string{"spiral"}

		_, err := buildCases(sw, algotranspose.Options{})
		require.ErrorIs(t, err, algotranspose.ErrUnknownStrategy)
	})
}

func TestSweepFlags_Apply(t *testing.T) {
	t.Parallel()

	var flags sweepFlags

	run := &cobra.Command{Use: "run"}
	flags.register(run)
	require.NoError(t, run.Flags().Parse([]string{"--sweep", "linear", "--step", "128", "--iters", "3", "--fill", "sequential"}))

	sw, err := flags.apply(run, config.DefaultConfig().Sweep)
	require.NoError(t, err)
	assert.Equal(t, config.SweepLinear, sw.Kind)
	assert.Equal(t, 64, sw.Start)
	assert.Equal(t, 4096, sw.Max)
	assert.Equal(t, 128, sw.Step)
	assert.Equal(t, 3, sw.Iterations)
	assert.Equal(t, 1, sw.Warmup)
	assert.Equal(t, config.FillSequential, sw.Fill)
}

func TestRunCommand(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wisdomFile := filepath.Join(dir, "transpose.wisdom")
	historyDir := filepath.Join(dir, "history")

	out, err := execute(t, "run",
		"--sizes", "8,33",
		"--strategies", "row,block,recursive",
		"--iters", "1",
		"--warmup", "0",
		"--verify",
		"--wisdom", wisdomFile,
		"--history", historyDir)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1+6)
	assert.Contains(t, lines[0], "ns/op")

	data, err := os.ReadFile(wisdomFile)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))

	store, err := history.Open(historyDir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	runs, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run", runs[0].Command)
	assert.Len(t, runs[0].Results, 6)

	for _, r := range runs[0].Results {
		assert.True(t, r.Verified)
	}
}

func TestRunCommand_InvalidFlags(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "run", "--sizes", "0")
	require.Error(t, err)

	_, err = execute(t, "run", "--sizes", "8", "--strategies", "spiral")
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = execute(t, "run", "--sizes", "8", "--fill", "random")
	require.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRunCommand_ConfigFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := config.DefaultConfig()
	cfg.Sweep.Kind = config.SweepList
	cfg.Sweep.Sizes = []int{12}
	cfg.Sweep.Strategies = []string{"block2"}
	cfg.Sweep.Iterations = 1
	require.NoError(t, config.Save(cfg, path))

	out, err := execute(t, "--config", path, "run")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "block2")
}

func TestTuneCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "tune", "--sizes", "16,40", "--iters", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "16:4:"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "40:4:"), lines[1])

	w := algotranspose.NewWisdom()
	require.NoError(t, w.Import(strings.NewReader(out)))
	assert.Equal(t, 2, w.Len())
}

func TestTuneCommand_Output(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "tuned.wisdom")

	out, err := execute(t, "tune", "--sizes", "24", "--iters", "1", "-o", file)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "24:4:"))
}

func TestVerifyCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "verify", "--sizes", "1,5,17,65")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, "ok"))
	assert.NotContains(t, out, "FAIL")
}

func TestVerifySize(t *testing.T) {
	t.Parallel()

	for _, n := range defaultVerifySizes {
		require.NoError(t, verifySize(n, algotranspose.Strategies(), algotranspose.Options{}), "n=%d", n)
	}
}
