package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reggie/internal/core/ports"
	"reggie/internal/engine/walk"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestPrinter_Summary(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut)
	assert.False(t, p.styled)

	require.NoError(t, p.Paths([]string{`HKLM`, `HKLM\SOFTWARE`, `HKLM\SYSTEM`}))
	p.Count(3, "HKLM")
	p.Timing(walk.Stats{Count: 3, Elapsed: 1500 * time.Millisecond})

	g := newGoldie(t)
	g.Assert(t, "summary_stdout", out.Bytes())
	g.Assert(t, "summary_stderr", errOut.Bytes())
}

func TestPrinter_TimingWithoutThroughput(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut)

	p.Timing(walk.Stats{Count: 10})

	assert.Equal(t, "Took 0 seconds\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestPrinter_HeaderUnstyledOffTerminal(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut)

	p.Header("Valid hives:")

	assert.Equal(t, "Valid hives:\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestRenderHistoryTSV(t *testing.T) {
	runs := []ports.RunRecord{
		{
			ID:        "run-2",
			Timestamp: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
			Root:      "HKCU",
			Provider:  "registry",
			Strategy:  "concurrent_interned",
			Threads:   8,
			Count:     4000,
			Elapsed:   2 * time.Second,
		},
		{
			ID:        "run-1",
			Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
			Root:      "/srv",
			Provider:  "fs",
			Strategy:  "sequential",
			Threads:   1,
			Count:     12,
		},
	}

	data, err := RenderHistoryTSV(runs)
	require.NoError(t, err)
	newGoldie(t).Assert(t, "history_tsv", data)
}

func TestRenderHistoryJSON(t *testing.T) {
	data, err := RenderHistoryJSON([]ports.RunRecord{{
		ID:        "run-1",
		Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Root:      "HKLM",
		Provider:  "registry",
		Strategy:  "sequential",
		Threads:   1,
		Count:     5,
		Elapsed:   250 * time.Millisecond,
	}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"id": "run-1",
		"timestamp": "2024-03-01T09:30:00Z",
		"root": "HKLM",
		"provider": "registry",
		"strategy": "sequential",
		"threads": 1,
		"count": 5,
		"elapsed_ms": 250
	}]`, string(data))
}
