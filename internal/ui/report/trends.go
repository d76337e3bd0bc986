package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"reggie/internal/core/ports"
)

// RenderHistoryTSV renders recorded runs newest first, one per line.
func RenderHistoryTSV(runs []ports.RunRecord) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tID\tProvider\tRoot\tStrategy\tThreads\tKeys\tSeconds\tKeysPerSecond\n")
	for _, run := range runs {
		kps := "-"
		if run.Elapsed > 0 {
			kps = fmt.Sprintf("%d", int64(float64(run.Count)/run.Elapsed.Seconds()))
		}
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%s\t%s\t%s\t%d\t%d\t%.3f\t%s\n",
			run.Timestamp.UTC().Format(time.RFC3339),
			run.ID,
			run.Provider,
			run.Root,
			run.Strategy,
			run.Threads,
			run.Count,
			run.Elapsed.Seconds(),
			kps,
		))
	}

	return []byte(buf.String()), nil
}

type historyJSON struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Root      string    `json:"root"`
	Provider  string    `json:"provider"`
	Strategy  string    `json:"strategy"`
	Threads   int       `json:"threads"`
	Count     int       `json:"count"`
	ElapsedMS float64   `json:"elapsed_ms"`
}

func RenderHistoryJSON(runs []ports.RunRecord) ([]byte, error) {
	out := make([]historyJSON, 0, len(runs))
	for _, run := range runs {
		out = append(out, historyJSON{
			ID:        run.ID,
			Timestamp: run.Timestamp.UTC(),
			Root:      run.Root,
			Provider:  run.Provider,
			Strategy:  run.Strategy,
			Threads:   run.Threads,
			Count:     run.Count,
			ElapsedMS: float64(run.Elapsed) / float64(time.Millisecond),
		})
	}
	return json.MarshalIndent(out, "", "  ")
}
