package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedLedger runs one synchronization with a failing contact and
// returns the ledger path it was recorded to.
func recordedLedger(t *testing.T) string {
	t.Helper()
	f := newFixture(t, "text")
	f.remote.FailWith("PUT", "+34622111222", 502)
	db := filepath.Join(f.dir, "ledger.db")

	err := f.run(func(o *RunOptions) { o.Database = db })
	require.Equal(t, ExitFailure, GetExitCode(err))
	return db
}

func runHistoryCmd(t *testing.T, opts *HistoryOptions) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	err := runHistory(opts, cmd)
	return out.String(), err
}

func TestHistory_ListsRuns(t *testing.T) {
	db := recordedLedger(t)

	out, err := runHistoryCmd(t, &HistoryOptions{
		RootOptions: &RootOptions{Format: "text"},
		Database:    db,
		Limit:       20,
	})

	require.NoError(t, err)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "target 2026-01-06  selected=2 total=2 ok=2 err=0 tag_err=1")
}

func TestHistory_ShowsRun(t *testing.T) {
	db := recordedLedger(t)

	out, err := runHistoryCmd(t, &HistoryOptions{
		RootOptions: &RootOptions{Format: "text"},
		Database:    db,
		RunID:       "run-1",
	})

	require.NoError(t, err)
	assert.Contains(t, out, "Run: run-1\n")
	assert.Contains(t, out, "  Tag:    total=1 ok=0 err=1\n")
	assert.Contains(t, out, "    +34622111222: TAG +34622111222 -> 502")
}

func TestHistory_UnknownRun(t *testing.T) {
	db := recordedLedger(t)

	out, err := runHistoryCmd(t, &HistoryOptions{
		RootOptions: &RootOptions{Format: "text"},
		Database:    db,
		RunID:       "nope",
	})

	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [NOT_FOUND]: run nope not found")
}

func TestHistory_PhoneOutcomes(t *testing.T) {
	db := recordedLedger(t)

	out, err := runHistoryCmd(t, &HistoryOptions{
		RootOptions: &RootOptions{Format: "json"},
		Database:    db,
		Phone:       "+34622111222",
	})
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			RunID  string `json:"run_id"`
			Pass   string `json:"pass"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "upsert", resp.Data[0].Pass)
	assert.Equal(t, "ok", resp.Data[0].Status)
	assert.Equal(t, "tag", resp.Data[1].Pass)
	assert.Equal(t, "error", resp.Data[1].Status)
}

func TestHistory_EmptyLedger(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ledger.db")

	out, err := runHistoryCmd(t, &HistoryOptions{
		RootOptions: &RootOptions{Format: "text"},
		Database:    db,
		Limit:       20,
	})

	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", out)
}
