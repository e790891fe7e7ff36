package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remindsync/internal/domain"
	"github.com/roach88/remindsync/internal/engine"
)

var baseTime = time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)

// sampleReport returns a run started offset hours after baseTime with one
// failed upsert and one failed tag in the sabino partition.
func sampleReport(id string, offset int) *engine.RunReport {
	started := baseTime.Add(time.Duration(offset) * time.Hour)
	return &engine.RunReport{
		RunID:      id,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		TargetDate: time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC),
		Rows:       5,
		Evaluated:  4,
		Selected:   3,
		Partitions: []engine.PartitionReport{
			{
				Partition: "sabino",
				Upsert: engine.PassReport{
					Total: 3,
					OK:    []string{"+34612345678", "+34612345679"},
					Failed: []domain.SyncOutcome{
						{Phone: "+34612345680", Status: domain.OutcomeError, Detail: "GET +34612345680 -> 500: boom"},
					},
				},
				Created: 1,
				Updated: 1,
				Tag: &engine.PassReport{
					Total: 2,
					OK:    []string{"+34612345678"},
					Failed: []domain.SyncOutcome{
						{Phone: "+34612345679", Status: domain.OutcomeError, Detail: "TAG +34612345679 -> 404: not found"},
					},
				},
			},
		},
	}
}

func TestWriteRun_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	report := sampleReport("run-a", 0)

	inserted, err := s.WriteRun(ctx, report)
	require.NoError(t, err)
	assert.True(t, inserted)

	got, err := s.ReadRun(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, report.RunID, got.RunID)
	assert.True(t, report.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, report.Partitions, got.Partitions)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WriteRun(ctx, sampleReport("run-a", 0))
	require.NoError(t, err)

	inserted, err := s.WriteRun(ctx, sampleReport("run-a", 0))
	require.NoError(t, err)
	assert.False(t, inserted)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestWriteRun_WithoutPartitions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	report := sampleReport("run-empty", 0)
	report.Partitions = nil
	report.DryRun = true

	_, err := s.WriteRun(ctx, report)
	require.NoError(t, err)

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].DryRun)
	assert.Zero(t, runs[0].Total)
}

func TestListRuns_NewestFirstWithTotals(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		_, err := s.WriteRun(ctx, sampleReport(id, i))
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)

	r := runs[0]
	assert.Equal(t, "2026-01-06", r.TargetDate)
	assert.Equal(t, 5, r.Rows)
	assert.Equal(t, 3, r.Selected)
	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 2, r.OK)
	assert.Equal(t, 1, r.Failed)
	assert.Equal(t, 1, r.TagFailed)
	assert.True(t, baseTime.Add(2*time.Hour).Equal(r.StartedAt))
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestPhoneHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.WriteRun(ctx, sampleReport("run-a", 0))
	require.NoError(t, err)
	_, err = s.WriteRun(ctx, sampleReport("run-b", 1))
	require.NoError(t, err)

	records, err := s.PhoneHistory(ctx, "+34612345679")
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, "run-b", records[0].RunID)
	assert.Equal(t, PassUpsert, records[0].Pass)
	assert.Equal(t, domain.OutcomeOK, records[0].Status)

	assert.Equal(t, "run-b", records[1].RunID)
	assert.Equal(t, PassTag, records[1].Pass)
	assert.Equal(t, domain.OutcomeError, records[1].Status)
	assert.Contains(t, records[1].Detail, "404")

	assert.Equal(t, "run-a", records[2].RunID)

	none, err := s.PhoneHistory(ctx, "+34600000000")
	require.NoError(t, err)
	assert.Empty(t, none)
}
