package game

import (
	"testing"

	"bowling_engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingBonus(t *testing.T) {
	frames := []domain.Frame{
		{ID: 1, Round: 1, State: domain.FrameStateWaitScore, ScoreWait: 1},
		{ID: 2, Round: 2, State: domain.FrameStateWaitScore, ScoreWait: 2},
		{ID: 3, Round: 3, State: domain.FrameStateDone},
		{ID: 4, Round: 4, State: domain.FrameStateWaitScore, ScoreWait: 0},
		{ID: 5, Round: 5, State: domain.FrameStateWaitScore, ScoreWait: 2}, // источник
		{ID: 6, Round: 6, State: domain.FrameStateWaitScore, ScoreWait: 2},
	}

	got := PendingBonus(frames[4], frames)
	var ids []int64
	for _, f := range got {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestPropagate_DoubleStrike(t *testing.T) {
	// два страйка подряд, третий фрейм только что получил первый шар
	frames := []domain.Frame{
		{ID: 1, Round: 1, State: domain.FrameStateWaitScore, ScoreWait: 1, Roll1: 10, Score: 20},
		{ID: 2, Round: 2, State: domain.FrameStateWaitScore, ScoreWait: 2, Roll1: 10, Score: 10},
		{ID: 3, Round: 3, State: domain.FrameStateRollFirst, Roll1: 4, Score: 4},
	}

	updated, err := Propagate(frames[2], 4, frames)
	require.NoError(t, err)
	require.Len(t, updated, 2)

	assert.Equal(t, domain.FrameStateDone, updated[0].State)
	assert.Equal(t, 24, updated[0].Score)
	assert.Equal(t, domain.FrameStateWaitScore, updated[1].State)
	assert.Equal(t, 1, updated[1].ScoreWait)
	assert.Equal(t, 14, updated[1].Score)
}

func TestPropagate_NothingPending(t *testing.T) {
	frames := []domain.Frame{
		{ID: 1, Round: 1, State: domain.FrameStateDone, Score: 7},
		{ID: 2, Round: 2, State: domain.FrameStateRollFirst, Roll1: 3, Score: 3},
	}
	updated, err := Propagate(frames[1], 3, frames)
	require.NoError(t, err)
	assert.Empty(t, updated)
}

func TestPropagate_InvalidPins(t *testing.T) {
	_, err := Propagate(domain.Frame{ID: 1, Round: 2}, 11, nil)
	var invalid *domain.InvalidRollError
	assert.ErrorAs(t, err, &invalid)
}
