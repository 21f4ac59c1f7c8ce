package game

import (
	"testing"

	"bowling_engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// playLine прогоняет броски одного игрока только на чистых функциях,
// раздавая команды так же, как это делает роутер
func playLine(t *testing.T, rolls []int) ([]domain.Frame, bool) {
	t.Helper()

	frames := []domain.Frame{{ID: 1, PlayerID: 1, Round: 1, State: domain.FrameStateNew}}
	finished := false

	for i, pins := range rolls {
		require.False(t, finished, "roll %d after the line is over", i)

		idx := -1
		for j, f := range frames {
			if f.Open() {
				idx = j
				break
			}
		}
		require.GreaterOrEqual(t, idx, 0, "no open frame for roll %d", i)

		f, cmds, err := ApplyRoll(frames[idx], pins)
		require.NoError(t, err, "roll %d", i)
		frames[idx] = f

		for _, c := range cmds {
			switch c.Kind {
			case domain.CommandPropagation:
				updated, err := Propagate(f, c.Pins, frames)
				require.NoError(t, err)
				for _, u := range updated {
					frames[u.ID-1] = u
				}
			case domain.CommandPlayerTurn:
				if c.NextRound == 0 {
					finished = true
					continue
				}
				frames = append(frames, domain.Frame{
					ID:       int64(len(frames) + 1),
					PlayerID: 1,
					Round:    c.NextRound,
					State:    domain.FrameStateNew,
				})
			}
		}
	}
	return frames, finished
}

func total(frames []domain.Frame) int {
	sum := 0
	for _, f := range frames {
		sum += f.Score
	}
	return sum
}

func repeat(pattern []int, n int) []int {
	var out []int
	for i := 0; i < n; i++ {
		out = append(out, pattern...)
	}
	return out
}

func TestLineScores(t *testing.T) {
	tests := []struct {
		name  string
		rolls []int
		want  int
	}{
		{"ones", repeat([]int{1}, 20), 20},
		{"twos", repeat([]int{2}, 20), 40},
		{"nine and miss", repeat([]int{9, 0}, 10), 90},
		{"all spares", repeat([]int{5}, 21), 150},
		{"perfect game", repeat([]int{10}, 12), 300},
		{"strike spare alternating", append(repeat([]int{10, 5, 5}, 5), 10), 200},
		{"strike in the last frame with open fill", append(repeat([]int{0}, 18), 10, 3, 4), 17},
		{"strike then open frame", append([]int{10, 2, 3}, repeat([]int{0}, 16)...), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, finished := playLine(t, tt.rolls)
			assert.True(t, finished)
			assert.Equal(t, tt.want, total(frames))
			for _, f := range frames {
				assert.Equal(t, domain.FrameStateDone, f.State, "round %d", f.Round)
			}
		})
	}
}

func TestLineStrikeWaitsForBothBalls(t *testing.T) {
	frames, _ := playLine(t, []int{10, 2})
	assert.Equal(t, domain.FrameStateWaitScore, frames[0].State)
	assert.Equal(t, 12, frames[0].Score)

	frames, _ = playLine(t, []int{10, 2, 3})
	assert.Equal(t, domain.FrameStateDone, frames[0].State)
	assert.Equal(t, 15, frames[0].Score)
}
