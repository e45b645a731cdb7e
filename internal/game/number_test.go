package game

import (
	"math"
	"math/bits"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answerFor answers a threshold proposal truthfully for target.
func answerFor(t *testing.T, p *Proposal, target int) Answer {
	t.Helper()
	require.NotNil(t, p)
	require.Equal(t, ProposalThreshold, p.Kind)
	mid, err := strconv.Atoi(p.Subject)
	require.NoError(t, err)
	return Answer(target > mid)
}

func TestNumberScenarioTarget37(t *testing.T) {
	g := Start(NewNumberStrategy(NumberRange{Low: 1, High: 50}))
	step := g.Step()
	require.Equal(t, StatusAwaiting, step.Status)
	assert.Equal(t, "25", step.Proposal.Subject)
	assert.Equal(t, "Is your number greater than 25?", step.Proposal.Question)
	assert.Equal(t, []string{"yes", "no"}, step.Proposal.Options)

	wantMids := []string{"25", "38", "32", "35", "37", "36"}
	for i := 0; !step.Terminal(); i++ {
		require.Less(t, i, len(wantMids))
		assert.Equal(t, wantMids[i], step.Proposal.Subject)
		var err error
		step, err = g.Answer(answerFor(t, step.Proposal, 37))
		require.NoError(t, err)
	}
	assert.Equal(t, StatusSolved, step.Status)
	assert.Equal(t, "37", step.Value)
	assert.LessOrEqual(t, step.Attempts, 6)
}

func TestNumberConvergesWithinLog2(t *testing.T) {
	ranges := []NumberRange{
		{1, 2}, {1, 3}, {1, 50}, {1, 100}, {0, 1023}, {-10, -1}, {-7, 8}, {40, 41}, {3, 17},
	}
	for _, r := range ranges {
		n := r.High - r.Low + 1
		maxTurns := bits.Len(uint(n - 1)) // ceil(log2(n))
		for target := r.Low; target <= r.High; target++ {
			s := NewNumberStrategy(r)
			g := Start(s)
			prev := s.Range()
			step := g.Step()
			for !step.Terminal() {
				var err error
				step, err = g.Answer(answerFor(t, step.Proposal, target))
				require.NoError(t, err)

				cur := s.Range()
				assert.GreaterOrEqual(t, cur.Low, prev.Low, "low must not decrease")
				assert.LessOrEqual(t, cur.High, prev.High, "high must not increase")
				assert.LessOrEqual(t, cur.Low, cur.High)
				assert.True(t, cur.Low <= target && target <= cur.High, "target left the range")
				prev = cur
			}
			assert.Equal(t, StatusSolved, step.Status, "range %v target %d", r, target)
			assert.Equal(t, strconv.Itoa(target), step.Value)
			assert.LessOrEqual(t, step.Attempts, maxTurns, "range %v target %d", r, target)
		}
	}
}

func TestNumberExtremeRangesStayOrdered(t *testing.T) {
	ranges := []NumberRange{
		{-10, math.MaxInt},
		{math.MinInt, math.MaxInt},
		{math.MinInt, 0},
		{math.MaxInt - 3, math.MaxInt},
	}
	for _, r := range ranges {
		for _, target := range []int{r.Low, r.High, r.Low + 1, r.High - 1, 0} {
			if target < r.Low || target > r.High {
				continue
			}
			s := NewNumberStrategy(r)
			g := Start(s)
			step := g.Step()
			for !step.Terminal() {
				var err error
				step, err = g.Answer(answerFor(t, step.Proposal, target))
				require.NoError(t, err)
				cur := s.Range()
				require.LessOrEqual(t, cur.Low, cur.High, "range %v target %d", r, target)
				require.True(t, cur.Low <= target && target <= cur.High, "range %v target %d", r, target)
			}
			assert.Equal(t, strconv.Itoa(target), step.Value, "range %v", r)
			assert.LessOrEqual(t, step.Attempts, 64, "range %v target %d", r, target)
		}
	}
}

func TestNumberTwoValueRangeEndsInOneStep(t *testing.T) {
	for _, a := range []Answer{Yes, No} {
		g := Start(NewNumberStrategy(NumberRange{Low: 7, High: 8}))
		assert.Equal(t, "7", g.Step().Proposal.Subject)
		step, err := g.Answer(a)
		require.NoError(t, err)
		require.True(t, step.Terminal())
		if a == Yes {
			assert.Equal(t, "8", step.Value)
		} else {
			assert.Equal(t, "7", step.Value)
		}
	}
}

func TestNumberDegenerateRangeSolvesImmediately(t *testing.T) {
	testCases := []struct {
		r    NumberRange
		want string
	}{
		{NumberRange{5, 5}, "5"},
		{NumberRange{9, 3}, "9"},
	}
	for _, tc := range testCases {
		g := Start(NewNumberStrategy(tc.r))
		step := g.Step()
		assert.Equal(t, StatusSolved, step.Status)
		assert.Equal(t, tc.want, step.Value)
		assert.Nil(t, step.Proposal)
		assert.Zero(t, step.Attempts)
	}
}

func TestAnswerAfterFinishIsRejected(t *testing.T) {
	g := Start(NewNumberStrategy(NumberRange{Low: 1, High: 2}))
	_, err := g.Answer(No)
	require.NoError(t, err)
	require.True(t, g.Finished())

	step, err := g.Answer(Yes)
	require.ErrorIs(t, err, ErrFinished)
	assert.Equal(t, "1", step.Value)
	assert.Equal(t, 1, step.Attempts)
}

func TestStepReturnsCopyOfProposal(t *testing.T) {
	g := Start(NewNumberStrategy(DefaultNumberRange))
	step := g.Step()
	step.Proposal.Subject = "mutated"
	step.Proposal.Options[0] = "mutated"
	again := g.Step()
	assert.Equal(t, "25", again.Proposal.Subject)
	assert.Equal(t, []string{"yes", "no"}, again.Proposal.Options)

	next, err := g.Answer(No)
	require.NoError(t, err)
	assert.Equal(t, []string{"yes", "no"}, next.Proposal.Options)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, KindNumber, g.Kind)
}
