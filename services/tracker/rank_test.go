package tracker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func newRankMachine() (RankMachine, *memoryState, *recordingSink) {
	state := newMemoryState()
	sink := &recordingSink{}
	return RankMachine{
		Thresholds: DefaultThresholds(),
		State:      state,
		Sink:       sink,
	}, state, sink
}

func TestRankMachineHighestRankWins(t *testing.T) {
	testCases := []struct {
		name     string
		stats    MergedStats
		expected Rank
	}{
		{name: "nothing", stats: followers(100), expected: RankNone},
		{name: "followers b", stats: followers(500), expected: RankB},
		{name: "genre b", stats: MergedStats{RSGenre: true}, expected: RankB},
		{name: "followers a", stats: followers(1999), expected: RankA},
		{name: "main a", stats: MergedStats{RSMain: true, RSGenre: true}, expected: RankA},
		{name: "top10 s", stats: MergedStats{RSMain: true, RSTop10: true}, expected: RankS},
		{name: "followers s", stats: followers(2000), expected: RankS},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m, state, sink := newRankMachine()
			transition, err := m.Evaluate(context.Background(), testSub, testStory, tc.stats)
			require.NoError(t, err)

			if tc.expected == RankNone {
				require.Nil(t, transition)
				require.Empty(t, sink.transitions)
				return
			}
			require.NotNil(t, transition)
			require.Equal(t, RankNone, transition.Previous)
			require.Equal(t, tc.expected, transition.Achieved)
			require.Len(t, sink.transitions, 1)

			stored, err := state.UserRank(context.Background(), "g1", "m1", 1)
			require.NoError(t, err)
			require.Equal(t, tc.expected, stored)
		})
	}
}

func TestRankMachineIdempotent(t *testing.T) {
	m, _, sink := newRankMachine()
	ctx := context.Background()

	_, err := m.Evaluate(ctx, testSub, testStory, followers(600))
	require.NoError(t, err)
	transition, err := m.Evaluate(ctx, testSub, testStory, followers(700))
	require.NoError(t, err)
	require.Nil(t, transition)
	require.Len(t, sink.transitions, 1)
}

func TestRankMachineNeverDemotes(t *testing.T) {
	m, state, sink := newRankMachine()
	ctx := context.Background()

	transition, err := m.Evaluate(ctx, testSub, testStory, followers(1200))
	require.NoError(t, err)
	require.Equal(t, RankA, transition.Achieved)

	transition, err = m.Evaluate(ctx, testSub, testStory, followers(600))
	require.NoError(t, err)
	require.Nil(t, transition)
	require.Len(t, sink.transitions, 1)

	stored, err := state.UserRank(ctx, "g1", "m1", 1)
	require.NoError(t, err)
	require.Equal(t, RankA, stored)
}

func TestRankMachinePromotes(t *testing.T) {
	m, _, sink := newRankMachine()
	ctx := context.Background()

	_, err := m.Evaluate(ctx, testSub, testStory, followers(600))
	require.NoError(t, err)
	transition, err := m.Evaluate(ctx, testSub, testStory, MergedStats{
		NormalizedStats: NormalizedStats{Followers: num(600)},
		RSMain:          true,
		RSPosition:      pos(4),
		RSTop10:         true,
	})
	require.NoError(t, err)
	require.Equal(t, RankB, transition.Previous)
	require.Equal(t, RankS, transition.Achieved)
	require.Equal(t,
		"🎉 Congrats <@m1>! You have achieved the legendary **S-Rank** with your story **Lantern** by reaching the Top 10 on Rising Stars main!",
		transition.Message,
	)
	require.Len(t, sink.transitions, 2)
}

func TestRankText(t *testing.T) {
	for _, r := range []Rank{RankNone, RankB, RankA, RankS} {
		parsed, err := ParseRank(r.String())
		require.NoError(t, err)
		require.Equal(t, r, parsed)
	}

	_, err := ParseRank("Z-Rank")
	require.Error(t, err)

	data, err := json.Marshal(map[string]Rank{"1": RankA})
	require.NoError(t, err)
	require.JSONEq(t, `{"1": "A-Rank"}`, string(data))
}
