package internal

import (
	"math"
	"testing"
	"time"
)

func scoreNow() time.Time {
	return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
}

func msAgo(now time.Time, d time.Duration) int64 {
	return now.Add(-d).UnixMilli()
}

func TestScoreThreadFloorsBelowFiveOwnedMessages(t *testing.T) {
	now := scoreNow()
	thread := Thread{
		MessageCount:      100,
		OwnerMessageCount: 4,
		AvgOwnerMsgLength: 200,
		LastActivityMs:    now.UnixMilli(),
	}
	if got := ScoreThread(thread, now); got.Final != 0 {
		t.Errorf("Final = %v, want 0 for fewer than 5 owned messages", got.Final)
	}
}

func TestScoreThreadComponents(t *testing.T) {
	now := scoreNow()

	tests := []struct {
		name   string
		thread Thread
		check  func(t *testing.T, s ThreadScore)
	}{
		{
			name: "fresh thread gets full recency",
			thread: Thread{
				MessageCount: 10, OwnerMessageCount: 5,
				AvgOwnerMsgLength: 50, LastActivityMs: now.UnixMilli(),
			},
			check: func(t *testing.T, s ThreadScore) {
				if s.Recency < 19.9 {
					t.Errorf("Recency = %v, want ~20", s.Recency)
				}
			},
		},
		{
			name: "three year old thread gets zero recency",
			thread: Thread{
				MessageCount: 10, OwnerMessageCount: 5,
				AvgOwnerMsgLength: 50,
				LastActivityMs:    msAgo(now, 3*365*24*time.Hour),
			},
			check: func(t *testing.T, s ThreadScore) {
				if s.Recency != 0 {
					t.Errorf("Recency = %v, want 0", s.Recency)
				}
			},
		},
		{
			name: "balanced participation caps at 30",
			thread: Thread{
				MessageCount: 10, OwnerMessageCount: 10,
				AvgOwnerMsgLength: 50, LastActivityMs: now.UnixMilli(),
			},
			check: func(t *testing.T, s ThreadScore) {
				if s.Participation != 30 {
					t.Errorf("Participation = %v, want capped at 30", s.Participation)
				}
			},
		},
		{
			name: "half participation scores full 30",
			thread: Thread{
				MessageCount: 20, OwnerMessageCount: 10,
				AvgOwnerMsgLength: 50, LastActivityMs: now.UnixMilli(),
			},
			check: func(t *testing.T, s ThreadScore) {
				if s.Participation != 30 {
					t.Errorf("Participation = %v, want 30 at 1:1 ratio", s.Participation)
				}
			},
		},
		{
			name: "substance is logarithmic",
			thread: Thread{
				MessageCount: 20, OwnerMessageCount: 10,
				AvgOwnerMsgLength: 100, LastActivityMs: now.UnixMilli(),
			},
			check: func(t *testing.T, s ThreadScore) {
				want := math.Log(100) * 6
				if math.Abs(s.Substance-want) > 1e-9 {
					t.Errorf("Substance = %v, want %v", s.Substance, want)
				}
			},
		},
		{
			name: "substance caps at 25 for essays",
			thread: Thread{
				MessageCount: 20, OwnerMessageCount: 10,
				AvgOwnerMsgLength: 1e6, LastActivityMs: now.UnixMilli(),
			},
			check: func(t *testing.T, s ThreadScore) {
				if s.Substance != 25 {
					t.Errorf("Substance = %v, want capped at 25", s.Substance)
				}
			},
		},
		{
			name: "volume caps near seventy owned messages",
			thread: Thread{
				MessageCount: 200, OwnerMessageCount: 100,
				AvgOwnerMsgLength: 50, LastActivityMs: now.UnixMilli(),
			},
			check: func(t *testing.T, s ThreadScore) {
				if s.Volume != 25 {
					t.Errorf("Volume = %v, want capped at 25", s.Volume)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, ScoreThread(tt.thread, now))
		})
	}
}

func TestScoreThreadBounded(t *testing.T) {
	now := scoreNow()
	thread := Thread{
		MessageCount: 1000, OwnerMessageCount: 1000,
		AvgOwnerMsgLength: 1e9, LastActivityMs: now.UnixMilli(),
	}
	s := ScoreThread(thread, now)
	if s.Final < 0 || s.Final > 100 {
		t.Errorf("Final = %v, want within [0, 100]", s.Final)
	}
}

func TestScoreThreadMonotonicInOwnerCount(t *testing.T) {
	// Holding other statistics fixed, more owned messages never lowers the
	// score once past the minimum sample.
	now := scoreNow()
	prev := -1.0
	for owned := 5; owned <= 200; owned++ {
		thread := Thread{
			MessageCount:      500,
			OwnerMessageCount: owned,
			AvgOwnerMsgLength: 80,
			LastActivityMs:    msAgo(now, 30*24*time.Hour),
		}
		got := ScoreThread(thread, now).Final
		if got < prev {
			t.Fatalf("score decreased at ownerMessageCount=%d: %v < %v", owned, got, prev)
		}
		prev = got
	}
}

func TestRankThreadsOrdersBestFirst(t *testing.T) {
	now := scoreNow()
	threads := []Thread{
		{ID: "stale", MessageCount: 10, OwnerMessageCount: 5, AvgOwnerMsgLength: 20,
			LastActivityMs: msAgo(now, 3*365*24*time.Hour)},
		{ID: "tiny", MessageCount: 4, OwnerMessageCount: 2, AvgOwnerMsgLength: 500,
			LastActivityMs: now.UnixMilli()},
		{ID: "rich", MessageCount: 100, OwnerMessageCount: 50, AvgOwnerMsgLength: 120,
			LastActivityMs: now.UnixMilli()},
	}

	ranked := RankThreads(threads, now)
	if ranked[0].Thread.ID != "rich" {
		t.Errorf("best thread = %s, want rich", ranked[0].Thread.ID)
	}
	if ranked[len(ranked)-1].Thread.ID != "tiny" {
		t.Errorf("worst thread = %s, want tiny (scores 0)", ranked[len(ranked)-1].Thread.ID)
	}
	if ranked[len(ranked)-1].Score.Final != 0 {
		t.Errorf("tiny thread Final = %v, want 0", ranked[len(ranked)-1].Score.Final)
	}
}
