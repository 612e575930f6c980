package internal

import (
	"math"
	"time"
)

// ThreadScore breaks down how representative a thread is of the owner's
// authored voice. Components cap at 20/30/25/25; Final is their sum in
// [0, 100]. Used only to rank candidates for selection.
type ThreadScore struct {
	Recency       float64
	Participation float64
	Substance     float64
	Volume        float64
	Final         float64
}

const (
	recencyWindow = 2 * 365 * 24 * time.Hour

	// Threads with fewer owned messages than this score zero outright:
	// too small a sample to say anything about voice.
	minOwnerMessages = 5
)

// ScoreThread computes the quality score for a thread's aggregate statistics
// relative to now.
func ScoreThread(t Thread, now time.Time) ThreadScore {
	var s ThreadScore

	if t.OwnerMessageCount < minOwnerMessages {
		return s
	}

	age := now.Sub(time.Unix(0, t.LastActivityMs*int64(time.Millisecond)))
	s.Recency = math.Max(0, 20*(1-age.Seconds()/recencyWindow.Seconds()))

	if t.MessageCount > 0 {
		ratio := float64(t.OwnerMessageCount) / float64(t.MessageCount)
		s.Participation = math.Min(ratio*60, 30)
	}

	if t.AvgOwnerMsgLength > 0 {
		s.Substance = math.Min(math.Max(0, math.Log(t.AvgOwnerMsgLength)*6), 25)
	}

	s.Volume = math.Min(math.Sqrt(float64(t.OwnerMessageCount))*3, 25)

	s.Final = s.Recency + s.Participation + s.Substance + s.Volume
	return s
}
