package model

import "testing"

func TestSumListenTimeSingleSession(t *testing.T) {
	events := []ListenEvent{
		{Kind: ListenEventPlay, Timestamp: 0},
		{Kind: ListenEventPause, Timestamp: 10},
	}
	if got, want := SumListenTime(events), 10.0; got != want {
		t.Errorf("SumListenTime = %v, want %v", got, want)
	}
}

func TestSumListenTimeMultipleSessions(t *testing.T) {
	events := []ListenEvent{
		{Kind: ListenEventPlay, Timestamp: 0},
		{Kind: ListenEventPause, Timestamp: 5},
		{Kind: ListenEventPlay, Timestamp: 20},
		{Kind: ListenEventPause, Timestamp: 28},
	}
	if got, want := SumListenTime(events), 13.0; got != want {
		t.Errorf("SumListenTime = %v, want %v", got, want)
	}
}

func TestSumListenTimeIncompleteSessionIgnored(t *testing.T) {
	events := []ListenEvent{
		{Kind: ListenEventPlay, Timestamp: 0},
	}
	if got, want := SumListenTime(events), 0.0; got != want {
		t.Errorf("SumListenTime = %v, want %v", got, want)
	}
}

func TestSumListenTimeTickAccumulatesAndContinues(t *testing.T) {
	events := []ListenEvent{
		{Kind: ListenEventPlay, Timestamp: 0},
		{Kind: ListenEventTick, Timestamp: 5},
		{Kind: ListenEventTick, Timestamp: 10},
		{Kind: ListenEventPause, Timestamp: 12},
	}
	if got, want := SumListenTime(events), 12.0; got != want {
		t.Errorf("SumListenTime = %v, want %v", got, want)
	}
}

func TestSumListenTimeStopIsNoop(t *testing.T) {
	events := []ListenEvent{
		{Kind: ListenEventPlay, Timestamp: 0},
		{Kind: ListenEventStop, Timestamp: 3},
		{Kind: ListenEventPause, Timestamp: 7},
	}
	if got, want := SumListenTime(events), 7.0; got != want {
		t.Errorf("SumListenTime = %v, want %v", got, want)
	}
}

func TestVotePreferenceTimeStampsOnce(t *testing.T) {
	v := NewVote()
	v.SetPreference(PreferenceA, 100)
	if pt := v.PreferenceTime(); pt == nil || *pt != 100 {
		t.Fatalf("expected preference time 100, got %v", pt)
	}
	v.SetPreference(PreferenceB, 200)
	if pt := v.PreferenceTime(); pt == nil || *pt != 100 {
		t.Errorf("preference time should not be overwritten, got %v", pt)
	}
	if p := v.Preference(); p == nil || *p != PreferenceB {
		t.Errorf("preference value itself should update, got %v", p)
	}
}

func TestVoteFeedbackTimeSharedAcrossFields(t *testing.T) {
	v := NewVote()
	v.SetAFeedback("nice", 50)
	if ft := v.FeedbackTime(); ft == nil || *ft != 50 {
		t.Fatalf("expected feedback time 50, got %v", ft)
	}
	v.SetBFeedback("also nice", 75)
	if ft := v.FeedbackTime(); ft == nil || *ft != 50 {
		t.Errorf("feedback time should be stamped once across all feedback fields, got %v", ft)
	}
}

func TestVoteWinner(t *testing.T) {
	v := NewVote()
	if v.Winner() != nil {
		t.Error("no preference set yet should have no winner")
	}
	v.SetPreference(PreferenceTie, 1)
	if v.Winner() != nil {
		t.Error("a tie should have no winner")
	}
	v2 := NewVote()
	v2.SetPreference(PreferenceA, 1)
	if w := v2.Winner(); w == nil || *w != PreferenceA {
		t.Errorf("expected winner A, got %v", w)
	}
}
