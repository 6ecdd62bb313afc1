package model

// ListenEventKind enumerates the playback events a frontend reports
// against one side of a battle, ported from arena.py's ListenEvent.
type ListenEventKind string

const (
	ListenEventPlay  ListenEventKind = "PLAY"
	ListenEventPause ListenEventKind = "PAUSE"
	ListenEventStop  ListenEventKind = "STOP"
	ListenEventTick  ListenEventKind = "TICK"
)

// ListenEvent pairs a listen event with the wall-clock time it occurred,
// ported from the original's (ListenEvent, float) tuple.
type ListenEvent struct {
	Kind      ListenEventKind `json:"kind"`
	Timestamp float64         `json:"timestamp"`
}

// MarshalJSON renders a ListenEvent as a 2-element array, matching the
// original's JSON-encoded tuple shape.
func (e ListenEvent) MarshalJSON() ([]byte, error) {
	return marshalPair(string(e.Kind), e.Timestamp)
}

func (e *ListenEvent) UnmarshalJSON(b []byte) error {
	kind, ts, err := unmarshalPair(b)
	if err != nil {
		return err
	}
	e.Kind = ListenEventKind(kind)
	e.Timestamp = ts
	return nil
}

// SumListenTime folds a sequence of listen events into total seconds of
// playback, ported verbatim from arena.py's sum_listen_time: PLAY starts
// a run, PAUSE or TICK closes out the run's elapsed time (only if
// positive), and TICK immediately reopens a new run from its own
// timestamp while PAUSE fully stops tracking.
func SumListenTime(events []ListenEvent) float64 {
	var lastPlay *float64
	total := 0.0
	for _, e := range events {
		switch e.Kind {
		case ListenEventPlay:
			ts := e.Timestamp
			lastPlay = &ts
		case ListenEventPause, ListenEventTick:
			if lastPlay != nil {
				playTime := e.Timestamp - *lastPlay
				if playTime > 0 {
					total += playTime
				}
				if e.Kind == ListenEventPause {
					lastPlay = nil
				} else {
					ts := e.Timestamp
					lastPlay = &ts
				}
			}
		}
	}
	return total
}

// Preference is a voter's choice between the two sides of a battle.
type Preference string

const (
	PreferenceA        Preference = "A"
	PreferenceB        Preference = "B"
	PreferenceTie      Preference = "TIE"
	PreferenceBothBad  Preference = "BOTH_BAD"
)

// Vote records a voter's listening activity, preference, and free-text
// feedback. Ported from arena.py's Vote. Go has no attribute-assignment
// hook, so the original's __setattr__-driven auto-stamping of
// preference_time/feedback_time is reproduced via explicit setters over
// unexported backing fields: callers outside this package can only set
// them through SetPreference/SetFeedback/SetAFeedback/SetBFeedback
// (which keep the "stamp once" invariant) or by decoding a Vote from JSON.
type Vote struct {
	AListenData    []ListenEvent `json:"a_listen_data"`
	BListenData    []ListenEvent `json:"b_listen_data"`
	preference     *Preference
	preferenceTime *float64
	feedback       *string
	aFeedback      *string
	bFeedback      *string
	feedbackTime   *float64
}

// NewVote returns an empty vote ready to accumulate listen events.
func NewVote() *Vote {
	return &Vote{AListenData: []ListenEvent{}, BListenData: []ListenEvent{}}
}

func (v *Vote) Preference() *Preference      { return v.preference }
func (v *Vote) PreferenceTime() *float64     { return v.preferenceTime }
func (v *Vote) Feedback() *string            { return v.feedback }
func (v *Vote) AFeedback() *string           { return v.aFeedback }
func (v *Vote) BFeedback() *string           { return v.bFeedback }
func (v *Vote) FeedbackTime() *float64       { return v.feedbackTime }

// SetPreference sets the preference and, the first time it is set,
// stamps PreferenceTime to now.
func (v *Vote) SetPreference(p Preference, now float64) {
	v.preference = &p
	if v.preferenceTime == nil {
		v.preferenceTime = &now
	}
}

func (v *Vote) stampFeedbackTime(now float64) {
	if v.feedbackTime == nil {
		v.feedbackTime = &now
	}
}

// SetFeedback sets the shared free-text feedback field, stamping
// FeedbackTime on first use (shared across Feedback/AFeedback/BFeedback,
// matching the original's single feedback_time for all three fields).
func (v *Vote) SetFeedback(s string, now float64) {
	v.feedback = &s
	v.stampFeedbackTime(now)
}

func (v *Vote) SetAFeedback(s string, now float64) {
	v.aFeedback = &s
	v.stampFeedbackTime(now)
}

func (v *Vote) SetBFeedback(s string, now float64) {
	v.bFeedback = &s
	v.stampFeedbackTime(now)
}

func (v *Vote) Play(side string, now float64)  { v.append(side, ListenEventPlay, now) }
func (v *Vote) Pause(side string, now float64) { v.append(side, ListenEventPause, now) }
func (v *Vote) Tick(side string, now float64)  { v.append(side, ListenEventTick, now) }

func (v *Vote) append(side string, kind ListenEventKind, now float64) {
	e := ListenEvent{Kind: kind, Timestamp: now}
	switch side {
	case "a":
		v.AListenData = append(v.AListenData, e)
	case "b":
		v.BListenData = append(v.BListenData, e)
	}
}

func (v *Vote) AListenTime() float64 { return SumListenTime(v.AListenData) }
func (v *Vote) BListenTime() float64 { return SumListenTime(v.BListenData) }

// Winner derives the battle winner from the vote's preference, matching
// gateway.py's record_vote: A/B map directly, anything else (tie,
// both-bad, or no preference yet) has no winner.
func (v *Vote) Winner() *Preference {
	if v.preference == nil {
		return nil
	}
	if *v.preference == PreferenceA || *v.preference == PreferenceB {
		p := *v.preference
		return &p
	}
	return nil
}

// voteWire is the JSON wire shape for Vote, exposing the unexported
// timestamp-stamped fields for (de)serialization while keeping the
// stamp-once invariant enforced only through the Set* methods above.
type voteWire struct {
	AListenData    []ListenEvent `json:"a_listen_data"`
	BListenData    []ListenEvent `json:"b_listen_data"`
	Preference     *Preference   `json:"preference,omitempty"`
	PreferenceTime *float64      `json:"preference_time,omitempty"`
	Feedback       *string       `json:"feedback,omitempty"`
	AFeedback      *string       `json:"a_feedback,omitempty"`
	BFeedback      *string       `json:"b_feedback,omitempty"`
	FeedbackTime   *float64      `json:"feedback_time,omitempty"`
}

func (v Vote) MarshalJSON() ([]byte, error) {
	return marshalJSON(voteWire{
		AListenData:    v.AListenData,
		BListenData:    v.BListenData,
		Preference:     v.preference,
		PreferenceTime: v.preferenceTime,
		Feedback:       v.feedback,
		AFeedback:      v.aFeedback,
		BFeedback:      v.bFeedback,
		FeedbackTime:   v.feedbackTime,
	})
}

func (v *Vote) UnmarshalJSON(b []byte) error {
	var w voteWire
	if err := unmarshalJSON(b, &w); err != nil {
		return err
	}
	v.AListenData = w.AListenData
	v.BListenData = w.BListenData
	v.preference = w.Preference
	v.preferenceTime = w.PreferenceTime
	v.feedback = w.Feedback
	v.aFeedback = w.AFeedback
	v.bFeedback = w.BFeedback
	v.feedbackTime = w.FeedbackTime
	return nil
}
