// Package chat implements the travel-itinerary conversation widget: an
// append-only transcript, the webhook relay client, and the widget session
// tying them together.
package chat

// Origin tags who authored a transcript turn.
type Origin string

const (
	OriginUser      Origin = "user"
	OriginAssistant Origin = "assistant"
)

// Turn is one immutable transcript entry.
type Turn struct {
	Origin Origin `json:"origin"`
	Text   string `json:"text"`
}

// Transcript is the ordered, append-only record of a conversation. Turns are
// never reordered or mutated after insertion. The composing flag is a
// transient marker, not a turn; it never counts toward the transcript.
type Transcript struct {
	turns     []Turn
	composing bool
}

// NewTranscript returns a transcript seeded with an assistant greeting when
// one is supplied.
func NewTranscript(greeting string) *Transcript {
	t := &Transcript{}
	if greeting != "" {
		t.append(OriginAssistant, greeting)
	}
	return t
}

func (t *Transcript) append(origin Origin, text string) {
	t.turns = append(t.turns, Turn{Origin: origin, Text: text})
}

// Turns returns a copy of the recorded turns in chronological order.
func (t *Transcript) Turns() []Turn {
	return append([]Turn(nil), t.turns...)
}

// Len returns the number of real turns; the composing marker never counts.
func (t *Transcript) Len() int { return len(t.turns) }

// Composing reports whether the assistant-is-composing marker is shown.
func (t *Transcript) Composing() bool { return t.composing }
