package collab

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Color assignment must be a pure function of the user id so a reconnecting
// user keeps its color for the process lifetime.
func TestColorAssignmentDeterministicProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("same user id always yields the same color", prop.ForAll(
		func(userID string) bool {
			first := ColorFor(userID)
			for i := 0; i < 5; i++ {
				if ColorFor(userID) != first {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("assigned color is always from the palette", prop.ForAll(
		func(userID string) bool {
			color := ColorFor(userID)
			for _, c := range userColors {
				if c == color {
					return true
				}
			}
			return false
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

// A selection whose start equals its end is "no selection" and must always
// remove rather than store.
func TestCollapsedSelectionProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("start == end always collapses", prop.ForAll(
		func(pos int) bool {
			sel := json.RawMessage(fmt.Sprintf(`{"start":%d,"end":%d}`, pos, pos))
			return selectionCollapsed(sel)
		},
		gen.Int(),
	))

	properties.Property("start != end never collapses", prop.ForAll(
		func(start, span int) bool {
			end := start + span
			sel := json.RawMessage(fmt.Sprintf(`{"start":%d,"end":%d}`, start, end))
			return !selectionCollapsed(sel)
		},
		gen.IntRange(-1_000_000, 1_000_000),
		gen.IntRange(1, 1_000_000),
	))

	properties.Property("structured endpoints collapse only when equal", prop.ForAll(
		func(line, ch int) bool {
			same := json.RawMessage(fmt.Sprintf(
				`{"start":{"line":%d,"ch":%d},"end":{"line":%d,"ch":%d}}`, line, ch, line, ch))
			diff := json.RawMessage(fmt.Sprintf(
				`{"start":{"line":%d,"ch":%d},"end":{"line":%d,"ch":%d}}`, line, ch, line, ch+1))
			return selectionCollapsed(same) && !selectionCollapsed(diff)
		},
		gen.IntRange(0, 10_000),
		gen.IntRange(0, 10_000),
	))

	properties.TestingRun(t)
}

// Member counts announced in user_joined events must equal the true member
// count at send time for any join sequence.
func TestMemberCountAccuracyProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("user_joined counts match membership for any join sequence", prop.ForAll(
		func(n int) bool {
			reg := newTestRegistry()
			clients := make([]*Client, 0, n)

			for i := 0; i < n; i++ {
				c := NewClient(nil, "doc1", fmt.Sprintf("u%d", i), fmt.Sprintf("User %d", i))
				reg.Join(c, "")
				clients = append(clients, c)

				// init for the joiner carries the post-join count
				ev := tryRecvEvent(c, 50*time.Millisecond)
				if ev == nil || ev.Type != MessageTypeInit || ev.ActiveUsers != i+1 {
					return false
				}
			}

			// every earlier member saw each later join with the right count
			for i, c := range clients {
				for j := i + 1; j < n; j++ {
					ev := tryRecvEvent(c, 50*time.Millisecond)
					if ev == nil || ev.Type != MessageTypeUserJoined || ev.ActiveUsers != j+1 {
						return false
					}
				}
			}

			for _, c := range clients {
				reg.Leave(c)
			}
			return reg.RoomCount() == 0
		},
		gen.IntRange(1, 12),
	))

	properties.TestingRun(t)
}
