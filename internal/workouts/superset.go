package workouts

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrLinkTooFewSets = errors.New("select at least two sets to link")
	ErrUnlinkNoSets   = errors.New("select at least one set to unlink")
	ErrSetOutOfRange  = errors.New("set reference out of range")

	newLinkID = uuid.NewString
)

// SetRef points at one set inside a list of strength logs.
type SetRef struct {
	LogIndex int `json:"logIndex"`
	SetIndex int `json:"setIndex"`
}

// Session edits superset links on the strength logs of a workout being edited.
// It works on the given slice in place.
type Session struct {
	logs []StrengthLog
}

func NewSession(logs []StrengthLog) *Session {
	return &Session{logs: logs}
}

func (s *Session) Logs() []StrengthLog {
	return s.logs
}

func (s *Session) check(refs []SetRef) error {
	for _, ref := range refs {
		if ref.LogIndex < 0 || ref.LogIndex >= len(s.logs) {
			return fmt.Errorf("%w: log %d", ErrSetOutOfRange, ref.LogIndex)
		}
		if ref.SetIndex < 0 || ref.SetIndex >= len(s.logs[ref.LogIndex].Sets) {
			return fmt.Errorf("%w: log %d set %d", ErrSetOutOfRange, ref.LogIndex, ref.SetIndex)
		}
	}
	return nil
}

// Link puts all referenced sets into one new superset group and returns its id.
// Sets that were already in another group move to the new one.
func (s *Session) Link(refs []SetRef) (string, error) {
	if len(distinct(refs)) < 2 {
		return "", ErrLinkTooFewSets
	}
	if err := s.check(refs); err != nil {
		return "", err
	}

	id := newLinkID()
	for _, ref := range refs {
		s.logs[ref.LogIndex].Sets[ref.SetIndex].SupersetLinkID = id
	}
	return id, nil
}

// Unlink removes the referenced sets from whatever group they are in.
func (s *Session) Unlink(refs []SetRef) error {
	if len(refs) == 0 {
		return ErrUnlinkNoSets
	}
	if err := s.check(refs); err != nil {
		return err
	}
	for _, ref := range refs {
		s.logs[ref.LogIndex].Sets[ref.SetIndex].SupersetLinkID = ""
	}
	return nil
}

// Groups maps every superset link id to its member sets, in log/set order.
func Groups(logs []StrengthLog) map[string][]SetRef {
	groups := map[string][]SetRef{}
	for i, log := range logs {
		for j, set := range log.Sets {
			if set.SupersetLinkID == "" {
				continue
			}
			groups[set.SupersetLinkID] = append(groups[set.SupersetLinkID], SetRef{LogIndex: i, SetIndex: j})
		}
	}
	return groups
}

// GroupOrder returns the link ids in the order they are first seen, so each
// group keeps a stable index (e.g. for picking a display colour).
func GroupOrder(logs []StrengthLog) []string {
	var order []string
	seen := map[string]bool{}
	for _, log := range logs {
		for _, set := range log.Sets {
			id := set.SupersetLinkID
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			order = append(order, id)
		}
	}
	return order
}

func distinct(refs []SetRef) []SetRef {
	seen := map[SetRef]bool{}
	var out []SetRef
	for _, r := range refs {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
