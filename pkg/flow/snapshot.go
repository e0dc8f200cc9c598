package flow

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one immutable, versioned load of the question schema. Sessions
// evaluate against whichever snapshot is current when they transition; the
// registry swap in the schema service is atomic, so an evaluation always
// sees a fully-loaded row set.
type Snapshot struct {
	Version  string
	LoadedAt time.Time

	flows map[string][]*Question
}

// NewSnapshot builds a snapshot from per-flow question lists. Callers are
// expected to hand over ownership of the slices.
func NewSnapshot(flows map[string][]*Question) *Snapshot {
	if flows == nil {
		flows = map[string][]*Question{}
	}
	return &Snapshot{
		Version:  uuid.NewString(),
		LoadedAt: time.Now().UTC(),
		flows:    flows,
	}
}

// EmptySnapshot is the boot-time stand-in before the first successful load.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil)
}

// Flow returns the ordered questions of a flow.
func (s *Snapshot) Flow(name string) ([]*Question, bool) {
	qs, ok := s.flows[name]
	return qs, ok
}

// Flows lists the loaded flow names, sorted for stable reporting.
func (s *Snapshot) Flows() []string {
	names := make([]string, 0, len(s.flows))
	for name := range s.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Question looks up a single question by qid within a flow.
func (s *Snapshot) Question(flowName, qid string) *Question {
	for _, q := range s.flows[flowName] {
		if q.Qid == qid {
			return q
		}
	}
	return nil
}

// QuestionCount is the total number of questions across all flows.
func (s *Snapshot) QuestionCount() int {
	n := 0
	for _, qs := range s.flows {
		n += len(qs)
	}
	return n
}
