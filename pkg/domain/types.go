package domain

import (
	"strings"
	"time"
)

// ConceptNode is a single concept in a session's concept map.
type ConceptNode struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Status   NodeStatus `json:"status"`
	ParentID string     `json:"parent_id,omitempty"` // empty for the root topic
	Distance float64    `json:"distance"`            // 0.1-1.0, conceptual distance from the parent
	Breadth  float64    `json:"breadth"`             // 0.1-1.0, how broad the concept is
}

// Session holds the complete state of one concept-mapping session: the
// topic being explained, every concept discovered so far, and the
// explanations generated for it.
type Session struct {
	ID           string                     `json:"id"`
	Topic        string                     `json:"topic"`
	Nodes        []ConceptNode              `json:"nodes"`
	CurrentID    string                     `json:"current_id"`
	Mode         ExplanationMode            `json:"mode"`
	Explanations map[ExplanationMode]string `json:"explanations"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// Concept is a related-concept suggestion produced by the language
// model, before it is attached to a session as a ConceptNode.
type Concept struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
	Breadth  float64 `json:"breadth"`
}

// NormalizeID derives the canonical node ID for a concept label. Two
// labels that differ only in case or surrounding/repeated whitespace
// map to the same ID, which is how duplicate suggestions are detected.
func NormalizeID(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// Root returns the root topic node, or nil if the session has no nodes.
func (s *Session) Root() *ConceptNode {
	for i := range s.Nodes {
		if s.Nodes[i].ParentID == "" {
			return &s.Nodes[i]
		}
	}
	return nil
}

// Node returns the node with the given ID, or nil if absent.
func (s *Session) Node(id string) *ConceptNode {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}

// HasNode reports whether a node with the given ID exists.
func (s *Session) HasNode(id string) bool {
	return s.Node(id) != nil
}

// EffectiveStatus returns the status a node should be rendered with:
// the current node reads as StatusCurrent, everything else keeps its
// stored status.
func (s *Session) EffectiveStatus(n ConceptNode) NodeStatus {
	if n.ID == s.CurrentID {
		return StatusCurrent
	}
	return n.Status
}

// KnownLabels returns the labels of all concepts marked known, in
// insertion order.
func (s *Session) KnownLabels() []string {
	return s.labelsByStatus(StatusKnown)
}

// UnknownLabels returns the labels of all concepts marked unknown, in
// insertion order.
func (s *Session) UnknownLabels() []string {
	return s.labelsByStatus(StatusUnknown)
}

func (s *Session) labelsByStatus(status NodeStatus) []string {
	var labels []string
	for _, n := range s.Nodes {
		if n.Status == status {
			labels = append(labels, n.Label)
		}
	}
	return labels
}

// Explanation returns the cached explanation for the session's active
// mode, or "" if none has been generated yet.
func (s *Session) Explanation() string {
	return s.Explanations[s.Mode]
}

// Clone returns a deep copy of the session. Stores hand out clones so
// callers can mutate freely without racing each other.
func (s *Session) Clone() *Session {
	out := *s
	out.Nodes = make([]ConceptNode, len(s.Nodes))
	copy(out.Nodes, s.Nodes)
	out.Explanations = make(map[ExplanationMode]string, len(s.Explanations))
	for k, v := range s.Explanations {
		out.Explanations[k] = v
	}
	return &out
}
