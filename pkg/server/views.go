package server

import (
	"time"

	"github.com/elieapp/elie/pkg/domain"
)

// NodeView is a concept node as rendered to clients. Status is the
// effective one: the focused node reads "current", so exactly one node
// per session carries that status.
type NodeView struct {
	ID       string            `json:"id"`
	Label    string            `json:"label"`
	Status   domain.NodeStatus `json:"status"`
	ParentID string            `json:"parent_id,omitempty"`
	Distance float64           `json:"distance"`
	Breadth  float64           `json:"breadth"`
}

// SessionView is the client-facing session snapshot: nodes with
// effective statuses plus the explanation for the active verbosity.
type SessionView struct {
	ID          string                 `json:"id"`
	Topic       string                 `json:"topic"`
	Nodes       []NodeView             `json:"nodes"`
	CurrentID   string                 `json:"current_id"`
	Mode        domain.ExplanationMode `json:"mode"`
	Explanation string                 `json:"explanation"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

func newSessionView(sess *domain.Session) SessionView {
	nodes := make([]NodeView, 0, len(sess.Nodes))
	for _, n := range sess.Nodes {
		nodes = append(nodes, NodeView{
			ID:       n.ID,
			Label:    n.Label,
			Status:   sess.EffectiveStatus(n),
			ParentID: n.ParentID,
			Distance: n.Distance,
			Breadth:  n.Breadth,
		})
	}
	return SessionView{
		ID:          sess.ID,
		Topic:       sess.Topic,
		Nodes:       nodes,
		CurrentID:   sess.CurrentID,
		Mode:        sess.Mode,
		Explanation: sess.Explanation(),
		CreatedAt:   sess.CreatedAt,
		UpdatedAt:   sess.UpdatedAt,
	}
}
