package state

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/elieapp/elie/pkg/domain"
)

// exportFormatVersion identifies the portable session document layout.
const exportFormatVersion = 1

// ExportDoc is the portable session document written by Export and read
// back by Import. It carries the learning state but no server identity,
// so importing always mints a fresh session.
type ExportDoc struct {
	FormatVersion int                               `json:"format_version"`
	Topic         string                            `json:"topic"`
	Nodes         []domain.ConceptNode              `json:"nodes"`
	CurrentID     string                            `json:"current_id"`
	Mode          domain.ExplanationMode            `json:"mode"`
	Explanations  map[domain.ExplanationMode]string `json:"explanations,omitempty"`
}

// Export serializes a session into a portable document the user can
// download and later feed back to Import.
func (m *Manager) Export(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	doc := ExportDoc{
		FormatVersion: exportFormatVersion,
		Topic:         sess.Topic,
		Nodes:         sess.Nodes,
		CurrentID:     sess.CurrentID,
		Mode:          sess.Mode,
		Explanations:  sess.Explanations,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	return data, nil
}

// Import validates a portable document and stores it as a brand-new
// session. The document never names a session ID, so an import can
// never clobber an existing session. Anything structurally wrong with
// the payload comes back as domain.ErrMalformedImport.
func (m *Manager) Import(ctx context.Context, data []byte) (*domain.Session, error) {
	var doc ExportDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedImport, err)
	}

	sess, err := sessionFromDoc(&doc)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sess.ID = uuid.NewString()
	sess.CreatedAt = now
	sess.UpdatedAt = now

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	return sess, nil
}

// sessionFromDoc rebuilds a session from a portable document, checking
// every structural invariant the live code relies on: exactly one root,
// unique normalized IDs, parents that exist and lead back to the root,
// and valid statuses, mode, and current reference. Node IDs are
// re-normalized so imported maps obey the same dedup rule as live ones.
func sessionFromDoc(doc *ExportDoc) (*domain.Session, error) {
	if doc.FormatVersion != exportFormatVersion {
		return nil, fmt.Errorf("%w: unsupported format_version %d", domain.ErrMalformedImport, doc.FormatVersion)
	}
	topic := strings.TrimSpace(doc.Topic)
	if topic == "" {
		return nil, fmt.Errorf("%w: missing topic", domain.ErrMalformedImport)
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", domain.ErrMalformedImport)
	}

	// First pass: normalize IDs and map the document's raw IDs onto
	// them so parent and current references can be rewritten.
	renamed := make(map[string]string, len(doc.Nodes))
	used := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		id := domain.NormalizeID(n.ID)
		if id == "" {
			id = domain.NormalizeID(n.Label)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: node with empty id", domain.ErrMalformedImport)
		}
		if used[id] {
			return nil, fmt.Errorf("%w: duplicate node %q", domain.ErrMalformedImport, id)
		}
		used[id] = true
		renamed[n.ID] = id
	}

	// Second pass: rebuild the nodes with rewritten references and
	// sanitized statuses and weights.
	nodes := make([]domain.ConceptNode, 0, len(doc.Nodes))
	rootID := ""
	for _, n := range doc.Nodes {
		node := n
		node.ID = renamed[n.ID]

		if n.ParentID == "" {
			if rootID != "" {
				return nil, fmt.Errorf("%w: more than one root node", domain.ErrMalformedImport)
			}
			rootID = node.ID
			node.Breadth = sanitizeWeight(n.Breadth, rootBreadth)
			node.Distance = 0
		} else {
			parent, ok := renamed[n.ParentID]
			if !ok {
				return nil, fmt.Errorf("%w: node %q references missing parent %q", domain.ErrMalformedImport, node.ID, n.ParentID)
			}
			node.ParentID = parent
			node.Distance = sanitizeWeight(n.Distance, defaultDistance)
			node.Breadth = sanitizeWeight(n.Breadth, defaultBreadth)
		}

		switch n.Status {
		case "":
			node.Status = domain.StatusUnexplored
		case domain.StatusUnexplored, domain.StatusKnown, domain.StatusUnknown:
		default:
			return nil, fmt.Errorf("%w: node %q has invalid status %q", domain.ErrMalformedImport, node.ID, n.Status)
		}
		if node.ParentID == "" && node.Status != domain.StatusUnexplored {
			return nil, fmt.Errorf("%w: root node must not be marked %s", domain.ErrMalformedImport, node.Status)
		}

		nodes = append(nodes, node)
	}
	if rootID == "" {
		return nil, fmt.Errorf("%w: no root node", domain.ErrMalformedImport)
	}

	// Every node must reach the root by following parents; a document
	// with a parent loop would otherwise hang the tree layout.
	parents := make(map[string]string, len(nodes))
	for _, n := range nodes {
		parents[n.ID] = n.ParentID
	}
	for _, n := range nodes {
		id := n.ID
		for hops := 0; parents[id] != ""; hops++ {
			if hops > len(nodes) {
				return nil, fmt.Errorf("%w: node %q is part of a parent cycle", domain.ErrMalformedImport, n.ID)
			}
			id = parents[id]
		}
	}

	currentID := rootID
	if doc.CurrentID != "" {
		id, ok := renamed[doc.CurrentID]
		if !ok {
			id = domain.NormalizeID(doc.CurrentID)
		}
		if _, exists := parents[id]; !exists {
			return nil, fmt.Errorf("%w: current_id %q names no node", domain.ErrMalformedImport, doc.CurrentID)
		}
		currentID = id
	}

	mode := doc.Mode
	if mode == "" {
		mode = domain.ModeShort
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: invalid mode %q", domain.ErrMalformedImport, doc.Mode)
	}

	explanations := doc.Explanations
	if explanations == nil {
		explanations = map[domain.ExplanationMode]string{}
	}

	return &domain.Session{
		Topic:        topic,
		Nodes:        nodes,
		CurrentID:    currentID,
		Mode:         mode,
		Explanations: explanations,
	}, nil
}

// sanitizeWeight replaces non-positive or non-finite weights with the
// fallback. Values above the usual 0.1-1.0 reply range are kept: the
// defaults themselves sit outside it.
func sanitizeWeight(v, fallback float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
