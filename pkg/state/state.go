// Package state implements the session lifecycle: creating a concept
// map for a topic, expanding it when the user classifies a concept,
// switching explanation verbosity, and moving sessions in and out of
// portable export documents.
//
// The manager is the only writer of session state. Every mutation is
// built on a private copy and persisted in one Put, so a failed model
// call never leaves a half-updated session behind.
package state

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/elieapp/elie/pkg/domain"
	"github.com/elieapp/elie/pkg/model"
	"github.com/elieapp/elie/pkg/store"
)

// Weight defaults applied when the model reply carries no usable
// distance/breadth for a concept. The breadth defaults sit outside the
// 0.1-1.0 reply range on purpose: an unweighted non-root node renders
// slightly larger than any weighted one, and the root slightly smaller.
const (
	defaultDistance = 1.0
	defaultBreadth  = 1.2
	rootBreadth     = 0.8
)

// Config sets how many concepts each kind of model call asks for.
type Config struct {
	// StarterTerms is the number of concepts requested when a map is created.
	StarterTerms int
	// FurtherTerms is the number of concepts requested on each expansion.
	FurtherTerms int
	// SuggestionTerms is the number of names requested for the learn-next strip.
	SuggestionTerms int
}

// Manager owns all session mutations. HTTP handlers call one Manager
// method per user event and render whatever session comes back.
type Manager struct {
	store store.SessionStore
	gen   model.Generator
	cfg   Config
}

// NewManager wires a manager over a session store and a generator.
// Zero-valued config fields fall back to the standard term counts.
func NewManager(st store.SessionStore, gen model.Generator, cfg Config) *Manager {
	if cfg.StarterTerms <= 0 {
		cfg.StarterTerms = 4
	}
	if cfg.FurtherTerms <= 0 {
		cfg.FurtherTerms = 3
	}
	if cfg.SuggestionTerms <= 0 {
		cfg.SuggestionTerms = 4
	}
	return &Manager{store: st, gen: gen, cfg: cfg}
}

// Create starts a new session for the given topic: one root node marked
// current, a first short explanation, and the starter concepts attached
// as unexplored children. Nothing is stored if generation fails.
func (m *Manager) Create(ctx context.Context, topic string) (*domain.Session, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, domain.ErrEmptyTopic
	}

	res, err := m.gen.Generate(ctx, model.GenerateRequest{
		Topic:       topic,
		Mode:        domain.ModeShort,
		NumConcepts: m.cfg.StarterTerms,
	})
	if err != nil {
		return nil, fmt.Errorf("creating map for %q: %w", topic, err)
	}

	now := time.Now().UTC()
	rootID := domain.NormalizeID(topic)
	sess := &domain.Session{
		ID:        uuid.NewString(),
		Topic:     topic,
		CurrentID: rootID,
		Mode:      domain.ModeShort,
		Nodes: []domain.ConceptNode{{
			ID:      rootID,
			Label:   topic,
			Status:  domain.StatusUnexplored,
			Breadth: rootBreadth,
		}},
		Explanations: map[domain.ExplanationMode]string{domain.ModeShort: res.Explanation},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	attachConcepts(sess, rootID, res.Concepts)

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	slog.Info("Session created", "session", sess.ID, "topic", topic, "concepts", len(sess.Nodes)-1)
	return sess, nil
}

// Expand records the user's known/unknown assertion for a node, makes
// it the current focus, regenerates the explanation for the enriched
// context, and attaches the newly suggested concepts as children of the
// clicked node. Clicking an already-explored node is a no-op. If the
// model call fails the stored session is left exactly as it was.
func (m *Manager) Expand(ctx context.Context, sessionID, nodeID string, assertion domain.NodeStatus) (*domain.Session, error) {
	if assertion != domain.StatusKnown && assertion != domain.StatusUnknown {
		return nil, fmt.Errorf("assertion must be %q or %q, got %q", domain.StatusKnown, domain.StatusUnknown, assertion)
	}

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	node := sess.Node(nodeID)
	if node == nil {
		return nil, fmt.Errorf("node %q: %w", nodeID, domain.ErrUnknownConcept)
	}
	if node.ParentID == "" {
		return nil, domain.ErrRootConcept
	}
	if node.Status != domain.StatusUnexplored {
		// Re-click on an explored node: nothing to do.
		return sess, nil
	}

	node.Status = assertion
	sess.CurrentID = nodeID

	res, err := m.gen.Generate(ctx, model.GenerateRequest{
		Topic:       sess.Topic,
		Known:       sess.KnownLabels(),
		Unknown:     sess.UnknownLabels(),
		Mode:        sess.Mode,
		NumConcepts: m.cfg.FurtherTerms,
	})
	if err != nil {
		// sess is a private copy, so the stored session still holds the
		// pre-click state.
		return nil, fmt.Errorf("expanding %q: %w", nodeID, err)
	}

	// The context changed, so cached explanations at other verbosities
	// are stale. Keep only the one just generated.
	sess.Explanations = map[domain.ExplanationMode]string{sess.Mode: res.Explanation}
	attachConcepts(sess, nodeID, res.Concepts)
	sess.UpdatedAt = time.Now().UTC()

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	slog.Info("Session expanded", "session", sess.ID, "node", nodeID, "assertion", assertion)
	return sess, nil
}

// SetMode switches the explanation verbosity. A cached explanation at
// the requested verbosity is reused; otherwise one is generated for the
// current context and cached. Requesting the active mode is a no-op.
func (m *Manager) SetMode(ctx context.Context, sessionID string, mode domain.ExplanationMode) (*domain.Session, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid explanation mode %q", mode)
	}

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Mode == mode {
		return sess, nil
	}

	sess.Mode = mode
	if _, cached := sess.Explanations[mode]; !cached {
		res, err := m.gen.Generate(ctx, model.GenerateRequest{
			Topic:   sess.Topic,
			Known:   sess.KnownLabels(),
			Unknown: sess.UnknownLabels(),
			Mode:    mode,
		})
		if err != nil {
			return nil, fmt.Errorf("switching to %s explanation: %w", mode, err)
		}
		sess.Explanations[mode] = res.Explanation
	}
	sess.UpdatedAt = time.Now().UTC()

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	return sess, nil
}

// Reload regenerates the explanation for the current context and mode,
// replacing whatever was cached.
func (m *Manager) Reload(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	res, err := m.gen.Generate(ctx, model.GenerateRequest{
		Topic:   sess.Topic,
		Known:   sess.KnownLabels(),
		Unknown: sess.UnknownLabels(),
		Mode:    sess.Mode,
	})
	if err != nil {
		return nil, fmt.Errorf("reloading explanation: %w", err)
	}

	sess.Explanations[sess.Mode] = res.Explanation
	sess.UpdatedAt = time.Now().UTC()

	if err := m.store.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	return sess, nil
}

// Suggestions returns follow-on topic names for the learn-next strip.
// The strip is decorative, so model failures degrade to an empty list
// rather than an error the UI would have to surface.
func (m *Manager) Suggestions(ctx context.Context, sessionID string) ([]string, error) {
	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	names, err := m.gen.Suggest(ctx, sess.KnownLabels(), sess.UnknownLabels(), m.cfg.SuggestionTerms)
	if err != nil {
		slog.Warn("Suggestions unavailable", "session", sessionID, "error", err)
		return []string{}, nil
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// attachConcepts appends each candidate as an unexplored child of
// parentID. A candidate whose normalized name collides with an existing
// node (the root included) is dropped, which keeps node IDs unique no
// matter what the model repeats.
func attachConcepts(sess *domain.Session, parentID string, concepts []domain.Concept) {
	for _, c := range concepts {
		id := domain.NormalizeID(c.Name)
		if id == "" || sess.HasNode(id) {
			continue
		}
		distance, breadth := c.Distance, c.Breadth
		if distance <= 0 {
			distance = defaultDistance
		}
		if breadth <= 0 {
			breadth = defaultBreadth
		}
		sess.Nodes = append(sess.Nodes, domain.ConceptNode{
			ID:       id,
			Label:    strings.TrimSpace(c.Name),
			Status:   domain.StatusUnexplored,
			ParentID: parentID,
			Distance: distance,
			Breadth:  breadth,
		})
	}
}
