// Package prompt builds the instruction text sent to the language model
// and parses its replies. The model is asked to end concept-bearing
// replies with a single CONCEPTS: line of name,distance,breadth
// triplets, but replies are parsed defensively because models drift
// from the requested format.
package prompt

import (
	"fmt"
	"strings"

	"github.com/elieapp/elie/pkg/domain"
)

// ExplainParams describes one explanation request.
type ExplainParams struct {
	Topic   string
	Known   []string
	Unknown []string
	Mode    domain.ExplanationMode
	// NumConcepts asks the model to append that many new related
	// concepts. Zero omits the request entirely (pure re-explanation).
	NumConcepts int
}

// Explain builds the explanation prompt. The concept map grows from the
// same call that produces the explanation text, so one model round trip
// serves both.
func Explain(p ExplainParams) string {
	var b strings.Builder

	switch {
	case len(p.Known) == 0 && len(p.Unknown) == 0:
		fmt.Fprintf(&b, "I want to understand %s. ", p.Topic)
	case len(p.Unknown) == 0:
		fmt.Fprintf(&b, "Given that I understand %s, please explain %s to me. ",
			joinList(p.Known), p.Topic)
	case len(p.Known) == 0:
		fmt.Fprintf(&b, "Given that I do not understand %s, please explain %s to me. ",
			joinList(p.Unknown), p.Topic)
	default:
		fmt.Fprintf(&b, "Given that I understand %s and I do not understand %s, please explain %s to me. ",
			joinList(p.Known), joinList(p.Unknown), p.Topic)
	}

	if p.Mode == domain.ModeLong {
		b.WriteString("Make the explanation detailed and clear. ")
	} else {
		b.WriteString("Make the explanation very concise and to the point, at most three short paragraphs. ")
	}
	b.WriteString("Take into account which topics I know and which I do not. " +
		"Go directly to the explanation and do not repeat what I already know. " +
		"If suitable, use analogies built on the concepts I do know to bridge the ones I do not. " +
		"Answer only in English. ")

	if p.NumConcepts > 0 {
		exclude := append(append([]string{p.Topic}, p.Known...), p.Unknown...)
		fmt.Fprintf(&b, "\n\nAfter the explanation, add one final line starting with %q listing exactly %d concepts "+
			"that are necessary to understand %s, each with its semantic distance from %s and its breadth, "+
			"both in the range 0.1-1.0 in steps of 0.1. ",
			conceptsMarker, p.NumConcepts, p.Topic, p.Topic)
		fmt.Fprintf(&b, "Do not include any of the following concepts: %s. ", joinList(exclude))
		b.WriteString("Format that line as: " + conceptsMarker +
			" concept one,0.3,0.8,concept two,0.6,0.5 with no other text after it.")
	}

	return b.String()
}

// Suggest builds the prompt asking for n follow-on topics reachable
// from the user's current knowledge. The reply is a bare name list with
// no weights.
func Suggest(known, unknown []string, n int) string {
	var b strings.Builder

	switch {
	case len(known) == 0 && len(unknown) == 0:
		fmt.Fprintf(&b, "Please give me %d interesting concepts a curious beginner could learn next. ", n)
	case len(unknown) == 0:
		fmt.Fprintf(&b, "Given that I understand %s, please give me %d new concepts that I could learn with my current knowledge. ",
			joinList(known), n)
	default:
		fmt.Fprintf(&b, "Given that I understand %s and I do not understand %s, please give me %d new concepts that I could learn with my current knowledge. ",
			joinList(known), joinList(unknown), n)
	}

	b.WriteString("Make sure the concepts are related to the ones I already know, but not too similar to them. " +
		"Answer only in English, with nothing but a comma-separated list of the concepts. " +
		"This is an example of how the output should look: Linear Algebra,Vectors,4-D Coordinate System,Rotation Matrices")

	return b.String()
}

func joinList(items []string) string {
	return strings.Join(items, ", ")
}
