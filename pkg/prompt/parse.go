package prompt

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/elieapp/elie/pkg/domain"
)

// conceptsMarker separates the explanation body from the trailing
// concept list in a model reply.
const conceptsMarker = "CONCEPTS:"

// Weight bounds for parsed distance/breadth values. The prompt asks for
// 0.1-1.0 but models occasionally wander outside it.
const (
	minWeight = 0.1
	maxWeight = 1.0
)

// verbosePattern matches replies that spell the weights out, e.g.
// "Linear Algebra, distance=0.3, breadth=0.8".
var verbosePattern = regexp.MustCompile(`(?i)([\w\s&-]+?)\s*,?\s*distance\s*=\s*([0-9.]+)\s*,\s*breadth\s*=\s*([0-9.]+)`)

// markerPattern finds the concept marker regardless of the casing the
// model chose for it.
var markerPattern = regexp.MustCompile(`(?i)` + conceptsMarker)

// SplitResponse divides a model reply into the explanation text and the
// raw concept list following the CONCEPTS: marker. Replies without the
// marker are all explanation.
func SplitResponse(raw string) (explanation, concepts string) {
	locs := markerPattern.FindAllStringIndex(raw, -1)
	if len(locs) == 0 {
		return strings.TrimSpace(raw), ""
	}
	last := locs[len(locs)-1]
	return strings.TrimSpace(raw[:last[0]]), raw[last[1]:]
}

// ParseConcepts extracts up to max concepts from a model reply. It
// first tries the verbose "name, distance=X, breadth=Y" form, then
// falls back to compact name,distance,breadth triplets. Parsing stops
// quietly at the first malformed triplet, returning whatever was read
// cleanly. Duplicate names (after normalization) keep their first
// occurrence, and weights are clamped into [0.1, 1.0].
func ParseConcepts(text string, max int) []domain.Concept {
	if matches := verbosePattern.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		var out []domain.Concept
		seen := map[string]bool{}
		for _, m := range matches {
			if len(out) >= max {
				break
			}
			name := strings.TrimSpace(m[1])
			distance, errD := strconv.ParseFloat(m[2], 64)
			breadth, errB := strconv.ParseFloat(m[3], 64)
			if name == "" || errD != nil || errB != nil {
				continue
			}
			id := domain.NormalizeID(name)
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, domain.Concept{
				Name:     name,
				Distance: clampWeight(distance),
				Breadth:  clampWeight(breadth),
			})
		}
		return out
	}

	parts := splitList(text)
	var out []domain.Concept
	seen := map[string]bool{}
	for i := 0; i+2 < len(parts) && len(out) < max; i += 3 {
		name := parts[i]
		distance, errD := strconv.ParseFloat(parts[i+1], 64)
		breadth, errB := strconv.ParseFloat(parts[i+2], 64)
		if errD != nil || errB != nil {
			break
		}
		id := domain.NormalizeID(name)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, domain.Concept{
			Name:     name,
			Distance: clampWeight(distance),
			Breadth:  clampWeight(breadth),
		})
	}
	return out
}

// ParseNames extracts up to max bare concept names from a reply, for
// prompts that ask for a plain comma-separated list.
func ParseNames(text string, max int) []string {
	parts := splitList(text)
	if len(parts) > max {
		parts = parts[:max]
	}
	return parts
}

// splitList breaks a reply on commas and newlines, trimming whitespace
// and dropping empty fields.
func splitList(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func clampWeight(v float64) float64 {
	if v < minWeight {
		return minWeight
	}
	if v > maxWeight {
		return maxWeight
	}
	return v
}
