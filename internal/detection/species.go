package detection

import (
	"strings"
)

// UnknownSpecies is the display fallback when a prediction carries no
// usable class label. The German label matches the review UI language.
const UnknownSpecies = "Unbekannt"

// taxonomyDelimiter separates segments of a taxonomic class path, e.g.
// "animalia;chordata;mammalia;carnivora;canidae;vulpes;vulpes vulpes".
const taxonomyDelimiter = ";"

// SpeciesDisplayName extracts the display name from a class label.
//
// Class labels from the inference service may encode the full taxonomic
// path with segments joined by ";"; only the last non-empty segment is
// shown to the reviewer. Plain labels without a delimiter are returned
// trimmed as-is.
func SpeciesDisplayName(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return UnknownSpecies
	}

	segments := strings.Split(label, taxonomyDelimiter)
	// Walk backwards so a trailing delimiter does not yield an empty name
	for i := len(segments) - 1; i >= 0; i-- {
		if segment := strings.TrimSpace(segments[i]); segment != "" {
			return segment
		}
	}

	return UnknownSpecies
}

// TopDisplayName returns the display name and score of the model's best
// guess for a prediction, falling back to UnknownSpecies with score 0 when
// no classification is present.
func (p *Prediction) TopDisplayName() (name string, score float64) {
	label, score, ok := p.Classification.Top()
	if !ok {
		return UnknownSpecies, 0
	}
	return SpeciesDisplayName(label), score
}
