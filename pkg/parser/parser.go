// Package parser turns single annotations into parallel lists of masks,
// boxes and class ids, applying the fallback rules for absent payloads and
// unresolvable class labels.
package parser

import (
	"go.uber.org/zap"

	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/brush"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/datamodel"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/geometry"
)

// Status describes the label quality of a parsed annotation. The most severe
// status across the annotation's results wins.
type Status int

const (
	// StatusOK means every emitted instance resolved to a known class.
	StatusOK Status = iota
	// StatusNoClass means at least one instance carried no class label.
	StatusNoClass
	// StatusUnknownClass means at least one instance carried a label absent
	// from the vocabulary.
	StatusUnknownClass
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoClass:
		return "no_class"
	case StatusUnknownClass:
		return "unknown_class"
	}
	return "unknown"
}

// ClassPolicy decides what happens to instances whose class label is missing
// or not in the vocabulary.
type ClassPolicy string

const (
	// ClassPolicyDefaultZero keeps the instance and assigns class id 0,
	// matching the labeling tool's historical behavior.
	ClassPolicyDefaultZero ClassPolicy = "default-zero"
	// ClassPolicySkipUnlabeled drops the instance instead of polluting
	// class 0 with unlabeled shapes. The annotation status still records
	// the downgrade.
	ClassPolicySkipUnlabeled ClassPolicy = "skip-unlabeled"
)

// Parsed holds the instances extracted from one annotation. Boxes and
// ClassIDs are parallel; Masks holds one entry per brush instance only, so a
// box-only annotation contributes no mask entries.
type Parsed struct {
	Masks    []*datamodel.Mask
	Boxes    []datamodel.Box
	ClassIDs []int
	Status   Status
}

// Parser extracts (mask, box, class id) triples from annotations against a
// fixed, shared vocabulary. Safe for concurrent use.
type Parser struct {
	vocab  *datamodel.ClassVocabulary
	policy ClassPolicy
	logger *zap.Logger
}

// New returns a parser bound to the batch vocabulary.
func New(vocab *datamodel.ClassVocabulary, policy ClassPolicy, logger *zap.Logger) *Parser {
	if policy == "" {
		policy = ClassPolicyDefaultZero
	}
	return &Parser{vocab: vocab, policy: policy, logger: logger}
}

// ParseAnnotation processes every result of the annotation. Decode failures
// and payload-less results are logged and skipped without aborting the
// annotation.
func (p *Parser) ParseAnnotation(ann *datamodel.Annotation) *Parsed {
	parsed := &Parsed{}

	for i := range ann.Result {
		result := &ann.Result[i]

		var (
			mask *datamodel.Mask
			box  datamodel.Box
		)
		switch result.Type {
		case datamodel.ResultTypeBrushLabels:
			m, err := brush.Decode(result.Value.RLE, result.OriginalWidth, result.OriginalHeight)
			if err != nil {
				p.logger.Warn("failed to decode brush mask",
					zap.Int("result_index", i),
					zap.Error(err))
				continue
			}
			b, err := geometry.MaskToBox(m)
			if err != nil {
				// Decode guarantees a non-empty mask; guard anyway.
				p.logger.Warn("failed to derive box from mask",
					zap.Int("result_index", i),
					zap.Error(err))
				continue
			}
			mask, box = m, b
		case datamodel.ResultTypeRectangleLabels:
			box = geometry.PercentBoxToPixels(
				result.Value.X, result.Value.Y,
				result.Value.Width, result.Value.Height,
				result.OriginalWidth, result.OriginalHeight)
		default:
			// no usable payload
			continue
		}

		classID := 0
		status := StatusOK
		if name, ok := result.FirstLabel(); !ok {
			status = StatusNoClass
		} else if id, ok := p.vocab.ID(name); !ok {
			status = StatusUnknownClass
		} else {
			classID = id
		}
		if status > parsed.Status {
			parsed.Status = status
		}
		if status != StatusOK && p.policy == ClassPolicySkipUnlabeled {
			continue
		}

		if mask != nil {
			parsed.Masks = append(parsed.Masks, mask)
		}
		parsed.Boxes = append(parsed.Boxes, box)
		parsed.ClassIDs = append(parsed.ClassIDs, classID)
	}

	return parsed
}
