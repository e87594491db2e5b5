package datamodel

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func taskWithLabels(id int64, resultType string, labels ...string) *Task {
	value := ResultValue{}
	switch resultType {
	case ResultTypeBrushLabels:
		value.BrushLabels = labels
	case ResultTypeRectangleLabels:
		value.RectangleLabels = labels
	}
	return &Task{
		ID: id,
		Annotations: []Annotation{
			{Result: []Result{{Type: resultType, Value: value}}},
		},
	}
}

func TestBuildClassVocabulary(t *testing.T) {
	c := qt.New(t)

	tasks := []*Task{
		taskWithLabels(1, ResultTypeBrushLabels, "b"),
		taskWithLabels(2, ResultTypeRectangleLabels, "a"),
		taskWithLabels(3, ResultTypeBrushLabels, "a"),
	}
	vocab := BuildClassVocabulary(tasks)

	c.Assert(vocab.Len(), qt.Equals, 2)
	c.Assert(vocab.Map(), qt.DeepEquals, map[string]int{"a": 0, "b": 1})
}

func TestBuildClassVocabulary_OrderIndependent(t *testing.T) {
	c := qt.New(t)

	forward := []*Task{
		taskWithLabels(1, ResultTypeBrushLabels, "wheel"),
		taskWithLabels(2, ResultTypeRectangleLabels, "car"),
		taskWithLabels(3, ResultTypeBrushLabels, "sign"),
	}
	backward := []*Task{forward[2], forward[1], forward[0]}

	c.Assert(BuildClassVocabulary(forward).Map(), qt.DeepEquals, BuildClassVocabulary(backward).Map())
}

func TestBuildClassVocabulary_CollectsAllLabels(t *testing.T) {
	c := qt.New(t)

	// every label string counts here, not just the first per result
	task := &Task{
		ID: 1,
		Annotations: []Annotation{{
			Result: []Result{{
				Type:  ResultTypeBrushLabels,
				Value: ResultValue{BrushLabels: []string{"primary", "secondary"}},
			}},
		}},
	}
	vocab := BuildClassVocabulary([]*Task{task})

	c.Assert(vocab.Map(), qt.DeepEquals, map[string]int{"primary": 0, "secondary": 1})
}

func TestClassVocabulary_Lookups(t *testing.T) {
	c := qt.New(t)

	vocab := BuildClassVocabulary([]*Task{
		taskWithLabels(1, ResultTypeBrushLabels, "cell"),
	})

	id, ok := vocab.ID("cell")
	c.Assert(ok, qt.IsTrue)
	c.Assert(id, qt.Equals, 0)

	_, ok = vocab.ID("unknown")
	c.Assert(ok, qt.IsFalse)

	label, ok := vocab.Label(0)
	c.Assert(ok, qt.IsTrue)
	c.Assert(label, qt.Equals, "cell")

	c.Assert(vocab.Labels(), qt.DeepEquals, []string{"cell"})
}

func TestNewClassVocabulary_RoundTrip(t *testing.T) {
	c := qt.New(t)

	original := BuildClassVocabulary([]*Task{
		taskWithLabels(1, ResultTypeBrushLabels, "b"),
		taskWithLabels(2, ResultTypeRectangleLabels, "a"),
	})
	rebuilt := NewClassVocabulary(original.Map())

	c.Assert(rebuilt.Map(), qt.DeepEquals, original.Map())
	c.Assert(rebuilt.Labels(), qt.DeepEquals, original.Labels())
}
