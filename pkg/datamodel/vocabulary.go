package datamodel

import "sort"

// ClassVocabulary maps label strings to dense integer class ids. Ids are
// assigned 0..N-1 in ascending lexicographic order of the label string, so
// two vocabularies built over the same batch are identical regardless of task
// iteration order. Immutable once built.
type ClassVocabulary struct {
	ids    map[string]int
	labels []string
}

// BuildClassVocabulary scans every result of every annotation of every task
// and collects all label strings appearing on brush and rectangle results.
func BuildClassVocabulary(tasks []*Task) *ClassVocabulary {
	seen := map[string]struct{}{}
	for _, task := range tasks {
		for _, ann := range task.Annotations {
			for i := range ann.Result {
				for _, label := range ann.Result[i].Labels() {
					seen[label] = struct{}{}
				}
			}
		}
	}

	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	ids := make(map[string]int, len(labels))
	for id, label := range labels {
		ids[label] = id
	}
	return &ClassVocabulary{ids: ids, labels: labels}
}

// NewClassVocabulary builds a vocabulary directly from a label -> id mapping.
// The mapping must be dense from 0; used when reloading a serialized dataset.
func NewClassVocabulary(mapping map[string]int) *ClassVocabulary {
	labels := make([]string, len(mapping))
	ids := make(map[string]int, len(mapping))
	for label, id := range mapping {
		ids[label] = id
		if id >= 0 && id < len(labels) {
			labels[id] = label
		}
	}
	return &ClassVocabulary{ids: ids, labels: labels}
}

// ID resolves a label to its class id.
func (v *ClassVocabulary) ID(label string) (int, bool) {
	id, ok := v.ids[label]
	return id, ok
}

// Label returns the label string for a class id.
func (v *ClassVocabulary) Label(id int) (string, bool) {
	if id < 0 || id >= len(v.labels) {
		return "", false
	}
	return v.labels[id], true
}

// Labels returns the label strings in id order.
func (v *ClassVocabulary) Labels() []string {
	out := make([]string, len(v.labels))
	copy(out, v.labels)
	return out
}

// Map returns a copy of the label -> id mapping.
func (v *ClassVocabulary) Map() map[string]int {
	out := make(map[string]int, len(v.ids))
	for label, id := range v.ids {
		out[label] = id
	}
	return out
}

// Len returns the number of classes.
func (v *ClassVocabulary) Len() int { return len(v.labels) }
