package scoring

import "sort"

// LabelEncoder maps category labels to their index in the sorted set of
// distinct labels it was fitted on.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// NewLabelEncoder fits an encoder on labels.
func NewLabelEncoder(labels []string) *LabelEncoder {
	index := make(map[string]int)
	for _, l := range labels {
		index[l] = 0
	}
	classes := make([]string, 0, len(index))
	for l := range index {
		classes = append(classes, l)
	}
	sort.Strings(classes)
	for i, l := range classes {
		index[l] = i
	}
	return &LabelEncoder{classes: classes, index: index}
}

// Classes returns the fitted labels in code order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

// Encode returns the code for label. Unseen labels report false.
func (e *LabelEncoder) Encode(label string) (int, bool) {
	if e == nil {
		return 0, false
	}
	code, ok := e.index[label]
	return code, ok
}
