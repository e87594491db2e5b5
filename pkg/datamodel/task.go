package datamodel

// Result types emitted by the Label Studio labeling interface. Only the brush
// (segmentation mask) and rectangle (bounding box) tools are handled here.
const (
	ResultTypeBrushLabels     = "brushlabels"
	ResultTypeRectangleLabels = "rectanglelabels"
)

// Task is one labeling unit: a source image plus every labeling pass recorded
// against it. Tasks are immutable once loaded from an export.
type Task struct {
	ID          int64        `json:"id"`
	Annotations []Annotation `json:"annotations"`
	Data        TaskData     `json:"data"`

	// FileUpload names the image file paired with this task inside the
	// export's images/ directory. It is injected from the
	// image_annotation_pairs.json mapping, not part of the raw task document.
	FileUpload string `json:"file_upload,omitempty"`
}

// TaskData carries the task's source references as stored by Label Studio.
type TaskData struct {
	Image string `json:"image,omitempty"`
}

// Annotation is one complete labeling pass over a task. Cancelled passes are
// kept in the export but excluded from dataset assembly.
type Annotation struct {
	WasCancelled bool     `json:"was_cancelled"`
	Result       []Result `json:"result"`
}

// Result is a single shape/label entry within an annotation. The Value payload
// is a tagged union keyed by Type: brush results carry an RLE mask, rectangle
// results carry a percent-based box.
type Result struct {
	Type           string      `json:"type"`
	Value          ResultValue `json:"value"`
	OriginalWidth  int         `json:"original_width"`
	OriginalHeight int         `json:"original_height"`
}

// ResultValue holds the union of brush and rectangle payload fields. X, Y,
// Width and Height are percentages of the image dimensions in [0, 100].
type ResultValue struct {
	RLE             []int    `json:"rle,omitempty"`
	BrushLabels     []string `json:"brushlabels,omitempty"`
	X               float64  `json:"x,omitempty"`
	Y               float64  `json:"y,omitempty"`
	Width           float64  `json:"width,omitempty"`
	Height          float64  `json:"height,omitempty"`
	RectangleLabels []string `json:"rectanglelabels,omitempty"`
}

// Labels returns the label list matching the result's type tag.
func (r *Result) Labels() []string {
	switch r.Type {
	case ResultTypeBrushLabels:
		return r.Value.BrushLabels
	case ResultTypeRectangleLabels:
		return r.Value.RectangleLabels
	}
	return nil
}

// FirstLabel returns the class name for the result, which downstream
// processing takes to be the first entry of the label list.
func (r *Result) FirstLabel() (string, bool) {
	labels := r.Labels()
	if len(labels) == 0 {
		return "", false
	}
	return labels[0], true
}
