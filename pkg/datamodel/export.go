package datamodel

// MappingFileName is the image/annotation pairs index written at the root of
// an export directory.
const MappingFileName = "image_annotation_pairs.json"

// PairInfo is one entry of the mapping file, pairing a task with its image
// and annotation files inside the export layout.
type PairInfo struct {
	ImageFile        string `json:"image_file"`
	AnnotationFile   string `json:"annotation_file"`
	OriginalFilename string `json:"original_filename,omitempty"`
	TaskID           string `json:"task_id,omitempty"`
}
