// Package prepare loads the on-disk export layout and assembles it into the
// in-memory dataset consumed by the interchange serializer.
package prepare

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/datamodel"
)

var (
	// ErrMissingAnnotationsDir means the export has no annotations/ directory.
	ErrMissingAnnotationsDir = errors.New("prepare: annotations directory not found")
	// ErrMissingImagesDir means the export has no images/ directory.
	ErrMissingImagesDir = errors.New("prepare: images directory not found")
	// ErrMissingMapping means image_annotation_pairs.json is absent.
	ErrMissingMapping = errors.New("prepare: mapping file not found")
	// ErrInvalidMapping means the mapping file is not valid JSON.
	ErrInvalidMapping = errors.New("prepare: invalid mapping file")
	// ErrNoTasks means not a single task document could be loaded.
	ErrNoTasks = errors.New("prepare: no valid annotation files found")
)

// Export is a loaded export directory: the task documents plus the directory
// holding their paired images. Malformed counts task documents that were
// skipped because they failed schema validation or did not unmarshal.
type Export struct {
	Tasks     []*datamodel.Task
	ImagesDir string
	Malformed int
}

// LoadExport reads the export layout produced by the exporter. It fails only
// when the directory structure itself is unusable or no task loads at all;
// individual unreadable task documents are logged, counted and skipped.
func LoadExport(dir string, logger *zap.Logger) (*Export, error) {
	annotationsDir := filepath.Join(dir, "annotations")
	imagesDir := filepath.Join(dir, "images")
	mappingPath := filepath.Join(dir, datamodel.MappingFileName)

	if info, err := os.Stat(annotationsDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrMissingAnnotationsDir, annotationsDir)
	}
	if info, err := os.Stat(imagesDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrMissingImagesDir, imagesDir)
	}

	raw, err := os.ReadFile(mappingPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingMapping, mappingPath)
	}
	var mapping map[string]datamodel.PairInfo
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidMapping, mappingPath, err)
	}

	export := &Export{ImagesDir: imagesDir}
	for _, taskID := range sortedTaskIDs(mapping) {
		info := mapping[taskID]
		annotationPath := filepath.Join(annotationsDir, info.AnnotationFile)

		doc, err := os.ReadFile(annotationPath)
		if err != nil {
			logger.Warn("annotation file not found",
				zap.String("task_id", taskID),
				zap.String("path", annotationPath))
			export.Malformed++
			continue
		}
		if err := datamodel.ValidateTaskJSON(doc); err != nil {
			logger.Warn("annotation file failed schema validation",
				zap.String("task_id", taskID),
				zap.String("path", annotationPath),
				zap.Error(err))
			export.Malformed++
			continue
		}

		var task datamodel.Task
		if err := json.Unmarshal(doc, &task); err != nil {
			logger.Warn("invalid annotation file",
				zap.String("task_id", taskID),
				zap.String("path", annotationPath),
				zap.Error(err))
			export.Malformed++
			continue
		}
		task.FileUpload = info.ImageFile
		export.Tasks = append(export.Tasks, &task)
	}

	if len(export.Tasks) == 0 {
		return nil, ErrNoTasks
	}
	logger.Info("loaded annotation files", zap.Int("tasks", len(export.Tasks)))
	return export, nil
}

// sortedTaskIDs orders mapping keys by numeric task id so batches iterate
// deterministically; non-numeric keys sort after numeric ones.
func sortedTaskIDs(mapping map[string]datamodel.PairInfo) []string {
	ids := make([]string, 0, len(mapping))
	for id := range mapping {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aErr := strconv.ParseInt(ids[i], 10, 64)
		b, bErr := strconv.ParseInt(ids[j], 10, 64)
		if aErr == nil && bErr == nil {
			return a < b
		}
		if (aErr == nil) != (bErr == nil) {
			return aErr == nil
		}
		return ids[i] < ids[j]
	})
	return ids
}
