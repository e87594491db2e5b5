// Package export serializes a prepared batch into the fixed on-disk
// interchange layout: images/, masks/, boxes/ plus the class list, dataset
// config and run summary.
package export

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/datamodel"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/geometry"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/prepare"
)

const (
	imagesDirName   = "images"
	masksDirName    = "masks"
	boxesDirName    = "boxes"
	classesName     = "classes.txt"
	summaryName     = "summary.json"
	datasetYAMLName = "dataset.yaml"
)

// Summary is the run record written next to the dataset.
type Summary struct {
	RunUID       string             `json:"run_uid"`
	NumImages    int                `json:"num_images"`
	TotalMasks   int                `json:"total_masks"`
	TaskIDs      []int64            `json:"task_ids"`
	ClassMapping map[string]int     `json:"class_mapping"`
	Statistics   prepare.Statistics `json:"statistics"`
}

// datasetYAML is the YOLO-style dataset config.
type datasetYAML struct {
	Path  string         `yaml:"path"`
	Train string         `yaml:"train"`
	Names map[int]string `yaml:"names"`
}

// Writer persists prepared batches under a single output directory.
type Writer struct {
	outDir string
	logger *zap.Logger
}

// NewWriter returns a writer rooted at outDir.
func NewWriter(outDir string, logger *zap.Logger) *Writer {
	return &Writer{outDir: outDir, logger: logger}
}

// Write serializes the batch. Tasks are written in ascending id order so two
// runs over the same batch produce identical trees.
func (w *Writer) Write(batch *prepare.PreparedBatch) error {
	for _, sub := range []string{imagesDirName, masksDirName, boxesDirName} {
		if err := os.MkdirAll(filepath.Join(w.outDir, sub), 0o755); err != nil {
			return errors.Wrapf(err, "create %s directory", sub)
		}
	}

	totalMasks := 0
	taskIDs := make([]int64, 0, len(batch.Tasks))
	for _, task := range batch.Tasks {
		if err := w.writeTask(task); err != nil {
			return errors.Wrapf(err, "serialize task %d", task.TaskID)
		}
		totalMasks += len(task.Masks)
		taskIDs = append(taskIDs, task.TaskID)
	}

	if err := w.writeClasses(batch.Vocabulary); err != nil {
		return err
	}
	if err := w.writeDatasetYAML(batch.Vocabulary); err != nil {
		return err
	}
	if err := w.writeSummary(batch, taskIDs, totalMasks); err != nil {
		return err
	}

	w.logger.Info("dataset serialized",
		zap.String("output_dir", w.outDir),
		zap.Int("images", len(batch.Tasks)),
		zap.Int("masks", totalMasks))
	return nil
}

func (w *Writer) writeTask(task *prepare.PreparedTask) error {
	imagePath := filepath.Join(w.outDir, imagesDirName, fmt.Sprintf("%d.png", task.TaskID))
	if err := writePNG(imagePath, task.Image); err != nil {
		return err
	}

	for i, mask := range task.Masks {
		maskPath := filepath.Join(w.outDir, masksDirName, fmt.Sprintf("%d_%d.png", task.TaskID, i))
		if err := writePNG(maskPath, maskToGray(mask)); err != nil {
			return err
		}
	}

	bounds := task.Image.Bounds()
	var sb strings.Builder
	for i, box := range task.Boxes {
		n := geometry.BoxToNormalized(box, bounds.Dx(), bounds.Dy())
		fmt.Fprintf(&sb, "%d %.6f %.6f %.6f %.6f\n",
			task.ClassIDs[i], n.XCenter, n.YCenter, n.Width, n.Height)
	}
	boxesPath := filepath.Join(w.outDir, boxesDirName, fmt.Sprintf("%d.txt", task.TaskID))
	return os.WriteFile(boxesPath, []byte(sb.String()), 0o644)
}

func (w *Writer) writeClasses(vocab *datamodel.ClassVocabulary) error {
	var sb strings.Builder
	for id, label := range vocab.Labels() {
		fmt.Fprintf(&sb, "%d: %s\n", id, label)
	}
	return os.WriteFile(filepath.Join(w.outDir, classesName), []byte(sb.String()), 0o644)
}

func (w *Writer) writeDatasetYAML(vocab *datamodel.ClassVocabulary) error {
	absPath, err := filepath.Abs(w.outDir)
	if err != nil {
		return err
	}
	names := make(map[int]string, vocab.Len())
	for id, label := range vocab.Labels() {
		names[id] = label
	}
	out, err := yaml.Marshal(datasetYAML{
		Path:  absPath,
		Train: imagesDirName,
		Names: names,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.outDir, datasetYAMLName), out, 0o644)
}

func (w *Writer) writeSummary(batch *prepare.PreparedBatch, taskIDs []int64, totalMasks int) error {
	out, err := json.MarshalIndent(Summary{
		RunUID:       batch.RunUID.String(),
		NumImages:    len(batch.Tasks),
		TotalMasks:   totalMasks,
		TaskIDs:      taskIDs,
		ClassMapping: batch.Vocabulary.Map(),
		Statistics:   batch.Stats,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.outDir, summaryName), out, 0o644)
}

// maskToGray renders a binary mask as an 8-bit single-channel image, set
// pixels at 255.
func maskToGray(mask *datamodel.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, mask.Width, mask.Height))
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			if mask.At(x, y) {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
