package prepare

import (
	"image"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	"github.com/gavinlouuu-kpt/label-studio-processor/internal/fsutil"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/datamodel"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/parser"
)

// Statistics aggregates per-task outcomes over one assembly run. Skipped
// tasks are never silently dropped; every skip lands in exactly one bucket.
type Statistics struct {
	Prepared     int `json:"prepared"`
	NoAnnotation int `json:"no_annotation"`
	NoClass      int `json:"no_class"`
	UnknownClass int `json:"unknown_class"`
	NoMask       int `json:"no_mask"`
	MissingImage int `json:"missing_image"`
	Errors       int `json:"errors"`

	AvgMaskArea float64 `json:"avg_mask_area"`
	AvgBoxArea  float64 `json:"avg_box_area"`
}

// PreparedTask is one assembled sample: the loaded image plus the
// concatenated masks, boxes and class ids of all its annotations. Boxes and
// ClassIDs are parallel; Masks may be shorter when box-only results occurred.
type PreparedTask struct {
	TaskID    int64
	Image     image.Image
	ImageFile string
	Masks     []*datamodel.Mask
	Boxes     []datamodel.Box
	ClassIDs  []int
}

// PreparedBatch is the assembled dataset for one export, ready for
// serialization. Tasks are ordered by ascending task id.
type PreparedBatch struct {
	RunUID     uuid.UUID
	Tasks      []*PreparedTask
	Vocabulary *datamodel.ClassVocabulary
	Stats      Statistics
}

// Assembler drives vocabulary building, annotation parsing and image loading
// over a whole export.
type Assembler struct {
	policy  parser.ClassPolicy
	workers int
	logger  *zap.Logger
}

// NewAssembler returns an assembler. workers > 1 fans task processing out
// over that many goroutines; output is identical for any worker count.
func NewAssembler(policy parser.ClassPolicy, workers int, logger *zap.Logger) *Assembler {
	if workers < 1 {
		workers = 1
	}
	return &Assembler{policy: policy, workers: workers, logger: logger}
}

// taskOutcome is the merged result for a single task.
type taskOutcome struct {
	prepared *PreparedTask
	bucket   bucket
	status   parser.Status
}

type bucket int

const (
	bucketPrepared bucket = iota
	bucketNoAnnotation
	bucketNoMask
	bucketMissingImage
	bucketError
)

// Assemble builds the class vocabulary over the whole batch, then processes
// every task. Per-task failures degrade to counted skips; the batch never
// aborts on one task.
func (a *Assembler) Assemble(export *Export) (*PreparedBatch, error) {
	vocab := datamodel.BuildClassVocabulary(export.Tasks)
	p := parser.New(vocab, a.policy, a.logger)

	runUID, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	outcomes := make([]taskOutcome, len(export.Tasks))
	if a.workers == 1 {
		for i, task := range export.Tasks {
			outcomes[i] = a.processTask(p, task, export.ImagesDir)
		}
	} else {
		var wg sync.WaitGroup
		jobs := make(chan int)
		for w := 0; w < a.workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					outcomes[i] = a.processTask(p, export.Tasks[i], export.ImagesDir)
				}
			}()
		}
		for i := range export.Tasks {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	batch := &PreparedBatch{
		RunUID:     runUID,
		Vocabulary: vocab,
	}
	batch.Stats.Errors = export.Malformed
	for _, outcome := range outcomes {
		switch outcome.bucket {
		case bucketPrepared:
			batch.Stats.Prepared++
			batch.Tasks = append(batch.Tasks, outcome.prepared)
		case bucketNoAnnotation:
			batch.Stats.NoAnnotation++
		case bucketNoMask:
			batch.Stats.NoMask++
		case bucketMissingImage:
			batch.Stats.MissingImage++
		case bucketError:
			batch.Stats.Errors++
		}
		switch outcome.status {
		case parser.StatusNoClass:
			batch.Stats.NoClass++
		case parser.StatusUnknownClass:
			batch.Stats.UnknownClass++
		}
	}
	sort.Slice(batch.Tasks, func(i, j int) bool {
		return batch.Tasks[i].TaskID < batch.Tasks[j].TaskID
	})
	a.computeAreas(batch)

	a.logger.Info("assembled dataset",
		zap.Int("prepared", batch.Stats.Prepared),
		zap.Int("no_annotation", batch.Stats.NoAnnotation),
		zap.Int("no_class", batch.Stats.NoClass),
		zap.Int("unknown_class", batch.Stats.UnknownClass),
		zap.Int("no_mask", batch.Stats.NoMask),
		zap.Int("missing_image", batch.Stats.MissingImage),
		zap.Int("errors", batch.Stats.Errors),
		zap.Int("classes", vocab.Len()))
	return batch, nil
}

func (a *Assembler) processTask(p *parser.Parser, task *datamodel.Task, imagesDir string) taskOutcome {
	prepared := &PreparedTask{TaskID: task.ID, ImageFile: task.FileUpload}

	status := parser.StatusOK
	active := 0
	for i := range task.Annotations {
		ann := &task.Annotations[i]
		if ann.WasCancelled {
			continue
		}
		active++
		parsed := p.ParseAnnotation(ann)
		if parsed.Status > status {
			status = parsed.Status
		}
		prepared.Masks = append(prepared.Masks, parsed.Masks...)
		prepared.Boxes = append(prepared.Boxes, parsed.Boxes...)
		prepared.ClassIDs = append(prepared.ClassIDs, parsed.ClassIDs...)
	}
	if active == 0 {
		a.logger.Debug("task has no usable annotation", zap.Int64("task_id", task.ID))
		return taskOutcome{bucket: bucketNoAnnotation}
	}
	if len(prepared.Masks) == 0 {
		a.logger.Debug("task produced no mask", zap.Int64("task_id", task.ID))
		return taskOutcome{bucket: bucketNoMask, status: status}
	}

	imagePath := filepath.Join(imagesDir, task.FileUpload)
	if task.FileUpload == "" || !fsutil.FileExists(imagePath) {
		a.logger.Warn("image not found",
			zap.Int64("task_id", task.ID),
			zap.String("path", imagePath))
		return taskOutcome{bucket: bucketMissingImage, status: status}
	}
	img, err := fsutil.LoadImage(imagePath)
	if err != nil {
		a.logger.Warn("failed to load image",
			zap.Int64("task_id", task.ID),
			zap.String("path", imagePath),
			zap.Error(err))
		return taskOutcome{bucket: bucketError, status: status}
	}
	prepared.Image = img

	return taskOutcome{prepared: prepared, bucket: bucketPrepared, status: status}
}

// computeAreas fills the average mask and box areas over the prepared tasks.
func (a *Assembler) computeAreas(batch *PreparedBatch) {
	if batch.Stats.Prepared == 0 {
		return
	}
	var maskArea, boxArea int
	for _, task := range batch.Tasks {
		for _, m := range task.Masks {
			maskArea += m.Area()
		}
		for _, b := range task.Boxes {
			boxArea += b.Area()
		}
	}
	batch.Stats.AvgMaskArea = float64(maskArea) / float64(batch.Stats.Prepared)
	batch.Stats.AvgBoxArea = float64(boxArea) / float64(batch.Stats.Prepared)
}
