package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gavinlouuu-kpt/label-studio-processor/internal/fsutil"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/datamodel"
)

// Exporter pulls a whole project into the on-disk export layout consumed by
// the dataset assembler: images/, annotations/ and the pairs mapping file.
type Exporter struct {
	client *Client
	logger *zap.Logger
}

// NewExporter returns an exporter using the given API client.
func NewExporter(c *Client, logger *zap.Logger) *Exporter {
	return &Exporter{client: c, logger: logger}
}

// ExportProject exports every task of the project into outDir. Tasks whose
// image can't be resolved or downloaded are logged and skipped; the rest of
// the export continues.
func (e *Exporter) ExportProject(ctx context.Context, projectID int, outDir string) (map[string]datamodel.PairInfo, error) {
	imagesDir := filepath.Join(outDir, "images")
	annotationsDir := filepath.Join(outDir, "annotations")
	for _, dir := range []string{imagesDir, annotationsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create export directory")
		}
	}

	e.logger.Info("exporting annotations", zap.Int("project_id", projectID))
	rawTasks, err := e.client.ExportTasks(ctx, projectID)
	if err != nil {
		return nil, errors.Wrapf(err, "export project %d", projectID)
	}
	e.logger.Info("found tasks", zap.Int("count", len(rawTasks)))

	mapping := map[string]datamodel.PairInfo{}
	for _, raw := range rawTasks {
		var task datamodel.Task
		if err := json.Unmarshal(raw, &task); err != nil {
			e.logger.Error("skipping unparsable task document", zap.Error(err))
			continue
		}
		taskID := strconv.FormatInt(task.ID, 10)

		imagePath := task.Data.Image
		if imagePath == "" {
			e.logger.Warn("no image URL found in task", zap.String("task_id", taskID))
			continue
		}

		parsed, err := url.Parse(imagePath)
		if err != nil {
			e.logger.Warn("unparsable image URL",
				zap.String("task_id", taskID),
				zap.String("url", imagePath))
			continue
		}
		originalFilename := path.Base(parsed.Path)
		imageFilename := fmt.Sprintf("task_%s_%s", taskID, originalFilename)
		annotationFilename := fmt.Sprintf("task_%s_annotation.json", taskID)

		imageOutPath := filepath.Join(imagesDir, imageFilename)
		if !fsutil.FileExists(imageOutPath) {
			if err := e.client.DownloadFile(ctx, imagePath, imageOutPath); err != nil {
				e.logger.Error("failed to download image",
					zap.String("task_id", taskID),
					zap.Error(err))
				continue
			}
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil {
			e.logger.Error("failed to format task document",
				zap.String("task_id", taskID),
				zap.Error(err))
			continue
		}
		annotationOutPath := filepath.Join(annotationsDir, annotationFilename)
		if err := os.WriteFile(annotationOutPath, pretty.Bytes(), 0o644); err != nil {
			return nil, errors.Wrapf(err, "write annotation for task %s", taskID)
		}

		mapping[taskID] = datamodel.PairInfo{
			ImageFile:        imageFilename,
			AnnotationFile:   annotationFilename,
			OriginalFilename: originalFilename,
			TaskID:           taskID,
		}
	}

	mappingOut, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return nil, err
	}
	mappingPath := filepath.Join(outDir, datamodel.MappingFileName)
	if err := os.WriteFile(mappingPath, mappingOut, 0o644); err != nil {
		return nil, errors.Wrap(err, "write mapping file")
	}

	e.logger.Info("export complete",
		zap.String("output_dir", outDir),
		zap.Int("tasks", len(mapping)))
	return mapping, nil
}
