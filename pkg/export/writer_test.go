package export

import (
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/datamodel"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/prepare"
)

func testBatch(t *testing.T) *prepare.PreparedBatch {
	t.Helper()

	mask := datamodel.NewMask(16, 16)
	for y := 4; y <= 11; y++ {
		for x := 4; x <= 11; x++ {
			mask.Set(x, y, true)
		}
	}

	vocab := datamodel.BuildClassVocabulary([]*datamodel.Task{{
		Annotations: []datamodel.Annotation{{
			Result: []datamodel.Result{
				{Type: datamodel.ResultTypeBrushLabels, Value: datamodel.ResultValue{BrushLabels: []string{"wheel"}}},
				{Type: datamodel.ResultTypeRectangleLabels, Value: datamodel.ResultValue{RectangleLabels: []string{"car"}}},
			},
		}},
	}})

	runUID, err := uuid.NewV4()
	require.NoError(t, err)

	return &prepare.PreparedBatch{
		RunUID:     runUID,
		Vocabulary: vocab,
		Tasks: []*prepare.PreparedTask{{
			TaskID:   7,
			Image:    image.NewRGBA(image.Rect(0, 0, 16, 16)),
			Masks:    []*datamodel.Mask{mask},
			Boxes:    []datamodel.Box{{XMin: 4, YMin: 4, XMax: 12, YMax: 12}},
			ClassIDs: []int{1},
		}},
		Stats: prepare.Statistics{Prepared: 1},
	}
}

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	batch := testBatch(t)

	require.NoError(t, NewWriter(dir, zap.NewNop()).Write(batch))

	assert.FileExists(t, filepath.Join(dir, "images", "7.png"))
	assert.FileExists(t, filepath.Join(dir, "masks", "7_0.png"))
	assert.FileExists(t, filepath.Join(dir, "boxes", "7.txt"))
	assert.FileExists(t, filepath.Join(dir, "classes.txt"))
	assert.FileExists(t, filepath.Join(dir, "summary.json"))
	assert.FileExists(t, filepath.Join(dir, "dataset.yaml"))
}

func TestWriter_BoxLines(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewWriter(dir, zap.NewNop()).Write(testBatch(t)))

	content, err := os.ReadFile(filepath.Join(dir, "boxes", "7.txt"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	require.Len(t, lines, 1)
	// box (4,4)-(12,12) on a 16x16 image: center 0.5, side 0.5
	assert.Equal(t, "1 0.500000 0.500000 0.500000 0.500000", lines[0])
}

func TestWriter_MaskIsBinaryGray(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewWriter(dir, zap.NewNop()).Write(testBatch(t)))

	f, err := os.Open(filepath.Join(dir, "masks", "7_0.png"))
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)

	gray, ok := img.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, uint8(255), gray.GrayAt(8, 8).Y)
	assert.Equal(t, uint8(0), gray.GrayAt(0, 0).Y)
}

func TestWriter_ClassesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	batch := testBatch(t)
	require.NoError(t, NewWriter(dir, zap.NewNop()).Write(batch))

	mapping, err := ReadClasses(filepath.Join(dir, "classes.txt"))
	require.NoError(t, err)
	assert.Equal(t, batch.Vocabulary.Map(), mapping)
	assert.Equal(t, map[string]int{"car": 0, "wheel": 1}, mapping)
}

func TestWriter_Summary(t *testing.T) {
	dir := t.TempDir()
	batch := testBatch(t)
	require.NoError(t, NewWriter(dir, zap.NewNop()).Write(batch))

	raw, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)

	var summary Summary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, batch.RunUID.String(), summary.RunUID)
	assert.Equal(t, 1, summary.NumImages)
	assert.Equal(t, 1, summary.TotalMasks)
	assert.Equal(t, []int64{7}, summary.TaskIDs)
	assert.Equal(t, batch.Vocabulary.Map(), summary.ClassMapping)
}

func TestWriter_DatasetYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewWriter(dir, zap.NewNop()).Write(testBatch(t)))

	raw, err := os.ReadFile(filepath.Join(dir, "dataset.yaml"))
	require.NoError(t, err)

	var cfg struct {
		Path  string         `yaml:"path"`
		Train string         `yaml:"train"`
		Names map[int]string `yaml:"names"`
	}
	require.NoError(t, yaml.Unmarshal(raw, &cfg))
	assert.Equal(t, "images", cfg.Train)
	assert.Equal(t, map[int]string{0: "car", 1: "wheel"}, cfg.Names)
}

func TestReadClasses_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.txt")
	require.NoError(t, os.WriteFile(path, []byte("zero cell\n"), 0o644))

	_, err := ReadClasses(path)
	assert.Error(t, err)
}
