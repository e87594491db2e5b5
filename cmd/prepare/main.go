package main

import (
	"context"
	"log"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gavinlouuu-kpt/label-studio-processor/config"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/catalog"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/export"
	custom_logger "github.com/gavinlouuu-kpt/label-studio-processor/pkg/logger"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/overlay"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/parser"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/prepare"
)

func main() {
	if err := config.Init(config.ParseConfigFlag()); err != nil {
		log.Fatal(err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, _ := custom_logger.GetZapLogger(ctx)
	defer func() {
		_ = logger.Sync()
	}()

	cfg := config.Config.Dataset

	exported, err := prepare.LoadExport(cfg.ExportDir, logger)
	if err != nil {
		logger.Fatal("failed to load export", zap.Error(err))
	}

	assembler := prepare.NewAssembler(parser.ClassPolicy(cfg.ClassPolicy), cfg.Workers, logger)
	batch, err := assembler.Assemble(exported)
	if err != nil {
		logger.Fatal("failed to assemble dataset", zap.Error(err))
	}
	logger.Info("dataset statistics",
		zap.Int("num_samples", batch.Stats.Prepared),
		zap.Float64("avg_mask_area", batch.Stats.AvgMaskArea),
		zap.Float64("avg_bbox_area", batch.Stats.AvgBoxArea))

	writer := export.NewWriter(cfg.OutputDir, logger)
	if err := writer.Write(batch); err != nil {
		logger.Fatal("failed to serialize dataset", zap.Error(err))
	}

	if cfg.Overlays {
		if err := overlay.WriteBatch(batch, filepath.Join(cfg.OutputDir, "viz"), logger); err != nil {
			logger.Error("failed to render overlays", zap.Error(err))
		}
	}

	if config.Config.Catalog.Enabled {
		db, err := catalog.New(config.Config.Catalog.Path)
		if err != nil {
			logger.Fatal("failed to open catalog", zap.Error(err))
		}
		defer db.Close()

		totalMasks := 0
		for _, task := range batch.Tasks {
			totalMasks += len(task.Masks)
		}
		err = db.RecordRun(catalog.RunRecord{
			RunUID:     batch.RunUID.String(),
			ExportDir:  cfg.ExportDir,
			OutputDir:  cfg.OutputDir,
			Prepared:   batch.Stats.Prepared,
			TotalMasks: totalMasks,
			Classes:    batch.Vocabulary.Len(),
		})
		if err != nil {
			logger.Error("failed to record run in catalog", zap.Error(err))
		}
	}
}
