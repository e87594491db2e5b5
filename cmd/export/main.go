package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/gavinlouuu-kpt/label-studio-processor/config"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/client"
	custom_logger "github.com/gavinlouuu-kpt/label-studio-processor/pkg/logger"
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

	cfg := config.Config.LabelStudio
	if cfg.APIKey == "" {
		logger.Fatal("labelstudio.apikey is required")
	}
	if cfg.ProjectID == 0 {
		logger.Fatal("labelstudio.projectid is required")
	}

	c := client.New(ctx, cfg.URL, cfg.APIKey)
	if err := c.VerifyConnection(ctx); err != nil {
		logger.Fatal("connection check failed", zap.Error(err))
	}

	exporter := client.NewExporter(c, logger)
	if _, err := exporter.ExportProject(ctx, cfg.ProjectID, config.Config.Export.OutputDir); err != nil {
		logger.Fatal("export failed", zap.Error(err))
	}
}
