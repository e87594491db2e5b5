package main

import (
	"context"
	"flag"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/gavinlouuu-kpt/label-studio-processor/config"
	"github.com/gavinlouuu-kpt/label-studio-processor/pkg/catalog"
	custom_logger "github.com/gavinlouuu-kpt/label-studio-processor/pkg/logger"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := fs.String("file", "config/config.yaml", "configuration file")
	folder := fs.String("folder", "", "image folder to index (parent dir becomes the group name)")
	_ = fs.Parse(os.Args[1:])

	if err := config.Init(*configPath); err != nil {
		log.Fatal(err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, _ := custom_logger.GetZapLogger(ctx)
	defer func() {
		_ = logger.Sync()
	}()

	if *folder == "" {
		logger.Fatal("-folder is required")
	}

	db, err := catalog.New(config.Config.Catalog.Path)
	if err != nil {
		logger.Fatal("failed to open catalog", zap.Error(err))
	}
	defer db.Close()

	count, err := db.IndexImages(*folder)
	if err != nil {
		logger.Fatal("failed to index images", zap.Error(err))
	}

	groups, err := db.GroupCounts()
	if err != nil {
		logger.Fatal("failed to summarize catalog", zap.Error(err))
	}
	logger.Info("indexed image folder",
		zap.String("folder", *folder),
		zap.Int("indexed", count),
		zap.Int("groups", len(groups)),
		zap.String("database", config.Config.Catalog.Path))
}
