// Package writer persists scrape snapshots: JSON to local disk for the
// frontend, activity items to Kafka, and parquet archives to S3.
package writer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	appconfig "tradewatch/config"
	"tradewatch/logger"
	"tradewatch/models"
)

// SnapshotWriter persists snapshots as JSON. Writes go through a temp file
// and rename so a reader never observes a half-written snapshot.
type SnapshotWriter struct {
	config *appconfig.Config
	log    *logger.Log
}

func NewSnapshotWriter(cfg *appconfig.Config) *SnapshotWriter {
	return &SnapshotWriter{
		config: cfg,
		log:    logger.GetLogger(),
	}
}

// Write serializes the snapshot to the configured path and, when a frontend
// directory is configured, drops a copy there under the same file name.
func (sw *SnapshotWriter) Write(snapshot *models.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	path := sw.config.Storage.Snapshot.Path
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	logger.IncrementSnapshotWrite(int64(len(data)))

	log := sw.log.WithComponent("snapshot_writer").WithFields(logger.Fields{
		"path":       path,
		"bytes":      len(data),
		"run_id":     snapshot.RunID,
		"feed_items": len(snapshot.ActivityFeed),
	})

	if dir := sw.config.Storage.Snapshot.FrontendDir; dir != "" {
		frontendPath := filepath.Join(dir, filepath.Base(path))
		if err := writeAtomic(frontendPath, data); err != nil {
			log.WithError(err).Warn("frontend copy failed")
		} else {
			log = log.WithFields(logger.Fields{"frontend_path": frontendPath})
		}
	}

	log.Info("snapshot written")
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
