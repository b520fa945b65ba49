package writer

import (
	"testing"
	"time"

	"tradewatch/logger"
	"tradewatch/models"
)

func TestFeedArchiverS3Key(t *testing.T) {
	fa := &FeedArchiver{log: logger.GetLogger()}
	snapshot := &models.Snapshot{
		Competition: "test-competition",
		RunID:       "run-1",
		ScrapedAt:   time.Date(2025, 7, 9, 15, 0, 0, 0, time.UTC),
	}
	want := "game=test-competition/year=2025/month=07/day=09/feed_run-1.parquet"
	if got := fa.s3Key(snapshot); got != want {
		t.Errorf("s3Key = %q, want %q", got, want)
	}
}

func TestCreateParquetProducesData(t *testing.T) {
	fa := &FeedArchiver{log: logger.GetLogger()}
	snapshot := testSnapshot()

	data, err := fa.createParquet(snapshot)
	if err != nil {
		t.Fatalf("createParquet: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected parquet bytes")
	}
	// Parquet files end with the magic "PAR1".
	if string(data[len(data)-4:]) != "PAR1" {
		t.Errorf("missing parquet footer magic: % x", data[len(data)-4:])
	}
}
