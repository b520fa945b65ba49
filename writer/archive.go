package writer

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	appconfig "tradewatch/config"
	"tradewatch/logger"
	"tradewatch/models"
	"tradewatch/processor"
)

// feedRecord defines the parquet schema for archived activity feed items.
// EventTime is the normalized order timestamp; zero when the site format
// could not be parsed.
type feedRecord struct {
	RunID          string  `parquet:"name=run_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	ScrapedAt      int64   `parquet:"name=scraped_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	EventTime      int64   `parquet:"name=event_time, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	RawTimestamp   string  `parquet:"name=raw_timestamp, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlayerName     string  `parquet:"name=player_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	PlayerRank     int32   `parquet:"name=player_rank, type=INT32"`
	Action         string  `parquet:"name=action, type=BYTE_ARRAY, convertedtype=UTF8"`
	Symbol         string  `parquet:"name=symbol, type=BYTE_ARRAY, convertedtype=UTF8"`
	Amount         int64   `parquet:"name=amount, type=INT64"`
	Price          string  `parquet:"name=price, type=BYTE_ARRAY, convertedtype=UTF8"`
	PortfolioValue float64 `parquet:"name=portfolio_value, type=DOUBLE"`
}

// memFileWriter is an in-memory parquet sink so archives upload without
// touching local disk.
type memFileWriter struct{ buffer *bytes.Buffer }

func newMemFileWriter() *memFileWriter { return &memFileWriter{buffer: &bytes.Buffer{}} }

func (m *memFileWriter) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFileWriter) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFileWriter) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFileWriter) Read([]byte) (int, error)                  { return 0, nil }
func (m *memFileWriter) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFileWriter) Close() error                              { return nil }
func (m *memFileWriter) Bytes() []byte                             { return m.buffer.Bytes() }

// FeedArchiver uploads each pass's activity feed to S3 as a parquet file,
// partitioned by game and scrape date.
type FeedArchiver struct {
	cfg      *appconfig.Config
	s3Client *s3.Client
	log      *logger.Log
}

// NewFeedArchiver initializes the archiver with AWS credentials.
func NewFeedArchiver(cfg *appconfig.Config) (*FeedArchiver, error) {
	log := logger.GetLogger()
	ctx := context.Background()
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Storage.S3.Region)}
	if cfg.Storage.S3.AccessKeyID != "" && cfg.Storage.S3.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.Storage.S3.AccessKeyID,
				cfg.Storage.S3.SecretAccessKey,
				"",
			)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.S3.Endpoint)
		}
		o.UsePathStyle = cfg.Storage.S3.PathStyle
	})
	return &FeedArchiver{
		cfg:      cfg,
		s3Client: s3Client,
		log:      log,
	}, nil
}

// Archive writes the snapshot's activity feed to S3. An empty feed still
// produces a file so a missing object distinguishes "no pass ran" from
// "pass ran with no activity".
func (fa *FeedArchiver) Archive(ctx context.Context, snapshot *models.Snapshot) error {
	data, err := fa.createParquet(snapshot)
	if err != nil {
		return fmt.Errorf("create parquet: %w", err)
	}

	key := fa.s3Key(snapshot)
	input := &s3.PutObjectInput{
		Bucket: aws.String(fa.cfg.Storage.S3.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if _, err := fa.s3Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("upload to s3: %w", err)
	}
	logger.IncrementS3Archive(int64(len(data)))

	fa.log.WithComponent("feed_archiver").WithFields(logger.Fields{
		"s3_key":  key,
		"records": len(snapshot.ActivityFeed),
		"bytes":   len(data),
	}).Info("activity feed archived")
	return nil
}

func (fa *FeedArchiver) createParquet(snapshot *models.Snapshot) ([]byte, error) {
	mw := newMemFileWriter()
	pw, err := writer.NewParquetWriter(mw, new(feedRecord), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, item := range snapshot.ActivityFeed {
		rec := feedRecord{
			RunID:          snapshot.RunID,
			ScrapedAt:      snapshot.ScrapedAt.UnixMilli(),
			RawTimestamp:   item.Timestamp,
			PlayerName:     item.PlayerName,
			PlayerRank:     int32(item.PlayerRank),
			Action:         item.Action,
			Symbol:         item.Symbol,
			Amount:         int64(item.Amount),
			Price:          item.Price,
			PortfolioValue: item.PortfolioValue,
		}
		if event := processor.NormalizeTimestamp(item.Timestamp); !event.IsZero() {
			rec.EventTime = event.UnixMilli()
		}
		if err := pw.Write(rec); err != nil {
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	return mw.Bytes(), nil
}

func (fa *FeedArchiver) s3Key(snapshot *models.Snapshot) string {
	ts := snapshot.ScrapedAt
	parts := []string{
		fmt.Sprintf("game=%s", snapshot.Competition),
		fmt.Sprintf("year=%04d", ts.Year()),
		fmt.Sprintf("month=%02d", int(ts.Month())),
		fmt.Sprintf("day=%02d", ts.Day()),
	}
	filename := fmt.Sprintf("feed_%s.parquet", snapshot.RunID)
	return filepath.ToSlash(filepath.Join(append(parts, filename)...))
}
