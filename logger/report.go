package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	gnet "github.com/shirou/gopsutil/v3/net" //cloudwatch

	"github.com/aws/aws-sdk-go-v2/aws"                              //cloudwatch
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types" //cloudwatch
)

type flowStat struct {
	messages int64
	bytes    int64
}

var (
	errorsReader       int64
	errorsWriter       int64
	warnsReader        int64
	warnsWriter        int64
	pagesFetched       int64
	csvFallbacks       int64
	competitorsScraped int64
	scrapeFailures     int64
	snapshotWrites     int64
	kafkaPublishes     int64
	s3Archives         int64
	flows              sync.Map // map[string]*flowStat
)

func recordWarn(component string) {
	if strings.Contains(component, "reader") || strings.Contains(component, "scraper") {
		atomic.AddInt64(&warnsReader, 1)
	} else if strings.Contains(component, "writer") {
		atomic.AddInt64(&warnsWriter, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "reader") || strings.Contains(component, "scraper") {
		atomic.AddInt64(&errorsReader, 1)
	} else if strings.Contains(component, "writer") {
		atomic.AddInt64(&errorsWriter, 1)
	}
}

func IncrementPageFetch(size int) {
	atomic.AddInt64(&pagesFetched, 1)
	recordFlow("portfolio_pages", size)
}

func IncrementCSVFallback(size int) {
	atomic.AddInt64(&csvFallbacks, 1)
	recordFlow("csv_downloads", size)
}

func IncrementCompetitorScraped() {
	atomic.AddInt64(&competitorsScraped, 1)
}

func IncrementScrapeFailure() {
	atomic.AddInt64(&scrapeFailures, 1)
}

func IncrementSnapshotWrite(size int64) {
	atomic.AddInt64(&snapshotWrites, 1)
	recordFlow("snapshot_write", int(size))
}

func IncrementKafkaPublish(count int, size int) {
	atomic.AddInt64(&kafkaPublishes, int64(count))
	recordFlow("kafka_publish", size)
}

func IncrementS3Archive(size int64) {
	atomic.AddInt64(&s3Archives, 1)
	recordFlow("s3_archive", int(size))
}

func RecordFlowMessage(name string, size int) {
	recordFlow(name, size)
}

func recordFlow(name string, size int) {
	v, _ := flows.LoadOrStore(name, &flowStat{})
	fs := v.(*flowStat)
	atomic.AddInt64(&fs.messages, 1)
	atomic.AddInt64(&fs.bytes, int64(size))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of system and scrape statistics.
// It exposes the internal startReport function for use by other packages.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	cpuPercent, _ := cpu.Percent(0, false)
	memStats, _ := mem.VirtualMemory()
	diskStats, _ := disk.Usage("/")
	netStats, _ := gnet.IOCounters(false)
	flowData := map[string]map[string]int64{}
	flows.Range(func(k, v any) bool {
		name := k.(string)
		fs := v.(*flowStat)
		flowData[name] = map[string]int64{
			"messages": atomic.LoadInt64(&fs.messages),
			"bytes":    atomic.LoadInt64(&fs.bytes),
		}
		return true
	})

	cpuPct := 0.0
	if len(cpuPercent) > 0 {
		cpuPct = cpuPercent[0]
	}

	bytesSent := uint64(0)
	bytesRecv := uint64(0)
	if len(netStats) > 0 {
		bytesSent = netStats[0].BytesSent
		bytesRecv = netStats[0].BytesRecv
	}

	fields := Fields{
		"errors_reader":       atomic.LoadInt64(&errorsReader),
		"errors_writer":       atomic.LoadInt64(&errorsWriter),
		"warns_reader":        atomic.LoadInt64(&warnsReader),
		"warns_writer":        atomic.LoadInt64(&warnsWriter),
		"pages_fetched":       atomic.LoadInt64(&pagesFetched),
		"csv_fallbacks":       atomic.LoadInt64(&csvFallbacks),
		"competitors_scraped": atomic.LoadInt64(&competitorsScraped),
		"scrape_failures":     atomic.LoadInt64(&scrapeFailures),
		"snapshot_writes":     atomic.LoadInt64(&snapshotWrites),
		"kafka_publishes":     atomic.LoadInt64(&kafkaPublishes),
		"s3_archives":         atomic.LoadInt64(&s3Archives),
		"goroutines":          runtime.NumGoroutine(),
		"cpu_percent":         cpuPct,
		"memory_mb":           int64(memStats.Used) / 1024 / 1024,
		"disk_mb":             int64(diskStats.Used) / 1024 / 1024,
		"flows":               flowData,
		"net_bytes_sent":      int64(bytesSent),
		"net_bytes_recv":      int64(bytesRecv),
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("TW-CPUPercent"), Unit: cwtypes.StandardUnitPercent, Value: aws.Float64(cpuPct)},
		cwtypes.MetricDatum{MetricName: aws.String("TW-MemoryMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(memStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("TW-DiskMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(diskStats.Used) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("TW-ErrorsReader"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_reader"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-ErrorsWriter"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_writer"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-WarnsReader"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_reader"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-WarnsWriter"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_writer"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-PagesFetched"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["pages_fetched"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-CSVFallbacks"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["csv_fallbacks"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-CompetitorsScraped"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["competitors_scraped"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-ScrapeFailures"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["scrape_failures"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-SnapshotWrites"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["snapshot_writes"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-KafkaPublishes"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["kafka_publishes"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-S3Archives"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["s3_archives"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-NetBytesSent"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesSent))},
		cwtypes.MetricDatum{MetricName: aws.String("TW-NetBytesRecv"), Unit: cwtypes.StandardUnitBytes, Value: aws.Float64(float64(bytesRecv))},
	)

	for name, stats := range flowData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("TW-FlowMessages"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Flow"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["messages"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("TW-FlowBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Flow"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
