package pkg

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecopia-map/geo_transformer/internal/io"
	"github.com/ecopia-map/geo_transformer/internal/placer"
	"github.com/ecopia-map/geo_transformer/pkg/algorithm_manager"
	"github.com/ecopia-map/geo_transformer/tools"
)

type IConverter interface {
	RunConverter(opts *placer.PlacerOptions) error
}

type Converter struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
	points           *prometheus.CounterVec
}

func NewConverter(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) IConverter {
	points := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geo_transformer_batch_points_total",
			Help: "Points processed by the batch converter.",
		},
		[]string{"direction", "result"},
	)
	// converters sharing an algorithm manager share the counter
	collector, err := algorithmManager.GetMetrics().RegisterOrGet(points)
	if err != nil {
		tools.LogOutput("> batch points are not counted:", err)
	} else if existing, ok := collector.(*prometheus.CounterVec); ok {
		points = existing
	}

	return &Converter{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
		points:           points,
	}
}

// Converts every point of the input files with the transformer of the scene and writes the results ordered by file
// and line. Points that fail are written with their error and do not stop the conversion.
func (c *Converter) RunConverter(opts *placer.PlacerOptions) error {
	convertOpts := opts.ConvertOptions
	if convertOpts == nil {
		return errors.New("missing convert options")
	}

	t, err := c.algorithmManager.GetTransformer(opts.Scene)
	if err != nil {
		return err
	}

	tools.LogOutput("Preparing list of files to process...")
	files, err := c.fileFinder.GetPointFilesToProcess(convertOpts)
	if err != nil {
		return err
	}
	for i, filePath := range files {
		tools.LogOutput(fmt.Sprintf("point file %d/%d [%s]", i+1, len(files), filePath))
	}

	numConsumers := convertOpts.Workers
	if numConsumers <= 0 {
		numConsumers = runtime.NumCPU()
	}

	// init channel where to submit work with a buffer 5 times greater than the number of consumer
	workChannel := make(chan *io.WorkUnit, numConsumers*5)
	resultChannel := make(chan *io.Result, numConsumers*5)

	// one slot per file so the producer never blocks on unreadable files
	errorChannel := make(chan error, len(files))

	var waitGroup sync.WaitGroup

	waitGroup.Add(1)
	go io.NewStandardProducer().Produce(workChannel, errorChannel, &waitGroup, files)

	for i := 0; i < numConsumers; i++ {
		waitGroup.Add(1)
		consumer := io.NewStandardConsumer(t, convertOpts.Direction)
		go consumer.Consume(workChannel, resultChannel, &waitGroup)
	}

	go func() {
		waitGroup.Wait()
		close(resultChannel)
		close(errorChannel)
	}()

	var results []*io.Result
	for result := range resultChannel {
		label := "ok"
		if result.Err != nil {
			label = "error"
		}
		c.points.WithLabelValues(convertOpts.Direction.String(), label).Inc()
		results = append(results, result)
	}

	var fileErrors []error
	for err := range errorChannel {
		tools.LogOutput("> cannot read point file:", err)
		fileErrors = append(fileErrors, err)
	}

	sortResults(results, files)
	if err := writeResults(convertOpts.Output, results); err != nil {
		return err
	}

	c.logSummary()

	if len(fileErrors) > 0 {
		return fmt.Errorf("%d of %d point files could not be read: %w", len(fileErrors), len(files), errors.Join(fileErrors...))
	}
	return nil
}

func sortResults(results []*io.Result, files []string) {
	order := make(map[string]int, len(files))
	for i, f := range files {
		order[f] = i
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].File != results[j].File {
			return order[results[i].File] < order[results[j].File]
		}
		return results[i].Line < results[j].Line
	})
}

func writeResults(output string, results []*io.Result) error {
	out := os.Stdout
	if output != "" {
		if err := tools.CreateDirectoryIfDoesNotExist(filepath.Dir(output)); err != nil {
			return err
		}
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	for _, r := range results {
		if _, err := fmt.Fprintln(w, r); err != nil {
			return err
		}
	}
	return w.Flush()
}

func (c *Converter) logSummary() {
	samples, err := c.algorithmManager.GetMetrics().Counters()
	if err != nil {
		tools.LogOutput("> cannot gather metrics:", err)
		return
	}
	for _, s := range samples {
		if _, ok := geoTransformerCounters[s.Name]; !ok {
			continue
		}
		tools.LogOutput(">", s.Name, tools.FmtJSONString(s.Labels), s.Value)
	}
}

var geoTransformerCounters = map[string]struct{}{
	"geo_transformer_batch_points_total":     {},
	"geo_transformer_local_rejections_total": {},
	"geo_transformer_transform_builds_total": {},
	"geo_transformer_transform_calls_total":  {},
}
