package pipeline

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/payplan/internal/source"
)

// FileSummary describes one workbook found by LoadDir.
type FileSummary struct {
	File      source.DiscoveredFile
	Rows      int
	Columns   []string
	Liability decimal.Decimal
	Amount    int64
	Err       error
}

// LoadResult holds the output of a directory scan.
type LoadResult struct {
	Files       []FileSummary
	TotalFiles  int
	ParsedFiles int
	FileErrors  int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// LoadDir discovers every importable workbook under dir and parses them with
// a bounded worker pool. Files that fail to parse are reported, not fatal.
func LoadDir(dir string, cols source.ColumnMap, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	summaries := make([]FileSummary, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				summaries[idx] = summarizeFile(files[idx], cols)
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(files))
				}
			}
		}()
	}

	wg.Wait()

	for _, fs := range summaries {
		if fs.Err != nil {
			result.FileErrors++
		} else {
			result.ParsedFiles++
		}
	}
	result.Files = summaries
	return result, nil
}

func summarizeFile(f source.DiscoveredFile, cols source.ColumnMap) FileSummary {
	fs := FileSummary{File: f, Liability: decimal.Zero}
	set, err := source.Load(f.Path, cols)
	if err != nil {
		fs.Err = err
		return fs
	}
	fs.Rows = set.Len()
	fs.Columns = set.Columns
	fs.Liability = set.TotalLiability()
	fs.Amount = set.Total()
	return fs
}
