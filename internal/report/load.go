package report

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"sync"
)

// Loaded pairs a decoded report with the file it came from.
type Loaded struct {
	Path   string
	Report ExecutionReport
}

// LoadAll opens and decodes report files on a fixed-size worker
// pool. Results arrive on one completion channel in no particular
// order, which is safe because downstream outcome accumulation is a
// commutative, associative set union. A failing file never cancels
// its siblings: the collector drains everything and returns every
// per-file error, so the caller can report all of them before
// aborting. workers <= 0 sizes the pool to available parallelism.
func LoadAll(paths []string, workers int) ([]Loaded, []error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type completion struct {
		loaded Loaded
		err    error
	}

	jobs := make(chan string)
	completions := make(chan completion)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				rep, err := loadOne(path)
				completions <- completion{loaded: Loaded{Path: path, Report: rep}, err: err}
			}
		}()
	}

	go func() {
		for _, p := range paths {
			jobs <- p
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(completions)
	}()

	var (
		loaded []Loaded
		errs   []error
	)
	for c := range completions {
		if c.err != nil {
			errs = append(errs, c.err)
			continue
		}
		loaded = append(loaded, c.loaded)
	}

	// Accumulation does not care about order, but deterministic
	// output keeps logs and tests stable.
	sort.Slice(loaded, func(i, j int) bool { return loaded[i].Path < loaded[j].Path })
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return loaded, errs
}

func loadOne(path string) (ExecutionReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return ExecutionReport{}, fmt.Errorf("opening execution report %s: %w", path, err)
	}
	defer f.Close()

	rep, err := Decode(f)
	if err != nil {
		return ExecutionReport{}, fmt.Errorf("reading execution report %s: %w", path, err)
	}
	return rep, nil
}
