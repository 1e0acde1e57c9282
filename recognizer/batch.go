package recognizer

import (
	"context"

	"github.com/juruen/inkrec/log"
	"github.com/juruen/inkrec/preprocess"
	"golang.org/x/sync/semaphore"
)

// FileResult is the recognition outcome for one saved drawing.
type FileResult struct {
	Result
	Err error
}

// RecognizeFiles classifies already saved drawings, at most batch at a
// time. Results come back in the order of paths; a failing file does not
// stop the others. The session state machine is not touched.
func (s *Session) RecognizeFiles(ctx context.Context, paths []string, batch int64) []FileResult {
	if batch <= 0 {
		batch = 1
	}
	results := make([]FileResult, len(paths))

	m, err := s.Model()
	if err != nil {
		for i, p := range paths {
			results[i] = FileResult{Result: Result{Path: p, Class: -1}, Err: err}
		}
		return results
	}

	sem := semaphore.NewWeighted(batch)
	for i, p := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Trace.Printf("Failed to acquire semaphore: %v", err)
			for j := i; j < len(paths); j++ {
				results[j] = FileResult{Result: Result{Path: paths[j], Class: -1}, Err: err}
			}
			break
		}
		go func(i int, p string) {
			defer sem.Release(1)
			tensor, err := preprocess.Transform(p, s.opts.Preprocess)
			if err != nil {
				log.Trace.Printf("Can't preprocess %s: %v", p, err)
				results[i] = FileResult{Result: Result{Path: p, Class: -1}, Err: err}
				return
			}
			scores, err := m.Infer(ctx, tensor)
			if err != nil {
				log.Trace.Printf("Can't recognize %s: %v", p, err)
				results[i] = FileResult{Result: Result{Path: p, Class: -1}, Err: err}
				return
			}
			results[i] = FileResult{Result: s.result(p, scores)}
		}(i, p)
	}

	// wait for all goroutines to finish
	if err := sem.Acquire(context.Background(), batch); err != nil {
		log.Trace.Printf("Failed to acquire semaphore: %v", err)
	}
	return results
}
