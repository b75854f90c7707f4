// Package parallel contains the bounded parallel ForEach used to run trials, plus a concurrent fingerprint Set.
package parallel

import "context"
import "sync"

// ForEach executes a for loop with a limited number of concurrent goroutines.
// Each goroutine processes one integer, from 0 to length.
func ForEach(length, limit int, body func(i int)) {
	_ = ForEachContext(context.Background(), length, limit, func(_ context.Context, i int) {
		body(i)
	})
}

// ForEachContext is ForEach that stops starting new iterations once ctx is done.
// Running iterations are waited for; the context error is returned.
func ForEachContext(ctx context.Context, length, limit int, body func(ctx context.Context, i int)) error {
	if limit <= 0 {
		limit = 1 // Default to 1 if limit is zero or negative
	}
	if length <= 0 {
		return ctx.Err()
	}
	if limit > length {
		limit = length
	}

	sem := make(chan struct{}, limit) // Semaphore with buffer size 'limit'
	var wg sync.WaitGroup

	for i := 0; i < length; i++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case sem <- struct{}{}: // Acquire semaphore
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }() // Release semaphore after function exits

			body(ctx, i)
		}(i)
	}

	wg.Wait()
	return ctx.Err()
}
