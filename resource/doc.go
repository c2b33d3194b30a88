// Package resource implements a controller for global limits and governance.
//
// The Controller provides centralized management of three resource types:
//
//   - Memory: track and cap memory held by caches and working buffers
//   - Concurrency: limit how many training or snapshot jobs run at once
//   - IO: rate-limit snapshot reads and writes (token bucket)
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and an atomic
// counter for usage reporting:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(ctx, 1024*1024); err != nil {
//	    return err // ctx canceled while waiting for headroom
//	}
//	defer rc.ReleaseMemory(1024 * 1024)
//
// TryAcquireMemory is the non-blocking variant used by caches, which
// prefer to skip admission over waiting.
//
// # Job Limits
//
// Limits concurrent heavy operations (model fitting, snapshot encoding):
//
//	rc := resource.NewController(resource.Config{
//	    MaxConcurrentJobs: 2,
//	})
//
//	if err := rc.AcquireJob(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseJob()
//
// # IO Rate Limiting
//
// A token bucket throttles snapshot IO so checkpointing cannot starve
// foreground work:
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
//
// # Nil Safety
//
// All methods handle a nil *Controller gracefully and become no-ops,
// so resource limiting stays optional without nil checks everywhere.
package resource
