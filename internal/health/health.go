// Package health serves liveness and readiness endpoints next to the
// metrics endpoint of a running batch.
//
//   - /healthz reports that the process is alive together with the batch
//     progress.
//   - /readyz returns 200 only when every registered [Checker] passes, e.g.
//     the Redis cache answers and the LLM circuit breaker is not open.
//
// Responses are JSON objects with a "status" field ("ok" or "fail").
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/termfix/internal/resilience"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is a named readiness check. Check returns nil when the dependency
// is usable.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// BreakerCheck fails while b is open.
func BreakerCheck(name string, b *resilience.Breaker) Checker {
	return Checker{Name: name, Check: func(context.Context) error {
		if s := b.State(); s == resilience.StateOpen {
			return fmt.Errorf("circuit %s", s)
		}
		return nil
	}}
}

// RedisCheck pings client.
func RedisCheck(name string, client redis.Cmdable) Checker {
	return Checker{Name: name, Check: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}

// Progress counts the files of a batch run. The zero value is ready to use.
type Progress struct {
	total  atomic.Int64
	done   atomic.Int64
	failed atomic.Int64
}

// SetTotal records the number of files in the run.
func (p *Progress) SetTotal(n int) { p.total.Store(int64(n)) }

// Done records one finished file.
func (p *Progress) Done(failed bool) {
	p.done.Add(1)
	if failed {
		p.failed.Add(1)
	}
}

type progressJSON struct {
	Total  int64 `json:"total"`
	Done   int64 `json:"done"`
	Failed int64 `json:"failed"`
}

func (p *Progress) snapshot() *progressJSON {
	if p == nil {
		return nil
	}
	return &progressJSON{Total: p.total.Load(), Done: p.done.Load(), Failed: p.failed.Load()}
}

type result struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks,omitempty"`
	Progress *progressJSON     `json:"progress,omitempty"`
}

// Handler serves /healthz and /readyz. It is safe for concurrent use.
type Handler struct {
	checkers []Checker
	progress *Progress
}

// New creates a [Handler] reporting progress (which may be nil) and
// evaluating checkers on each /readyz request.
func New(progress *Progress, checkers ...Checker) *Handler {
	return &Handler{progress: progress, checkers: append([]Checker(nil), checkers...)}
}

// Healthz always returns 200 with the current progress.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok", Progress: h.progress.snapshot()})
}

// Readyz runs all checkers concurrently and returns 503 if any fails.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	var (
		mu     sync.Mutex
		checks = make(map[string]string, len(h.checkers))
		allOK  = true
	)
	g, ctx := errgroup.WithContext(r.Context())
	for _, c := range h.checkers {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			err := c.Check(cctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				checks[c.Name] = "fail: " + err.Error()
				allOK = false
			} else {
				checks[c.Name] = "ok"
			}
			return nil
		})
	}
	_ = g.Wait()

	res := result{Status: "ok", Checks: checks}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
