package health

import (
	"context"
	"sort"
	"sync"
	"time"
)

type CheckFunc func(ctx context.Context) error

// Service runs named dependency checks and caches the result for ttl so a
// busy health endpoint does not hammer the database.
type Service struct {
	mu sync.Mutex

	checks map[string]CheckFunc
	ttl    time.Duration

	nextCheckAt time.Time
	lastResult  Result
}

type Result struct {
	At     time.Time         `json:"time"`
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

func NewService(ttl time.Duration, checks map[string]CheckFunc) *Service {
	return &Service{ttl: ttl, checks: checks, lastResult: Result{Checks: map[string]string{}}}
}

func (s *Service) Check(ctx context.Context) Result {
	s.mu.Lock()
	if time.Now().Before(s.nextCheckAt) {
		res := s.lastResult
		s.mu.Unlock()
		return res
	}
	s.mu.Unlock()

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	res := Result{At: time.Now().UTC(), OK: true, Checks: make(map[string]string, len(s.checks))}
	for _, name := range names {
		fn := s.checks[name]
		if fn == nil {
			res.OK = false
			res.Checks[name] = "invalid check"
			continue
		}
		if err := fn(ctx); err != nil {
			res.OK = false
			res.Checks[name] = err.Error()
			continue
		}
		res.Checks[name] = "ok"
	}

	s.mu.Lock()
	s.lastResult = res
	s.nextCheckAt = time.Now().Add(s.ttl)
	s.mu.Unlock()

	return res
}
