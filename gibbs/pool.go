package gibbs

import (
	"sync/atomic"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/StevenLOL/LexSemTm/util"
)

// Pool is a fixed set of workers. Worker p owns documents first+p,
// first+p+procs, ... of every range it is given, so document rows and
// burst states are never shared.
type Pool struct {
	e       *Engine
	workers []*Worker
}

// NewPool allocates procs workers, worker p draws from a generator
// seeded with seed and p.
func (e *Engine) NewPool(procs int, seed int64) *Pool {
	procs = max(procs, 1)
	pool := &Pool{e: e, workers: make([]*Worker, procs)}
	for p := range pool.workers {
		pool.workers[p] = e.NewWorker(p, util.NewUniform(seed, p))
	}
	return pool
}

func (pool *Pool) Engine() *Engine {
	return pool.e
}

func (pool *Pool) Procs() int {
	return len(pool.workers)
}

// Run calls fn for every document in [first, last) and waits for all of
// them. The first error is returned.
func (pool *Pool) Run(first, last uint32, fn func(wk *Worker, d uint32) error) error {
	procs := uint32(len(pool.workers))
	g := new(errgroup.Group)
	for _, wk := range pool.workers {
		wk := wk
		g.Go(func() error {
			for d := first + uint32(wk.ID); d < last; d += procs {
				if err := fn(wk, d); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// Pass sweeps documents [first, last) once and returns the summed
// log-likelihood. tmax of zero means no cap.
func (pool *Pool) Pass(first, last uint32, mode Mode, pass Pass, tmax uint32) (float64, error) {
	if tmax == 0 || tmax > pool.e.s.T {
		tmax = pool.e.s.T
	}
	logs := make([]float64, len(pool.workers))
	err := pool.Run(first, last, func(wk *Worker, d uint32) error {
		ll, err := pool.e.Sweep(wk, d, mode, pass, tmax)
		logs[wk.ID] += ll
		return err
	})
	total := 0.0
	for _, ll := range logs {
		total += ll
	}
	log.V(2).Infof("pass %s over docs [%d, %d): log-likelihood %f, %d live topics",
		mode, first, last, total, pool.e.s.LiveTopics())
	return total, err
}

// RemoveDocs takes documents [first, last) out of the statistics.
func (pool *Pool) RemoveDocs(first, last uint32) error {
	return pool.Run(first, last, pool.e.RemoveDoc)
}

// AddDocs installs the current topics of documents [first, last) and
// returns the number of installed tokens.
func (pool *Pool) AddDocs(first, last uint32) (uint64, error) {
	var added atomic.Uint64
	err := pool.Run(first, last, func(wk *Worker, d uint32) error {
		n, err := pool.e.AddDoc(wk, d)
		added.Add(uint64(n))
		return err
	})
	return added.Load(), err
}

// Rebuild recomputes every statistic from the assignments of documents
// [first, last).
func (pool *Pool) Rebuild(first, last uint32) error {
	pool.e.s.Reset()
	added, err := pool.AddDocs(first, last)
	if err != nil {
		return err
	}
	log.Infof("rebuilt statistics: %d tokens, %d live topics", added, pool.e.s.LiveTopics())
	return nil
}
