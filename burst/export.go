package burst

import (
	"fmt"
	"math"
	"sync/atomic"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/StevenLOL/LexSemTm/stable"
	"github.com/StevenLOL/LexSemTm/table"
)

// SlotStats is the (Mik, Sik) pair of one repeated word in one topic.
type SlotStats struct {
	M, S uint32
}

// TopicStats summarises one topic of one document: M occurrences, S of
// them table events, and the pairs of every repeated word with M > 1.
type TopicStats struct {
	Topic uint32
	M, S  uint32
	Slots []SlotStats
}

// DocStats lists the topics in use by one document, nil when it has none.
type DocStats []TopicStats

// InitTableFlags sets the table indicator on every token of a word that
// is not repeated and on the first occurrence of each repeated word in
// each topic, for documents [first, last). It is used after topics have
// been assigned at random, before any statistics exist.
func InitTableFlags(idx *Index, z table.Assignments, topics, first, last uint32) error {
	st := NewState(idx, z, topics)
	c := idx.Corpus()
	for d := first; d < last; d += 1 {
		if err := st.Build(d, false); err != nil {
			return err
		}
		start, end := c.Doc(d)
		mi := idx.Start(d)
		for i := start; i < end; i += 1 {
			multi := idx.Multi(i)
			if !idx.IsHeldOut(i) {
				if multi {
					k := st.local(mi)
					t := z[i].Topic()
					if st.Sik.Get(k, t) == 0 && !z[i].TableFlag() {
						z[i].SetTableFlag()
						st.Sik.Incr(k, t, 1)
						st.Si[t] += 1
					}
				} else {
					z[i].SetTableFlag()
				}
			}
			if multi {
				mi += 1
			}
		}
		if err := st.Unbuild(d, true); err != nil {
			return err
		}
	}
	return nil
}

// Check rebuilds documents [first, last) from the assignments and
// verifies the slot invariants of each.
func Check(idx *Index, z table.Assignments, topics, first, last uint32) error {
	st := NewState(idx, z, topics)
	for d := first; d < last; d += 1 {
		if err := st.Build(d, false); err != nil {
			return err
		}
		if err := st.checkTables(); err != nil {
			return fmt.Errorf("check doc %d: %w", d, err)
		}
		if err := st.Unbuild(d, false); err != nil {
			return err
		}
	}
	return nil
}

// Export collects the burst statistics of every training document. procs
// workers each own every procs-th document.
func Export(idx *Index, z table.Assignments, topics uint32, procs int) ([]DocStats, error) {
	c := idx.Corpus()
	out := make([]DocStats, c.TrainNum)
	procs = max(procs, 1)

	var size atomic.Int64
	g := new(errgroup.Group)
	for p := 0; p < procs; p += 1 {
		p := p
		g.Go(func() error {
			st := NewState(idx, z, topics)
			pairs := make([][]SlotStats, topics)
			for d := uint32(p); d < c.TrainNum; d += uint32(procs) {
				doc, err := st.export(d, pairs)
				if err != nil {
					return err
				}
				out[d] = doc
				for _, ts := range doc {
					size.Add(int64(3 + 2*len(ts.Slots)))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.V(1).Infof("burst export: %d values for %d documents", size.Load(), c.TrainNum)
	return out, nil
}

// export builds document d, moves its slot pairs into per-topic slices
// and hands them over to the returned DocStats.
func (st *State) export(d uint32, pairs [][]SlotStats) (DocStats, error) {
	if err := st.Build(d, true); err != nil {
		return nil, err
	}
	start, end := st.idx.Corpus().Doc(d)
	mi := st.idx.Start(d)
	for i := start; i < end; i += 1 {
		if !st.idx.Multi(i) {
			continue
		}
		if !st.idx.IsHeldOut(i) {
			k := st.local(mi)
			t := st.z[i].Topic()
			if m := st.Mik.Get(k, t); m > 0 {
				if m > 1 {
					pairs[t] = append(pairs[t], SlotStats{M: m, S: st.Sik.Get(k, t)})
				}
				// zeroed now so the slot is not visited twice
				st.Mik.Set(k, t, 0)
				st.Sik.Set(k, t, 0)
			}
		}
		mi += 1
	}

	var doc DocStats
	for t := range st.Mi {
		if st.Mi[t] == 0 {
			continue
		}
		doc = append(doc, TopicStats{
			Topic: uint32(t),
			M:     st.Mi[t],
			S:     st.Si[t],
			Slots: pairs[t],
		})
		pairs[t] = nil
	}
	if err := st.Unbuild(d, true); err != nil {
		return nil, err
	}
	return doc, nil
}

// gammadiff is log Gamma(x+n) - log Gamma(x).
func gammadiff(n uint32, x float64) float64 {
	a, _ := math.Lgamma(x + float64(n))
	b, _ := math.Lgamma(x)
	return a - b
}

// Likelihood is the log probability of the exported burst statistics
// under per-document, per-topic Pitman-Yor processes with discount a and
// concentration b[t]. sd must be tabulated for discount a. prior, when
// not nil, is the log density of each b[t].
func Likelihood(docs []DocStats, a float64, b []float64, sd *stable.Table, prior func(float64) float64) float64 {
	la := 0.0
	if a > 0 {
		la = math.Log(a)
	}
	likelihood := 0.0
	warned := false
	for d, doc := range docs {
		for _, ts := range doc {
			bt := b[ts.Topic]
			for _, ps := range ts.Slots {
				likelihood += sd.LogS(ps.M, ps.S)
			}
			if a == 0 {
				likelihood += float64(ts.S) * math.Log(bt)
			} else {
				likelihood += float64(ts.S)*la + gammadiff(ts.S, bt/a)
			}
			likelihood -= gammadiff(ts.M, bt)
		}
		if !warned && (math.IsNaN(likelihood) || math.IsInf(likelihood, 0)) {
			log.Warningf("burst likelihood not finite at doc %d", d)
			warned = true
		}
	}
	if prior != nil {
		for _, bt := range b {
			likelihood += prior(bt)
		}
	}
	return likelihood
}
