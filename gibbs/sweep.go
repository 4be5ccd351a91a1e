package gibbs

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
)

// Mode selects which tokens are scored.
type Mode int

const (
	// every sampled token adds to the document log-likelihood
	Sample Mode = iota
	// only held-out tokens add to the document log-likelihood
	Hold
)

// Pass selects what a sweep does with the current assignment.
type Pass int

const (
	// remove, sample and install every token
	PassResample Pass = iota
	// the document holds no statistics yet: sample and install
	PassAdd
)

func (m Mode) String() string {
	if m == Hold {
		return "hold"
	}
	return "sample"
}

// Sweep samples every token of document d once and returns the summed
// log(Z/tot) of the scored tokens. Held-out tokens are never sampled,
// they are scored with the predictive probabilities. When tmax topics are
// live, topics without customers get weight zero.
func (e *Engine) Sweep(wk *Worker, d uint32, mode Mode, pass Pass, tmax uint32) (float64, error) {
	if err := e.begin(wk, d, pass == PassResample); err != nil {
		return 0, err
	}

	start, end := e.data.Doc(d)
	mi := uint32(0)
	if e.idx != nil {
		mi = e.idx.Start(d)
	}
	logdoc := 0.0
	warned := false
	for i := start; i < end; i += 1 {
		logdoc += e.token(wk, i, d, mi, mode, pass, tmax)
		if !warned && (math.IsNaN(logdoc) || math.IsInf(logdoc, 0)) {
			log.Warningf("doc %d: log-likelihood not finite at token %d", d, i-start)
			warned = true
		}
		if e.idx != nil && e.idx.Multi(i) {
			mi += 1
		}
	}

	if err := e.end(wk, d); err != nil {
		return logdoc, err
	}
	return logdoc, nil
}

// token resamples token i and returns its log-likelihood contribution.
func (e *Engine) token(wk *Worker, i, d, mi uint32, mode Mode, pass Pass, tmax uint32) float64 {
	held := e.heldOut(i)
	if pass == PassResample && !held {
		t := e.z[i].Topic()
		if !e.Remove(wk, i, d, t, mi, false) {
			if e.prob != nil {
				e.prob.Incr(d, t, 1)
			}
			return 0
		}
	}

	w := e.data.Words[i]
	p := wk.p
	capped := e.s.LiveTopics() >= tmax
	tables := e.s.TdT[d]
	Z, tot := 0.0, 0.0
	for t := uint32(0); t < e.s.T; t += 1 {
		if capped && !e.s.Live(t) {
			p[t] = 0
			continue
		}
		var tf, wf float64
		if held {
			tf = e.f.DocProb(d, t, tables)
		} else {
			tf, wk.ttip[t] = e.f.DocFactor(d, t, tables)
		}
		if tf <= 0 {
			p[t] = 0
			continue
		}
		if held {
			wf = e.f.WordProb(w, t)
		} else {
			wf, wk.wtip[t] = e.f.WordFactor(w, t)
		}
		tot += tf
		if e.idx != nil {
			if held {
				wf = e.f.BurstProb(wk.st, t, i, mi, wf)
			} else {
				wf, wk.dtip[t] = e.f.BurstFactor(wk.st, t, i, mi, wf)
			}
		}
		p[t] = tf * wf
		Z += p[t]
	}

	if e.prob != nil && Z > 0 {
		for t, pt := range p {
			if pt > 0 {
				e.prob.Incr(d, uint32(t), float32(pt/Z))
			}
		}
	}
	ll := 0.0
	if mode != Hold || held {
		ll = math.Log(Z / tot)
	}

	if !held {
		// nothing feasible: put the token back where it was
		t := e.z[i].Topic()
		ttip, wtip, dtip := 0.0, 0.0, 1.0
		if Z > 0 {
			t = sampleTopic(p, Z, wk.u.Float64())
			ttip, wtip, dtip = wk.ttip[t], wk.wtip[t], wk.dtip[t]
		}
		e.Install(wk, i, d, t, mi, ttip, wtip, dtip)
	}
	return ll
}

// sampleTopic walks the cumulative weights until u*Z is passed.
func sampleTopic(p []float64, Z, u float64) uint32 {
	x := u * Z
	acc := 0.0
	last := 0
	for t, pt := range p {
		if pt <= 0 {
			continue
		}
		acc += pt
		last = t
		if x < acc {
			return uint32(t)
		}
	}
	return uint32(last)
}

// RemoveDoc takes every token of document d out of the statistics,
// forcing removals that would otherwise be refused.
func (e *Engine) RemoveDoc(wk *Worker, d uint32) error {
	if err := e.begin(wk, d, true); err != nil {
		return err
	}
	start, end := e.data.Doc(d)
	mi := uint32(0)
	if e.idx != nil {
		mi = e.idx.Start(d)
	}
	for i := start; i < end; i += 1 {
		if !e.heldOut(i) {
			e.Remove(wk, i, d, e.z[i].Topic(), mi, true)
		}
		if e.idx != nil && e.idx.Multi(i) {
			mi += 1
		}
	}
	if e.idx != nil {
		if err := wk.st.Unbuild(d, e.strict); err != nil {
			return err
		}
	}
	if e.s.NdT[d] != 0 {
		return fmt.Errorf("remove doc %d left %d customers: %w", d, e.s.NdT[d], ErrLeftover)
	}
	return nil
}

// AddDoc installs the current topics of document d with a minimal table
// layout: one table per occupied document and word cell, and a burst
// table for every flagged occurrence or the first of its slot. It returns
// the number of installed tokens.
func (e *Engine) AddDoc(wk *Worker, d uint32) (uint32, error) {
	if err := e.begin(wk, d, false); err != nil {
		return 0, err
	}
	start, end := e.data.Doc(d)
	mi := uint32(0)
	if e.idx != nil {
		mi = e.idx.Start(d)
	}
	added := uint32(0)
	for i := start; i < end; i += 1 {
		multi := e.idx != nil && e.idx.Multi(i)
		if !e.heldOut(i) {
			t := e.z[i].Topic()
			dtip := 1.0
			if multi {
				if m, _ := wk.st.Slot(mi, t); m > 0 && !e.z[i].TableFlag() {
					dtip = 0
				}
			}
			e.Install(wk, i, d, t, mi, 0, 0, dtip)
			added += 1
		}
		if multi {
			mi += 1
		}
	}
	return added, e.end(wk, d)
}

// begin prepares the burst state of document d, from the assignments when
// the document already holds statistics.
func (e *Engine) begin(wk *Worker, d uint32, counted bool) error {
	if e.idx == nil {
		return nil
	}
	if counted {
		return wk.st.Build(d, e.strict)
	}
	wk.st.Zero(d)
	return nil
}

func (e *Engine) end(wk *Worker, d uint32) error {
	if e.idx != nil {
		if err := wk.st.Unbuild(d, e.strict); err != nil {
			return err
		}
	}
	if e.strict {
		return e.s.CheckDoc(d)
	}
	return nil
}
