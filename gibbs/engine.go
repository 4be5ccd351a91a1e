// Package gibbs runs the collapsed Gibbs sampler over the count tables of
// stats and the per-document repeat counts of burst.
//
// Every reassignment is a Remove followed by an Install. Remove may refuse
// when taking the token out would leave a (document, topic), a (word,
// topic) or a repeated-word slot with customers but no table; the token
// then keeps its topic.
package gibbs

import (
	"errors"

	"github.com/StevenLOL/LexSemTm/burst"
	"github.com/StevenLOL/LexSemTm/corpus"
	"github.com/StevenLOL/LexSemTm/matrix"
	"github.com/StevenLOL/LexSemTm/stats"
	"github.com/StevenLOL/LexSemTm/table"
	"github.com/StevenLOL/LexSemTm/util"
)

var ErrLeftover = errors.New("gibbs: statistics left after removal")

// Factors supplies the unnormalised topic weights of one token. The Fact
// versions are used while sampling and also return the probability that
// the token opens a new table when it joins topic t. The Prob versions
// are predictive probabilities used to score held-out tokens.
type Factors interface {
	DocFactor(d, t, tables uint32) (float64, float64)
	WordFactor(w, t uint32) (float64, float64)
	BurstFactor(st *burst.State, t, i, mi uint32, wf float64) (float64, float64)

	DocProb(d, t, tables uint32) float64
	WordProb(w, t uint32) float64
	BurstProb(st *burst.State, t, i, mi uint32, wf float64) float64
}

// TableHooks is told whenever a table is opened or closed, after the
// tables of stats have been updated.
type TableHooks interface {
	OpenDocTable(d, t uint32)
	CloseDocTable(d, t uint32)
	OpenWordTable(w, t uint32)
	CloseWordTable(w, t uint32)
}

type noHooks struct{}

func (noHooks) OpenDocTable(uint32, uint32)   {}
func (noHooks) CloseDocTable(uint32, uint32)  {}
func (noHooks) OpenWordTable(uint32, uint32)  {}
func (noHooks) CloseWordTable(uint32, uint32) {}

type Options struct {
	DocPY  bool // document side is a Pitman-Yor process with tables
	WordPY bool // word side is a Pitman-Yor process with tables

	// Index turns on the burst model. Its hold-out predicate is used
	// when Hold is nil.
	Index *burst.Index
	Hold  corpus.HoldOut
	Hooks TableHooks

	// Prob, when set, accumulates the sampling distribution of every
	// token per document, D x T.
	Prob *matrix.Float32Matrix

	// Strict checks the burst and document invariants around every
	// document and panics on bad decrements.
	Strict bool
}

type Engine struct {
	data  *corpus.Corpus
	z     table.Assignments
	s     *stats.Stats
	f     Factors
	hooks TableHooks
	idx   *burst.Index
	hold  corpus.HoldOut
	prob  *matrix.Float32Matrix

	docPY, wordPY, strict bool
}

func New(c *corpus.Corpus, z table.Assignments, s *stats.Stats, f Factors, opt Options) *Engine {
	e := &Engine{
		data:   c,
		z:      z,
		s:      s,
		f:      f,
		hooks:  opt.Hooks,
		idx:    opt.Index,
		hold:   opt.Hold,
		prob:   opt.Prob,
		docPY:  opt.DocPY,
		wordPY: opt.WordPY,
		strict: opt.Strict,
	}
	if e.hooks == nil {
		e.hooks = noHooks{}
	}
	if e.hold == nil && e.idx != nil {
		e.hold = e.idx
	}
	return e
}

// SetProb starts or, with nil, stops the probability diagnostics. It must
// not be called during a pass.
func (e *Engine) SetProb(prob *matrix.Float32Matrix) {
	e.prob = prob
}

func (e *Engine) Stats() *stats.Stats {
	return e.s
}

func (e *Engine) Assignments() table.Assignments {
	return e.z
}

func (e *Engine) Corpus() *corpus.Corpus {
	return e.data
}

func (e *Engine) Bursty() bool {
	return e.idx != nil
}

func (e *Engine) heldOut(i uint32) bool {
	return e.hold != nil && e.hold.IsHeldOut(i)
}

// wordOn tells whether token i contributes to the word side. With the
// burst model only table events of a document do.
func (e *Engine) wordOn(i uint32) bool {
	return e.idx == nil || e.z[i].TableFlag()
}

// Worker is the private state of one sampling goroutine.
type Worker struct {
	ID int

	u  util.Uniform
	st *burst.State

	p    []float64
	ttip []float64 // new doc table probability per topic
	wtip []float64 // new word table probability per topic
	dtip []float64 // new burst table probability per topic
}

// NewWorker allocates the buffers of one worker, u must not be shared.
func (e *Engine) NewWorker(id int, u util.Uniform) *Worker {
	T := e.s.T
	wk := &Worker{
		ID:   id,
		u:    u,
		p:    make([]float64, T),
		ttip: make([]float64, T),
		wtip: make([]float64, T),
		dtip: make([]float64, T),
	}
	if e.idx != nil {
		wk.st = burst.NewState(e.idx, e.z, T)
		wk.st.SetStrict(e.strict)
	}
	return wk
}

// the burst state of the worker, nil without the burst model
func (wk *Worker) Burst() *burst.State {
	return wk.st
}

// Remove takes token i of document d out of topic t. mi is the repeat
// cursor of the token, ignored without the burst model. A forced removal
// always succeeds: a table event that cannot be removed is left in place
// and the burst check is skipped. Otherwise false is returned and no
// count has been touched.
func (e *Engine) Remove(wk *Worker, i, d, t, mi uint32, forced bool) bool {
	w := e.data.Words[i]
	word := e.wordOn(i)
	s := e.s

	ndt, tdt := s.Ndt.Get(d, t), s.Tdt.Get(d, t)
	ud := e.docPY &&
		(ndt == 1 || float64(tdt) > float64(ndt)*wk.u.Float64())
	var nwt, twt uint32
	uw := false
	if e.wordPY && word {
		nwt, twt = s.Nwt.Get(w, t), s.Twt.Get(w, t)
		uw = nwt == 1 || float64(twt) > float64(nwt)*wk.u.Float64()
	}

	// the only table of a cell that still has other customers
	if ud && ndt > 1 && tdt == 1 {
		if !forced {
			return false
		}
		ud = false
	}
	if uw && nwt > 1 && twt == 1 {
		if !forced {
			return false
		}
		uw = false
	}
	if e.idx != nil && !forced && wk.st.Blocked(i, mi, t) {
		return false
	}

	if e.idx != nil {
		wk.st.Decr(i, mi, t, word)
	}
	s.DecrDoc(d, t)
	if ud {
		s.CloseDocTable(d, t)
		e.hooks.CloseDocTable(d, t)
	}
	if word {
		s.DecrWord(w, t)
	}
	if uw {
		s.CloseWordTable(w, t)
		e.hooks.CloseWordTable(w, t)
	}
	return true
}

// Install puts token i of document d into topic t. ttip, wtip and dtip
// are the probabilities of opening a new document, word and burst table.
// Random draws happen in that order: burst, document, word.
func (e *Engine) Install(wk *Worker, i, d, t, mi uint32, ttip, wtip, dtip float64) {
	w := e.data.Words[i]
	s := e.s

	e.z[i].SetTopic(t)
	n := s.IncrDoc(d, t)
	word := true
	if e.idx != nil {
		word = wk.st.Incr(i, mi, t, true, dtip, wk.u)
	}
	if e.docPY && (n == 1 || wk.u.Float64() < ttip) {
		s.OpenDocTable(d, t)
		e.hooks.OpenDocTable(d, t)
	}
	if word {
		n = s.IncrWord(w, t)
		if e.wordPY && (n == 1 || wk.u.Float64() < wtip) {
			s.OpenWordTable(w, t)
			e.hooks.OpenWordTable(w, t)
		}
	}
}
