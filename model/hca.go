package model

import (
	"fmt"
	"sync/atomic"

	log "github.com/golang/glog"

	"github.com/StevenLOL/LexSemTm/burst"
	"github.com/StevenLOL/LexSemTm/config"
	"github.com/StevenLOL/LexSemTm/corpus"
	"github.com/StevenLOL/LexSemTm/gibbs"
	"github.com/StevenLOL/LexSemTm/matrix"
	"github.com/StevenLOL/LexSemTm/stable"
	"github.com/StevenLOL/LexSemTm/stats"
	"github.com/StevenLOL/LexSemTm/table"
)

func init() {
	Register("lda", NewHCA)
	Register("hpyp", NewHCA)
	Register("bursty", NewHCA)
}

// HCA is a topic model whose document and word sides are either Dirichlet
// or Pitman-Yor, optionally with a per-document burst process for words
// repeated inside a document. The model name in the config picks the
// variant.
type HCA struct {
	cfg  *config.Config
	data *corpus.Corpus
	hold *corpus.HoldSet
	idx  *burst.Index // nil unless bursty

	z    table.Assignments
	s    *stats.Stats
	e    *gibbs.Engine
	pool *gibbs.Pool
	prob *matrix.Float32Matrix

	sd  *stable.Table // document discount
	sw  *stable.Table // word discount
	sb  *stable.Table // burst discount
	bdk []float64     // burst concentration per topic

	tdt *matrix.AtomicUint32Matrix // document tables per topic, T x 1
	tdT atomic.Uint32
	twt *matrix.AtomicUint32Matrix // word tables per topic, T x 1

	ready  bool // training statistics are in place
	tested bool // test assignments have been drawn
}

// NewHCA builds the model for dat, whose test documents must already be
// split off.
func NewHCA(dat *corpus.Corpus, cfg *config.Config) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &HCA{
		cfg:  cfg,
		data: dat,
		hold: corpus.NewHoldSet(dat, corpus.HoldOptions{
			Every:    cfg.Hold.Every,
			Fraction: cfg.Hold.Fraction,
			Dict:     cfg.Hold.Dict,
		}),
		z:   table.NewAssignments(dat.NumTokens()),
		s:   stats.New(dat.DocNum, dat.VocabSize, cfg.Topics),
		tdt: matrix.NewAtomicUint32Matrix(cfg.Topics, 1),
		twt: matrix.NewAtomicUint32Matrix(cfg.Topics, 1),
	}

	var err error
	if m.sd, err = stable.New(cfg.Doc.A, cfg.Stirling); err != nil {
		return nil, fmt.Errorf("doc discount: %w", err)
	}
	if m.sw, err = stable.New(cfg.Word.A, cfg.Stirling); err != nil {
		return nil, fmt.Errorf("word discount: %w", err)
	}
	if cfg.Bursty() {
		m.idx = burst.NewIndex(dat, m.hold)
		if m.sb, err = stable.New(cfg.Burst.A, max(cfg.Stirling, m.idx.MaxRepeat()+1)); err != nil {
			return nil, fmt.Errorf("burst discount: %w", err)
		}
		log.Infof("burst index: %d slots, %d in training documents, at most %d per document, %d repeats of one word",
			m.idx.NumSlots(), m.idx.TrainSlots(), m.idx.MaxSlots(), m.idx.MaxRepeat())
		m.bdk = make([]float64, cfg.Topics)
		for t := range m.bdk {
			m.bdk[t] = cfg.Burst.B
		}
	}

	m.e = gibbs.New(dat, m.z, m.s, m, gibbs.Options{
		DocPY:  cfg.DocPY(),
		WordPY: cfg.WordPY(),
		Index:  m.idx,
		Hold:   m.hold,
		Hooks:  m,
		Strict: cfg.Strict,
	})
	m.pool = m.e.NewPool(cfg.Procs, cfg.Seed)
	log.Infof("model %s: %d topics, %d training and %d test documents, %d held-out tokens",
		cfg.Model, cfg.Topics, dat.TrainNum, dat.DocNum-dat.TrainNum, m.hold.Len())
	return m, nil
}

func (m *HCA) OpenDocTable(_, t uint32) {
	m.tdt.Incr(t, 0, 1)
	m.tdT.Add(1)
}

func (m *HCA) CloseDocTable(_, t uint32) {
	m.tdt.Decr(t, 0, 1)
	m.tdT.Add(^uint32(0))
}

func (m *HCA) OpenWordTable(_, t uint32) {
	m.twt.Incr(t, 0, 1)
}

func (m *HCA) CloseWordTable(_, t uint32) {
	m.twt.Decr(t, 0, 1)
}

func (m *HCA) resetTables() {
	m.tdt.Reset()
	m.tdT.Store(0)
	m.twt.Reset()
}

// root is the probability of topic t at the top of the document side.
func (m *HCA) root(t uint32) float64 {
	b0 := m.cfg.Doc.Root
	return (float64(m.tdt.Get(t, 0)) + b0/float64(m.s.T)) /
		(float64(m.tdT.Load()) + b0)
}

// DocFactor leaves out the 1/(b + NdT) shared by every topic.
func (m *HCA) DocFactor(d, t, tables uint32) (float64, float64) {
	n := m.s.Ndt.Get(d, t)
	if !m.cfg.DocPY() {
		return m.cfg.Alpha + float64(n), 0
	}
	a, b := m.cfg.Doc.A, m.cfg.Doc.B
	fresh := (b + a*float64(tables)) * m.root(t)
	if n == 0 {
		return fresh, 1
	}
	k := m.s.Tdt.Get(d, t)
	r0 := float64(n-k+1) / float64(n+1) * m.sd.V(n, k)
	r1 := fresh * float64(k+1) / float64(n+1) * m.sd.U(n, k)
	return r0 + r1, r1 / (r0 + r1)
}

func (m *HCA) WordFactor(w, t uint32) (float64, float64) {
	n := m.s.Nwt.Get(w, t)
	nt := float64(m.s.NWt.Get(t, 0))
	W := float64(m.s.W)
	if !m.cfg.WordPY() {
		beta := m.cfg.Beta
		return (beta + float64(n)) / (nt + beta*W), 0
	}
	a, b := m.cfg.Word.A, m.cfg.Word.B
	fresh := (b + a*float64(m.twt.Get(t, 0))) / (b + nt) / W
	if n == 0 {
		return fresh, 1
	}
	k := m.s.Twt.Get(w, t)
	r0 := float64(n-k+1) / float64(n+1) * m.sw.V(n, k) / (b + nt)
	r1 := fresh * float64(k+1) / float64(n+1) * m.sw.U(n, k)
	if r0+r1 <= 0 {
		return 0, 0
	}
	return r0 + r1, r1 / (r0 + r1)
}

// burstCounts returns Mi, Si of topic t and Mik, Sik of the slot of
// token i, zero when the word is not repeated.
func (m *HCA) burstCounts(st *burst.State, t, i, mi uint32) (float64, float64, uint32, uint32) {
	var mk, sk uint32
	if m.idx.Multi(i) {
		mk, sk = st.Slot(mi, t)
	}
	return float64(st.Mi[t]), float64(st.Si[t]), mk, sk
}

func (m *HCA) BurstFactor(st *burst.State, t, i, mi uint32, wf float64) (float64, float64) {
	ad, bd := m.cfg.Burst.A, m.bdk[t]
	Mi, Si, mk, sk := m.burstCounts(st, t, i, mi)
	fresh := (bd + ad*Si) / (bd + Mi) * wf
	if mk == 0 {
		return fresh, 1
	}
	r0 := float64(mk-sk+1) / float64(mk+1) * m.sb.V(mk, sk) / (bd + Mi)
	r1 := fresh * float64(sk+1) / float64(mk+1) * m.sb.U(mk, sk)
	return r0 + r1, r1 / (r0 + r1)
}

func (m *HCA) DocProb(d, t, tables uint32) float64 {
	n := float64(m.s.Ndt.Get(d, t))
	nd := float64(m.s.NdT[d])
	if !m.cfg.DocPY() {
		alpha := m.cfg.Alpha
		return (alpha + n) / (nd + alpha*float64(m.s.T))
	}
	a, b := m.cfg.Doc.A, m.cfg.Doc.B
	k := float64(m.s.Tdt.Get(d, t))
	return (n - a*k + (b+a*float64(tables))*m.root(t)) / (b + nd)
}

func (m *HCA) WordProb(w, t uint32) float64 {
	n := float64(m.s.Nwt.Get(w, t))
	nt := float64(m.s.NWt.Get(t, 0))
	W := float64(m.s.W)
	if !m.cfg.WordPY() {
		beta := m.cfg.Beta
		return (beta + n) / (nt + beta*W)
	}
	a, b := m.cfg.Word.A, m.cfg.Word.B
	k := float64(m.s.Twt.Get(w, t))
	return (n - a*k + (b+a*float64(m.twt.Get(t, 0)))/W) / (b + nt)
}

func (m *HCA) BurstProb(st *burst.State, t, i, mi uint32, wf float64) float64 {
	ad, bd := m.cfg.Burst.A, m.bdk[t]
	Mi, Si, mk, sk := m.burstCounts(st, t, i, mi)
	return (float64(mk) - ad*float64(sk) + (bd+ad*Si)*wf) / (bd + Mi)
}

var (
	_ gibbs.Factors    = (*HCA)(nil)
	_ gibbs.TableHooks = (*HCA)(nil)
)
