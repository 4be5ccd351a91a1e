package gibbs

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StevenLOL/LexSemTm/burst"
	"github.com/StevenLOL/LexSemTm/corpus"
	"github.com/StevenLOL/LexSemTm/stats"
	"github.com/StevenLOL/LexSemTm/table"
	"github.com/StevenLOL/LexSemTm/util"
)

// every draw returns the same value
type fixed float64

func (f fixed) Float64() float64 { return float64(f) }

// dirichlet weights with constant table probabilities, the first
// occurrence of a repeated word in a topic always opens a burst table
type dirichlet struct {
	s           *stats.Stats
	idx         *burst.Index
	alpha, beta float64
}

func (f *dirichlet) DocFactor(d, t, _ uint32) (float64, float64) {
	return f.alpha + float64(f.s.Ndt.Get(d, t)), 0.3
}

func (f *dirichlet) WordFactor(w, t uint32) (float64, float64) {
	return f.WordProb(w, t), 0.3
}

func (f *dirichlet) BurstFactor(st *burst.State, t, i, mi uint32, wf float64) (float64, float64) {
	if !f.idx.Multi(i) {
		return wf, 1
	}
	if m, _ := st.Slot(mi, t); m > 0 {
		return wf + float64(m), 0.3
	}
	return wf, 1
}

func (f *dirichlet) DocProb(d, t, _ uint32) float64 {
	return (f.alpha + float64(f.s.Ndt.Get(d, t))) /
		(float64(f.s.NdT[d]) + f.alpha*float64(f.s.T))
}

func (f *dirichlet) WordProb(w, t uint32) float64 {
	return (f.beta + float64(f.s.Nwt.Get(w, t))) /
		(float64(f.s.NWt.Get(t, 0)) + f.beta*float64(f.s.W))
}

func (f *dirichlet) BurstProb(st *burst.State, t, i, mi uint32, wf float64) float64 {
	b, _ := f.BurstFactor(st, t, i, mi, wf)
	return b
}

type fixture struct {
	c   *corpus.Corpus
	z   table.Assignments
	s   *stats.Stats
	idx *burst.Index
	e   *Engine
}

func newFixture(docs [][]uint32, topics uint32, topic func(i int) uint32, opt Options, bursty bool) *fixture {
	c := corpus.FromDocs(docs)
	z := table.NewAssignments(uint32(len(c.Words)))
	for i := range z {
		z[i] = table.NewToken(topic(i))
	}
	s := stats.New(c.DocNum, c.VocabSize, topics)
	if bursty {
		opt.Index = burst.NewIndex(c, opt.Hold)
	}
	f := &dirichlet{s: s, idx: opt.Index, alpha: 0.5, beta: 0.1}
	return &fixture{c: c, z: z, s: s, idx: opt.Index, e: New(c, z, s, f, opt)}
}

func constTopic(t uint32) func(int) uint32 {
	return func(int) uint32 { return t }
}

type snapshot struct {
	ndt, tdt, nwt, twt, nwT []uint32
	ndT, tdT                uint32
	mi, si, mik, sik        []uint32
}

func takeSnapshot(fx *fixture, st *burst.State, d uint32) snapshot {
	var sn snapshot
	sn.ndt = fx.s.Ndt.GetRow(d)
	sn.tdt = fx.s.Tdt.GetRow(d)
	sn.ndT, sn.tdT = fx.s.NdT[d], fx.s.TdT[d]
	for w := uint32(0); w < fx.s.W; w += 1 {
		for t := uint32(0); t < fx.s.T; t += 1 {
			sn.nwt = append(sn.nwt, fx.s.Nwt.Get(w, t))
			sn.twt = append(sn.twt, fx.s.Twt.Get(w, t))
		}
	}
	for t := uint32(0); t < fx.s.T; t += 1 {
		sn.nwT = append(sn.nwT, fx.s.NWt.Get(t, 0))
	}
	if st != nil {
		sn.mi = append(sn.mi, st.Mi...)
		sn.si = append(sn.si, st.Si...)
		rows, cols := st.Mik.Shape()
		for k := uint32(0); k < rows; k += 1 {
			for t := uint32(0); t < cols; t += 1 {
				sn.mik = append(sn.mik, st.Mik.Get(k, t))
				sn.sik = append(sn.sik, st.Sik.Get(k, t))
			}
		}
	}
	return sn
}

func TestSampleTopic(t *testing.T) {
	p := []float64{0, 1, 0, 3}
	assert.Equal(t, uint32(1), sampleTopic(p, 4, 0))
	assert.Equal(t, uint32(1), sampleTopic(p, 4, 0.2))
	assert.Equal(t, uint32(3), sampleTopic(p, 4, 0.25))
	assert.Equal(t, uint32(3), sampleTopic(p, 4, 0.999))
}

func TestAddDocMinimalTables(t *testing.T) {
	fx := newFixture([][]uint32{{0, 0, 1}}, 2, constTopic(0),
		Options{DocPY: true, WordPY: true, Strict: true}, true)
	wk := fx.e.NewWorker(0, fixed(0.9))

	n, err := fx.e.AddDoc(wk, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), n)

	assert.True(t, fx.z[0].TableFlag())
	assert.False(t, fx.z[1].TableFlag())
	assert.True(t, fx.z[2].TableFlag())
	assert.Equal(t, uint32(3), fx.s.Ndt.Get(0, 0))
	assert.Equal(t, uint32(1), fx.s.Tdt.Get(0, 0))
	// the second occurrence of word 0 carries no word statistics
	assert.Equal(t, uint32(1), fx.s.Nwt.Get(0, 0))
	assert.Equal(t, uint32(1), fx.s.Twt.Get(0, 0))
	assert.Equal(t, uint32(1), fx.s.Nwt.Get(1, 0))
	assert.Equal(t, uint32(2), fx.s.NWt.Get(0, 0))
	require.NoError(t, burst.Check(fx.idx, fx.z, 2, 0, 1))
}

func TestRemoveInstallRoundTrip(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		fx := newFixture([][]uint32{{0, 0, 1}}, 2, constTopic(0),
			Options{DocPY: true, WordPY: true}, false)
		wk := fx.e.NewWorker(0, fixed(0.9))
		_, err := fx.e.AddDoc(wk, 0)
		require.NoError(t, err)

		before := takeSnapshot(fx, nil, 0)
		require.True(t, fx.e.Remove(wk, 2, 0, 0, 0, false))
		assert.Equal(t, uint32(2), fx.s.Ndt.Get(0, 0))
		assert.Zero(t, fx.s.Nwt.Get(1, 0))
		assert.Zero(t, fx.s.Twt.Get(1, 0))

		fx.e.Install(wk, 2, 0, 0, 0, 0.5, 0.5, 1)
		assert.Equal(t, before, takeSnapshot(fx, nil, 0))
	})

	t.Run("bursty", func(t *testing.T) {
		fx := newFixture([][]uint32{{0, 0, 1}}, 2, constTopic(0),
			Options{DocPY: true, WordPY: true, Strict: true}, true)
		wk := fx.e.NewWorker(0, fixed(0.9))
		_, err := fx.e.AddDoc(wk, 0)
		require.NoError(t, err)
		require.NoError(t, wk.Burst().Build(0, true))

		before := takeSnapshot(fx, wk.Burst(), 0)
		require.True(t, fx.e.Remove(wk, 1, 0, 0, 1, false))
		m, s := wk.Burst().Slot(1, 0)
		assert.Equal(t, uint32(1), m)
		assert.Equal(t, uint32(1), s)

		fx.e.Install(wk, 1, 0, 0, 1, 0.5, 0.5, 0.3)
		assert.Equal(t, before, takeSnapshot(fx, wk.Burst(), 0))
		assert.False(t, fx.z[1].TableFlag())
		require.NoError(t, wk.Burst().Unbuild(0, true))
	})
}

func TestBlockedRemoval(t *testing.T) {
	fx := newFixture([][]uint32{{7, 7}}, 1, constTopic(0),
		Options{DocPY: true, WordPY: true, Strict: true}, true)
	wk := fx.e.NewWorker(0, fixed(0.9))
	_, err := fx.e.AddDoc(wk, 0)
	require.NoError(t, err)
	st := wk.Burst()
	require.NoError(t, st.Build(0, true))

	// Mik = 2, Sik = 1: the table head may not go first
	before := takeSnapshot(fx, st, 0)
	assert.False(t, fx.e.Remove(wk, 0, 0, 0, 0, false))
	assert.Equal(t, before, takeSnapshot(fx, st, 0))

	assert.True(t, fx.e.Remove(wk, 1, 0, 0, 1, false))
	m, s := st.Slot(0, 0)
	assert.Equal(t, uint32(1), m)
	assert.Equal(t, uint32(1), s)

	assert.True(t, fx.e.Remove(wk, 0, 0, 0, 0, false))
	assert.Zero(t, fx.s.NdT[0])
	require.NoError(t, st.Unbuild(0, true))
}

func TestBlockedDocTable(t *testing.T) {
	fx := newFixture([][]uint32{{1, 2}}, 1, constTopic(0),
		Options{DocPY: true}, false)
	wk := fx.e.NewWorker(0, fixed(0.9))
	_, err := fx.e.AddDoc(wk, 0)
	require.NoError(t, err)

	// Ndt = 2, Tdt = 1: a draw of 0.4 implicates the only table
	wk.u = fixed(0.4)
	assert.False(t, fx.e.Remove(wk, 0, 0, 0, 0, false))
	assert.Equal(t, uint32(2), fx.s.Ndt.Get(0, 0))

	// forced, the table stays with the remaining customer
	assert.True(t, fx.e.Remove(wk, 0, 0, 0, 0, true))
	assert.Equal(t, uint32(1), fx.s.Ndt.Get(0, 0))
	assert.Equal(t, uint32(1), fx.s.Tdt.Get(0, 0))
	require.NoError(t, fx.s.CheckDoc(0))
}

// Forced removal downgrades the table events it cannot take out, the
// burst slot then empties in any order.
func TestForcedRemovalAnyOrder(t *testing.T) {
	orders := [][]uint32{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, order := range orders {
		fx := newFixture([][]uint32{{7, 7, 7}}, 3, constTopic(2),
			Options{DocPY: true, WordPY: true, Strict: true}, true)
		wk := fx.e.NewWorker(0, fixed(0.9))
		_, err := fx.e.AddDoc(wk, 0)
		require.NoError(t, err)
		st := wk.Burst()
		require.NoError(t, st.Build(0, true))
		m, s := st.Slot(0, 2)
		require.Equal(t, uint32(3), m)
		require.Equal(t, uint32(1), s)

		for _, i := range order {
			require.True(t, fx.e.Remove(wk, i, 0, 2, i, true), "order %v", order)
		}
		assert.Zero(t, st.Mi[2], "order %v", order)
		assert.Zero(t, st.Si[2], "order %v", order)
		assert.Zero(t, fx.s.NdT[0], "order %v", order)
		assert.Zero(t, fx.s.TdT[0], "order %v", order)
		assert.Zero(t, fx.s.Nwt.Get(7, 2), "order %v", order)
		assert.Zero(t, fx.s.Twt.Get(7, 2), "order %v", order)
		assert.NoError(t, st.Unbuild(0, true), "order %v", order)
	}
}

func TestRemoveDoc(t *testing.T) {
	fx := newFixture([][]uint32{{3, 3, 1, 3, 2}}, 4, func(i int) uint32 { return uint32(i % 2) },
		Options{DocPY: true, WordPY: true, Strict: true}, true)
	wk := fx.e.NewWorker(0, util.NewUniform(3, 0))
	_, err := fx.e.AddDoc(wk, 0)
	require.NoError(t, err)
	for it := 0; it < 5; it += 1 {
		_, err := fx.e.Sweep(wk, 0, Sample, PassResample, 4)
		require.NoError(t, err)
	}

	require.NoError(t, fx.e.RemoveDoc(wk, 0))
	assert.Zero(t, fx.s.TdT[0])
	assert.Zero(t, fx.s.LiveTopics())
	assert.Equal(t, make([]uint32, 4), fx.s.Ndt.GetRow(0))
	for tp := uint32(0); tp < 4; tp += 1 {
		assert.Zero(t, fx.s.NWt.Get(tp, 0))
	}
}

func randomDocs(r *rand.Rand, docs, length, vocab int) [][]uint32 {
	out := make([][]uint32, docs)
	for d := range out {
		for l := 0; l < length; l += 1 {
			out[d] = append(out[d], uint32(r.Intn(vocab)))
		}
	}
	return out
}

func TestSweepKeepsInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	docs := randomDocs(r, 12, 20, 8)
	fx := newFixture(docs, 5, func(int) uint32 { return uint32(r.Intn(5)) },
		Options{DocPY: true, WordPY: true, Strict: true}, true)
	require.NoError(t, burst.InitTableFlags(fx.idx, fx.z, 5, 0, fx.c.DocNum))

	pool := fx.e.NewPool(1, 7)
	require.NoError(t, pool.Rebuild(0, fx.c.DocNum))

	for it := 0; it < 10; it += 1 {
		ll, err := pool.Pass(0, fx.c.DocNum, Sample, PassResample, 0)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(ll))

		total := uint32(0)
		for d := uint32(0); d < fx.c.DocNum; d += 1 {
			require.NoError(t, fx.s.CheckDoc(d))
			assert.Equal(t, fx.c.Len(d), util.VectorSum(fx.s.Ndt.GetRow(d)))
			total += fx.s.NdT[d]
		}
		require.NoError(t, fx.s.CheckWords())
		require.NoError(t, burst.Check(fx.idx, fx.z, 5, 0, fx.c.DocNum))

		live, words := uint32(0), uint32(0)
		for tp := uint32(0); tp < 5; tp += 1 {
			col := fx.s.Ndt.GetCol(tp)
			if util.VectorSum(col) > 0 {
				live += 1
			}
			words += fx.s.NWt.Get(tp, 0)
		}
		assert.Equal(t, live, fx.s.LiveTopics())
		assert.Equal(t, uint32(len(fx.c.Words)), total)

		flagged := uint32(0)
		for _, tok := range fx.z {
			if tok.TableFlag() {
				flagged += 1
			}
		}
		assert.Equal(t, flagged, words)
	}
}

func TestGrowthCap(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	docs := randomDocs(r, 6, 15, 6)
	fx := newFixture(docs, 5, constTopic(0), Options{DocPY: true, WordPY: true}, false)

	pool := fx.e.NewPool(1, 1)
	require.NoError(t, pool.Rebuild(0, fx.c.DocNum))
	require.Equal(t, uint32(1), fx.s.LiveTopics())

	for it := 0; it < 5; it += 1 {
		_, err := pool.Pass(0, fx.c.DocNum, Sample, PassResample, 2)
		require.NoError(t, err)

		used := map[uint32]bool{}
		for _, tok := range fx.z {
			used[tok.Topic()] = true
		}
		assert.LessOrEqual(t, len(used), 2)
		assert.LessOrEqual(t, fx.s.LiveTopics(), uint32(2))
	}
}

func TestConcurrentPass(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	docs := randomDocs(r, 40, 25, 10)
	fx := newFixture(docs, 4, func(int) uint32 { return uint32(r.Intn(4)) },
		Options{DocPY: true}, false)

	pool := fx.e.NewPool(4, 3)
	require.NoError(t, pool.Rebuild(0, fx.c.DocNum))
	for it := 0; it < 3; it += 1 {
		_, err := pool.Pass(0, fx.c.DocNum, Sample, PassResample, 0)
		require.NoError(t, err)
	}

	counted := make([]uint32, fx.s.W*fx.s.T)
	for i, w := range fx.c.Words {
		counted[w*fx.s.T+fx.z[i].Topic()] += 1
	}
	for w := uint32(0); w < fx.s.W; w += 1 {
		for tp := uint32(0); tp < fx.s.T; tp += 1 {
			assert.Equal(t, counted[w*fx.s.T+tp], fx.s.Nwt.Get(w, tp))
		}
	}
	for d := uint32(0); d < fx.c.DocNum; d += 1 {
		require.NoError(t, fx.s.CheckDoc(d))
	}
}

func TestHoldModeScoresHeldTokens(t *testing.T) {
	c := corpus.FromDocs([][]uint32{{0, 1, 0, 1}, {0, 1, 2, 0}})
	require.NoError(t, c.Split(1))
	hold := corpus.NewHoldSet(c, corpus.HoldOptions{Every: 2})

	z := table.NewAssignments(uint32(len(c.Words)))
	s := stats.New(c.DocNum, c.VocabSize, 2)
	f := &dirichlet{s: s, alpha: 0.5, beta: 0.1}
	e := New(c, z, s, f, Options{DocPY: true, WordPY: true, Hold: hold})
	pool := e.NewPool(1, 2)

	added, err := pool.AddDocs(0, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), added)
	assert.Equal(t, uint32(2), s.NdT[1])

	wk := pool.workers[0]
	ll, err := e.Sweep(wk, 1, Hold, PassResample, 2)
	require.NoError(t, err)
	assert.Less(t, ll, 0.0)
	assert.False(t, math.IsInf(ll, 0))
	assert.Equal(t, uint32(2), s.NdT[1])
}

func TestIndexSuppliesHoldOut(t *testing.T) {
	c := corpus.FromDocs([][]uint32{{0, 1, 0, 1}, {0, 1, 2, 0}})
	require.NoError(t, c.Split(1))
	idx := burst.NewIndex(c, corpus.NewHoldSet(c, corpus.HoldOptions{Every: 2}))

	z := table.NewAssignments(uint32(len(c.Words)))
	s := stats.New(c.DocNum, c.VocabSize, 2)
	f := &dirichlet{s: s, idx: idx, alpha: 0.5, beta: 0.1}
	require.NoError(t, burst.InitTableFlags(idx, z, 2, 0, c.DocNum))
	e := New(c, z, s, f, Options{DocPY: true, Index: idx, Strict: true})
	pool := e.NewPool(1, 3)

	added, err := pool.AddDocs(0, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), added)
	assert.Equal(t, uint32(2), s.NdT[1])
	require.NoError(t, pool.RemoveDocs(0, 2))
	assert.Equal(t, uint32(0), s.NdT[1])
}
