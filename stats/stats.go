// Package stats holds the sufficient statistics of the sampler.
//
// Document-topic rows are only touched by the worker owning the document,
// so they are plain counts. Word-topic counts and the per-topic totals are
// shared by every worker and are updated atomically.
package stats

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/StevenLOL/LexSemTm/matrix"
	"github.com/StevenLOL/LexSemTm/util"
)

var ErrInvariant = errors.New("stats: invariant violated")

type Stats struct {
	T uint32 // topics
	D uint32 // documents
	W uint32 // vocabulary

	Ndt *matrix.Uint32Matrix // doc-topic customers
	Tdt *matrix.Uint32Matrix // doc-topic tables
	NdT []uint32             // customers per doc
	TdT []uint32             // tables per doc

	Nwt *matrix.AtomicUint32Matrix // word-topic customers
	Twt *matrix.AtomicUint32Matrix // word-topic tables
	NWt *matrix.AtomicUint32Matrix // customers per topic, T x 1

	NDt  *matrix.AtomicUint32Matrix // doc customers per topic, T x 1
	live atomic.Int32               // topics with NDt > 0
}

func New(docs, words, topics uint32) *Stats {
	return &Stats{
		T:   topics,
		D:   docs,
		W:   words,
		Ndt: matrix.NewUint32Matrix(docs, topics),
		Tdt: matrix.NewUint32Matrix(docs, topics),
		NdT: make([]uint32, docs),
		TdT: make([]uint32, docs),
		Nwt: matrix.NewAtomicUint32Matrix(words, topics),
		Twt: matrix.NewAtomicUint32Matrix(words, topics),
		NWt: matrix.NewAtomicUint32Matrix(topics, 1),
		NDt: matrix.NewAtomicUint32Matrix(topics, 1),
	}
}

// Reset zeroes everything, it must not run alongside a sampling pass.
func (s *Stats) Reset() {
	s.Ndt.Reset()
	s.Tdt.Reset()
	clear(s.NdT)
	clear(s.TdT)
	s.Nwt.Reset()
	s.Twt.Reset()
	s.NWt.Reset()
	s.NDt.Reset()
	s.live.Store(0)
}

// IncrDoc adds a customer to (d, t) and returns the new Ndt.
func (s *Stats) IncrDoc(d, t uint32) uint32 {
	s.NdT[d] += 1
	if s.NDt.Incr(t, 0, 1) == 1 {
		s.live.Add(1)
	}
	return s.Ndt.Incr(d, t, 1)
}

// DecrDoc removes a customer from (d, t) and returns the new Ndt.
func (s *Stats) DecrDoc(d, t uint32) uint32 {
	s.NdT[d] -= 1
	if s.NDt.Decr(t, 0, 1) == 0 {
		s.live.Add(-1)
	}
	return s.Ndt.Decr(d, t, 1)
}

func (s *Stats) OpenDocTable(d, t uint32) {
	s.Tdt.Incr(d, t, 1)
	s.TdT[d] += 1
}

func (s *Stats) CloseDocTable(d, t uint32) {
	s.Tdt.Decr(d, t, 1)
	s.TdT[d] -= 1
}

// IncrWord adds a customer to (w, t) and returns the new Nwt.
func (s *Stats) IncrWord(w, t uint32) uint32 {
	s.NWt.Incr(t, 0, 1)
	return s.Nwt.Incr(w, t, 1)
}

// DecrWord removes a customer from (w, t) and returns the new Nwt.
func (s *Stats) DecrWord(w, t uint32) uint32 {
	s.NWt.Decr(t, 0, 1)
	return s.Nwt.Decr(w, t, 1)
}

func (s *Stats) OpenWordTable(w, t uint32) {
	s.Twt.Incr(w, t, 1)
}

func (s *Stats) CloseWordTable(w, t uint32) {
	s.Twt.Decr(w, t, 1)
}

// number of topics currently holding at least one document customer
func (s *Stats) LiveTopics() uint32 {
	return uint32(s.live.Load())
}

// does topic t hold at least one document customer
func (s *Stats) Live(t uint32) bool {
	return s.NDt.Get(t, 0) > 0
}

// CheckDoc verifies the table invariants of document d.
func (s *Stats) CheckDoc(d uint32) error {
	row, tables := s.Ndt.Row(d), s.Tdt.Row(d)
	for t := range row {
		if tables[t] > row[t] {
			return fmt.Errorf("doc %d topic %d has Ndt=%d Tdt=%d: %w", d, t, row[t], tables[t], ErrInvariant)
		}
	}
	if n := util.VectorSum(row); n != s.NdT[d] {
		return fmt.Errorf("doc %d sums to %d, NdT=%d: %w", d, n, s.NdT[d], ErrInvariant)
	}
	if n := util.VectorSum(tables); n != s.TdT[d] {
		return fmt.Errorf("doc %d tables sum to %d, TdT=%d: %w", d, n, s.TdT[d], ErrInvariant)
	}
	return nil
}

// CheckWords verifies the word-side table invariants. Only meaningful
// between passes.
func (s *Stats) CheckWords() error {
	for w := uint32(0); w < s.W; w += 1 {
		for t := uint32(0); t < s.T; t += 1 {
			n, m := s.Nwt.Get(w, t), s.Twt.Get(w, t)
			if m > n {
				return fmt.Errorf("word %d topic %d has Nwt=%d Twt=%d: %w", w, t, n, m, ErrInvariant)
			}
		}
	}
	return nil
}
