package burst

import (
	"errors"
	"fmt"

	"github.com/StevenLOL/LexSemTm/matrix"
	"github.com/StevenLOL/LexSemTm/table"
	"github.com/StevenLOL/LexSemTm/util"
)

var ErrInvariant = errors.New("burst: invariant violated")

// State holds, for the document currently owned by one worker,
//
//	Mi[t]       occurrences assigned topic t
//	Si[t]       those counted as table events
//	Mik[k][t]   occurrences of repeated word slot k with topic t
//	Sik[k][t]   those counted as table events
//
// Occurrences of words that are not repeated always count in Si. After
// Build every occupied (k, t) has at least one table event and Sik never
// exceeds Mik. Unbuild has to return Mik and Sik to zero before the state
// is used for another document.
type State struct {
	idx *Index
	z   table.Assignments

	Mi  []uint32
	Si  []uint32
	Mik *matrix.Uint32Matrix
	Sik *matrix.Uint32Matrix

	doc    uint32
	base   uint32
	strict bool
}

// NewState allocates a state sized for the largest document of idx.
func NewState(idx *Index, z table.Assignments, topics uint32) *State {
	rows := max(idx.MaxSlots(), 1)
	return &State{
		idx: idx,
		z:   z,
		Mi:  make([]uint32, topics),
		Si:  make([]uint32, topics),
		Mik: matrix.NewUint32Matrix(rows, topics),
		Sik: matrix.NewUint32Matrix(rows, topics),
	}
}

// SetStrict turns on the checks in Decr. Build and Unbuild take their
// own flag.
func (st *State) SetStrict(strict bool) {
	st.strict = strict
}

// the document the state was last zeroed for
func (st *State) Doc() uint32 {
	return st.doc
}

// local slot of the repeated occurrence at cursor mi
func (st *State) local(mi uint32) uint32 {
	return st.idx.SlotAt(mi) - st.base
}

// Mik and Sik for the slot at cursor mi
func (st *State) Slot(mi, t uint32) (uint32, uint32) {
	k := st.local(mi)
	return st.Mik.Get(k, t), st.Sik.Get(k, t)
}

// Zero clears Mi and Si and records the slot base of document d.
func (st *State) Zero(d uint32) {
	clear(st.Mi)
	clear(st.Si)
	st.doc = d
	st.base = st.idx.Base(d)
}

// Build fills the state from the current assignments of document d.
func (st *State) Build(d uint32, strict bool) error {
	st.Zero(d)
	if strict {
		if err := st.checkZero(); err != nil {
			return fmt.Errorf("build doc %d: %w", d, err)
		}
	}
	start, end := st.idx.Corpus().Doc(d)
	mi := st.idx.Start(d)
	for i := start; i < end; i += 1 {
		multi := st.idx.Multi(i)
		if !st.idx.IsHeldOut(i) {
			t := st.z[i].Topic()
			st.Mi[t] += 1
			if multi {
				k := st.local(mi)
				st.Mik.Incr(k, t, 1)
				if st.z[i].TableFlag() {
					st.Sik.Incr(k, t, 1)
					st.Si[t] += 1
				}
			} else {
				st.Si[t] += 1
			}
		}
		if multi {
			mi += 1
		}
	}
	if strict {
		if err := st.checkTables(); err != nil {
			return fmt.Errorf("build doc %d: %w", d, err)
		}
	}
	return nil
}

// Unbuild walks document d again and zeroes every slot entry it touched.
func (st *State) Unbuild(d uint32, strict bool) error {
	start, end := st.idx.Corpus().Doc(d)
	mi := st.idx.Start(d)
	for i := start; i < end; i += 1 {
		if !st.idx.Multi(i) {
			continue
		}
		if !st.idx.IsHeldOut(i) {
			k := st.local(mi)
			t := st.z[i].Topic()
			st.Mik.Set(k, t, 0)
			st.Sik.Set(k, t, 0)
		}
		mi += 1
	}
	if strict {
		if err := st.checkZero(); err != nil {
			return fmt.Errorf("unbuild doc %d: %w", d, err)
		}
	}
	return nil
}

// Blocked reports whether removing occurrence i would leave its slot with
// occurrences but no table event.
func (st *State) Blocked(i, mi, t uint32) bool {
	if !st.idx.Multi(i) || !st.z[i].TableFlag() {
		return false
	}
	m, s := st.Slot(mi, t)
	return m > 1 && s == 1
}

// Decr removes occurrence i from topic t. word is false when the
// occurrence carried no table event and so no word statistics.
func (st *State) Decr(i, mi, t uint32, word bool) {
	if st.idx.Multi(i) {
		k := st.local(mi)
		if st.strict {
			m, s := st.Mik.Get(k, t), st.Sik.Get(k, t)
			if m == 0 || (word && s == 0) {
				panic(fmt.Errorf("decr token %d slot %d topic %d from (%d,%d): %w", i, k, t, m, s, ErrInvariant))
			}
		}
		if word {
			st.Sik.Decr(k, t, 1)
		}
		m := st.Mik.Decr(k, t, 1)
		if st.strict && m < st.Sik.Get(k, t) {
			panic(fmt.Errorf("decr token %d slot %d topic %d leaves Mik < Sik: %w", i, k, t, ErrInvariant))
		}
	}
	if word {
		st.Si[t] -= 1
	}
	st.Mi[t] -= 1
}

// Incr adds occurrence i to topic t. A repeated occurrence becomes a new
// table event with probability tableProb, always when tableProb is one,
// and its table indicator is set to match. The returned flag tells the
// caller whether word statistics should be updated.
func (st *State) Incr(i, mi, t uint32, word bool, tableProb float64, u util.Uniform) bool {
	if st.idx.Multi(i) {
		k := st.local(mi)
		if tableProb == 1 || tableProb > u.Float64() {
			st.z[i].SetTableFlag()
		} else {
			word = false
			st.z[i].ClearTableFlag()
		}
		if word {
			st.Sik.Incr(k, t, 1)
		}
		st.Mik.Incr(k, t, 1)
	} else {
		st.z[i].SetTableFlag()
	}
	if word {
		st.Si[t] += 1
	}
	st.Mi[t] += 1
	return word
}

func (st *State) checkZero() error {
	rows, cols := st.Mik.Shape()
	for k := uint32(0); k < rows; k += 1 {
		for t := uint32(0); t < cols; t += 1 {
			if st.Mik.Get(k, t) != 0 || st.Sik.Get(k, t) != 0 {
				return fmt.Errorf("slot %d topic %d not zero (%d,%d): %w",
					k, t, st.Mik.Get(k, t), st.Sik.Get(k, t), ErrInvariant)
			}
		}
	}
	return nil
}

func (st *State) checkTables() error {
	rows, cols := st.Mik.Shape()
	for k := uint32(0); k < rows; k += 1 {
		for t := uint32(0); t < cols; t += 1 {
			m, s := st.Mik.Get(k, t), st.Sik.Get(k, t)
			if s > m || (m > 0 && s == 0) {
				return fmt.Errorf("slot %d topic %d has Mik=%d Sik=%d: %w", k, t, m, s, ErrInvariant)
			}
		}
	}
	return nil
}
