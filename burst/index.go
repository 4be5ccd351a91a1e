// Package burst keeps the bookkeeping for words repeated inside a
// document. Index is the static part, built once per corpus; State holds
// the live multiplicity and table counts of the document being sampled.
package burst

import (
	"github.com/RoaringBitmap/roaring/v2"
	log "github.com/golang/glog"

	"github.com/StevenLOL/LexSemTm/corpus"
)

// Index records which tokens belong to a word occurring more than once in
// its document and gives every such word a slot. Slots of one document
// are consecutive, starting at Base(d). Repeated occurrences are numbered
// in token order; a sweep keeps a cursor mi that starts at Start(d) and
// moves on after every repeated occurrence.
type Index struct {
	data *corpus.Corpus
	hold corpus.HoldOut

	multi    *roaring.Bitmap // tokens whose word repeats in the document
	multiind []uint32        // slot of the mi-th repeated occurrence
	mi       []uint32        // first cursor of each document, len DocNum+1
	base     []uint32        // first slot of each document
	count    []uint32        // non held-out occurrences per slot

	maxSlots   uint32
	maxRepeat  uint32
	trainSlots uint32
}

type noHold struct{}

func (noHold) IsHeldOut(uint32) bool { return false }

// NewIndex scans every document of c. hold may be nil.
func NewIndex(c *corpus.Corpus, hold corpus.HoldOut) *Index {
	if hold == nil {
		hold = noHold{}
	}
	idx := &Index{
		data:  c,
		hold:  hold,
		multi: roaring.New(),
		mi:    make([]uint32, c.DocNum+1),
		base:  make([]uint32, c.DocNum+1),
	}

	wcount := make([]uint32, c.VocabSize)
	wind := make([]int32, c.VocabSize)
	for w := range wind {
		wind[w] = -1
	}

	slots := uint32(0)
	for d := uint32(0); d < c.DocNum; d += 1 {
		start, end := c.Doc(d)
		words := c.Words[start:end]
		idx.mi[d] = uint32(len(idx.multiind))
		idx.base[d] = slots

		// a word gets its slot when its second occurrence is seen
		for _, w := range words {
			wcount[w] += 1
			if wcount[w] == 2 {
				wind[w] = int32(slots)
				slots += 1
				idx.count = append(idx.count, 0)
			}
			if wcount[w] > idx.maxRepeat {
				idx.maxRepeat = wcount[w]
			}
		}
		for l, w := range words {
			if wind[w] < 0 {
				continue
			}
			i := start + uint32(l)
			idx.multi.Add(i)
			idx.multiind = append(idx.multiind, uint32(wind[w]))
			if !hold.IsHeldOut(i) {
				idx.count[wind[w]] += 1
			}
		}
		for _, w := range words {
			wind[w] = -1
			wcount[w] = 0
		}

		if n := slots - idx.base[d]; n > idx.maxSlots {
			idx.maxSlots = n
		}
		if d+1 == c.TrainNum {
			idx.trainSlots = slots
		}
	}
	idx.mi[c.DocNum] = uint32(len(idx.multiind))
	idx.base[c.DocNum] = slots
	idx.multi.RunOptimize()

	log.Infof("burst index: %d repeated tokens, %d slots, at most %d slots per document",
		len(idx.multiind), slots, idx.maxSlots)
	return idx
}

// the corpus the index was built from
func (idx *Index) Corpus() *corpus.Corpus {
	return idx.data
}

// does token i belong to a word repeated in its document
func (idx *Index) Multi(i uint32) bool {
	return idx.multi.Contains(i)
}

// the index answers for the hold-out predicate it was built with
func (idx *Index) IsHeldOut(i uint32) bool {
	return idx.hold.IsHeldOut(i)
}

var _ corpus.HoldOut = (*Index)(nil)

// first repeated-occurrence cursor of document d
func (idx *Index) Start(d uint32) uint32 {
	return idx.mi[d]
}

// corpus-wide slot of the repeated occurrence at cursor mi
func (idx *Index) SlotAt(mi uint32) uint32 {
	return idx.multiind[mi]
}

// first slot of document d
func (idx *Index) Base(d uint32) uint32 {
	return idx.base[d]
}

// number of slots of document d
func (idx *Index) Slots(d uint32) uint32 {
	return idx.base[d+1] - idx.base[d]
}

// number of non held-out occurrences of a slot
func (idx *Index) Count(slot uint32) uint32 {
	return idx.count[slot]
}

// total number of slots
func (idx *Index) NumSlots() uint32 {
	return uint32(len(idx.count))
}

// number of slots belonging to training documents
func (idx *Index) TrainSlots() uint32 {
	return idx.trainSlots
}

// largest number of slots in one document
func (idx *Index) MaxSlots() uint32 {
	return idx.maxSlots
}

// largest number of occurrences of one word in one document
func (idx *Index) MaxRepeat() uint32 {
	return idx.maxRepeat
}
