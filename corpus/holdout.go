package corpus

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// HoldOut tells whether a token is excluded from the statistics and kept
// for evaluation.
type HoldOut interface {
	IsHeldOut(i uint32) bool
}

// HoldOptions select held-out tokens inside test documents. Any
// combination may be set, a token matching one of them is held out.
type HoldOptions struct {
	Every    int     // every n-th token of a document
	Fraction float64 // the final fraction of a document
	Dict     int     // every n-th word of the dictionary
}

func (o HoldOptions) active() bool {
	return o.Every > 0 || o.Fraction > 0 || o.Dict > 0
}

// HoldSet is a HoldOut backed by a bitmap of token positions. The nil
// HoldSet holds nothing out.
type HoldSet struct {
	bm *roaring.Bitmap
}

// NewHoldSet marks held-out tokens of the test documents of c.
func NewHoldSet(c *Corpus, opt HoldOptions) *HoldSet {
	h := &HoldSet{bm: roaring.New()}
	if !opt.active() {
		return h
	}
	for d := c.TrainNum; d < c.DocNum; d += 1 {
		start, end := c.Doc(d)
		keep := end
		if opt.Fraction > 0 {
			n := float64(end - start)
			keep = start + uint32(math.Ceil(n*(1-opt.Fraction)))
		}
		for i := start; i < end; i += 1 {
			pos := int(i-start) + 1
			if i >= keep ||
				(opt.Every > 0 && pos%opt.Every == 0) ||
				(opt.Dict > 0 && int(c.Words[i])%opt.Dict == 0) {
				h.bm.Add(i)
			}
		}
	}
	h.bm.RunOptimize()
	return h
}

func (h *HoldSet) IsHeldOut(i uint32) bool {
	if h == nil || h.bm == nil {
		return false
	}
	return h.bm.Contains(i)
}

// number of held-out tokens
func (h *HoldSet) Len() uint64 {
	if h == nil || h.bm == nil {
		return 0
	}
	return h.bm.GetCardinality()
}

// number of held-out tokens in [start, end)
func (h *HoldSet) Within(start, end uint32) uint64 {
	if h == nil || h.bm == nil || start >= end {
		return 0
	}
	return h.bm.Rank(end-1) - h.bm.Rank(start) + boolCount(h.bm.Contains(start))
}

func boolCount(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
