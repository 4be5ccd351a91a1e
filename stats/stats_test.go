package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocCounts(t *testing.T) {
	s := New(2, 3, 4)

	assert.Equal(t, uint32(1), s.IncrDoc(0, 2))
	assert.Equal(t, uint32(2), s.IncrDoc(0, 2))
	s.OpenDocTable(0, 2)
	assert.Equal(t, uint32(1), s.IncrDoc(1, 3))

	assert.Equal(t, uint32(2), s.NdT[0])
	assert.Equal(t, uint32(1), s.TdT[0])
	assert.Equal(t, uint32(2), s.LiveTopics())
	assert.True(t, s.Live(2))
	assert.False(t, s.Live(0))
	require.NoError(t, s.CheckDoc(0))

	assert.Equal(t, uint32(1), s.DecrDoc(0, 2))
	assert.Equal(t, uint32(0), s.DecrDoc(0, 2))
	s.CloseDocTable(0, 2)
	assert.Equal(t, uint32(1), s.LiveTopics())
	assert.False(t, s.Live(2))
	require.NoError(t, s.CheckDoc(0))
}

func TestCheckDoc(t *testing.T) {
	s := New(1, 1, 2)
	s.IncrDoc(0, 1)
	s.OpenDocTable(0, 1)
	s.OpenDocTable(0, 1)
	assert.ErrorIs(t, s.CheckDoc(0), ErrInvariant)

	s.CloseDocTable(0, 1)
	require.NoError(t, s.CheckDoc(0))

	s.NdT[0] += 1
	assert.ErrorIs(t, s.CheckDoc(0), ErrInvariant)
}

func TestWordCounts(t *testing.T) {
	s := New(1, 2, 2)
	assert.Equal(t, uint32(1), s.IncrWord(1, 0))
	s.OpenWordTable(1, 0)
	s.OpenWordTable(1, 0)
	assert.ErrorIs(t, s.CheckWords(), ErrInvariant)

	s.CloseWordTable(1, 0)
	require.NoError(t, s.CheckWords())
	assert.Equal(t, uint32(0), s.DecrWord(1, 0))
	assert.Equal(t, uint32(0), s.NWt.Get(0, 0))
}

func TestConcurrentWordCounts(t *testing.T) {
	s := New(8, 1, 1)
	var wg sync.WaitGroup
	for d := uint32(0); d < 8; d += 1 {
		d := d
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 1000; n += 1 {
				s.IncrDoc(d, 0)
				s.IncrWord(0, 0)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, uint32(8000), s.Nwt.Get(0, 0))
	assert.Equal(t, uint32(8000), s.NWt.Get(0, 0))
	assert.Equal(t, uint32(8000), s.NDt.Get(0, 0))
	assert.Equal(t, uint32(1), s.LiveTopics())
}

func TestReset(t *testing.T) {
	s := New(1, 1, 1)
	s.IncrDoc(0, 0)
	s.OpenDocTable(0, 0)
	s.IncrWord(0, 0)
	s.Reset()
	assert.Zero(t, s.LiveTopics())
	assert.Zero(t, s.NdT[0])
	assert.Zero(t, s.Tdt.Get(0, 0))
	assert.Zero(t, s.Nwt.Get(0, 0))
}
