package matrix

import "sync/atomic"

// AtomicUint32Matrix is a row-major count matrix whose cells may be
// updated from many goroutines at once. It backs the word-topic tables
// that every sampling worker touches.
type AtomicUint32Matrix struct {
	nrow uint32
	ncol uint32
	data []atomic.Uint32
}

// NewAtomicUint32Matrix creates a zeroed r x c matrix, it panics on a
// zero dimension like NewUint32Matrix.
func NewAtomicUint32Matrix(r, c uint32) *AtomicUint32Matrix {
	if r == 0 || c == 0 {
		panic(ErrBadShape)
	}
	return &AtomicUint32Matrix{
		nrow: r,
		ncol: c,
		data: make([]atomic.Uint32, r*c),
	}
}

// get the shape of the matrix
func (m *AtomicUint32Matrix) Shape() (uint32, uint32) {
	return m.nrow, m.ncol
}

func (m *AtomicUint32Matrix) cell(r, c uint32) *atomic.Uint32 {
	if r >= m.nrow || c >= m.ncol {
		panic(ErrIndexOutOfRange)
	}
	return &m.data[r*m.ncol+c]
}

// load the [r, c]-th element of the matrix
func (m *AtomicUint32Matrix) Get(r, c uint32) uint32 {
	return m.cell(r, c).Load()
}

// store val to the [r, c]-th element of the matrix
func (m *AtomicUint32Matrix) Set(r, c uint32, val uint32) {
	m.cell(r, c).Store(val)
}

// atomically increment the [r, c]-th element by val
func (m *AtomicUint32Matrix) Incr(r, c uint32, val uint32) uint32 {
	return m.cell(r, c).Add(val)
}

// atomically decrement the [r, c]-th element by val
func (m *AtomicUint32Matrix) Decr(r, c uint32, val uint32) uint32 {
	n := m.cell(r, c).Add(^(val - 1))
	if n > ^uint32(0)-val {
		// wrapped around zero
		panic(ErrUnderflow)
	}
	return n
}

// zero every element, must not race with updates
func (m *AtomicUint32Matrix) Reset() {
	for i := range m.data {
		m.data[i].Store(0)
	}
}
