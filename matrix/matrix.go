package matrix

// Reader is the read side shared by the plain and the atomic count
// matrices, enough to serialize or check them.
type Reader interface {
	Shape() (uint32, uint32)
	Get(uint32, uint32) uint32
}

// Counter is a count matrix whose cells are mutated one at a time.
// Incr and Decr return the value of the cell after the update.
type Counter interface {
	Reader
	Incr(uint32, uint32, uint32) uint32
	Decr(uint32, uint32, uint32) uint32
}

var (
	_ Counter = (*Uint32Matrix)(nil)
	_ Counter = (*AtomicUint32Matrix)(nil)
)
