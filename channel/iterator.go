package channel

import (
	"fmt"

	"github.com/blosc-go/cimage/errs"
	"github.com/blosc-go/cimage/imgtype"
	"github.com/blosc-go/cimage/schunk"
)

// ChunkIterator is a single-pass cursor over a Channel's chunks. Unlike the
// C++ original's destructor-driven write-back, Go has no destructors: a
// caller that mutates a ChunkView must call Close (typically via defer) to
// force write-back of whatever chunk is still dirty when iteration ends
// early.
//
// Dereferencing (View) decompresses the current chunk into a scratch
// buffer owned by the iterator and returns a mutable window over it.
// Advancing steps to the next chunk; the next View call compresses and
// writes back the previous chunk first if it was touched via
// ChunkView.Mutable.
type ChunkIterator[T imgtype.Numeric] struct {
	channel *Channel[T]
	index   int

	initialized   bool
	decompBuf     []T
	decompRelease func()

	hasLoaded   bool
	loadedIndex int
	loadedLen   int
	dirty       bool
	closed      bool
}

func newChunkIterator[T imgtype.Numeric](c *Channel[T], index int) *ChunkIterator[T] {
	return &ChunkIterator[T]{channel: c, index: index}
}

// ensureInit lazily pulls the iterator's decompression buffer from the
// owning Channel's slice pool rather than allocating a fresh one: a caller
// that opens many short-lived iterators over the same Channel reuses the
// pooled backing array instead of paying for a fresh chunk-sized
// allocation every time. The compression side doesn't need an iterator-
// owned scratch buffer: writeBack goes through Store.Update, which (for
// SChunk) already draws its scratch from internal/pool's package-level
// scratch pool internally.
func (it *ChunkIterator[T]) ensureInit() {
	if it.initialized {
		return
	}

	epc := schunk.ElemsPerChunk[T](it.channel.store.ChunkSize())
	it.decompBuf, it.decompRelease = it.channel.bufPool.Get(epc)

	it.initialized = true
}

func (it *ChunkIterator[T]) valid() error {
	if it.channel == nil {
		return fmt.Errorf("%w: zero-value iterator", errs.ErrInvalidState)
	}
	if it.closed {
		return fmt.Errorf("%w: iterator is closed", errs.ErrInvalidState)
	}

	return nil
}

// ChunkIndex returns the chunk index the iterator is currently positioned
// at. This may equal NumChunks() once iteration is exhausted.
func (it *ChunkIterator[T]) ChunkIndex() int { return it.index }

// Done reports whether the iterator has advanced past the last chunk.
func (it *ChunkIterator[T]) Done() bool {
	return it.channel == nil || it.index >= it.channel.store.NumChunks()
}

// View decompresses the chunk at the iterator's current position and
// returns a mutable window over it. If the previously visited chunk was
// touched via ChunkView.Mutable, it is compressed and written back first.
func (it *ChunkIterator[T]) View() (*ChunkView[T], error) {
	if err := it.valid(); err != nil {
		return nil, err
	}

	numChunks := it.channel.store.NumChunks()
	if it.index >= numChunks {
		return nil, fmt.Errorf("%w: chunk index %d, have %d chunks", errs.ErrIndexOutOfRange, it.index, numChunks)
	}

	it.ensureInit()

	if it.dirty && it.hasLoaded {
		if err := it.writeBack(it.loadedIndex, it.decompBuf[:it.loadedLen]); err != nil {
			return nil, fmt.Errorf("%w", err)
		}
		it.dirty = false
	}

	n, err := it.channel.store.ChunkElems(it.index)
	if err != nil {
		return nil, err
	}

	if err := it.channel.store.Read(it.index, it.decompBuf[:n], it.channel.dctx); err != nil {
		return nil, err
	}

	it.hasLoaded = true
	it.loadedIndex = it.index
	it.loadedLen = n

	return &ChunkView[T]{it: it, data: it.decompBuf[:n], index: it.index}, nil
}

// Advance steps the iterator to the next chunk. Advancing from the last
// chunk moves the iterator to the end position (ChunkIndex() == NumChunks(),
// Done() true); it fails with IndexOutOfRange if the iterator is already at
// that end position.
func (it *ChunkIterator[T]) Advance() error {
	if err := it.valid(); err != nil {
		return err
	}

	next := it.index + 1
	if next > it.channel.store.NumChunks() {
		return fmt.Errorf("%w: advance past end of iterator", errs.ErrIndexOutOfRange)
	}
	it.index = next

	return nil
}

// Close forces write-back of whatever chunk is currently dirty and
// releases the iterator's scratch buffers. Calling it more than once is a
// no-op. An iterator that is dropped without calling Close may leave a
// mutated-but-unwritten chunk in the store.
func (it *ChunkIterator[T]) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true

	if it.dirty && it.hasLoaded {
		if err := it.writeBack(it.loadedIndex, it.decompBuf[:it.loadedLen]); err != nil {
			return err
		}
		it.dirty = false
	}

	if it.decompRelease != nil {
		it.decompRelease()
	}
	it.decompBuf = nil
	it.decompRelease = nil

	return nil
}

// Equal reports whether two iterators refer to the same channel and chunk
// index.
func (it *ChunkIterator[T]) Equal(other *ChunkIterator[T]) bool {
	if it == nil || other == nil {
		return it == other
	}

	return it.channel == other.channel && it.index == other.index
}

func (it *ChunkIterator[T]) writeBack(i int, data []T) error {
	return it.channel.store.Update(i, data, it.channel.cctx)
}

// ChunkView is the mutable window a ChunkIterator yields at each step: a
// decompressed chunk's elements, its chunk index, and the x()/y() mapping
// from a chunk-local index to the owning image's coordinates.
type ChunkView[T imgtype.Numeric] struct {
	it    *ChunkIterator[T]
	data  []T
	index int
}

// Index returns this view's chunk index.
func (v *ChunkView[T]) Index() int { return v.index }

// Len returns the number of elements in this view.
func (v *ChunkView[T]) Len() int { return len(v.data) }

// Data returns a read-only alias of the view's elements.
func (v *ChunkView[T]) Data() []T { return v.data }

// Mutable returns the same backing slice as Data, but marks the view as
// touched: the owning iterator will compress and write it back before its
// next View call (or on Close). Use Data for read-only traversal to skip
// that write-back.
func (v *ChunkView[T]) Mutable() []T {
	v.it.dirty = true

	return v.data
}

// X returns the image x-coordinate for a chunk-local index, valid because
// chunks are scanline-aligned (spec §4.4).
func (v *ChunkView[T]) X(localIndex int) int {
	return v.globalIndex(localIndex) % v.it.channel.width
}

// Y returns the image y-coordinate for a chunk-local index.
func (v *ChunkView[T]) Y(localIndex int) int {
	return v.globalIndex(localIndex) / v.it.channel.width
}

func (v *ChunkView[T]) globalIndex(localIndex int) int {
	epc := schunk.ElemsPerChunk[T](v.it.channel.store.ChunkSize())

	return v.index*epc + localIndex
}
