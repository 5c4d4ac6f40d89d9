// Package channel pairs a chunked compression store (schunk.Store) with the
// dimensions and codec configuration needed to interpret it as a single
// raster plane, per spec.md §4.4. It also publishes the chunk iterator
// (iterator.go) that is the primary read/modify path through that store,
// and an n-ary zip helper (zip.go) for lock-step traversal of several
// channels at once.
package channel

import (
	"fmt"
	"runtime"

	"github.com/blosc-go/cimage/codec"
	"github.com/blosc-go/cimage/errs"
	"github.com/blosc-go/cimage/imgtype"
	"github.com/blosc-go/cimage/internal/options"
	"github.com/blosc-go/cimage/internal/pool"
	"github.com/blosc-go/cimage/schunk"
)

// Config holds the optional construction knobs accepted by every Channel
// constructor on top of its required positional parameters.
type Config struct {
	Codec     codec.ID
	Level     int
	BlockSize int
	ChunkSize int
	Threads   int
	Logger    func(string)

	levelClamped bool
	blockSizeSet bool
}

// Option configures a Channel constructor.
type Option = options.Option[*Config]

func defaultConfig() *Config {
	return &Config{
		Codec:     codec.LZ4,
		Level:     9,
		BlockSize: schunk.DefaultBlockSize,
		ChunkSize: schunk.DefaultChunkSize,
		Threads:   runtime.GOMAXPROCS(0),
		Logger:    func(string) {},
	}
}

// WithLogger installs a callback for the non-fatal warnings construction can
// produce (compression level clamped to [0, 9], mismatched channel-name
// count in image.FromChannels). Defaults to a no-op, so callers that don't
// care about these warnings see no behavioural change.
func WithLogger(logger func(string)) Option {
	return options.New(func(c *Config) error {
		if logger == nil {
			return fmt.Errorf("%w: logger must not be nil", errs.ErrInvalidArgument)
		}
		c.Logger = logger

		return nil
	})
}

// WithCodec selects the compression algorithm.
func WithCodec(id codec.ID) Option {
	return options.New(func(c *Config) error {
		if !id.Valid() {
			return fmt.Errorf("%w: invalid codec id %d", errs.ErrInvalidArgument, id)
		}
		c.Codec = id

		return nil
	})
}

// WithLevel sets the compression quality level, clamped to [0, 9] at
// construction.
func WithLevel(level int) Option {
	return options.NoError(func(c *Config) {
		clamped := level
		if clamped < 0 {
			clamped = 0
		}
		if clamped > 9 {
			clamped = 9
		}
		if clamped != level {
			c.levelClamped = true
		}
		c.Level = clamped
	})
}

// WithBlockSize sets the intra-chunk parallel unit.
func WithBlockSize(blockSize int) Option {
	return options.New(func(c *Config) error {
		if blockSize <= 0 {
			return fmt.Errorf("%w: block_size must be positive, got %d", errs.ErrInvalidArgument, blockSize)
		}
		c.BlockSize = blockSize
		c.blockSizeSet = true

		return nil
	})
}

// WithChunkSize sets the requested per-chunk uncompressed byte budget,
// before scanline alignment.
func WithChunkSize(chunkSize int) Option {
	return options.New(func(c *Config) error {
		if chunkSize <= 0 {
			return fmt.Errorf("%w: chunk_size must be positive, got %d", errs.ErrInvalidArgument, chunkSize)
		}
		c.ChunkSize = chunkSize

		return nil
	})
}

// WithThreads sets the worker-pool size used by the codec.
func WithThreads(threads int) Option {
	return options.New(func(c *Config) error {
		if threads <= 0 {
			return fmt.Errorf("%w: threads must be positive, got %d", errs.ErrInvalidArgument, threads)
		}
		c.Threads = threads

		return nil
	})
}

// Channel pairs a chunked compression store with the width, height and
// codec configuration needed to interpret it as a raster plane. It owns
// its store and codec contexts exclusively: aliasing a Channel into an
// Image transfers ownership, and no two Channels should share one store.
type Channel[T imgtype.Numeric] struct {
	store     schunk.Store[T]
	width     int
	height    int
	cctx      *codec.CCtx
	dctx      *codec.DCtx
	blockSize int
	bufPool   *pool.SlicePool[T]
}

// BuildConfig resolves opts into a Config with every default applied. Exposed so
// other packages (image's bulk-read path) can share a Channel's defaulting
// and validation logic without constructing a throwaway Channel.
func BuildConfig(opts []Option) (*Config, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if cfg.levelClamped {
		cfg.Logger(fmt.Sprintf("compression level out of [0, 9] range, clamped to %d", cfg.Level))
	}

	// The default block size (32KiB) is tuned for the default chunk size
	// (4MiB); a caller that requests a small chunk size without also
	// requesting a block size would otherwise trip the block < chunk
	// invariant on a default they never touched. An explicit WithBlockSize
	// is left alone here, so schunk.ValidateBlockSize still rejects it at
	// the caller if it doesn't fit the chunk size.
	if !cfg.blockSizeSet && cfg.BlockSize >= cfg.ChunkSize {
		cfg.BlockSize = cfg.ChunkSize / 2
		if cfg.BlockSize < 1 {
			cfg.BlockSize = 1
		}
	}

	return cfg, nil
}

func validateDims(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: width and height must be positive, got %dx%d", errs.ErrInvalidArgument, width, height)
	}

	return nil
}

func newContexts[T imgtype.Numeric](cfg *Config) (*codec.CCtx, *codec.DCtx, error) {
	cctx, err := codec.NewCCtx(codec.Params{
		ID:        cfg.Codec,
		Level:     cfg.Level,
		Threads:   cfg.Threads,
		BlockSize: cfg.BlockSize,
		TypeSize:  imgtype.ElemSize[T](),
	})
	if err != nil {
		return nil, nil, err
	}

	return cctx, codec.NewDCtx(cfg.Threads), nil
}

// FromData compresses data (exactly width*height elements, in scanline
// order) into a fresh eager store and wraps it as a Channel.
func FromData[T imgtype.Numeric](data []T, width, height int, opts ...Option) (*Channel[T], error) {
	if err := validateDims(width, height); err != nil {
		return nil, err
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("%w: data has %d elements, expected width*height=%d", errs.ErrSizeMismatch, len(data), width*height)
	}

	cfg, err := BuildConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := schunk.ValidateBlockSize(cfg.BlockSize, cfg.ChunkSize); err != nil {
		return nil, err
	}

	chunkSizeAligned, err := schunk.AlignChunkSize[T](width, cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	cctx, dctx, err := newContexts[T](cfg)
	if err != nil {
		return nil, err
	}

	sc, err := schunk.NewSChunk[T](chunkSizeAligned)
	if err != nil {
		return nil, err
	}

	epc := schunk.ElemsPerChunk[T](chunkSizeAligned)
	scratch := make([]byte, codec.MinCompressedSize(chunkSizeAligned))
	for offset := 0; offset < len(data); offset += epc {
		end := offset + epc
		if end > len(data) {
			end = len(data)
		}
		if err := sc.AppendWithScratch(data[offset:end], cctx, scratch); err != nil {
			return nil, err
		}
	}

	return &Channel[T]{store: sc, width: width, height: height, cctx: cctx, dctx: dctx, blockSize: cfg.BlockSize, bufPool: pool.NewSlicePool[T]()}, nil
}

// FromStore wraps an already-built store (eager or lazy) as a Channel. The
// store's element count must equal width*height.
func FromStore[T imgtype.Numeric](store schunk.Store[T], width, height int, opts ...Option) (*Channel[T], error) {
	if err := validateDims(width, height); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("%w: store must not be nil", errs.ErrInvalidArgument)
	}
	if store.Size() != width*height {
		return nil, fmt.Errorf("%w: store holds %d elements, expected width*height=%d", errs.ErrSizeMismatch, store.Size(), width*height)
	}

	cfg, err := BuildConfig(opts)
	if err != nil {
		return nil, err
	}

	cctx, dctx, err := newContexts[T](cfg)
	if err != nil {
		return nil, err
	}

	return &Channel[T]{store: store, width: width, height: height, cctx: cctx, dctx: dctx, blockSize: cfg.BlockSize, bufPool: pool.NewSlicePool[T]()}, nil
}

// Zeros creates a lazily-filled Channel of width*height zero elements.
// Nothing is compressed until a chunk is written.
func Zeros[T imgtype.Numeric](width, height int, opts ...Option) (*Channel[T], error) {
	var zero T

	return Full(width, height, zero, opts...)
}

// Full creates a lazily-filled Channel of width*height copies of
// fillValue. Nothing is compressed until a chunk is written.
func Full[T imgtype.Numeric](width, height int, fillValue T, opts ...Option) (*Channel[T], error) {
	if err := validateDims(width, height); err != nil {
		return nil, err
	}

	cfg, err := BuildConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := schunk.ValidateBlockSize(cfg.BlockSize, cfg.ChunkSize); err != nil {
		return nil, err
	}

	chunkSizeAligned, err := schunk.AlignChunkSize[T](width, cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	ls, err := schunk.NewFilled[T](fillValue, width*height, chunkSizeAligned)
	if err != nil {
		return nil, err
	}

	cctx, dctx, err := newContexts[T](cfg)
	if err != nil {
		return nil, err
	}

	return &Channel[T]{store: ls, width: width, height: height, cctx: cctx, dctx: dctx, blockSize: cfg.BlockSize, bufPool: pool.NewSlicePool[T]()}, nil
}

// ZerosLike creates a zero-filled Channel with the same dimensions and
// compression parameters as other.
func ZerosLike[T imgtype.Numeric](other *Channel[T]) (*Channel[T], error) {
	var zero T

	return FullLike(other, zero)
}

// FullLike creates a Channel filled with fillValue, with the same
// dimensions and compression parameters as other.
func FullLike[T imgtype.Numeric](other *Channel[T], fillValue T) (*Channel[T], error) {
	return Full(other.width, other.height, fillValue,
		WithCodec(other.cctx.ID()),
		WithLevel(other.cctx.Level()),
		WithBlockSize(other.blockSize),
		WithChunkSize(other.store.ChunkSize()),
		WithThreads(other.cctx.Threads()),
	)
}

// Width returns the channel's width in elements.
func (c *Channel[T]) Width() int { return c.width }

// Height returns the channel's height in elements.
func (c *Channel[T]) Height() int { return c.height }

// Compression returns the configured compression codec.
func (c *Channel[T]) Compression() codec.ID { return c.cctx.ID() }

// CompressionLevel returns the configured compression level.
func (c *Channel[T]) CompressionLevel() int { return c.cctx.Level() }

// BlockSize returns the intra-chunk block size.
func (c *Channel[T]) BlockSize() int { return c.blockSize }

// ChunkSize returns the scanline-aligned per-chunk uncompressed byte
// capacity.
func (c *Channel[T]) ChunkSize() int { return c.store.ChunkSize() }

// NumChunks returns the number of chunks in the underlying store.
func (c *Channel[T]) NumChunks() int { return c.store.NumChunks() }

// CompressedBytes returns the store's current compressed footprint.
func (c *Channel[T]) CompressedBytes() int { return c.store.CSize() }

// UncompressedSize returns the number of elements in the channel
// (width*height).
func (c *Channel[T]) UncompressedSize() int { return c.store.Size() }

// UpdateThreads reconfigures the worker-pool size used by subsequent
// compress/decompress calls, and reports blockSize as the channel's
// intra-chunk block size from then on. In-flight operations are not
// affected. None of the wired codecs (lz4, zstd, s2, zlib) take a
// block-size knob the way the original blosc2 contexts do, so blockSize
// only updates what BlockSize() reports; it's still validated against the
// chunk size for API fidelity with spec.md's update_threads(n, block_size).
func (c *Channel[T]) UpdateThreads(threads int, blockSize int) error {
	if err := schunk.ValidateBlockSize(blockSize, c.store.ChunkSize()); err != nil {
		return err
	}

	c.cctx.UpdateThreads(threads)
	c.dctx.UpdateThreads(threads)
	c.blockSize = blockSize

	return nil
}

// GetDecompressed returns the full decompressed contents of the channel as
// one contiguous slice, in scanline order.
func (c *Channel[T]) GetDecompressed() ([]T, error) {
	return c.store.ToUncompressed(c.dctx)
}

// GetChunk decompresses chunk i into out, which must have exactly
// chunk_elems(i) elements.
func (c *Channel[T]) GetChunk(i int, out []T) error {
	return c.store.Read(i, out, c.dctx)
}

// SetChunk compresses data and replaces chunk i. data must have exactly as
// many elements as the chunk it replaces.
func (c *Channel[T]) SetChunk(i int, data []T) error {
	return c.store.Update(i, data, c.cctx)
}

// SetChunkPrecompressed replaces chunk i with an already-compressed buffer.
func (c *Channel[T]) SetChunkPrecompressed(i int, compressed []byte) error {
	return c.store.UpdatePrecompressed(i, compressed)
}

// Iter returns a single-pass cursor over the channel's chunks, starting at
// chunk 0. See ChunkIterator for the decompress/mutate/recompress protocol.
func (c *Channel[T]) Iter() *ChunkIterator[T] {
	return newChunkIterator(c, 0)
}
