package image

import (
	"fmt"
	"sync"

	"github.com/blosc-go/cimage/channel"
	"github.com/blosc-go/cimage/codec"
	"github.com/blosc-go/cimage/errs"
	"github.com/blosc-go/cimage/imgtype"
	"github.com/blosc-go/cimage/schunk"
)

// ScanlineSource is an external decoded-image source capable of reading
// scanline bands for a contiguous run of channels at a time, per spec.md
// §4.6 / §6. It does not decompress into this module's chunk format itself;
// ReadImage drives it to build one.
type ScanlineSource[T imgtype.Numeric] interface {
	// Width and Height are the source image's dimensions in pixels.
	Width() int
	Height() int

	// ChannelNames returns the source's channels in their native order.
	ChannelNames() []string

	// Tiled reports whether the source is tiled. ReadImage rejects tiled
	// sources with ErrUnsupportedFormat.
	Tiled() bool

	// ReadScanlines fills out with rows [y0, y1) of channels [ch0, ch1),
	// interleaved as out[(row*width+col)*(ch1-ch0) + (ch-ch0)]. out must
	// have exactly (y1-y0)*Width()*(ch1-ch0) elements.
	ReadScanlines(y0, y1, ch0, ch1 int, out []T) error
}

// PostprocessFunc is applied to each deinterleaved, per-channel scanline
// band just before it is compressed. channelIndexInRun is the channel's
// position within the contiguous run currently being read, not its index in
// the source or the resulting Image. Errors propagate unchanged and abort
// the read.
type PostprocessFunc[T imgtype.Numeric] func(channelIndexInRun int, band []T) error

type channelRun struct {
	ch0, ch1 int // half-open range of native source indices
}

func resolveNativeIndices(names []string, requested []string) ([]int, error) {
	byName := make(map[string]int, len(names))
	for i, n := range names {
		byName[n] = i
	}

	out := make([]int, len(requested))
	for i, r := range requested {
		idx, ok := byName[r]
		if !ok {
			return nil, fmt.Errorf("%w: %q", errs.ErrUnknownChannel, r)
		}
		out[i] = idx
	}

	return out, nil
}

func validateNativeIndices(numNative int, requested []int) error {
	for _, idx := range requested {
		if idx < 0 || idx >= numNative {
			return fmt.Errorf("%w: channel index %d, source has %d channels", errs.ErrUnknownChannel, idx, numNative)
		}
	}

	return nil
}

// dedupeSorted returns the distinct values of indices in ascending order.
func dedupeSorted(indices []int) []int {
	seen := make(map[int]struct{}, len(indices))
	out := make([]int, 0, len(indices))
	for _, idx := range indices {
		if _, ok := seen[idx]; !ok {
			seen[idx] = struct{}{}
			out = append(out, idx)
		}
	}

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}

	return out
}

// buildRuns groups sorted, deduplicated native indices into the fewest
// contiguous half-open ranges, maximizing per-read batching (spec.md §4.6
// step 1).
func buildRuns(sortedIndices []int) []channelRun {
	if len(sortedIndices) == 0 {
		return nil
	}

	runs := make([]channelRun, 0, len(sortedIndices))
	start := sortedIndices[0]
	prev := start

	flush := func(end int) {
		runs = append(runs, channelRun{ch0: start, ch1: end})
	}

	for _, idx := range sortedIndices[1:] {
		if idx == prev+1 {
			prev = idx

			continue
		}
		flush(prev + 1)
		start = idx
		prev = idx
	}
	flush(prev + 1)

	return runs
}

// ReadAllChannels reads every channel of src, in source-native order, into
// a new Image.
func ReadAllChannels[T imgtype.Numeric](src ScanlineSource[T], postprocess PostprocessFunc[T], opts ...channel.Option) (*Image[T], error) {
	names := src.ChannelNames()
	all := make([]int, len(names))
	for i := range all {
		all[i] = i
	}

	return readImage(src, all, postprocess, opts...)
}

// ReadChannelsByName reads the named channels of src into a new Image. The
// caller's ordering is not preserved: the Image's channels are assembled in
// source-native order regardless of the order names are given in.
func ReadChannelsByName[T imgtype.Numeric](src ScanlineSource[T], names []string, postprocess PostprocessFunc[T], opts ...channel.Option) (*Image[T], error) {
	indices, err := resolveNativeIndices(src.ChannelNames(), names)
	if err != nil {
		return nil, err
	}

	return readImage(src, indices, postprocess, opts...)
}

// ReadChannelsByIndex reads the channels at the given native indices of src
// into a new Image, reordered to source-native order.
func ReadChannelsByIndex[T imgtype.Numeric](src ScanlineSource[T], indices []int, postprocess PostprocessFunc[T], opts ...channel.Option) (*Image[T], error) {
	if err := validateNativeIndices(len(src.ChannelNames()), indices); err != nil {
		return nil, err
	}

	return readImage(src, indices, postprocess, opts...)
}

func readImage[T imgtype.Numeric](src ScanlineSource[T], requested []int, postprocess PostprocessFunc[T], opts ...channel.Option) (*Image[T], error) {
	if src.Tiled() {
		return nil, fmt.Errorf("%w: tiled sources are not supported", errs.ErrUnsupportedFormat)
	}

	width, height := src.Width(), src.Height()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: source dimensions must be positive, got %dx%d", errs.ErrInvalidArgument, width, height)
	}

	cfg, err := channel.BuildConfig(opts)
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

	sorted := dedupeSorted(requested)
	runs := buildRuns(sorted)

	names := src.ChannelNames()
	outSChunks := make([]*schunk.SChunk[T], len(sorted))
	outNames := make([]string, len(sorted))
	pos := 0

	for _, run := range runs {
		if err := readRun(src, run, chunkSizeAligned, cfg, postprocess, outSChunks[pos:]); err != nil {
			return nil, err
		}
		for i := run.ch0; i < run.ch1; i++ {
			outNames[pos] = names[i]
			pos++
		}
	}

	channels := make([]*channel.Channel[T], len(outSChunks))
	for i, sc := range outSChunks {
		ch, err := channel.FromStore[T](sc, width, height, opts...)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", outNames[i], err)
		}
		channels[i] = ch
	}

	return FromChannels(channels, outNames, cfg.Logger)
}

// readRun reads one contiguous run of channels band-by-band, appending each
// band to its schunk, and writes the finished schunks into the first
// run.ch1-run.ch0 slots of dst (which must have at least that many).
//
// scanlines_per_chunk = chunk_size_aligned * n_channels / bytes_per_scanline,
// where bytes_per_scanline = width * n_channels * sizeof(T); the n_channels
// factor cancels, leaving chunk_size_aligned / (width * sizeof(T)).
func readRun[T imgtype.Numeric](src ScanlineSource[T], run channelRun, chunkSizeAligned int, cfg *channel.Config, postprocess PostprocessFunc[T], dst []*schunk.SChunk[T]) error {
	width, height := src.Width(), src.Height()
	nChannels := run.ch1 - run.ch0
	elemSize := imgtype.ElemSize[T]()

	scanlinesPerChunk := chunkSizeAligned / (width * elemSize)
	if scanlinesPerChunk <= 0 {
		scanlinesPerChunk = 1
	}

	interleaved := make([]T, scanlinesPerChunk*width*nChannels)
	bands := make([][]T, nChannels)
	for i := range bands {
		bands[i] = make([]T, scanlinesPerChunk*width)
	}
	scratches := make([][]byte, nChannels)
	cctxs := make([]*codec.CCtx, nChannels)
	for i := range cctxs {
		cctx, err := codec.NewCCtx(codec.Params{
			ID:        cfg.Codec,
			Level:     cfg.Level,
			Threads:   cfg.Threads,
			BlockSize: cfg.BlockSize,
			TypeSize:  elemSize,
		})
		if err != nil {
			return err
		}
		cctxs[i] = cctx
		scratches[i] = make([]byte, codec.MinCompressedSize(chunkSizeAligned))

		sc, err := schunk.NewSChunk[T](chunkSizeAligned)
		if err != nil {
			return err
		}
		dst[i] = sc
	}

	for y := 0; y < height; y += scanlinesPerChunk {
		rows := scanlinesPerChunk
		if y+rows > height {
			rows = height - y
		}

		interleavedBand := interleaved[:rows*width*nChannels]
		if err := src.ReadScanlines(y, y+rows, run.ch0, run.ch1, interleavedBand); err != nil {
			return fmt.Errorf("read scanlines [%d,%d) channels [%d,%d): %w", y, y+rows, run.ch0, run.ch1, err)
		}

		for c := 0; c < nChannels; c++ {
			band := bands[c][:rows*width]
			for i := range band {
				band[i] = interleavedBand[i*nChannels+c]
			}
		}

		if err := compressBandsConcurrently(dst, cctxs, scratches, bands, rows*width, nChannels, postprocess); err != nil {
			return err
		}
	}

	return nil
}

// compressBandsConcurrently runs postprocess and compression for each
// sibling channel in the current band in its own goroutine, per spec.md §5:
// "the bulk-read path may compress sibling channels for the same scanline
// band in parallel". Channels are independent schunks with independent
// contexts, so no synchronization beyond collecting errors is needed.
func compressBandsConcurrently[T imgtype.Numeric](schunks []*schunk.SChunk[T], cctxs []*codec.CCtx, scratches [][]byte, bands [][]T, bandLen, n int, postprocess PostprocessFunc[T]) error {
	errSlice := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for c := 0; c < n; c++ {
		go func(c int) {
			defer wg.Done()

			band := bands[c][:bandLen]
			if postprocess != nil {
				if err := postprocess(c, band); err != nil {
					errSlice[c] = fmt.Errorf("postprocess channel %d: %w", c, err)

					return
				}
			}

			if err := schunks[c].AppendWithScratch(band, cctxs[c], scratches[c]); err != nil {
				errSlice[c] = err
			}
		}(c)
	}
	wg.Wait()

	for _, err := range errSlice {
		if err != nil {
			return err
		}
	}

	return nil
}
