// Package cimage provides a chunked, transparently compressed raster image
// engine: channels are stored as sequences of independently compressed
// chunks, decompressed only as they're visited, so a caller can stream
// through gigapixel images at a small, bounded memory footprint.
//
// # Core features
//
//   - Per-channel codec selection (blosclz, lz4, lz4hc, zlib, zstd) and
//     quality level
//   - Scanline-aligned chunking so a chunk-local index maps directly to
//     image (x, y) coordinates
//   - Lazy fill channels (zeros/full) that cost a few bytes until written
//   - A single-pass chunk iterator with explicit, defer-friendly write-back
//   - A bulk-read path that builds an Image directly from an external
//     scanline source without ever materializing the whole image in memory
//
// # Package structure
//
// This file provides convenient top-level wrappers around the channel and
// image packages for the common cases, plus Variant, a Kind-tagged
// container for use when a channel's element type isn't known until
// runtime (e.g. after decoding a file). For advanced usage and
// fine-grained control, use the channel, image, and codec packages
// directly.
package cimage

import (
	"fmt"

	"github.com/blosc-go/cimage/channel"
	"github.com/blosc-go/cimage/errs"
	"github.com/blosc-go/cimage/image"
	"github.com/blosc-go/cimage/imgtype"
)

// NewChannel compresses data (exactly width*height elements, in scanline
// order) into a fresh Channel. See channel.FromData for the full option
// set (WithCodec, WithLevel, WithBlockSize, WithChunkSize, WithThreads,
// WithLogger).
func NewChannel[T imgtype.Numeric](data []T, width, height int, opts ...channel.Option) (*channel.Channel[T], error) {
	return channel.FromData(data, width, height, opts...)
}

// ZeroChannel creates a lazily-filled Channel of width*height zero
// elements; nothing is compressed until a chunk is written.
func ZeroChannel[T imgtype.Numeric](width, height int, opts ...channel.Option) (*channel.Channel[T], error) {
	return channel.Zeros[T](width, height, opts...)
}

// FullChannel creates a lazily-filled Channel of width*height copies of
// fillValue; nothing is compressed until a chunk is written.
func FullChannel[T imgtype.Numeric](width, height int, fillValue T, opts ...channel.Option) (*channel.Channel[T], error) {
	return channel.Full(width, height, fillValue, opts...)
}

// NewImage compresses one Channel per buffer (each exactly width*height
// elements) and assembles them into an Image. names may be nil; if it is
// non-empty and its length differs from len(buffers), the names are dropped
// and a warning goes to the WithLogger callback (see image.FromChannels).
func NewImage[T imgtype.Numeric](buffers [][]T, width, height int, names []string, opts ...channel.Option) (*image.Image[T], error) {
	return image.FromBuffers(buffers, width, height, names, opts...)
}

// ImageFromChannels wraps already-built Channels into an Image, in the
// given order. logger receives the mismatched-name-count warning, if any;
// see image.FromChannels.
func ImageFromChannels[T imgtype.Numeric](channels []*channel.Channel[T], names []string, logger ...func(string)) (*image.Image[T], error) {
	return image.FromChannels(channels, names, logger...)
}

// ReadImage builds an Image directly from an external scanline source,
// reading every one of its channels in source-native order. See
// image.ReadChannelsByName / image.ReadChannelsByIndex to read a subset.
func ReadImage[T imgtype.Numeric](src image.ScanlineSource[T], opts ...channel.Option) (*image.Image[T], error) {
	return image.ReadAllChannels[T](src, nil, opts...)
}

// dynImage is the subset of Image[T]'s method set that doesn't mention T
// in its signature, letting Variant dispatch to any instantiation through
// one interface without a type switch. Grounded on the Python bindings'
// dynamic_image wrapper (original_source/python/.../dynamic_image.h),
// which visits a std::variant<image<T>...> the same way.
type dynImage interface {
	Width() int
	Height() int
	NumChannels() int
	CompressionRatio() float64
	UpdateThreads(int, int) error
	ChannelNames() []string
	GetChannelOffset(string) (int, error)
	Metadata() *image.Metadata
}

// Variant erases an Image's element type behind its Kind tag, for callers
// that only learn the pixel type at runtime (after decoding a file, say)
// and want one value to carry around regardless of which of the nine
// Numeric instantiations it actually holds.
type Variant struct {
	kind imgtype.Kind
	img  dynImage
}

// NewVariant wraps img as a Variant tagged with T's Kind.
func NewVariant[T imgtype.Numeric](img *image.Image[T]) Variant {
	return Variant{kind: imgtype.KindOf[T](), img: img}
}

// Kind returns the element type the Variant's Image was built with.
func (v Variant) Kind() imgtype.Kind { return v.kind }

// As extracts the concrete *image.Image[T] from v, if v's Kind matches T.
func As[T imgtype.Numeric](v Variant) (*image.Image[T], error) {
	img, ok := v.img.(*image.Image[T])
	if !ok {
		return nil, fmt.Errorf("%w: variant holds %s, not %s", errs.ErrInvalidArgument, v.kind, imgtype.KindOf[T]())
	}

	return img, nil
}

// Width returns the underlying Image's width, regardless of its element
// type.
func (v Variant) Width() int { return v.img.Width() }

// Height returns the underlying Image's height, regardless of its element
// type.
func (v Variant) Height() int { return v.img.Height() }

// NumChannels returns the underlying Image's channel count.
func (v Variant) NumChannels() int { return v.img.NumChannels() }

// CompressionRatio returns the underlying Image's compression ratio.
func (v Variant) CompressionRatio() float64 { return v.img.CompressionRatio() }

// UpdateThreads fans out a worker-pool resize to every channel of the
// underlying Image.
func (v Variant) UpdateThreads(threads int, blockSize int) error {
	return v.img.UpdateThreads(threads, blockSize)
}

// ChannelNames returns the underlying Image's channel names.
func (v Variant) ChannelNames() []string { return v.img.ChannelNames() }

// GetChannelOffset returns the index of the channel named name.
func (v Variant) GetChannelOffset(name string) (int, error) { return v.img.GetChannelOffset(name) }

// Metadata returns the underlying Image's metadata.
func (v Variant) Metadata() *image.Metadata { return v.img.Metadata() }
