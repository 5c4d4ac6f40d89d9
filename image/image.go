// Package image assembles an ordered set of channels of the same element
// type and dimensions into a single raster, per spec.md §4.6. It also hosts
// the bulk-read path (scanline.go) that builds an Image directly from an
// external scanline source without ever materializing the whole image in
// memory at once.
package image

import (
	"fmt"

	"github.com/blosc-go/cimage/channel"
	"github.com/blosc-go/cimage/errs"
	"github.com/blosc-go/cimage/imgtype"
)

// MetadataEntry is one key/value pair of an Image's metadata.
type MetadataEntry struct {
	Key   string
	Value any
}

// Metadata is an insertion-order-preserving map: original_source carries
// image metadata as nlohmann::ordered_json, and this module preserves that
// property rather than flattening it into a plain Go map, which has no
// iteration order guarantee.
type Metadata struct {
	entries []MetadataEntry
}

// Get returns the value stored under key, if any.
func (m *Metadata) Get(key string) (any, bool) {
	for _, e := range m.entries {
		if e.Key == key {
			return e.Value, true
		}
	}

	return nil, false
}

// Set stores value under key, preserving the position of an existing key or
// appending a new one at the end.
func (m *Metadata) Set(key string, value any) {
	for i, e := range m.entries {
		if e.Key == key {
			m.entries[i].Value = value

			return
		}
	}
	m.entries = append(m.entries, MetadataEntry{Key: key, Value: value})
}

// Delete removes key, if present.
func (m *Metadata) Delete(key string) {
	for i, e := range m.entries {
		if e.Key == key {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)

			return
		}
	}
}

// Entries returns the metadata's key/value pairs in insertion order. The
// returned slice must not be mutated.
func (m *Metadata) Entries() []MetadataEntry { return m.entries }

// Image is an ordered collection of same-shaped, same-typed Channels plus
// optional per-channel names and free-form metadata.
type Image[T imgtype.Numeric] struct {
	channels []*channel.Channel[T]
	names    []string
	metadata Metadata
	width    int
	height   int
}

func validateChannels[T imgtype.Numeric](channels []*channel.Channel[T]) (width, height int, err error) {
	if len(channels) == 0 {
		return 0, 0, fmt.Errorf("%w: image must have at least one channel", errs.ErrInvalidArgument)
	}

	width, height = channels[0].Width(), channels[0].Height()
	for i, c := range channels[1:] {
		if c.Width() != width || c.Height() != height {
			return 0, 0, fmt.Errorf("%w: channel %d is %dx%d, expected %dx%d", errs.ErrSizeMismatch, i+1, c.Width(), c.Height(), width, height)
		}
	}

	return width, height, nil
}

// FromChannels wraps already-built Channels into an Image, in the given
// order. If names is non-empty its length must equal len(channels);
// otherwise spec.md §4.6 calls for dropping mismatched names with a
// warning rather than failing, so this constructor does the same and
// proceeds with no names instead. logger receives that warning, if any; it
// defaults to a no-op when omitted or nil (unlike channel.WithLogger, which
// rejects a nil logger).
func FromChannels[T imgtype.Numeric](channels []*channel.Channel[T], names []string, logger ...func(string)) (*Image[T], error) {
	width, height, err := validateChannels(channels)
	if err != nil {
		return nil, err
	}

	if len(names) != 0 && len(names) != len(channels) {
		log := func(string) {}
		if len(logger) > 0 && logger[0] != nil {
			log = logger[0]
		}
		log(fmt.Sprintf("%d channel names for %d channels, dropping names", len(names), len(channels)))
		names = nil
	}

	return &Image[T]{channels: channels, names: names, width: width, height: height}, nil
}

// FromBuffers compresses one Channel per input buffer (each exactly
// width*height elements, in scanline order) and assembles them into an
// Image. opts apply uniformly to every channel.
func FromBuffers[T imgtype.Numeric](buffers [][]T, width, height int, names []string, opts ...channel.Option) (*Image[T], error) {
	if len(buffers) == 0 {
		return nil, fmt.Errorf("%w: image must have at least one channel", errs.ErrInvalidArgument)
	}

	cfg, err := channel.BuildConfig(opts)
	if err != nil {
		return nil, err
	}

	channels := make([]*channel.Channel[T], len(buffers))
	for i, buf := range buffers {
		ch, err := channel.FromData(buf, width, height, opts...)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		channels[i] = ch
	}

	return FromChannels(channels, names, cfg.Logger)
}

// NumChannels returns the number of channels in the image.
func (img *Image[T]) NumChannels() int { return len(img.channels) }

// Width returns the image's width in elements, shared by every channel.
func (img *Image[T]) Width() int { return img.width }

// Height returns the image's height in elements, shared by every channel.
func (img *Image[T]) Height() int { return img.height }

// Channel returns the channel at index i.
func (img *Image[T]) Channel(i int) (*channel.Channel[T], error) {
	if i < 0 || i >= len(img.channels) {
		return nil, fmt.Errorf("%w: channel index %d, have %d channels", errs.ErrIndexOutOfRange, i, len(img.channels))
	}

	return img.channels[i], nil
}

// ChannelByName returns the channel named name.
func (img *Image[T]) ChannelByName(name string) (*channel.Channel[T], error) {
	i, err := img.GetChannelOffset(name)
	if err != nil {
		return nil, err
	}

	return img.channels[i], nil
}

// Channels returns every channel, in image order. The returned slice must
// not be mutated.
func (img *Image[T]) Channels() []*channel.Channel[T] { return img.channels }

// ChannelsAt returns the channels at indices, in the order requested.
func (img *Image[T]) ChannelsAt(indices ...int) ([]*channel.Channel[T], error) {
	out := make([]*channel.Channel[T], len(indices))
	for i, idx := range indices {
		c, err := img.Channel(idx)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}

	return out, nil
}

// ChannelsNamed returns the channels named names, in the order requested.
func (img *Image[T]) ChannelsNamed(names ...string) ([]*channel.Channel[T], error) {
	out := make([]*channel.Channel[T], len(names))
	for i, name := range names {
		c, err := img.ChannelByName(name)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}

	return out, nil
}

// GetChannelOffset returns the index of the channel named name, or fails
// with ErrUnknownName.
func (img *Image[T]) GetChannelOffset(name string) (int, error) {
	for i, n := range img.names {
		if n == name {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errs.ErrUnknownName, name)
}

// AddChannel appends ch to the image. name is ignored (per spec.md §4.6)
// unless the image already has channel names assigned, in which case it is
// required and must be unique.
func (img *Image[T]) AddChannel(ch *channel.Channel[T], name string) error {
	if ch.Width() != img.width || ch.Height() != img.height {
		return fmt.Errorf("%w: new channel is %dx%d, image is %dx%d", errs.ErrSizeMismatch, ch.Width(), ch.Height(), img.width, img.height)
	}

	if len(img.names) != 0 {
		if name == "" {
			return fmt.Errorf("%w: image has channel names, a name is required", errs.ErrInvalidArgument)
		}
		if _, err := img.GetChannelOffset(name); err == nil {
			return fmt.Errorf("%w: channel name %q already in use", errs.ErrInvalidArgument, name)
		}
		img.names = append(img.names, name)
	}

	img.channels = append(img.channels, ch)

	return nil
}

// RemoveChannel removes the channel at index i.
func (img *Image[T]) RemoveChannel(i int) error {
	if i < 0 || i >= len(img.channels) {
		return fmt.Errorf("%w: channel index %d, have %d channels", errs.ErrIndexOutOfRange, i, len(img.channels))
	}

	img.channels = append(img.channels[:i], img.channels[i+1:]...)
	if len(img.names) != 0 {
		img.names = append(img.names[:i], img.names[i+1:]...)
	}

	return nil
}

// RemoveChannelByName removes the channel named name.
func (img *Image[T]) RemoveChannelByName(name string) error {
	i, err := img.GetChannelOffset(name)
	if err != nil {
		return err
	}

	return img.RemoveChannel(i)
}

// ExtractChannel removes the channel at index i and returns it, transferring
// ownership to the caller.
func (img *Image[T]) ExtractChannel(i int) (*channel.Channel[T], error) {
	ch, err := img.Channel(i)
	if err != nil {
		return nil, err
	}
	if err := img.RemoveChannel(i); err != nil {
		return nil, err
	}

	return ch, nil
}

// ChannelNames returns the image's channel names, or nil if none are set.
// The returned slice must not be mutated.
func (img *Image[T]) ChannelNames() []string { return img.names }

// SetChannelNames assigns names to the image's channels. Its length must
// equal NumChannels.
func (img *Image[T]) SetChannelNames(names []string) error {
	if len(names) != len(img.channels) {
		return fmt.Errorf("%w: %d names, %d channels", errs.ErrSizeMismatch, len(names), len(img.channels))
	}

	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return fmt.Errorf("%w: duplicate channel name %q", errs.ErrInvalidArgument, n)
		}
		seen[n] = struct{}{}
	}

	img.names = names

	return nil
}

// Metadata returns the image's metadata.
func (img *Image[T]) Metadata() *Metadata { return &img.metadata }

// SetMetadata replaces the image's metadata wholesale.
func (img *Image[T]) SetMetadata(m Metadata) { img.metadata = m }

// GetDecompressed decompresses every channel, returning one contiguous
// slice per channel in image order.
func (img *Image[T]) GetDecompressed() ([][]T, error) {
	out := make([][]T, len(img.channels))
	for i, c := range img.channels {
		data, err := c.GetDecompressed()
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", i, err)
		}
		out[i] = data
	}

	return out, nil
}

// CompressionRatio returns uncompressed_bytes / compressed_bytes summed
// over every channel. Returns 0 if the image has no channels or they are
// all empty.
func (img *Image[T]) CompressionRatio() float64 {
	var uncompressed, compressed int64
	elemSize := int64(imgtype.ElemSize[T]())

	for _, c := range img.channels {
		uncompressed += int64(c.UncompressedSize()) * elemSize
		compressed += int64(c.CompressedBytes())
	}

	if compressed == 0 {
		return 0
	}

	return float64(uncompressed) / float64(compressed)
}

// UpdateThreads fans out a worker-pool resize to every channel, reporting
// blockSize as each channel's intra-chunk block size from then on.
func (img *Image[T]) UpdateThreads(threads int, blockSize int) error {
	for i, c := range img.channels {
		if err := c.UpdateThreads(threads, blockSize); err != nil {
			return fmt.Errorf("channel %d: %w", i, err)
		}
	}

	return nil
}
