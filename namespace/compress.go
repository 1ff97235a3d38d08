// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionTag identifies the algorithm applied to a frame payload.
// The tag is the first byte of every frame message — a wire constant.
type CompressionTag uint8

const (
	// CompressionNone carries raw pixels. Fallback for frames that do
	// not shrink (noise-like content).
	CompressionNone CompressionTag = 0

	// CompressionLZ4 is the child's default: block-mode LZ4, cheap
	// enough to run per frame.
	CompressionLZ4 CompressionTag = 1

	// CompressionZstd trades CPU for ratio. Accepted by the parent;
	// the stock child never emits it.
	CompressionZstd CompressionTag = 2
)

// String returns the tag name.
func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

// zstd coders are reused across frames; both are safe for concurrent
// use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("namespace: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("namespace: zstd decoder initialization failed: " + err.Error())
	}
}

// errIncompressible reports that compression did not shrink the data.
var errIncompressible = errors.New("data is incompressible")

// encodeFrame builds a frame payload from raw pixels: tag byte plus
// compressed bytes. LZ4 first; incompressible frames go out raw.
func encodeFrame(pixels []byte) []byte {
	compressed, err := compressLZ4(pixels)
	if err != nil {
		payload := make([]byte, 1+len(pixels))
		payload[0] = byte(CompressionNone)
		copy(payload[1:], pixels)
		return payload
	}
	payload := make([]byte, 1+len(compressed))
	payload[0] = byte(CompressionLZ4)
	copy(payload[1:], compressed)
	return payload
}

// decodeFrame recovers raw pixels from a frame payload. The pixel
// count is fixed by the hello geometry; a mismatch is an error.
func decodeFrame(payload []byte, pixelBytes int) ([]byte, error) {
	if len(payload) < 1 {
		return nil, errors.New("empty frame payload")
	}
	tag := CompressionTag(payload[0])
	data := payload[1:]

	switch tag {
	case CompressionNone:
		if len(data) != pixelBytes {
			return nil, fmt.Errorf("raw frame is %d bytes, want %d", len(data), pixelBytes)
		}
		return data, nil
	case CompressionLZ4:
		return decompressLZ4(data, pixelBytes)
	case CompressionZstd:
		return decompressZstd(data, pixelBytes)
	default:
		return nil, fmt.Errorf("unknown compression tag %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	destination := make([]byte, lz4.CompressBlockBound(len(data)))
	written, err := lz4.CompressBlock(data, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input; a result no
	// smaller than the input is not worth the decode cost either.
	if written == 0 || written >= len(data) {
		return nil, errIncompressible
	}
	return destination[:written], nil
}

func decompressLZ4(compressed []byte, uncompressedSize int) ([]byte, error) {
	destination := make([]byte, uncompressedSize)
	read, err := lz4.UncompressBlock(compressed, destination)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if read != uncompressedSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", read, uncompressedSize)
	}
	return destination, nil
}

func decompressZstd(compressed []byte, uncompressedSize int) ([]byte, error) {
	result, err := zstdDecoder.DecodeAll(compressed, make([]byte, 0, uncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(result) != uncompressedSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(result), uncompressedSize)
	}
	return result, nil
}
