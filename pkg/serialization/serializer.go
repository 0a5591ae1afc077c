// Package serialization provides the codec + compression pipeline used by
// the persistent flow repositories.
// PRINCIPLES:
// - KISS: Simple interface with multiple codec implementations
// - ISP: Codec stays at three methods
package serialization

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes values to bytes and back.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Name() string
}

// CompressionType selects the compression applied after encoding.
type CompressionType string

const (
	CompressionNone CompressionType = "none"
	CompressionGzip CompressionType = "gzip"
	CompressionZstd CompressionType = "zstd"
)

// Serializer runs encode-then-compress on the way in and the reverse on
// the way out.
type Serializer struct {
	codec       Codec
	compression CompressionType
}

// NewSerializer creates a serializer from a codec and compression choice.
func NewSerializer(codec Codec, compression CompressionType) *Serializer {
	return &Serializer{codec: codec, compression: compression}
}

// DefaultSerializer returns the configuration used by the built-in
// repositories: MessagePack encoding with zstd compression.
func DefaultSerializer() *Serializer {
	return NewSerializer(NewMsgPackCodec(), CompressionZstd)
}

// Serialize encodes and compresses a value.
func (s *Serializer) Serialize(v any) ([]byte, error) {
	data, err := s.codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("codec encoding failed: %w", err)
	}
	data, err = s.compress(data)
	if err != nil {
		return nil, fmt.Errorf("compression failed: %w", err)
	}
	return data, nil
}

// Deserialize decompresses and decodes into v.
func (s *Serializer) Deserialize(data []byte, v any) error {
	data, err := s.decompress(data)
	if err != nil {
		return fmt.Errorf("decompression failed: %w", err)
	}
	if err := s.codec.Decode(data, v); err != nil {
		return fmt.Errorf("codec decoding failed: %w", err)
	}
	return nil
}

func (s *Serializer) compress(data []byte) ([]byte, error) {
	switch s.compression {
	case CompressionGzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	default:
		return data, nil
	}
}

func (s *Serializer) decompress(data []byte) ([]byte, error) {
	switch s.compression {
	case CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(data, nil)
	default:
		return data, nil
	}
}

// JSONCodec implements JSON serialization
type JSONCodec struct{}

func (c *JSONCodec) Encode(v any) ([]byte, error)    { return json.Marshal(v) }
func (c *JSONCodec) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }
func (c *JSONCodec) Name() string                    { return "json" }

// MsgPackCodec implements MessagePack serialization
type MsgPackCodec struct{}

func (c *MsgPackCodec) Encode(v any) ([]byte, error)    { return msgpack.Marshal(v) }
func (c *MsgPackCodec) Decode(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
func (c *MsgPackCodec) Name() string                    { return "msgpack" }

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() Codec { return &JSONCodec{} }

// NewMsgPackCodec creates a new MessagePack codec
func NewMsgPackCodec() Codec { return &MsgPackCodec{} }
