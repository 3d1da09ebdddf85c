package cache

import (
	"errors"
	"fmt"

	gojson "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

const (
	formatPlain byte = 0
	formatZstd  byte = 1

	DefaultCompressThreshold = 1024
)

// PayloadCodec encodes values as JSON and zstd-compresses payloads at or above
// the threshold. The first byte of every payload records which form follows.
type PayloadCodec struct {
	threshold int
	enc       *zstd.Encoder
	dec       *zstd.Decoder
}

func NewPayloadCodec(threshold int) (*PayloadCodec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("payload codec: zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("payload codec: zstd decoder: %w", err)
	}
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}
	return &PayloadCodec{threshold: threshold, enc: enc, dec: dec}, nil
}

func (c *PayloadCodec) Encode(v any) ([]byte, error) {
	raw, err := gojson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("payload codec: marshal: %w", err)
	}
	if len(raw) < c.threshold {
		return append([]byte{formatPlain}, raw...), nil
	}
	out := make([]byte, 1, len(raw)/2+1)
	out[0] = formatZstd
	return c.enc.EncodeAll(raw, out), nil
}

func (c *PayloadCodec) Decode(data []byte, v any) error {
	if len(data) == 0 {
		return errors.New("payload codec: empty payload")
	}
	body := data[1:]
	switch data[0] {
	case formatPlain:
	case formatZstd:
		raw, err := c.dec.DecodeAll(body, nil)
		if err != nil {
			return fmt.Errorf("payload codec: decompress: %w", err)
		}
		body = raw
	default:
		return fmt.Errorf("payload codec: unknown format byte %d", data[0])
	}
	if err := gojson.Unmarshal(body, v); err != nil {
		return fmt.Errorf("payload codec: unmarshal: %w", err)
	}
	return nil
}
