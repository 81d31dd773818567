// Package share turns boards into URL-safe tokens and back.
//
// A token is base64url(zstd(json(tiles))). Tokens carry no signature; anyone
// can forge or edit one, so Decode only guarantees the result is a
// structurally valid board.
package share

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"hexboard.app/internal/board"
	"hexboard.app/internal/schemas"
)

const (
	// MaxTokenLen bounds the token accepted by Decode.
	MaxTokenLen = 16 * 1024
	// MaxDecodedSize bounds the decompressed JSON.
	MaxDecodedSize = 64 * 1024
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

var ErrEmptyToken = errors.New("empty token")

// DecodeError reports why a token could not be turned into a board.
type DecodeError struct {
	Stage string // token, base64, zstd, json, schema, board
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode share token (%s): %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type Options struct {
	// Compress wraps the JSON in a zstd frame before base64. Decode accepts
	// both forms regardless.
	Compress bool
}

type Codec struct {
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

func NewCodec(opts Options) (*Codec, error) {
	// Single-threaded encoder at a fixed level keeps output byte-identical
	// for identical input.
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(MaxDecodedSize),
	)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Codec{compress: opts.Compress, enc: enc, dec: dec}, nil
}

func (c *Codec) Close() {
	_ = c.enc.Close()
	c.dec.Close()
}

// Encode validates b and returns its share token.
func (c *Codec) Encode(b board.Board) (string, error) {
	if err := b.Validate(); err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("encode: %w", err)
	}
	if c.compress {
		raw = c.enc.EncodeAll(raw, make([]byte, 0, len(raw)))
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Decode reverses Encode. It also accepts the older uncompressed tokens,
// including standard-alphabet base64 with padding. Every failure is a
// *DecodeError.
func (c *Codec) Decode(token string) (board.Board, error) {
	if token == "" {
		return nil, &DecodeError{Stage: "token", Err: ErrEmptyToken}
	}
	if len(token) > MaxTokenLen {
		return nil, &DecodeError{Stage: "token", Err: fmt.Errorf("token longer than %d bytes", MaxTokenLen)}
	}
	raw, err := decodeBase64(token)
	if err != nil {
		return nil, &DecodeError{Stage: "base64", Err: err}
	}
	if bytes.HasPrefix(raw, zstdMagic) {
		raw, err = c.dec.DecodeAll(raw, nil)
		if err != nil {
			return nil, &DecodeError{Stage: "zstd", Err: err}
		}
		if len(raw) > MaxDecodedSize {
			return nil, &DecodeError{Stage: "zstd", Err: fmt.Errorf("decoded size %d exceeds %d", len(raw), MaxDecodedSize)}
		}
	}
	return parseTiles(raw)
}

func parseTiles(raw []byte) (board.Board, error) {
	s, err := schemas.Tiles()
	if err != nil {
		return nil, &DecodeError{Stage: "schema", Err: err}
	}
	if err := schemas.ValidateJSON(s, raw); err != nil {
		return nil, &DecodeError{Stage: "schema", Err: err}
	}
	var b board.Board
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, &DecodeError{Stage: "json", Err: err}
	}
	if err := b.Validate(); err != nil {
		return nil, &DecodeError{Stage: "board", Err: err}
	}
	return b, nil
}

var encodings = []*base64.Encoding{
	base64.RawURLEncoding,
	base64.URLEncoding,
	base64.StdEncoding,
	base64.RawStdEncoding,
}

func decodeBase64(token string) ([]byte, error) {
	var firstErr error
	for _, enc := range encodings {
		raw, err := enc.DecodeString(token)
		if err == nil {
			return raw, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

var (
	defaultOnce  sync.Once
	defaultCodec *Codec
	defaultErr   error
)

func def() (*Codec, error) {
	defaultOnce.Do(func() {
		defaultCodec, defaultErr = NewCodec(Options{Compress: true})
	})
	return defaultCodec, defaultErr
}

// Encode uses the package default codec (compression on).
func Encode(b board.Board) (string, error) {
	c, err := def()
	if err != nil {
		return "", err
	}
	return c.Encode(b)
}

// Decode uses the package default codec.
func Decode(token string) (board.Board, error) {
	c, err := def()
	if err != nil {
		return nil, &DecodeError{Stage: "token", Err: err}
	}
	return c.Decode(token)
}
