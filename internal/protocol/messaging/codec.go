package messaging

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/multiformats/go-varint"
)

// MaxMessageSize 默认最大帧长度（1 MiB）
const MaxMessageSize = 1 << 20

// WriteFrame 写入一帧
//
// 长度前缀与内容合并为一次写入。
func WriteFrame(w io.Writer, payload []byte) error {
	prefix := varint.ToUvarint(uint64(len(payload)))
	buf := make([]byte, 0, len(prefix)+len(payload))
	buf = append(buf, prefix...)
	buf = append(buf, payload...)

	_, err := w.Write(buf)
	return err
}

// FrameReader 从流中按序读取帧
type FrameReader struct {
	r   *bufio.Reader
	max int
}

// NewFrameReader 创建帧读取器，max <= 0 时使用 MaxMessageSize
func NewFrameReader(r io.Reader, max int) *FrameReader {
	if max <= 0 {
		max = MaxMessageSize
	}
	return &FrameReader{r: bufio.NewReader(r), max: max}
}

// ReadFrame 读取下一帧
//
// 在帧边界上遇到流结束返回 io.EOF。每次返回新分配的切片，调用方拥有其所有权。
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	n, err := varint.ReadUvarint(fr.r)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, varint.ErrOverflow),
		errors.Is(err, varint.ErrNotMinimal):
		return nil, fmt.Errorf("%w: length prefix: %w", ErrMalformedFrame, err)
	default:
		return nil, err
	}

	if n > uint64(fr.max) {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrMessageTooLarge, n, fr.max)
	}

	frame := make([]byte, n)
	if _, err := io.ReadFull(fr.r, frame); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: truncated after %d bytes", ErrMalformedFrame, n)
		}
		return nil, err
	}
	return frame, nil
}

// DecodeText 校验帧是否为合法文本
func DecodeText(frame []byte) error {
	if !utf8.Valid(frame) {
		return ErrInvalidText
	}
	return nil
}
