package quic

import (
	"sync"
	"time"

	"github.com/quic-go/quic-go"

	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
)

// resetErrorCode 流被 Reset 时使用的错误码
const resetErrorCode quic.StreamErrorCode = 0

// 确保实现接口
var _ pkgif.MuxedStream = (*Stream)(nil)

// Stream QUIC 流封装
type Stream struct {
	qs   *quic.Stream
	conn *Conn

	writeOnce sync.Once
	writeErr  error
	doneOnce  sync.Once
}

func newStream(qs *quic.Stream, conn *Conn) *Stream {
	return &Stream{qs: qs, conn: conn}
}

// Read 从流中读取数据
func (s *Stream) Read(p []byte) (int, error) {
	return s.qs.Read(p)
}

// Write 向流写入数据
func (s *Stream) Write(p []byte) (int, error) {
	return s.qs.Write(p)
}

// CloseWrite 发送 FIN，对端读到 EOF
func (s *Stream) CloseWrite() error {
	s.writeOnce.Do(func() {
		s.writeErr = s.qs.Close()
	})
	return s.writeErr
}

// CloseRead 停止接收
func (s *Stream) CloseRead() error {
	s.qs.CancelRead(resetErrorCode)
	return nil
}

// Close 半关闭写端并停止接收，幂等
func (s *Stream) Close() error {
	err := s.CloseWrite()
	s.qs.CancelRead(resetErrorCode)
	s.done()
	return err
}

// Reset 异常终止两个方向
func (s *Stream) Reset() error {
	s.writeOnce.Do(func() {})
	s.qs.CancelWrite(resetErrorCode)
	s.qs.CancelRead(resetErrorCode)
	s.done()
	return nil
}

func (s *Stream) done() {
	s.doneOnce.Do(func() {
		s.conn.streams.Add(-1)
	})
}

// ID 返回 QUIC 流 ID
func (s *Stream) ID() int64 {
	return int64(s.qs.StreamID())
}

func (s *Stream) SetDeadline(t time.Time) error      { return s.qs.SetDeadline(t) }
func (s *Stream) SetReadDeadline(t time.Time) error  { return s.qs.SetReadDeadline(t) }
func (s *Stream) SetWriteDeadline(t time.Time) error { return s.qs.SetWriteDeadline(t) }
