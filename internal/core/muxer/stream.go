package muxer

import (
	"sync"
	"time"

	"github.com/hashicorp/yamux"
)

// Stream 封装 yamux.Stream
type Stream struct {
	stream *yamux.Stream
	id     uint32

	writeOnce sync.Once
	closeOnce sync.Once
	onClose   func(uint32)
}

func newStream(s *yamux.Stream, onClose func(uint32)) *Stream {
	return &Stream{
		stream:  s,
		id:      s.StreamID(),
		onClose: onClose,
	}
}

// Read 从流中读取数据
func (s *Stream) Read(p []byte) (int, error) {
	return s.stream.Read(p)
}

// Write 向流写入数据
func (s *Stream) Write(p []byte) (int, error) {
	return s.stream.Write(p)
}

// ID 返回流 ID
func (s *Stream) ID() uint32 {
	return s.id
}

// CloseWrite 半关闭写端（发送 FIN），本端仍可读取
func (s *Stream) CloseWrite() error {
	var err error
	s.writeOnce.Do(func() {
		err = s.stream.Close()
	})
	return err
}

// CloseRead 关闭读端，后续读取立即返回超时错误
func (s *Stream) CloseRead() error {
	return s.stream.SetReadDeadline(time.Now())
}

// Close 释放读写两端，幂等
//
// 写端发送 FIN；读端立即停止，yamux 在 StreamCloseTimeout 后强制回收。
func (s *Stream) Close() error {
	err := s.CloseWrite()
	s.release()
	return err
}

// Reset 异常终止流
//
// 打断阻塞中的读写并释放流。
func (s *Stream) Reset() error {
	_ = s.stream.SetDeadline(time.Now())
	_ = s.CloseWrite()
	s.release()
	return nil
}

func (s *Stream) release() {
	s.closeOnce.Do(func() {
		_ = s.stream.SetReadDeadline(time.Now())
		if s.onClose != nil {
			s.onClose(s.id)
		}
	})
}

// SetDeadline 设置读写超时
func (s *Stream) SetDeadline(t time.Time) error {
	return s.stream.SetDeadline(t)
}

// SetReadDeadline 设置读超时
func (s *Stream) SetReadDeadline(t time.Time) error {
	return s.stream.SetReadDeadline(t)
}

// SetWriteDeadline 设置写超时
func (s *Stream) SetWriteDeadline(t time.Time) error {
	return s.stream.SetWriteDeadline(t)
}
