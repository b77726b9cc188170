package host

import (
	"strconv"
	"sync"

	pkgif "github.com/g3tzkp/go-g3node/pkg/interfaces"
	"github.com/g3tzkp/go-g3node/pkg/types"
)

// stream 绑定了协议的流
type stream struct {
	pkgif.MuxedStream

	conn     *conn
	id       string
	dir      types.Direction
	protocol types.ProtocolID

	closeOnce sync.Once
}

var _ pkgif.Stream = (*stream)(nil)

func newStream(c *conn, ms pkgif.MuxedStream, dir types.Direction) *stream {
	return &stream{
		MuxedStream: ms,
		conn:        c,
		id:          c.id + "/" + strconv.FormatUint(c.host.nextID.Add(1), 10),
		dir:         dir,
	}
}

func (s *stream) ID() string                 { return s.id }
func (s *stream) Protocol() types.ProtocolID { return s.protocol }
func (s *stream) RemotePeer() types.NodeID   { return s.conn.RemotePeer() }

// Close 关闭读写两端，重复调用返回 nil
func (s *stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.MuxedStream.Close()
	})
	return err
}

// Reset 异常终止流
func (s *stream) Reset() error {
	err := s.MuxedStream.Reset()
	s.closeOnce.Do(func() {})
	return err
}
