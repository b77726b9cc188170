package websocket

import (
	"net"
	"net/http"
	"sync"

	ws "github.com/gorilla/websocket"
)

// 确保实现接口
var _ net.Listener = (*listener)(nil)

// listener 将 HTTP 升级请求转换为 net.Listener
type listener struct {
	inner    net.Listener
	server   *http.Server
	upgrader ws.Upgrader

	incoming chan net.Conn
	closed   chan struct{}
	once     sync.Once
}

func newListener(inner net.Listener) *listener {
	l := &listener{
		inner: inner,
		upgrader: ws.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// 允许任意 Origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
		incoming: make(chan net.Conn),
		closed:   make(chan struct{}),
	}
	l.server = &http.Server{Handler: l}
	go l.server.Serve(inner)
	return l
}

// ServeHTTP 升级请求并交给 Accept
func (l *listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade 已写入 HTTP 错误响应
		return
	}

	select {
	case l.incoming <- NewConn(c):
	case <-l.closed:
		c.Close()
	}
}

func (l *listener) Accept() (net.Conn, error) {
	select {
	case c := <-l.incoming:
		return c, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.closed)
		err = l.server.Close()
	})
	return err
}

func (l *listener) Addr() net.Addr {
	return l.inner.Addr()
}
