package relay

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	goproxy "golang.org/x/net/proxy"
)

// DefaultHandshakeTimeout bounds the websocket handshake when the context has no deadline
const DefaultHandshakeTimeout = 15 * time.Second

// NewDialer returns a websocket dialer for relay connections.
// When proxyAddr is set, connections to public hosts go through that SOCKS5
// proxy while loopback, private and link-local hosts are dialed directly.
func NewDialer(proxyAddr string) *websocket.Dialer {
	d := &websocket.Dialer{
		HandshakeTimeout:  DefaultHandshakeTimeout,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		EnableCompression: true,
	}
	if proxyAddr != "" {
		d.NetDialContext = proxyDialContext(proxyAddr)
	}
	return d
}

func proxyDialContext(proxyAddr string) func(ctx context.Context, network, addr string) (net.Conn, error) {
	socks := &socksContextDialer{addr: proxyAddr}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		if isLocalHost(host) {
			d := &net.Dialer{}
			return d.DialContext(ctx, network, addr)
		}
		return socks.DialContext(ctx, network, addr)
	}
}

// socksContextDialer dials through a SOCKS5 proxy honoring the context deadline
type socksContextDialer struct{ addr string }

func (d *socksContextDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	var timeout time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	base := &net.Dialer{Timeout: timeout}
	socksDialer, err := goproxy.SOCKS5("tcp", d.addr, nil, base)
	if err != nil {
		return nil, err
	}
	if cd, ok := socksDialer.(goproxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}
	return socksDialer.Dial(network, address)
}

func isLocalHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// NormalizeURL validates a relay address and returns it in canonical form
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", &url.Error{Op: "parse", URL: raw, Err: errUnsupportedScheme}
	}
	if u.Host == "" {
		return "", &url.Error{Op: "parse", URL: raw, Err: errMissingHost}
	}
	u.Host = strings.ToLower(u.Host)
	if u.Path == "/" {
		u.Path = ""
	}
	return u.String(), nil
}
