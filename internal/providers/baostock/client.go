package baostock

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/seenimoa/stockfusion/internal/session"
)

var errNotConnected = errors.New("baostock: not connected")

// Client is the TCP connection to the baostock server. It implements
// session.Transport: Open dials and logs in, Close logs out. Calls are
// serialized since the protocol carries no request ids.
type Client struct {
	address  string
	user     string
	password string
	timeout  time.Duration

	mu   sync.Mutex
	conn net.Conn
	rd   *bufio.Reader
}

// NewClient creates a client for address. It does not dial.
func NewClient(address, user, password string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{address: address, user: user, password: password, timeout: timeout}
}

// User returns the login user id sent with every query.
func (c *Client) User() string { return c.user }

// Open dials the server and logs in, replacing any stale connection.
func (c *Client) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()

	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.address, err)
	}
	c.conn, c.rd = conn, bufio.NewReader(conn)

	resp, err := c.exchangeLocked(ctx, msgLogin, "login", c.user, c.password, "0")
	if err == nil {
		err = checkStatus(resp)
	}
	if err != nil {
		c.closeLocked()
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// Close logs out and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	_, err := c.exchangeLocked(ctx, msgLogout, "logout", c.user, time.Now().Format("20060102150405"))
	c.closeLocked()
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Call sends one request and returns the response fields. An I/O failure
// drops the connection; the caller is expected to invalidate its session.
func (c *Client) Call(ctx context.Context, msgType string, fields ...string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, errNotConnected
	}

	resp, err := c.exchangeLocked(ctx, msgType, fields...)
	if err != nil {
		c.closeLocked()
		return nil, err
	}
	return resp, nil
}

func (c *Client) exchangeLocked(ctx context.Context, msgType string, fields ...string) ([]string, error) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}

	if _, err := c.conn.Write(encodeRequest(msgType, fields...)); err != nil {
		return nil, fmt.Errorf("write %s: %w", msgType, err)
	}
	_, resp, err := readResponse(c.rd)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", msgType, err)
	}
	return resp, nil
}

func (c *Client) closeLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn, c.rd = nil, nil
}

var _ session.Transport = (*Client)(nil)
