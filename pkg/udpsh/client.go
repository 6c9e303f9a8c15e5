// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package udpsh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"go.uber.org/zap"
)

// readBufferSize holds any UDP datagram, oversized ones are reported by the reassembler.
const readBufferSize = 64 * 1024

// Option to control the client.
type Option func(*Options)

// Options for the client.
type Options struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// WithTimeout sets the per-datagram receive timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// NewDefaultOptions builds options with specified setters applied.
func NewDefaultOptions(setters ...Option) Options {
	opt := Options{
		Timeout: DefaultTimeout,
	}

	for _, o := range setters {
		o(&opt)
	}

	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}

	return opt
}

// Client is a shell session.
//
// The session owns one connected UDP socket and the sequence number of the next command.
// Client is not safe for concurrent use.
type Client struct {
	opts Options
	addr string

	conn net.Conn
	seq  uint32
	buf  []byte
}

// NewClient creates a client for the shell at addr (host:port).
//
// The socket is created by Connect, or lazily by the first Execute.
func NewClient(addr string, setters ...Option) *Client {
	return &Client{
		opts: NewDefaultOptions(setters...),
		addr: addr,
		buf:  make([]byte, readBufferSize),
	}
}

// Addr returns the shell address.
func (c *Client) Addr() string {
	return c.addr
}

// Seq returns the sequence number of the next command.
func (c *Client) Seq() uint32 {
	return c.seq
}

// LocalAddr returns the local address of the socket, nil when not connected.
func (c *Client) LocalAddr() net.Addr {
	if c.conn == nil {
		return nil
	}

	return c.conn.LocalAddr()
}

// Connect replaces the socket with a fresh one and resets the sequence number.
//
// The new socket is bound before the old one is released, so it never reuses the old local port.
// The old socket is closed even if dialing fails.
func (c *Client) Connect() error {
	conn, dialErr := net.Dial("udp", c.addr)

	if err := c.Close(); err != nil {
		c.opts.Logger.Debug("error closing socket", zap.Error(err))
	}

	c.seq = 0

	if dialErr != nil {
		return fmt.Errorf("error connecting to %s: %w", c.addr, dialErr)
	}

	c.conn = conn

	c.opts.Logger.Debug("connected", zap.String("addr", c.addr), zap.Stringer("local", conn.LocalAddr()))

	return nil
}

// Close the socket.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil

	return err
}

// Execute sends the command and streams the reply to out.
//
// The sequence number is advanced only after the whole reply is received.
// On any failure the session is reconnected and the command is dropped.
func (c *Client) Execute(ctx context.Context, cmd string, out io.Writer) error {
	request, err := MarshalCommand(c.seq, cmd)
	if err != nil {
		return err
	}

	if c.conn == nil {
		if err = c.Connect(); err != nil {
			return err
		}
	}

	if err = c.exchange(ctx, request, out); err != nil {
		c.opts.Logger.Warn("command failed, reconnecting", zap.Uint32("seq", c.seq), zap.Error(err))

		if connErr := c.Connect(); connErr != nil {
			return errors.Join(err, connErr)
		}

		return err
	}

	c.seq++

	return nil
}

func (c *Client) exchange(ctx context.Context, request []byte, out io.Writer) error {
	conn := c.conn

	stop := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Now()) //nolint:errcheck
	})
	defer stop()

	if _, err := conn.Write(request); err != nil {
		return fmt.Errorf("error sending command: %w", err)
	}

	r := NewReassembler(c.seq)

	for !r.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := conn.SetReadDeadline(time.Now().Add(c.opts.Timeout)); err != nil {
			return err
		}

		// cancellation might have fired before the deadline was pushed back
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := conn.Read(c.buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			if errors.Is(err, os.ErrDeadlineExceeded) {
				return ErrTimeout
			}

			return fmt.Errorf("error receiving reply: %w", err)
		}

		payload, accepted, err := r.Feed(c.buf[:n])
		if err != nil {
			return err
		}

		if !accepted {
			c.opts.Logger.Debug("ignored datagram", zap.Int("size", n), zap.Uint16("expected_chunk", r.Expected()))

			continue
		}

		if len(payload) == 0 {
			continue
		}

		if _, err = out.Write(payload); err != nil {
			return err
		}
	}

	return nil
}
