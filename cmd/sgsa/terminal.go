package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// keyboard puts stdin in raw mode and forwards typed bytes on Keys.
type keyboard struct {
	Keys chan byte

	stopCh   chan struct{}
	done     chan struct{}
	stopped  sync.Once
	fd       int
	nonblock bool
	oldState *term.State
}

func newKeyboard() *keyboard {
	return &keyboard{
		Keys:   make(chan byte, 64),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (k *keyboard) Start() error {
	k.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(k.fd) {
		close(k.done)
		return fmt.Errorf("stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(k.fd)
	if err != nil {
		close(k.done)
		return fmt.Errorf("set raw mode: %w", err)
	}
	k.oldState = oldState
	if err := syscall.SetNonblock(k.fd, true); err != nil {
		_ = term.Restore(k.fd, k.oldState)
		k.oldState = nil
		close(k.done)
		return fmt.Errorf("set nonblocking stdin: %w", err)
	}
	k.nonblock = true

	go func() {
		defer close(k.done)
		buf := make([]byte, 1)
		for {
			select {
			case <-k.stopCh:
				return
			default:
			}
			n, err := syscall.Read(k.fd, buf)
			if n > 0 {
				select {
				case k.Keys <- buf[0]:
				default:
				}
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK || n == 0 {
				time.Sleep(2 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
		}
	}()
	return nil
}

// Stop ends the reader and restores the terminal.
func (k *keyboard) Stop() {
	k.stopped.Do(func() { close(k.stopCh) })
	<-k.done
	if k.nonblock {
		_ = syscall.SetNonblock(k.fd, false)
		k.nonblock = false
	}
	if k.oldState != nil {
		_ = term.Restore(k.fd, k.oldState)
		k.oldState = nil
	}
}

// crlfWriter restores carriage returns that raw mode stops the terminal
// from adding.
type crlfWriter struct {
	w   *os.File
	buf []byte
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	c.buf = c.buf[:0]
	for _, b := range p {
		if b == '\n' {
			c.buf = append(c.buf, '\r')
		}
		c.buf = append(c.buf, b)
	}
	if _, err := c.w.Write(c.buf); err != nil {
		return 0, err
	}
	return len(p), nil
}
