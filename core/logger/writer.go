package logger

import (
	"bufio"
	"io"
	"sync"
)

// asyncWriter moves log lines off the caller goroutine and fans them out to sinks.
type asyncWriter struct {
	queue   chan []byte
	flushCh chan chan error
	done    chan struct{}
	closeMu sync.Once

	out *bufio.Writer

	errMu sync.Mutex
	err   error
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	sinks := make([]io.Writer, 0, len(writers))
	for _, w := range writers {
		if w != nil {
			sinks = append(sinks, w)
		}
	}
	w := &asyncWriter{
		queue:   make(chan []byte, 256),
		flushCh: make(chan chan error),
		done:    make(chan struct{}),
		out:     bufio.NewWriterSize(io.MultiWriter(sinks...), bufSize),
	}
	go w.run()
	return w
}

func (w *asyncWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				w.record(w.out.Flush())
				return
			}
			if _, err := w.out.Write(line); err != nil {
				w.record(err)
				continue
			}
			// drain opportunistically before paying for a flush
			if len(w.queue) == 0 {
				w.record(w.out.Flush())
			}
		case ack := <-w.flushCh:
			w.drain()
			ack <- w.out.Flush()
		}
	}
}

func (w *asyncWriter) drain() {
	for {
		select {
		case line, ok := <-w.queue:
			if !ok {
				return
			}
			if _, err := w.out.Write(line); err != nil {
				w.record(err)
			}
		default:
			return
		}
	}
}

// Write copies p and queues it; it blocks when the queue is full rather than drop lines.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.lastErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.queue <- append([]byte(nil), p...)
	return nil
}

// Flush waits until everything queued so far reached the sinks.
func (w *asyncWriter) Flush() error {
	if err := w.lastErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	select {
	case w.flushCh <- ack:
		return <-ack
	case <-w.done:
		return w.lastErr()
	}
}

// Close drains the queue and returns the first write error seen.
func (w *asyncWriter) Close() error {
	w.closeMu.Do(func() { close(w.queue) })
	<-w.done
	return w.lastErr()
}

func (w *asyncWriter) lastErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

func (w *asyncWriter) record(err error) {
	if err == nil {
		return
	}
	w.errMu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.errMu.Unlock()
}
