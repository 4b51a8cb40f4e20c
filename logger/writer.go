package logger

import (
	"bufio"
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// asyncWriter decouples log emission from sink i/o: rendered lines are
// queued and a single goroutine fans them out to every sink. The first
// write error is sticky and reported from every later call.
type asyncWriter struct {
	lines chan []byte
	flush chan chan error
	done  chan struct{}
	stop  sync.Once

	mu    sync.Mutex
	sinks []*bufio.Writer

	err atomic.Pointer[error]
}

func newAsyncWriter(writers []io.Writer, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	w := &asyncWriter{
		lines: make(chan []byte, 256),
		flush: make(chan chan error),
		done:  make(chan struct{}),
	}
	for _, out := range writers {
		if out == nil {
			continue
		}
		w.sinks = append(w.sinks, bufio.NewWriterSize(out, bufSize))
	}
	go w.pump()
	return w
}

func (w *asyncWriter) pump() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				w.recordErr(w.flushSinks())
				return
			}
			if len(line) > 0 {
				w.recordErr(w.fanOut(line))
			}
		case ack := <-w.flush:
			ack <- w.flushSinks()
		}
	}
}

// Write queues one rendered line. When the queue is full it blocks rather
// than dropping the line.
func (w *asyncWriter) Write(p []byte) error {
	if err := w.loadErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	w.lines <- append([]byte(nil), p...)
	return nil
}

// Flush forces buffered content out to every sink and waits for the result.
func (w *asyncWriter) Flush() error {
	if err := w.loadErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	select {
	case w.flush <- ack:
		return <-ack
	case <-w.done:
		return w.loadErr()
	}
}

// Close drains the queue, flushes the sinks, and reports the first error.
func (w *asyncWriter) Close() error {
	w.stop.Do(func() {
		close(w.lines)
	})
	<-w.done
	return w.loadErr()
}

func (w *asyncWriter) fanOut(line []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sink := range w.sinks {
		if _, err := sink.Write(line); err != nil {
			return err
		}
		if err := sink.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushSinks() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) loadErr() error {
	if p := w.err.Load(); p != nil {
		return *p
	}
	return nil
}

func (w *asyncWriter) recordErr(err error) {
	if err == nil {
		return
	}
	w.err.CompareAndSwap(nil, &err)
}
