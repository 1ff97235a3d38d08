// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package namespace

import (
	"bytes"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/casement/lib/clock"
	"github.com/bureau-foundation/casement/lib/metrics"
)

// terminateGrace is how long a child gets between SIGTERM and SIGKILL.
const terminateGrace = 5 * time.Second

// Options configures a nested-instance spawn.
type Options struct {
	// Binary is the service executable to re-invoke. Empty means the
	// current executable.
	Binary string

	// Width and Height are the pixel geometry the child renders.
	Width  int
	Height int

	// Logger receives mount diagnostics and the child's stdout/stderr.
	Logger *slog.Logger

	// Clock drives the unmount grace period. Nil means the real clock.
	Clock clock.Clock

	// OnFrame is called with the decompressed full-screen pixels of
	// each frame whose content differs from the previous one. It runs
	// on the mount's reader goroutine; the callback must do its own
	// locking.
	OnFrame func(pixels []byte)

	// OnConsole is called with console text from the child, on the
	// reader goroutine.
	OnConsole func(text string)
}

// Mount is a running nested instance: the child process and the
// parent's end of the socketpair.
type Mount struct {
	conn    net.Conn
	command *exec.Cmd
	logger  *slog.Logger
	clk     clock.Clock

	onFrame   func([]byte)
	onConsole func(string)

	// pixelBytes is the expected decompressed frame size, fixed by the
	// spawn geometry and checked against the child's hello.
	pixelBytes int

	// lastDigest deduplicates frames: a frame whose BLAKE3 digest
	// matches the previous one never reaches OnFrame.
	lastDigest [32]byte
	hasDigest  bool

	unmountOnce sync.Once

	// done closes when the reader loop exits.
	done chan struct{}
}

// SpawnNested creates a socketpair, starts the child with its end as
// fd 3, and begins reading framed updates. On any error the namespace
// stays unmounted: no process is left behind.
func SpawnNested(options Options) (*Mount, error) {
	if options.Width <= 0 || options.Height <= 0 {
		return nil, fmt.Errorf("bad nested geometry %dx%d", options.Width, options.Height)
	}
	binary := options.Binary
	if binary == "" {
		executable, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolving own executable: %w", err)
		}
		binary = executable
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}

	// fds[0] goes to the child as fd 3; fds[1] stays with the parent
	// and is converted to a net.Conn.
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, fmt.Errorf("creating socketpair: %w", err)
	}
	childFile := os.NewFile(uintptr(fds[0]), "nested-child")
	parentFile := os.NewFile(uintptr(fds[1]), "nested-parent")

	// FileConn dups the fd internally, so the original is closed here.
	parentConn, err := net.FileConn(parentFile)
	parentFile.Close()
	if err != nil {
		childFile.Close()
		return nil, fmt.Errorf("converting parent socket to net.Conn: %w", err)
	}

	command := exec.Command(binary,
		"--nested",
		fmt.Sprintf("--nested-width=%d", options.Width),
		fmt.Sprintf("--nested-height=%d", options.Height),
	)
	command.ExtraFiles = []*os.File{childFile} // becomes fd 3 in child
	command.Stdout = &lineWriter{logger: logger, stream: "stdout"}
	command.Stderr = &lineWriter{logger: logger, stream: "stderr"}

	if err := command.Start(); err != nil {
		parentConn.Close()
		childFile.Close()
		return nil, fmt.Errorf("starting nested instance %q: %w", binary, err)
	}

	// Close the child's end in the parent; the child has its own copy.
	childFile.Close()

	m := &Mount{
		conn:       parentConn,
		command:    command,
		logger:     logger.With("nested_pid", command.Process.Pid),
		clk:        clk,
		onFrame:    options.OnFrame,
		onConsole:  options.OnConsole,
		pixelBytes: options.Width * options.Height * 4,
		done:       make(chan struct{}),
	}
	metrics.RecordNestedMount()
	m.logger.Info("nested instance started", "width", options.Width, "height", options.Height)

	go m.readLoop()
	return m, nil
}

// Pid returns the child's process id.
func (m *Mount) Pid() int { return m.command.Process.Pid }

// ForwardInput ships raw input bytes to the child. Mouse and keyboard
// writes on a nested window pass through here verbatim.
func (m *Mount) ForwardInput(data []byte) error {
	if _, err := m.conn.Write(data); err != nil {
		return fmt.Errorf("forwarding input: %w", err)
	}
	return nil
}

// readLoop consumes framed updates until the channel breaks. The first
// message must be the hello.
func (m *Mount) readLoop() {
	defer close(m.done)

	messageType, payload, err := readMessage(m.conn)
	if err != nil {
		m.logger.Debug("nested channel closed before hello", "error", err)
		return
	}
	if messageType != msgHello {
		m.logger.Warn("nested child skipped hello", "type", messageType)
		return
	}
	hello, err := decodeHello(payload)
	if err != nil {
		m.logger.Warn("nested hello rejected", "error", err)
		return
	}
	if hello.Width*hello.Height*4 != m.pixelBytes {
		m.logger.Warn("nested child geometry mismatch",
			"width", hello.Width, "height", hello.Height)
		return
	}
	m.logger.Debug("nested hello received", "child_pid", hello.PID)

	for {
		messageType, payload, err := readMessage(m.conn)
		if err != nil {
			m.logger.Debug("nested channel closed", "error", err)
			return
		}
		switch messageType {
		case msgFrame:
			m.handleFrame(payload)
		case msgConsole:
			if m.onConsole != nil {
				m.onConsole(string(payload))
			}
		case msgHello:
			m.logger.Warn("nested child repeated hello")
			return
		default:
			m.logger.Warn("nested child sent unknown message", "type", messageType)
			return
		}
	}
}

func (m *Mount) handleFrame(payload []byte) {
	pixels, err := decodeFrame(payload, m.pixelBytes)
	if err != nil {
		m.logger.Warn("nested frame rejected", "error", err)
		return
	}
	digest := blake3.Sum256(pixels)
	deduplicated := m.hasDigest && digest == m.lastDigest
	metrics.RecordFrame(len(payload), deduplicated)
	if deduplicated {
		return
	}
	m.lastDigest = digest
	m.hasDigest = true
	if m.onFrame != nil {
		m.onFrame(pixels)
	}
}

// Unmount terminates the child and closes the channel. Safe to call
// more than once and from concurrent ctl writes; only the first call
// does work. SIGTERM first, SIGKILL after the grace period.
func (m *Mount) Unmount() {
	m.unmountOnce.Do(func() {
		m.conn.Close()
		m.command.Process.Signal(syscall.SIGTERM)

		exitChannel := make(chan error, 1)
		go func() { exitChannel <- m.command.Wait() }()
		select {
		case <-exitChannel:
		case <-m.clk.After(terminateGrace):
			m.logger.Warn("nested instance ignored SIGTERM, killing")
			m.command.Process.Kill()
			<-exitChannel
		}

		metrics.RecordNestedUnmount()
		m.logger.Info("nested instance stopped")
	})
}

// lineWriter adapts the child's stdout/stderr pipe into parent log
// records, one per line.
type lineWriter struct {
	logger *slog.Logger
	stream string
	buffer []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buffer = append(w.buffer, p...)
	for {
		i := bytes.IndexByte(w.buffer, '\n')
		if i < 0 {
			break
		}
		line := string(w.buffer[:i])
		w.buffer = w.buffer[i+1:]
		if line != "" {
			w.logger.Info("nested instance output", "stream", w.stream, "line", line)
		}
	}
	return len(p), nil
}
