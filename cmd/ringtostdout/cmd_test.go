//go:build unix

package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/ringlink/internal/cli"
	"github.com/danmuck/ringlink/internal/client"
	"github.com/danmuck/ringlink/internal/config"
	"github.com/danmuck/ringlink/internal/errkind"
	"github.com/danmuck/ringlink/internal/portman"
	"github.com/danmuck/ringlink/internal/ring"
	"github.com/danmuck/ringlink/internal/ringmaster"
	"github.com/danmuck/ringlink/internal/testutil/fakes"
	"github.com/danmuck/ringlink/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRootRequiresRing(t *testing.T) {
	testlog.Start(t)
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"--directory", t.TempDir()})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	require.ErrorIs(t, cmd.Execute(), cli.ErrRingFlagRequired)
}

func TestRootRejectsMissingDirectory(t *testing.T) {
	testlog.Start(t)
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"-d", filepath.Join(t.TempDir(), "missing"), "-r", "events"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	require.ErrorIs(t, cmd.Execute(), cli.ErrNotDirectory)
}

func TestRootNoRegistrarExitCode(t *testing.T) {
	testlog.Start(t)
	pm := fakes.NewPortManager(t)
	dir := t.TempDir()
	r, err := ring.Create(filepath.Join(dir, "events"), 4096, 2)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	code := cli.Execute(newRootCmd(&bytes.Buffer{}), []string{
		"-d", dir, "-r", "events", "-p", strconv.Itoa(int(pm.Port())),
	})
	require.Equal(t, 3, code)
}

func TestRunStreamsRingToStdout(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "events")
	r, err := ring.Create(path, 64*1024, 2)
	require.NoError(t, err)
	defer r.Close()

	reg := fakes.NewRegistrar(t, "OK")
	pm := fakes.NewPortManager(t, fakes.PortEntry{Port: reg.Port(), Service: portman.RegistrarService, User: "daq"})

	cfg := client.DefaultConfig()
	cfg.Directory = dir
	cfg.Ring = "events"
	cfg.Comment = "test run"
	cfg.Portman = portman.Config{Host: "127.0.0.1", Port: pm.Port()}
	cfg.Registrar = ringmaster.Config{PID: 77}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- run(ctx, config.File{Client: cfg}, out) }()

	require.Eventually(t, func() bool { return len(reg.Requests()) == 1 }, 5*time.Second, time.Millisecond)
	require.Equal(t, "CONNECT events consumer.0 77", reg.Requests()[0])

	p, err := r.AttachProducer()
	require.NoError(t, err)
	want := bytes.Repeat([]byte("frame;"), 5000)
	_, err = p.Put(ctx, want)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return out.Len() == len(want) }, 5*time.Second, time.Millisecond)
	cancel()
	err = <-done
	require.True(t, errors.Is(err, context.Canceled), "unexpected exit: %v", err)
	require.Equal(t, string(want), out.String())
	require.NotEqual(t, 0, errkind.ExitCode(err))

	_, departed := reg.WaitDeparture(2 * time.Second)
	require.True(t, departed)
}
