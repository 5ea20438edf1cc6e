//go:build unix

package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/danmuck/ringlink/internal/client"
	"github.com/danmuck/ringlink/internal/config"
	"github.com/danmuck/ringlink/internal/portman"
	"github.com/danmuck/ringlink/internal/ring"
	"github.com/danmuck/ringlink/internal/ringmaster"
	"github.com/danmuck/ringlink/internal/testutil/fakes"
	"github.com/danmuck/ringlink/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type failingPutter struct{ after int }

func (f *failingPutter) Put(_ context.Context, data []byte) (int, error) {
	if f.after <= 0 {
		return 0, ring.ErrSlotLost
	}
	f.after--
	return len(data), nil
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestCopyIntoStopsOnPutError(t *testing.T) {
	src := bytes.NewReader(bytes.Repeat([]byte{1}, 3*readBuffer))
	total, err := copyInto(context.Background(), &failingPutter{after: 1}, src)
	require.ErrorIs(t, err, ring.ErrSlotLost)
	require.EqualValues(t, readBuffer, total)
}

func TestCopyIntoReportsReadError(t *testing.T) {
	_, err := copyInto(context.Background(), &failingPutter{after: 1}, errReader{})
	require.ErrorContains(t, err, "broken pipe")
}

func TestRunCopiesStdinUntilEOF(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	r, err := ring.Create(filepath.Join(dir, "events"), 16*1024, 2)
	require.NoError(t, err)
	defer r.Close()
	c, err := r.AttachConsumer()
	require.NoError(t, err)

	reg := fakes.NewRegistrar(t, "OK")
	pm := fakes.NewPortManager(t, fakes.PortEntry{Port: reg.Port(), Service: portman.RegistrarService, User: "daq"})

	cfg := client.DefaultConfig()
	cfg.Directory = dir
	cfg.Ring = "events"
	cfg.Portman = portman.Config{Host: "127.0.0.1", Port: pm.Port()}
	cfg.Registrar = ringmaster.Config{PID: 91}

	// Larger than the ring, so the producer has to wait on the reader.
	want := bytes.Repeat([]byte("0123456789abcdef"), 8*1024)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var got []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return run(gctx, config.File{Client: cfg}, bytes.NewReader(want)) })
	g.Go(func() error {
		buf := make([]byte, 4096)
		for len(got) < len(want) {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := c.TimedGet(buf, 10*time.Millisecond)
			if err != nil && !errors.Is(err, ring.ErrTimeout) {
				return err
			}
			got = append(got, buf[:n]...)
		}
		return nil
	})
	require.NoError(t, g.Wait())
	require.Equal(t, want, got)
	require.Equal(t, []string{"CONNECT events producer 91"}, reg.Requests())

	st, err := r.Status()
	require.NoError(t, err)
	require.Zero(t, st.ProducerPID)
}
