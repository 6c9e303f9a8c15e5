// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package udpsh_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/nanofs/pkg/udpsh"
)

type fakeExecutor struct {
	commands []string
	cancel   context.CancelFunc
}

func (e *fakeExecutor) Execute(ctx context.Context, cmd string, out io.Writer) error {
	e.commands = append(e.commands, cmd)

	if cmd == "fail" {
		return udpsh.ErrTimeout
	}

	if cmd == "stop" {
		e.cancel()

		return ctx.Err()
	}

	_, err := fmt.Fprintf(out, "ran %s\n", cmd)

	return err
}

func TestInteract(t *testing.T) {
	t.Parallel()

	var (
		exec        fakeExecutor
		out, errOut bytes.Buffer
	)

	in := strings.NewReader("ls\n\n   \nfail\nps aux\n")

	require.NoError(t, udpsh.Interact(context.Background(), &exec, in, &out, &errOut, ""))

	assert.Equal(t, []string{"ls", "fail", "ps aux"}, exec.commands)
	assert.Equal(t, "ran ls\nran ps aux\n", out.String())
	assert.Equal(t, "[timeout waiting for reply, reconnecting]\n", errOut.String())
}

func TestInteractPrompt(t *testing.T) {
	t.Parallel()

	var (
		exec        fakeExecutor
		out, errOut bytes.Buffer
	)

	require.NoError(t, udpsh.Interact(context.Background(), &exec, strings.NewReader("ls\n"), &out, &errOut, "$ "))

	assert.Equal(t, "$ ran ls\n$ \n", out.String())
}

func TestInteractCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exec := fakeExecutor{cancel: cancel}

	err := udpsh.Interact(ctx, &exec, strings.NewReader("stop\nls\n"), io.Discard, io.Discard, "")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"stop"}, exec.commands)
}

func TestInteractCanceledWhileReading(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// input never arrives until the writer is closed
	pr, pw := io.Pipe()

	var (
		exec fakeExecutor
		out  bytes.Buffer
	)

	start := time.Now()

	err := udpsh.Interact(ctx, &exec, pr, &out, io.Discard, "$ ")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Empty(t, exec.commands)
	assert.Equal(t, "$ ", out.String())

	require.NoError(t, pw.Close())
}
