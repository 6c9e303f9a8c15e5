// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package udpsh

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Executor runs a single shell command.
type Executor interface {
	Execute(ctx context.Context, cmd string, out io.Writer) error
}

var _ Executor = (*Client)(nil)

// Interact runs a line-oriented shell loop until in is exhausted or ctx is canceled.
//
// Command failures are reported to errOut and don't stop the loop.
// The prompt is printed to out before reading each line, if not empty.
// Lines are read in a separate goroutine, so cancellation doesn't wait for input;
// that goroutine exits once the pending read on in returns.
func Interact(ctx context.Context, client Executor, in io.Reader, out, errOut io.Writer, prompt string) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(in)

		defer func() {
			scanErr <- scanner.Err()

			close(lines)
		}()

		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		if prompt != "" {
			fmt.Fprint(out, prompt) //nolint:errcheck
		}

		var (
			cmd string
			ok  bool
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok = <-lines:
		}

		if !ok {
			if prompt != "" {
				fmt.Fprintln(out) //nolint:errcheck
			}

			if err := ctx.Err(); err != nil {
				return err
			}

			return <-scanErr
		}

		if strings.TrimSpace(cmd) == "" {
			continue
		}

		if err := client.Execute(ctx, cmd, out); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			fmt.Fprintf(errOut, "[%s, reconnecting]\n", err) //nolint:errcheck
		}
	}
}
