package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// ErrNoOwner reports that nothing is listening on the owner socket.
var ErrNoOwner = errors.New("no active babel session")

// DefaultTimeout bounds one forwarded command end to end.
const DefaultTimeout = 220 * time.Millisecond

// Client forwards commands to the owner session listening on Path.
type Client struct {
	Path    string
	Timeout time.Duration
}

// Do sends req and waits for the single response line.
// Dial failures caused by a missing socket or a refused connection wrap ErrNoOwner.
func (c Client) Do(ctx context.Context, req Request) (Response, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := (&net.Dialer{Timeout: timeout}).DialContext(ctx, "unix", c.Path)
	if err != nil {
		if ownerGone(err) {
			return Response{}, fmt.Errorf("%w: %v", ErrNoOwner, err)
		}
		return Response{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Alive reports whether a responsive owner answers a status request.
// An owner that accepts but never answers is an error, not absence.
func (c Client) Alive(ctx context.Context) (bool, error) {
	_, err := c.Do(ctx, Request{Command: "status"})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNoOwner):
		return false, nil
	default:
		return false, fmt.Errorf("probe socket: %w", err)
	}
}

func ownerGone(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED)
}
