package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rbright/babel/internal/logging"
)

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// requestReadTimeout bounds how long a client may take to send its line.
const requestReadTimeout = 2 * time.Second

// Serve answers one request per connection until ctx is cancelled or the
// listener is closed. It returns after in-flight connections finish.
func Serve(ctx context.Context, listener net.Listener, handler Handler, logger *zap.Logger) error {
	logger = logging.Named(logger, "ipc")

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	var conns sync.WaitGroup
	defer conns.Wait()

	for {
		conn, err := listener.Accept()
		if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
			if conn != nil {
				_ = conn.Close()
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		conns.Add(1)
		go func() {
			defer conns.Done()
			defer conn.Close()
			serveConn(ctx, conn, handler, logger)
		}()
	}
}

func serveConn(ctx context.Context, conn net.Conn, handler Handler, logger *zap.Logger) {
	reply := func(resp Response) {
		if err := json.NewEncoder(conn).Encode(resp); err != nil {
			logger.Warn("encode response", zap.Error(err))
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		logger.Warn("read request", zap.Error(err))
		reply(Response{Error: fmt.Sprintf("read request: %v", err)})
		return
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		logger.Warn("decode request", zap.Error(err))
		reply(Response{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	resp := handler.Handle(ctx, req)
	logger.Info("request handled",
		zap.String("command", req.Command),
		zap.Bool("ok", resp.OK),
		zap.String("state", resp.State),
		zap.String("error", resp.Error),
	)
	reply(resp)
}
