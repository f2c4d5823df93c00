package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
)

var errEmptyArgv = errors.New("command argv cannot be empty")

// pipeTo runs argv to completion with input on stdin. A failing command's
// stderr is folded into the returned error.
func pipeTo(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return errEmptyArgv
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(input)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("run %s: %w: %s", argv[0], err, detail)
		}
		return fmt.Errorf("run %s: %w", argv[0], err)
	}
	return nil
}

// spawn starts argv in its own session and does not wait for it, so a player
// keeps running after babel exits.
func spawn(argv []string) error {
	if len(argv) == 0 {
		return errEmptyArgv
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", argv[0], err)
	}
	return cmd.Process.Release()
}
