// Package hypr wraps the hyprctl calls babel uses for on-screen status.
package hypr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Icon is the glyph class hyprctl draws beside a notification.
type Icon int

const (
	IconWarning Icon = iota
	IconInfo
	IconHint
	IconError
	IconConfuse
	IconOK
)

const defaultColor = "rgb(89b4fa)"

// Notification is one `hyprctl dispatch notify` call.
type Notification struct {
	Icon    Icon
	Timeout time.Duration
	Color   string
	Text    string
}

func (n Notification) args() []string {
	color := strings.TrimSpace(n.Color)
	if color == "" {
		color = defaultColor
	}
	return []string{
		"--quiet", "dispatch", "notify",
		strconv.Itoa(int(n.Icon)),
		strconv.FormatInt(n.Timeout.Milliseconds(), 10),
		color,
		n.Text,
	}
}

// Notify shows n on the compositor overlay.
func Notify(ctx context.Context, n Notification) error {
	_, err := hyprctl(ctx, n.args()...)
	return err
}

// Dismiss clears every notification hyprctl is showing.
func Dismiss(ctx context.Context) error {
	_, err := hyprctl(ctx, "--quiet", "dispatch", "dismissnotify")
	return err
}

// FocusedMonitor names the focused output, or the first output when none reports focus.
func FocusedMonitor(ctx context.Context) (string, error) {
	out, err := hyprctl(ctx, "-j", "monitors")
	if err != nil {
		return "", err
	}

	var monitors []struct {
		Name    string `json:"name"`
		Focused bool   `json:"focused"`
	}
	if err := json.Unmarshal(out, &monitors); err != nil {
		return "", fmt.Errorf("decode hyprctl monitors json: %w", err)
	}
	if len(monitors) == 0 {
		return "", errors.New("hyprctl monitors returned no outputs")
	}

	chosen := monitors[0].Name
	for _, m := range monitors {
		if m.Focused {
			chosen = m.Name
			break
		}
	}
	return strings.TrimSpace(chosen), nil
}

func hyprctl(ctx context.Context, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "hyprctl", args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err == nil {
		return out, nil
	}
	detail := strings.TrimSpace(stderr.String() + string(out))
	if detail == "" {
		return nil, fmt.Errorf("hyprctl %s: %w", args[0], err)
	}
	return nil, fmt.Errorf("hyprctl %s: %w (%s)", args[0], err, detail)
}
