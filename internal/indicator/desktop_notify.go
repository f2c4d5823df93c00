package indicator

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rbright/babel/internal/hypr"
)

const (
	notificationsBus   = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notifySignature    = "susssasa{sv}i"
	urgencyLow         = 0
	urgencyNormal      = 1
	urgencyCritical    = 2
	desktopIconWorking = "audio-input-microphone"
	desktopIconReady   = "media-playback-start"
	desktopIconError   = "dialog-error"
	desktopIconHint    = "preferences-desktop-locale"
)

// desktopNotify sends msg as a freedesktop notification through busctl and
// returns the ID the server assigned. A non-zero replaceID updates in place.
func desktopNotify(ctx context.Context, appName string, replaceID uint32, msg notice) (uint32, error) {
	iconName, urgency := desktopStyle(msg.icon)
	params := []string{
		appName,
		strconv.FormatUint(uint64(replaceID), 10),
		iconName,
		msg.text,
		msg.detail,
		"0",
		"1", "urgency", "y", strconv.Itoa(urgency),
		strconv.Itoa(msg.timeoutMS),
	}

	out, err := busctl(ctx, "Notify", notifySignature, params...)
	if err != nil {
		return 0, fmt.Errorf("desktop notify failed: %w", err)
	}
	return parseNotificationID(out)
}

// desktopDismiss closes the notification with id.
func desktopDismiss(ctx context.Context, id uint32) error {
	if _, err := busctl(ctx, "CloseNotification", "u", strconv.FormatUint(uint64(id), 10)); err != nil {
		return fmt.Errorf("desktop dismiss failed: %w", err)
	}
	return nil
}

// desktopStyle maps hyprctl icon classes onto XDG icon names and urgency.
func desktopStyle(icon hypr.Icon) (string, int) {
	switch icon {
	case hypr.IconError, hypr.IconWarning:
		return desktopIconError, urgencyCritical
	case hypr.IconOK:
		return desktopIconReady, urgencyNormal
	case hypr.IconHint:
		return desktopIconHint, urgencyLow
	default:
		return desktopIconWorking, urgencyNormal
	}
}

func busctl(ctx context.Context, method string, signature string, params ...string) ([]byte, error) {
	args := append([]string{"--user", "call", notificationsBus, notificationsPath, notificationsBus, method, signature}, params...)
	out, err := exec.CommandContext(ctx, "busctl", args...).CombinedOutput()
	if err != nil {
		if trimmed := strings.TrimSpace(string(out)); trimmed != "" {
			return nil, fmt.Errorf("%w (%s)", err, trimmed)
		}
		return nil, err
	}
	return out, nil
}

// parseNotificationID reads busctl's "u <id>" reply.
func parseNotificationID(out []byte) (uint32, error) {
	reply := strings.TrimSpace(string(out))
	fields := strings.Fields(reply)
	if len(fields) < 2 || fields[0] != "u" {
		return 0, fmt.Errorf("desktop notify invalid response: %q", reply)
	}

	value, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("desktop notify parse id %q: %w", fields[1], err)
	}
	return uint32(value), nil
}
