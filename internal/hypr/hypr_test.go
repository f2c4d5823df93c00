package hypr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFocusedMonitor(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    string
		wantErr string
	}{
		{name: "focused output", json: `[{"name":"HDMI-A-1","focused":false},{"name":" DP-1 ","focused":true}]`, want: "DP-1"},
		{name: "first output when none focused", json: `[{"name":"eDP-1"},{"name":"DP-2"}]`, want: "eDP-1"},
		{name: "no outputs", json: `[]`, wantErr: "no outputs"},
		{name: "bad json", json: `not-json`, wantErr: "decode hyprctl monitors json"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			installHyprctlStub(t, `
[[ "$1" == "-j" && "$2" == "monitors" ]] || exit 1
echo '`+tc.json+`'
`)
			got, err := FocusedMonitor(context.Background())
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNotifyAndDismissArgs(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"`)

	ctx := context.Background()
	require.NoError(t, Notify(ctx, Notification{Icon: IconError, Timeout: 2400 * time.Millisecond, Text: "Translation failed"}))
	require.NoError(t, Notify(ctx, Notification{Icon: IconOK, Timeout: 3 * time.Second, Color: " rgb(a6e3a1) ", Text: "Translation ready"}))
	require.NoError(t, Dismiss(ctx))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Equal(t, []string{
		"--quiet dispatch notify 3 2400 rgb(89b4fa) Translation failed",
		"--quiet dispatch notify 5 3000 rgb(a6e3a1) Translation ready",
		"--quiet dispatch dismissnotify",
	}, strings.Split(strings.TrimSpace(string(data)), "\n"))
}

func TestHyprctlFailureCarriesOutput(t *testing.T) {
	installHyprctlStub(t, `
echo 'boom from hyprctl' >&2
exit 1
`)

	err := Notify(context.Background(), Notification{Icon: IconInfo, Timeout: time.Second, Text: "hello"})
	require.ErrorContains(t, err, "boom from hyprctl")

	installHyprctlStub(t, `exit 2`)
	err = Dismiss(context.Background())
	require.ErrorContains(t, err, "hyprctl --quiet")
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
