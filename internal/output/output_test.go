package output

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/babel/internal/config"
	"github.com/rbright/babel/internal/fsm"
	"github.com/rbright/babel/internal/view"
)

type fakePresigner struct {
	calls []string
	err   error
}

func (f *fakePresigner) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	f.calls = append(f.calls, "get "+key+" "+ttl.String())
	if f.err != nil {
		return "", f.err
	}
	return "https://signed.example/default/" + key, nil
}

func (f *fakePresigner) PresignObject(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	f.calls = append(f.calls, "object "+bucket+" "+key+" "+ttl.String())
	if f.err != nil {
		return "", f.err
	}
	return "https://signed.example/" + bucket + "/" + key, nil
}

func newTestPresenter(t *testing.T, mutate func(*config.Config), presigner Presigner) (*Presenter, *bytes.Buffer) {
	t.Helper()

	cfg := config.Default()
	cfg.Clipboard = config.CommandConfig{}
	cfg.Player = config.CommandConfig{}
	if mutate != nil {
		mutate(&cfg)
	}

	out := &bytes.Buffer{}
	p := NewPresenter(cfg, presigner, out, nil)
	p.start = func([]string) error { return nil }
	return p, out
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*config.Config)
		reference string
		want      string
		wantCalls []string
	}{
		{
			name:      "http url passes through",
			reference: "https://cdn.example/out/abc.mp3",
			want:      "https://cdn.example/out/abc.mp3",
		},
		{
			name:      "bare key presigned in store bucket",
			reference: "output/abc.mp3",
			want:      "https://signed.example/default/output/abc.mp3",
			wantCalls: []string{"get output/abc.mp3 15m0s"},
		},
		{
			name:      "s3 uri presigned in its own bucket",
			reference: "s3://babel-output/hi/abc.mp3",
			want:      "https://signed.example/babel-output/hi/abc.mp3",
			wantCalls: []string{"object babel-output hi/abc.mp3 15m0s"},
		},
		{
			name:      "base url wins over presign",
			mutate:    func(c *config.Config) { c.Result.BaseURL = "https://babbelfish.example/media/" },
			reference: "/output/abc.mp3",
			want:      "https://babbelfish.example/media/output/abc.mp3",
		},
		{
			name:      "presign disabled keeps key",
			mutate:    func(c *config.Config) { c.Result.Presign = false },
			reference: "output/abc.mp3",
			want:      "output/abc.mp3",
		},
		{
			name:      "other schemes pass through",
			reference: "file:///tmp/abc.mp3",
			want:      "file:///tmp/abc.mp3",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			presigner := &fakePresigner{}
			p, _ := newTestPresenter(t, tc.mutate, presigner)

			got, err := p.Resolve(context.Background(), tc.reference)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.wantCalls, presigner.calls)
		})
	}
}

func TestResolveWithoutPresignerKeepsKey(t *testing.T) {
	p, _ := newTestPresenter(t, nil, nil)

	got, err := p.Resolve(context.Background(), "output/abc.mp3")
	require.NoError(t, err)
	require.Equal(t, "output/abc.mp3", got)
}

func TestResolveRejectsEmptyReference(t *testing.T) {
	p, _ := newTestPresenter(t, nil, nil)

	_, err := p.Resolve(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty")
}

func TestResolvePropagatesPresignError(t *testing.T) {
	p, _ := newTestPresenter(t, nil, &fakePresigner{err: errors.New("no credentials")})

	_, err := p.Resolve(context.Background(), "output/abc.mp3")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no credentials")
}

func TestRenderDeliversOnlyNewResults(t *testing.T) {
	clipboardScript := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")

	var played [][]string
	p, out := newTestPresenter(t, func(c *config.Config) {
		c.Result.Presign = false
		c.Clipboard = config.CommandConfig{Argv: []string{clipboardScript, clipboardPath}}
		c.Player = config.CommandConfig{Argv: []string{"mpv", "--no-video"}}
	}, nil)
	p.start = func(argv []string) error {
		played = append(played, argv)
		return nil
	}

	ctx := context.Background()
	p.Render(ctx, view.Presentation{State: fsm.StateIdle, Result: "https://cdn.example/old.mp3"})
	p.Render(ctx, view.Presentation{State: fsm.StateSucceeded, Result: "https://cdn.example/new.mp3", NewResult: true})
	p.Render(ctx, view.Presentation{State: fsm.StateRecording, Result: "https://cdn.example/new.mp3"})

	require.Equal(t, "https://cdn.example/new.mp3\n", out.String())
	require.Equal(t, "https://cdn.example/new.mp3", p.Last())
	require.Equal(t, [][]string{{"mpv", "--no-video", "https://cdn.example/new.mp3"}}, played)

	data, err := os.ReadFile(clipboardPath)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/new.mp3", string(data))
}

func TestDeliverToleratesClipboardAndPlayerFailures(t *testing.T) {
	failScript := writeFailScript(t, "clipboard failed")

	p, out := newTestPresenter(t, func(c *config.Config) {
		c.Clipboard = config.CommandConfig{Argv: []string{failScript}}
		c.Player = config.CommandConfig{Argv: []string{"mpv"}}
	}, nil)
	p.start = func([]string) error { return errors.New("mpv missing") }

	err := p.Deliver(context.Background(), "https://cdn.example/a.mp3")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example/a.mp3\n", out.String())
}

func TestPipeToWritesStdin(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "stdin.txt")

	require.NoError(t, pipeTo(context.Background(), []string{scriptPath, outputPath}, "hello from babel"))

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "hello from babel", string(data))
}

func TestPipeToReportsStderr(t *testing.T) {
	err := pipeTo(context.Background(), []string{writeFailScript(t, "no display")}, "payload")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no display")
}

func TestCommandsRejectEmptyArgv(t *testing.T) {
	require.ErrorIs(t, pipeTo(context.Background(), nil, "payload"), errEmptyArgv)
	require.ErrorIs(t, spawn(nil), errEmptyArgv)
}

func TestSpawnRunsCommand(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "played")
	script := filepath.Join(dir, "player.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/usr/bin/env bash\necho \"$1\" > \""+marker+"\"\n"), 0o755))

	require.NoError(t, spawn([]string{script, "https://cdn.example/a.mp3"}))
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(marker)
		return err == nil && string(data) == "https://cdn.example/a.mp3\n"
	}, 2*time.Second, 10*time.Millisecond)
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture-stdin.sh")
	script := `#!/usr/bin/env bash
set -euo pipefail
cat > "$1"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho " + "\"" + message + "\"" + " >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}
