package doctor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/babel/internal/config"
)

func isolateAWSEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_WEB_IDENTITY_TOKEN_FILE", "")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
}

func remoteConfig(endpoint string) config.Config {
	cfg := config.Default()
	cfg.Store.Bucket = "babel-input"
	cfg.Store.Region = "eu-west-1"
	cfg.Store.Endpoint = endpoint
	cfg.Store.PathStyle = true
	cfg.Store.AccessKeyID = "AKIDEXAMPLE"
	cfg.Store.SecretAccessKey = "secret"
	cfg.Processor.Function = "translate-speech"
	cfg.Processor.Endpoint = endpoint
	return cfg
}

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "wayland")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return strings.EqualFold(v, "wayland") },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryFound(t *testing.T) {
	check := checkBinary("sh", "shell available")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "shell available")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "fake-bin")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-bin", "--arg"}, "player_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "player_cmd command is available")
}

func TestCheckLanguages(t *testing.T) {
	cfg := config.Default()
	cfg.Languages = config.LanguageConfig{Source: "en", Target: "hi"}
	check := checkLanguages(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "en->hi")

	cfg.Languages.Target = "tlh"
	check = checkLanguages(cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "target:")
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(context.Background(), config.Default())
	require.False(t, check.Pass)
	require.Contains(t, check.Name, "audio.device")
}

func TestCheckCredentialsStaticKeys(t *testing.T) {
	isolateAWSEnv(t)

	cfg := remoteConfig("")
	check := checkCredentials(context.Background(), cfg.Store)
	require.True(t, check.Pass, check.Message)
	require.Contains(t, check.Message, "StaticCredentials")
	require.Contains(t, check.Message, `"eu-west-1"`)
}

func TestCheckCredentialsMissing(t *testing.T) {
	isolateAWSEnv(t)

	cfg := config.Default()
	cfg.Store.Region = "eu-west-1"
	check := checkCredentials(context.Background(), cfg.Store)
	require.False(t, check.Pass)
	require.Equal(t, "aws.credentials", check.Name)
}

func TestCheckCredentialsMinIORequiresKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMinIO

	check := checkCredentials(context.Background(), cfg.Store)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "store.backend=minio")
}

func TestCheckStoreAndProcessorAgainstEndpoint(t *testing.T) {
	isolateAWSEnv(t)

	var (
		mu    sync.Mutex
		paths []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if strings.HasPrefix(r.URL.Path, "/2015-03-31/functions/") {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"Configuration":{"FunctionName":"translate-speech"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := remoteConfig(server.URL)

	storeCheck := checkStore(context.Background(), cfg)
	require.True(t, storeCheck.Pass, storeCheck.Message)
	require.Equal(t, "store.s3", storeCheck.Name)

	fnCheck := checkProcessor(context.Background(), cfg)
	require.True(t, fnCheck.Pass, fnCheck.Message)

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, paths, "HEAD /babel-input")
	require.Contains(t, paths, "GET /2015-03-31/functions/translate-speech")
}

func TestCheckStoreReportsMissingBucket(t *testing.T) {
	isolateAWSEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	check := checkStore(context.Background(), remoteConfig(server.URL))
	require.False(t, check.Pass)
	require.Contains(t, check.Message, `head bucket "babel-input"`)
}

func TestCheckStoreAndProcessorRequireNames(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Bucket = ""
	cfg.Processor.Function = ""

	storeCheck := checkStore(context.Background(), cfg)
	require.False(t, storeCheck.Pass)
	require.Contains(t, storeCheck.Message, "store.bucket is empty")

	fnCheck := checkProcessor(context.Background(), cfg)
	require.False(t, fnCheck.Pass)
	require.Contains(t, fnCheck.Message, "processor.function is empty")
}

func TestRunSkipsHyprChecksForDesktopBackend(t *testing.T) {
	isolateAWSEnv(t)
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	cfg := config.Default()
	cfg.Indicator.Backend = "desktop"
	cfg.Clipboard = config.CommandConfig{}
	cfg.Player = config.CommandConfig{}

	report := Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg})
	require.False(t, report.OK())

	names := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		names = append(names, check.Name)
	}
	require.NotContains(t, names, "hyprctl")
	require.NotContains(t, names, "HYPRLAND_INSTANCE_SIGNATURE")
	require.Contains(t, names, "config")
	require.Contains(t, names, "audio.device")
	require.Contains(t, names, "aws.credentials")
	require.Contains(t, names, "store.s3")
	require.Contains(t, names, "processor.lambda")
}

func TestRunIncludesHyprChecksForHyprBackend(t *testing.T) {
	isolateAWSEnv(t)
	binDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "hyprctl"), []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc123")

	cfg := config.Default()
	cfg.Indicator.Enable = true
	cfg.Indicator.Backend = "hypr"

	report := Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg})

	var sawHypr, sawSignature bool
	for _, check := range report.Checks {
		switch check.Name {
		case "hyprctl":
			sawHypr = check.Pass
		case "HYPRLAND_INSTANCE_SIGNATURE":
			sawSignature = check.Pass
		}
	}
	require.True(t, sawHypr)
	require.True(t, sawSignature)
}
