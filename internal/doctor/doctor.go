// Package doctor runs runtime readiness diagnostics for config, tools, audio, and AWS.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/babel/internal/audio"
	"github.com/rbright/babel/internal/cloud"
	"github.com/rbright/babel/internal/config"
	"github.com/rbright/babel/internal/language"
	"github.com/rbright/babel/internal/processor"
	"github.com/rbright/babel/internal/store"
)

const remoteCheckTimeout = 5 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})
	checks = append(checks, checkLanguages(cfg.Config))

	if cfg.Config.Indicator.Enable && strings.EqualFold(cfg.Config.Indicator.Backend, "hypr") {
		checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
		checks = append(checks, checkBinary("hyprctl", "indicator.backend=hypr requires hyprctl"))
	}

	if len(cfg.Config.Clipboard.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Config.Clipboard.Argv, "clipboard_cmd"))
	}
	if len(cfg.Config.Player.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Config.Player.Argv, "player_cmd"))
	}

	checks = append(checks, checkAudioSelection(ctx, cfg.Config))
	checks = append(checks, checkCredentials(ctx, cfg.Config.Store))
	checks = append(checks, checkStore(ctx, cfg.Config))
	checks = append(checks, checkProcessor(ctx, cfg.Config))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

func checkLanguages(cfg config.Config) Check {
	pair, err := language.ParsePair(cfg.Languages.Source, cfg.Languages.Target)
	if err != nil {
		return Check{Name: "languages", Pass: false, Message: err.Error()}
	}
	return Check{Name: "languages", Pass: true, Message: fmt.Sprintf("%s (%s to %s)", pair, language.Name(pair.Source), language.Name(pair.Target))}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkCredentials resolves AWS credentials the way the store client will.
func checkCredentials(ctx context.Context, cfg config.StoreConfig) Check {
	opts := cloud.Options{Region: cfg.Region, AccessKeyID: cfg.AccessKeyID, SecretAccessKey: cfg.SecretAccessKey}
	if cfg.Backend == config.BackendMinIO {
		if !opts.StaticCredentials() {
			return Check{Name: "aws.credentials", Pass: false, Message: "store.backend=minio requires access_key_id and secret_access_key"}
		}
		return Check{Name: "aws.credentials", Pass: true, Message: "static keys from config"}
	}

	ctx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	awsCfg, err := cloud.Load(ctx, opts)
	if err != nil {
		return Check{Name: "aws.credentials", Pass: false, Message: err.Error()}
	}
	creds, err := cloud.CheckCredentials(ctx, awsCfg)
	if err != nil {
		return Check{Name: "aws.credentials", Pass: false, Message: err.Error()}
	}
	source := creds.Source
	if source == "" {
		source = "default chain"
	}
	return Check{Name: "aws.credentials", Pass: true, Message: fmt.Sprintf("resolved from %s (region %q)", source, awsCfg.Region)}
}

// checkStore probes the configured bucket.
func checkStore(ctx context.Context, cfg config.Config) Check {
	name := "store." + storeBackend(cfg.Store)
	if strings.TrimSpace(cfg.Store.Bucket) == "" {
		return Check{Name: name, Pass: false, Message: "store.bucket is empty"}
	}

	ctx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	artifacts, err := store.New(ctx, cfg.Store, nil)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	checker, ok := artifacts.(store.Checker)
	if !ok {
		return Check{Name: name, Pass: true, Message: "backend has no reachability probe"}
	}
	if err := checker.Check(ctx); err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("bucket %q reachable", cfg.Store.Bucket)}
}

// checkProcessor probes the configured translation function.
func checkProcessor(ctx context.Context, cfg config.Config) Check {
	const name = "processor.lambda"
	if strings.TrimSpace(cfg.Processor.Function) == "" {
		return Check{Name: name, Pass: false, Message: "processor.function is empty"}
	}

	ctx, cancel := context.WithTimeout(ctx, remoteCheckTimeout)
	defer cancel()

	fn, err := processor.NewLambda(ctx, cfg, nil)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	if err := fn.Check(ctx); err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("function %q reachable", cfg.Processor.Function)}
}

func storeBackend(cfg config.StoreConfig) string {
	if cfg.Backend == "" {
		return config.BackendS3
	}
	return cfg.Backend
}
