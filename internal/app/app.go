// Package app dispatches parsed commands and runs the owner session.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/rbright/babel/internal/audio"
	"github.com/rbright/babel/internal/cli"
	"github.com/rbright/babel/internal/config"
	"github.com/rbright/babel/internal/doctor"
	"github.com/rbright/babel/internal/ipc"
	"github.com/rbright/babel/internal/language"
	"github.com/rbright/babel/internal/logging"
	"github.com/rbright/babel/internal/version"
)

const binaryName = "babel"

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", zap.Error(err))
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", zap.Int("line", w.Line), zap.String("message", w.Message))
	}

	pair, err := selectedLanguages(cfgLoaded.Config, parsed)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 2
	}

	logger.Info("command start",
		zap.String("command", string(parsed.Command)),
		zap.String("config", cfgLoaded.Path),
		zap.String("log", logRuntime.Path),
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandLanguages:
		return r.commandLanguages(ctx, pair, parsed)
	case cli.CommandStop:
		return r.forwardOrFail(ctx, "stop")
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, "cancel")
	case cli.CommandToggle:
		return r.commandToggle(ctx, cfgLoaded.Config, pair, parsed, logger)
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

// selectedLanguages applies --source/--target over the configured pair.
func selectedLanguages(cfg config.Config, parsed cli.Parsed) (language.Pair, error) {
	source, target := cfg.Languages.Source, cfg.Languages.Target
	if parsed.Source != "" {
		source = parsed.Source
	}
	if parsed.Target != "" {
		target = parsed.Target
	}
	return language.ParsePair(source, target)
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}
	writeDevices(r.Stdout, devices)
	return 0
}

// writeDevices prints one aligned row per source; "*" marks the server default.
func writeDevices(w io.Writer, devices []audio.Device) {
	yesNo := map[bool]string{true: "yes", false: "no"}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tDESCRIPTION\tSTATE\tAVAILABLE\tMUTED")
	for _, d := range devices {
		mark := ""
		if d.Default {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", mark, d.ID, d.Description, d.State, yesNo[d.Available], yesNo[d.Muted])
	}
	_ = tw.Flush()
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: "status"})
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

// commandLanguages updates a running session or, without one, lists the selection and supported codes.
func (r Runner) commandLanguages(ctx context.Context, pair language.Pair, parsed cli.Parsed) int {
	if socketPath, err := ipc.RuntimeSocketPath(); err == nil {
		req := ipc.Request{Command: "languages", Source: parsed.Source, Target: parsed.Target}
		resp, handled, err := tryForward(ctx, socketPath, req)
		if handled {
			if err != nil {
				fmt.Fprintf(r.Stderr, "error: %v\n", err)
				return 1
			}
			fmt.Fprintf(r.Stdout, "%s->%s\n", resp.Source, resp.Target)
			return 0
		}
	}

	fmt.Fprintf(r.Stdout, "current: %s\n", pair)
	fmt.Fprintln(r.Stdout, "supported (* can be spoken):")
	for _, code := range language.Supported() {
		mark := " "
		if language.CanSpeak(code) {
			mark = "*"
		}
		fmt.Fprintf(r.Stdout, "%s %-3s %s\n", mark, code, language.Name(code))
	}
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, command string) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: command})
	if !handled {
		fmt.Fprintf(r.Stderr, "error: no active babel session\n")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func (r Runner) printForwarded(resp ipc.Response, err error) int {
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	resp, err := ipc.Client{Path: socketPath}.Do(ctx, req)
	if errors.Is(err, ipc.ErrNoOwner) {
		return ipc.Response{}, false, nil
	}
	if err != nil {
		return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
	}
	return resp, true, resp.Err()
}
