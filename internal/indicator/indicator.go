// Package indicator renders lifecycle presentations as notifications and audio cues.
package indicator

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rbright/babel/internal/config"
	"github.com/rbright/babel/internal/fsm"
	"github.com/rbright/babel/internal/hypr"
	"github.com/rbright/babel/internal/logging"
	"github.com/rbright/babel/internal/view"
)

const (
	colorRecording = "rgb(89b4fa)"
	colorWorking   = "rgb(cba6f7)"
	colorReady     = "rgb(a6e3a1)"
	colorError     = "rgb(f38ba8)"

	persistentTimeoutMS = 300000
	readyTimeoutMS      = 3000
	hintTimeoutMS       = 1500
)

// notice is one backend-neutral notification. detail is shown only where the
// backend has a body line.
type notice struct {
	icon      hypr.Icon
	timeoutMS int
	color     string
	text      string
	detail    string
}

// Notifier is the view surface for on-screen status and cues.
// It routes notifications via Hyprland or desktop DBus based on config backend.
type Notifier struct {
	cfg      config.IndicatorConfig
	logger   *zap.Logger
	messages messages
	cue      func(context.Context, cueKind) error

	mu                    sync.Mutex
	focusedMonitor        string
	desktopNotificationID uint32
	soundMu               sync.Mutex
	cues                  sync.WaitGroup
}

// NewNotifier creates a notifier from config.
func NewNotifier(cfg config.IndicatorConfig, logger *zap.Logger) *Notifier {
	return &Notifier{
		cfg:      cfg,
		logger:   logging.Named(logger, "indicator"),
		messages: indicatorMessagesFromEnv(),
		cue:      emitCue,
	}
}

// Render implements view.Surface.
func (n *Notifier) Render(ctx context.Context, p view.Presentation) {
	switch p.State {
	case fsm.StateRecording:
		n.playCue(cueStart)
		n.ensureFocusedMonitor(ctx)
		n.show(ctx, notice{icon: hypr.IconInfo, timeoutMS: persistentTimeoutMS, color: colorRecording, text: n.messages.recording + " " + p.Languages.String()})
	case fsm.StateUploading:
		n.playCue(cueStop)
		n.show(ctx, notice{icon: hypr.IconInfo, timeoutMS: persistentTimeoutMS, color: colorWorking, text: n.messages.uploading})
	case fsm.StateInvoking:
		n.show(ctx, notice{icon: hypr.IconInfo, timeoutMS: persistentTimeoutMS, color: colorWorking, text: n.messages.translating + " " + p.Languages.String()})
	case fsm.StateSucceeded:
		n.playCue(cueComplete)
		n.show(ctx, notice{icon: hypr.IconOK, timeoutMS: readyTimeoutMS, color: colorReady, text: n.messages.ready, detail: p.Result})
	case fsm.StateFailed:
		n.playCue(cueFailed)
		text := p.Error
		if text == "" {
			text = n.messages.errorText
		}
		timeout := n.cfg.ErrorTimeoutMS
		if timeout <= 0 {
			timeout = 1200
		}
		n.show(ctx, notice{icon: hypr.IconError, timeoutMS: timeout, color: colorError, text: text, detail: string(p.ErrorKind)})
	default:
		if p.Cancelled {
			n.playCue(cueCancel)
			n.hide(ctx)
			return
		}
		n.show(ctx, notice{icon: hypr.IconHint, timeoutMS: hintTimeoutMS, color: colorRecording, text: n.messages.languages + " " + p.Languages.String()})
	}
}

// FocusedMonitor returns the monitor captured when recording began.
func (n *Notifier) FocusedMonitor() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.focusedMonitor
}

// Wait blocks until queued cues finish playing.
func (n *Notifier) Wait() {
	n.cues.Wait()
}

func (n *Notifier) show(ctx context.Context, msg notice) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, func(ctx context.Context) error {
		return n.notify(ctx, msg)
	})
}

func (n *Notifier) hide(ctx context.Context) {
	if !n.cfg.Enable {
		return
	}
	n.run(ctx, n.dismiss)
}

// ensureFocusedMonitor resolves and caches the focused monitor once per session.
func (n *Notifier) ensureFocusedMonitor(ctx context.Context) {
	if !n.cfg.Enable || n.desktop() {
		return
	}
	n.mu.Lock()
	alreadySet := n.focusedMonitor != ""
	n.mu.Unlock()
	if alreadySet {
		return
	}

	monitor, err := hypr.FocusedMonitor(ctx)
	if err != nil {
		n.log("indicator focused monitor query failed", err)
		return
	}

	n.mu.Lock()
	n.focusedMonitor = monitor
	n.mu.Unlock()
	n.logger.Debug("focused monitor", zap.String("monitor", monitor))
}

func (n *Notifier) desktop() bool {
	return strings.EqualFold(strings.TrimSpace(n.cfg.Backend), "desktop")
}

// notify dispatches indicator output through the configured backend.
func (n *Notifier) notify(ctx context.Context, msg notice) error {
	if n.desktop() {
		return n.notifyDesktop(ctx, msg)
	}
	return hypr.Notify(ctx, hypr.Notification{
		Icon:    msg.icon,
		Timeout: time.Duration(msg.timeoutMS) * time.Millisecond,
		Color:   msg.color,
		Text:    msg.text,
	})
}

// dismiss removes indicator output from the configured backend.
func (n *Notifier) dismiss(ctx context.Context) error {
	if n.desktop() {
		return n.dismissDesktop(ctx)
	}
	return hypr.Dismiss(ctx)
}

// notifyDesktop sends a replaceable desktop notification and stores its ID.
func (n *Notifier) notifyDesktop(ctx context.Context, msg notice) error {
	n.mu.Lock()
	replaceID := n.desktopNotificationID
	n.mu.Unlock()

	appName := strings.TrimSpace(n.cfg.DesktopAppName)
	if appName == "" {
		appName = "babel"
	}

	id, err := desktopNotify(ctx, appName, replaceID, msg)
	if err != nil {
		return err
	}

	n.mu.Lock()
	n.desktopNotificationID = id
	n.mu.Unlock()
	return nil
}

// dismissDesktop closes the current desktop notification ID when present.
func (n *Notifier) dismissDesktop(ctx context.Context) error {
	n.mu.Lock()
	id := n.desktopNotificationID
	n.desktopNotificationID = 0
	n.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (n *Notifier) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		n.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (n *Notifier) playCue(kind cueKind) {
	if !n.cfg.SoundEnable {
		return
	}
	n.cues.Add(1)
	go func() {
		defer n.cues.Done()
		n.soundMu.Lock()
		defer n.soundMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
		defer cancel()
		if err := n.cue(ctx, kind); err != nil {
			n.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (n *Notifier) log(message string, err error) {
	if err == nil {
		return
	}
	n.logger.Debug(message, zap.Error(err))
}
