// Package audio handles device discovery, microphone capture, and WAV finalization.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Device describes one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// usable returns why d cannot record, or "" when it can.
func (d Device) usable() string {
	switch {
	case d.Muted:
		return "muted"
	case !d.Available:
		return "unavailable"
	default:
		return ""
	}
}

// Selection is the source a recording will use.
// Warning is set when the configured input was skipped.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

// ListDevices returns every Pulse input source, marking the server default.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	def, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var replies pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &replies); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(replies))
	for _, reply := range replies {
		if reply != nil {
			devices = append(devices, deviceFromReply(reply, def.ID()))
		}
	}
	return devices, nil
}

func deviceFromReply(reply *pulseproto.GetSourceInfoReply, defaultID string) Device {
	return Device{
		ID:          reply.SourceName,
		Description: reply.Device,
		State:       sourceStateString(reply.State),
		Available:   sourceAvailable(reply),
		Muted:       reply.Mute,
		Default:     reply.SourceName == defaultID,
	}
}

func newPulseClient() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("babel"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// SelectDevice resolves the audio.input and audio.fallback preferences against live sources.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return selectDeviceFromList(devices, input, fallback)
}

// preference is a user-supplied device term. Empty and "default" mean the server default.
type preference string

func newPreference(raw string) preference {
	return preference(strings.ToLower(strings.TrimSpace(raw)))
}

func (p preference) isDefault() bool {
	return p == "" || p == "default"
}

// resolve finds the first device p names. The boolean is false when nothing matched.
func (p preference) resolve(devices []Device) (Device, bool) {
	for _, d := range devices {
		if p.isDefault() && d.Default {
			return d, true
		}
		if !p.isDefault() && deviceMatches(d, string(p)) {
			return d, true
		}
	}
	return Device{}, false
}

// selectDeviceFromList picks the preferred input, falling back once when it
// is muted or unavailable. The fallback itself must be usable.
func selectDeviceFromList(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}

	want := newPreference(input)
	primary, ok := want.resolve(devices)
	if !ok {
		if want.isDefault() {
			return Selection{}, errors.New("default audio source is unavailable")
		}
		return Selection{}, fmt.Errorf("audio.input %q did not match any device", string(want))
	}

	reason := primary.usable()
	if reason == "" {
		return Selection{Device: primary}, nil
	}

	alt := newPreference(fallback)
	backup, ok := alt.resolve(devices)
	switch {
	case !ok && alt.isDefault():
		return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: default audio source is unavailable", primary.ID, reason)
	case !ok:
		return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q not found", primary.ID, reason, string(alt))
	}
	if why := backup.usable(); why != "" {
		return Selection{}, fmt.Errorf("audio fallback device %q is %s", backup.ID, why)
	}

	return Selection{
		Device:   backup,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, backup.ID),
		Fallback: backup.ID != primary.ID,
	}, nil
}

// deviceMatches reports whether term is a substring of the device id or description.
func deviceMatches(device Device, term string) bool {
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(device.ID), term) ||
		strings.Contains(strings.ToLower(device.Description), term)
}

var sourceStates = [...]string{"running", "idle", "suspended"}

func sourceStateString(state uint32) string {
	if int(state) < len(sourceStates) {
		return sourceStates[state]
	}
	return fmt.Sprintf("unknown(%d)", state)
}

// Pulse port availability values.
const portNotAvailable = 1

// sourceAvailable is false only when the active port reports "not available".
func sourceAvailable(source *pulseproto.GetSourceInfoReply) bool {
	if source == nil {
		return false
	}
	for _, port := range source.Ports {
		if port.Name == source.ActivePortName {
			return port.Available != portNotAvailable
		}
	}
	return true
}
