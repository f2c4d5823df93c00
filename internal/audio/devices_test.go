package audio

import (
	"context"
	"reflect"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

var (
	rode  = Device{ID: "alsa_input.usb-rode", Description: "Rode NT-USB Mini", Available: true, Default: true}
	jabra = Device{ID: "alsa_input.usb-jabra", Description: "Jabra Evolve2 65", Available: true}
)

func with(d Device, mutate func(*Device)) Device {
	mutate(&d)
	return d
}

func TestSelectDeviceFromList(t *testing.T) {
	mutedRode := with(rode, func(d *Device) { d.Muted = true })
	unpluggedRode := with(rode, func(d *Device) { d.Available = false; d.Default = false })
	defaultJabra := with(jabra, func(d *Device) { d.Default = true })

	tests := []struct {
		name         string
		devices      []Device
		input        string
		fallback     string
		want         string
		wantWarning  string
		wantFallback bool
		wantErr      string
	}{
		{name: "default input", devices: []Device{rode, jabra}, input: "default", fallback: "default", want: rode.ID},
		{name: "blank input means default", devices: []Device{jabra, rode}, want: rode.ID},
		{name: "input matches description", devices: []Device{rode, jabra}, input: "Evolve2", want: jabra.ID},
		{name: "muted input uses named fallback", devices: []Device{mutedRode, jabra}, input: "rode", fallback: "jabra", want: jabra.ID, wantWarning: "muted", wantFallback: true},
		{name: "unavailable input uses default", devices: []Device{unpluggedRode, defaultJabra}, input: "rode", fallback: "default", want: jabra.ID, wantWarning: "unavailable", wantFallback: true},
		{name: "fallback also muted", devices: []Device{mutedRode}, input: "default", fallback: "default", wantErr: "muted"},
		{name: "fallback not found", devices: []Device{mutedRode}, input: "rode", fallback: "blue-yeti", wantErr: `fallback "blue-yeti" not found`},
		{name: "unknown input", devices: []Device{rode}, input: "missing", fallback: "default", wantErr: "did not match"},
		{name: "no default source", devices: []Device{jabra}, wantErr: "default audio source is unavailable"},
		{name: "no devices", wantErr: "no audio input devices"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			selection, err := selectDeviceFromList(tc.devices, tc.input, tc.fallback)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, selection.Device.ID)
			require.Equal(t, tc.wantFallback, selection.Fallback)
			if tc.wantWarning == "" {
				require.Empty(t, selection.Warning)
			} else {
				require.Contains(t, selection.Warning, tc.wantWarning)
			}
		})
	}
}

func TestPreference(t *testing.T) {
	require.True(t, newPreference("  Default ").isDefault())
	require.True(t, newPreference("").isDefault())
	require.Equal(t, preference("rode"), newPreference(" RODE "))

	got, ok := newPreference("NT-USB").resolve([]Device{jabra, rode})
	require.True(t, ok)
	require.Equal(t, rode.ID, got.ID)

	_, ok = newPreference("blue").resolve([]Device{jabra, rode})
	require.False(t, ok)
}

func TestDeviceUsable(t *testing.T) {
	require.Empty(t, rode.usable())
	require.Equal(t, "muted", with(rode, func(d *Device) { d.Muted = true }).usable())
	require.Equal(t, "unavailable", with(rode, func(d *Device) { d.Available = false }).usable())
}

func TestDeviceMatches(t *testing.T) {
	require.True(t, deviceMatches(rode, "rode"))
	require.True(t, deviceMatches(rode, "nt-usb"))
	require.False(t, deviceMatches(rode, ""))
	require.False(t, deviceMatches(rode, "missing"))
}

func TestDeviceDiscoveryFailsWithoutPulse(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	_, err := ListDevices(context.Background())
	require.Error(t, err)
	_, err = SelectDevice(context.Background(), "default", "default")
	require.Error(t, err)
}

func TestDeviceFromReply(t *testing.T) {
	reply := &pulseproto.GetSourceInfoReply{SourceName: rode.ID, Device: rode.Description, State: 1, Mute: true}

	got := deviceFromReply(reply, rode.ID)
	require.Equal(t, Device{ID: rode.ID, Description: rode.Description, State: "idle", Available: true, Muted: true, Default: true}, got)
	require.False(t, deviceFromReply(reply, "other").Default)
}

func TestSourceStateString(t *testing.T) {
	require.Equal(t, "running", sourceStateString(0))
	require.Equal(t, "suspended", sourceStateString(2))
	require.Equal(t, "unknown(99)", sourceStateString(99))
}

func TestSourceAvailable(t *testing.T) {
	require.False(t, sourceAvailable(nil))
	require.True(t, sourceAvailable(&pulseproto.GetSourceInfoReply{}))

	for avail, want := range map[uint32]bool{0: true, 1: false, 2: true} {
		reply := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
		setPorts(t, reply, map[string]uint32{"line": 1, "mic": avail})
		require.Equal(t, want, sourceAvailable(reply), "availability %d", avail)
	}
}

// setPorts fills reply.Ports, whose element type is unexported by the proto package.
func setPorts(t *testing.T, reply *pulseproto.GetSourceInfoReply, ports map[string]uint32) {
	t.Helper()

	field := reflect.ValueOf(reply).Elem().FieldByName("Ports")
	slice := reflect.MakeSlice(field.Type(), 0, len(ports))
	for name, available := range ports {
		item := reflect.New(field.Type().Elem()).Elem()
		item.FieldByName("Name").SetString(name)
		item.FieldByName("Available").SetUint(uint64(available))
		slice = reflect.Append(slice, item)
	}
	field.Set(slice)
}
