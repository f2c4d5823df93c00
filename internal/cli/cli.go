// Package cli parses babel's command line.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

// Command is a babel subcommand.
type Command string

const (
	CommandToggle    Command = "toggle"
	CommandStop      Command = "stop"
	CommandCancel    Command = "cancel"
	CommandStatus    Command = "status"
	CommandLanguages Command = "languages"
	CommandDevices   Command = "devices"
	CommandDoctor    Command = "doctor"
	CommandVersion   Command = "version"
	CommandHelp      Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandToggle:    {},
	CommandStop:      {},
	CommandCancel:    {},
	CommandStatus:    {},
	CommandLanguages: {},
	CommandDevices:   {},
	CommandDoctor:    {},
	CommandVersion:   {},
	CommandHelp:      {},
}

// Parsed is the command line after flag and command resolution.
type Parsed struct {
	Command    Command
	ConfigPath string
	Source     string
	Target     string
	ShowHelp   bool
}

// valueFlag is a flag that takes an argument. noun describes the argument
// in the error for a missing value.
type valueFlag struct {
	dst  *string
	noun string
}

func (p *Parsed) valueFlags() map[string]valueFlag {
	return map[string]valueFlag{
		"--config": {&p.ConfigPath, "a path"},
		"--source": {&p.Source, "a language code"},
		"--target": {&p.Target, "a language code"},
	}
}

// Parse reads global flags followed by at most one command. Value flags
// accept both "--flag value" and "--flag=value". No arguments means help.
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}
	flags := parsed.valueFlags()

	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, inline, hasInline := strings.Cut(arg, "=")

		if spec, ok := flags[name]; ok {
			switch {
			case hasInline && inline != "":
				*spec.dst = inline
			case hasInline || i+1 >= len(args):
				return Parsed{}, fmt.Errorf("%s requires %s", name, spec.noun)
			default:
				i++
				*spec.dst = args[i]
			}
			continue
		}

		switch {
		case arg == "-h" || arg == "--help":
			parsed.Command, parsed.ShowHelp = CommandHelp, true
		case arg == "--version":
			parsed.Command, parsed.ShowHelp = CommandVersion, false
		case strings.HasPrefix(arg, "-"):
			return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
		default:
			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
			parsed.Command, parsed.ShowHelp = cmd, cmd == CommandHelp
		}
	}

	if (parsed.Source != "" || parsed.Target != "") && !acceptsLanguages(parsed.Command) {
		return Parsed{}, errors.New("--source/--target only apply to toggle and languages")
	}
	return parsed, nil
}

func acceptsLanguages(cmd Command) bool {
	return cmd == CommandToggle || cmd == CommandLanguages
}

// HelpText renders usage for binaryName.
func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--source LANG] [--target LANG] <command>

Commands:
  toggle     Start recording, or stop and translate when already recording
  stop       Stop active recording and translate it
  cancel     Cancel active recording and discard the audio
  status     Print current state
  languages  Show or change the source/target languages
  devices    List available input devices
  doctor     Run configuration, audio, and AWS checks
  version    Print version information
  help       Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/babel/config.jsonc)
  --source LANG   Source language for this request (toggle, languages)
  --target LANG   Target language for this request (toggle, languages)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
