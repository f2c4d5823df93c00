package config

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseCommand splits a shell-like command string into a CommandConfig.
// Quoting follows POSIX sh closely enough for clipboard and player commands;
// expansions and pipes are not supported.
func ParseCommand(raw string) (CommandConfig, error) {
	argv, err := parseArgv(raw)
	if err != nil {
		return CommandConfig{}, err
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}

// argvScanner accumulates words one rune at a time.
type argvScanner struct {
	words   []string
	word    strings.Builder
	inWord  bool
	quote   rune
	escaped bool
}

func (s *argvScanner) feed(r rune) {
	if s.escaped {
		s.escaped = false
		s.add(r)
		return
	}

	switch {
	case s.quote == '\'':
		if r == '\'' {
			s.quote = 0
		} else {
			s.add(r)
		}
	case r == '\\':
		s.escaped = true
		s.inWord = true
	case s.quote == '"':
		if r == '"' {
			s.quote = 0
		} else {
			s.add(r)
		}
	case r == '\'' || r == '"':
		s.quote = r
		s.inWord = true
	case unicode.IsSpace(r):
		s.endWord()
	default:
		s.add(r)
	}
}

func (s *argvScanner) add(r rune) {
	s.word.WriteRune(r)
	s.inWord = true
}

func (s *argvScanner) endWord() {
	if !s.inWord {
		return
	}
	s.words = append(s.words, s.word.String())
	s.word.Reset()
	s.inWord = false
}

func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || input[0] == '#' {
		return nil, nil
	}

	var s argvScanner
	for _, r := range input {
		s.feed(r)
	}
	switch {
	case s.escaped:
		return nil, fmt.Errorf("unterminated escape sequence in command: %q", input)
	case s.quote != 0:
		return nil, fmt.Errorf("unterminated quote in command: %q", input)
	}
	s.endWord()
	return s.words, nil
}

func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(err)
	}
	return argv
}
