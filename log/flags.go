package log

import (
	"fmt"
	"strings"
)

// Level is a minimum log severity. It implements pflag.Value.
type Level uint

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l *Level) String() string {
	if int(*l) >= len(levelNames) {
		panic("log: unsupported log level")
	}
	return levelNames[*l]
}

func (l *Level) Set(s string) error {
	for lvl, name := range levelNames {
		if strings.EqualFold(s, name) {
			*l = Level(lvl)
			return nil
		}
	}
	return fmt.Errorf("log: invalid log level: '%s'", s)
}

func (l *Level) Type() string {
	return "[" + strings.Join(levelNames[:], ",") + "]"
}

// Format is an output encoding. It implements pflag.Value.
type Format uint

const (
	FmtLogfmt Format = iota
	FmtJSON
)

var formatNames = [...]string{
	FmtLogfmt: "logfmt",
	FmtJSON:   "JSON",
}

func (f *Format) String() string {
	if int(*f) >= len(formatNames) {
		panic("log: unsupported format")
	}
	return formatNames[*f]
}

func (f *Format) Set(s string) error {
	for fmtID, name := range formatNames {
		if strings.EqualFold(s, name) {
			*f = Format(fmtID)
			return nil
		}
	}
	return fmt.Errorf("log: invalid log format: '%s'", s)
}

func (f *Format) Type() string {
	return "[" + strings.Join(formatNames[:], ",") + "]"
}
