// Package logging configures logrus for the client and the dev server.
package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLog parses and sets the log level and, unless logPath is empty or
// "console", routes output to a rotating file.
func InitLog(logLevel string, logPath string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", logLevel, err)
	}

	if logPath != "" && logPath != "console" {
		lumberjackLogger := &lumberjack.Logger{
			Filename:   filepath.ToSlash(logPath),
			MaxSize:    5, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		}
		log.SetOutput(io.Writer(lumberjackLogger))
	}

	log.SetFormatter(&RedactingFormatter{})
	log.SetLevel(level)
	return nil
}

// prefixLen is how much of a nonce, key or token survives in a log line.
const prefixLen = 8

// truncated keys keep a short prefix; hidden keys are dropped entirely.
var (
	truncated = []string{"nonce", "token", "signature", "public_key", "rotation_hash", "recovery_hash"}
	hidden    = []string{"secret", "password", "passphrase", "mnemonic", "private"}
)

// RedactingFormatter shortens protocol secrets before text formatting.
type RedactingFormatter struct {
	log.TextFormatter
}

func (f *RedactingFormatter) Format(entry *log.Entry) ([]byte, error) {
	if len(entry.Data) > 0 {
		data := make(log.Fields, len(entry.Data))
		for k, v := range entry.Data {
			data[k] = Redact(k, v)
		}
		clone := *entry
		clone.Data = data
		entry = &clone
	}
	return f.TextFormatter.Format(entry)
}

// Redact returns the loggable form of value stored under key.
func Redact(key string, value any) any {
	k := strings.ToLower(key)
	for _, h := range hidden {
		if strings.Contains(k, h) {
			return "[redacted]"
		}
	}
	for _, t := range truncated {
		if strings.Contains(k, t) {
			s, ok := value.(string)
			if !ok {
				return value
			}
			if len(s) > prefixLen {
				return s[:prefixLen] + "..."
			}
			return s
		}
	}
	return value
}
