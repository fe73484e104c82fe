/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logutil formats the log lines of controller commands.
package logutil

import (
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"
)

// Field is a key and value appended to a log line.
type Field struct {
	Key   string
	Value string
}

// KV returns a field.
func KV(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Command writes the log lines of one controller command, each tagged with the command and method.
type Command struct {
	logger *log.Log
	name   string
}

// New returns a command logger writing to logger.
func New(logger *log.Log, command string) *Command {
	return &Command{logger: logger, name: command}
}

// Error logs a failed method.
func (c *Command) Error(method, errMsg string, fields ...Field) {
	c.logger.Errorf("%s", c.line(method, "errMsg", errMsg, fields))
}

// Info logs a rejected request.
func (c *Command) Info(method, msg string, fields ...Field) {
	c.logger.Infof("%s", c.line(method, "msg", msg, fields))
}

// Debug logs method progress.
func (c *Command) Debug(method, msg string, fields ...Field) {
	c.logger.Debugf("%s", c.line(method, "msg", msg, fields))
}

func (c *Command) line(method, msgKey, msg string, fields []Field) string {
	var sb strings.Builder

	write := func(key, value string) {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(key)
		sb.WriteString("=[")
		sb.WriteString(value)
		sb.WriteByte(']')
	}

	write("command", c.name)
	write("method", method)

	for _, f := range fields {
		write(f.Key, f.Value)
	}

	write(msgKey, msg)

	return sb.String()
}
