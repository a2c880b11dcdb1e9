//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })

	tests := []struct {
		name string
		want zapcore.Level
	}{
		{LevelDebug, zapcore.DebugLevel},
		{LevelInfo, zapcore.InfoLevel},
		{LevelWarn, zapcore.WarnLevel},
		{LevelError, zapcore.ErrorLevel},
		{LevelFatal, zapcore.FatalLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		SetLevel(tt.name)
		assert.Equal(t, tt.want, zapLevel.Level(), "level %q", tt.name)
	}
}

type recordingLogger struct {
	Logger
	msgs []string
}

func (r *recordingLogger) Infof(format string, args ...any) { r.msgs = append(r.msgs, format) }

func TestDefaultReplaceable(t *testing.T) {
	orig := Default
	t.Cleanup(func() { Default = orig })

	rec := &recordingLogger{}
	Default = rec
	Infof("hello %s", "world")
	assert.Equal(t, []string{"hello %s"}, rec.msgs)
}
