package icm

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantErr   bool
	}{
		{"none", false, false, false},
		{"", false, true, false},
		{"normal", false, true, false},
		{"debug", true, true, false},
		{"verbose", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewLogger(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewLogger(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			core := logger.Core()
			if got := core.Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := core.Enabled(zapcore.InfoLevel); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestNewColorLogger(t *testing.T) {
	tests := []struct {
		level     string
		wantColor bool
		wantDebug bool
		wantErr   bool
	}{
		{"none", false, false, false},
		{"", true, false, false},
		{"normal", true, false, false},
		{"debug", true, true, false},
		{"verbose", false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := NewColorLogger(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewColorLogger(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			cl, isColor := logger.(*colorLogger)
			if isColor != tt.wantColor {
				t.Fatalf("NewColorLogger(%q) = %T, want color logger %v", tt.level, logger, tt.wantColor)
			}
			if isColor && cl.debug != tt.wantDebug {
				t.Errorf("debug = %v, want %v", cl.debug, tt.wantDebug)
			}
		})
	}
}

func TestConfigLogFormat(t *testing.T) {
	resetEnv()

	c := &Config{LogLevel: "normal"}
	if err := c.init(); err != nil {
		t.Fatalf("init() error = %v", err)
	}
	if _, ok := c.Logger.(*colorLogger); !ok {
		t.Errorf("default Logger = %T, want *colorLogger", c.Logger)
	}

	c = &Config{LogLevel: "normal", LogFormat: "zap"}
	if err := c.init(); err != nil {
		t.Fatalf("init() error = %v", err)
	}
	if _, ok := c.Logger.(*zap.SugaredLogger); !ok {
		t.Errorf("zap Logger = %T, want *zap.SugaredLogger", c.Logger)
	}

	c = &Config{LogFormat: "xml"}
	if err := c.init(); err == nil {
		t.Errorf("init() with unknown format succeeded")
	}
}
