// Package logging builds the zap logger for a deployment environment.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvNop  = "nop"
	EnvDev  = "dev"
	EnvProd = "prod"

	EncodingConsole = "console"
	EncodingJSON    = "json"
)

func New(env, encoding string) (*zap.Logger, error) {
	switch env {
	case EnvNop:
		return zap.NewNop(), nil
	case EnvDev:
		return zap.NewDevelopment()
	case EnvProd:
		if encoding != EncodingConsole && encoding != EncodingJSON {
			return nil, fmt.Errorf("unsupported log encoding %q", encoding)
		}

		cfg := zap.NewProductionConfig()
		cfg.Encoding = encoding
		if encoding == EncodingConsole {
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
		return cfg.Build()
	default:
		return nil, fmt.Errorf("unsupported environment %q", env)
	}
}
