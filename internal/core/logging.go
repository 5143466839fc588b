package core

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logTimeLayout = "2006-01-02 15:04:05"

// NewLogger returns a logger intended to be used for general application logs.
// When a log file is configured the output rotates through lumberjack.
func NewLogger(cfg *Config) (*zap.SugaredLogger, error) {
	logLvl, err := zapcore.ParseLevel(cfg.Logging.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "parsing log level")
	}

	if cfg.Logging.LogFilePath != "" {
		return newFileLogger(cfg, logLvl), nil
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(logLvl)
	logConfig.DisableCaller = !cfg.Logging.IncludeCaller
	logConfig.DisableStacktrace = true

	logConfig.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	logConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(logTimeLayout)
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := logConfig.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}

	return logger.Sugar(), nil
}

func newFileLogger(cfg *Config, level zapcore.Level) *zap.SugaredLogger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(logTimeLayout)
	// No colour codes in files.
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	writer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Logging.LogFilePath,
		MaxSize:    cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), writer, level)

	var opts []zap.Option
	if cfg.Logging.IncludeCaller {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...).Sugar()
}
