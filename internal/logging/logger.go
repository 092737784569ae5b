package logging

import (
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level       string
	Format      string // "json" or "console"
	ServiceName string
	Version     string
	Environment string
}

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Field names shared by request and store logs.
const (
	FieldService   = "service"
	FieldVersion   = "version"
	FieldEnv       = "environment"
	FieldUserID    = "user_id"
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
)

// NewLogger creates a zap logger tagged with service metadata.
func NewLogger(config Config) *zap.Logger {
	level, err := zapcore.ParseLevel(strings.ToLower(config.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	var encoder zapcore.Encoder
	if strings.ToLower(config.Format) == FormatConsole {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.MessageKey = "message"
		encoderConfig.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return logger.With(
		zap.String(FieldService, config.ServiceName),
		zap.String(FieldVersion, config.Version),
		zap.String(FieldEnv, config.Environment),
	)
}

// GinMiddleware logs every request once it has been handled.
func GinMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String(FieldRequestID, c.GetString(FieldRequestID)),
			zap.String(FieldMethod, c.Request.Method),
			zap.String(FieldPath, c.Request.URL.Path),
			zap.Int(FieldStatus, status),
			zap.Int64(FieldDuration, time.Since(start).Milliseconds()),
		}
		if uid := c.GetString(FieldUserID); uid != "" {
			fields = append(fields, zap.String(FieldUserID, uid))
		}

		switch {
		case status >= 500:
			log.Error("HTTP request completed with server error", fields...)
		case status >= 400:
			log.Warn("HTTP request completed with client error", fields...)
		default:
			log.Info("HTTP request completed", fields...)
		}
	}
}
