package logger

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-roster/internal/utils"
)

// Field keys shared across packages.
const (
	FieldProvider  = "embedding_provider"
	FieldModel     = "embedding_model"
	FieldRequestID = "request_id"
	FieldQuery     = "query"
)

// StringField is a key/value pair that is dropped when either side is blank.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts pairs into trimmed zap fields, skipping blank ones.
func StringFields(fields ...StringField) []zap.Field {
	var result []zap.Field
	for _, f := range fields {
		key, value := strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if key != "" && value != "" {
			result = append(result, zap.String(key, value))
		}
	}
	return result
}

// WithFields returns l with fields attached. A nil l becomes a no-op logger.
func WithFields(l *zap.Logger, fields ...zap.Field) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

// CommonFields describes the embedding provider and model.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

func WithCommonFields(l *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(l, CommonFields(provider, model)...)
}

// WithRequestID tags l with an HTTP request id. A blank id leaves l untouched.
func WithRequestID(l *zap.Logger, id string) *zap.Logger {
	return WithFields(l, StringFields(StringField{Key: FieldRequestID, Value: id})...)
}

// Query logs a user query on one line, cut to limit runes.
func Query(q string, limit int) zap.Field {
	return zap.String(FieldQuery, utils.TruncateForLog(q, limit))
}
