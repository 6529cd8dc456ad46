package log

import (
	"log/slog"
	"time"
)

// Context keys used as field names across components.
const (
	ComponentKey = "component"
	ErrorKey     = "error"
)

// Field is a single key/value pair attached to a log record.
type Field struct {
	Key   string
	Value any
}

func Str(key, value string) Field           { return Field{Key: key, Value: value} }
func Int(key string, value int) Field       { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field   { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field     { return Field{Key: key, Value: value} }
func Any(key string, value any) Field       { return Field{Key: key, Value: value} }
func Component(name string) Field           { return Field{Key: ComponentKey, Value: name} }

// Duration attaches a time.Duration.
func Duration(key string, d time.Duration) Field { return Field{Key: key, Value: d} }

// Err attaches an error under the "error" key. A nil error yields an empty string.
func Err(err error) Field {
	if err == nil {
		return Field{Key: ErrorKey, Value: ""}
	}
	return Field{Key: ErrorKey, Value: err.Error()}
}

func attrsFromFields(fields []Field) []slog.Attr {
	if len(fields) == 0 {
		return nil
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	return attrs
}
