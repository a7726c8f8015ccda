package array

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Dump renders a as a single diagnostic line:
//
//	name = NULL
//	name = empty
//	name = (count = 2, capacity = 2) [ "Hello", "World" ]
func Dump[T comparable](name string, a *Array[T]) string {
	if nil == a {
		return name + " = NULL"
	}
	if a.IsEmpty() {
		return name + " = empty"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s = (count = %d, capacity = %d) [ ", name, a.Len(), a.Cap())
	a.Range(func(index int, v T) bool {
		fmt.Fprintf(&sb, "\"%v\"", v)
		if index+1 != a.Len() {
			sb.WriteString(", ")
		}
		return true
	})
	sb.WriteString(" ]")
	return sb.String()
}

// Debug logs the Dump of a at debug level. Nothing is rendered unless the
// logger has debug enabled. A nil logger means slog.Default().
func Debug[T comparable](logger *slog.Logger, name string, a *Array[T]) {
	if nil == logger {
		logger = slog.Default()
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	logger.Debug(Dump(name, a))
}
