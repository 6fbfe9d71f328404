package logging

import (
	"context"
	"sync/atomic"
)

// MirrorFunc receives a copy of every emitted log record. It must not block;
// shippers that need IO should buffer internally.
type MirrorFunc func(ctx context.Context, level Level, msg string, args ...any)

var mirror atomic.Value // of mirrorHolder

type mirrorHolder struct {
	fn MirrorFunc
}

// SetMirror installs fn as the process-wide log mirror. Passing nil removes
// the current mirror.
func SetMirror(fn MirrorFunc) {
	mirror.Store(mirrorHolder{fn: fn})
}

func mirrorLog(ctx context.Context, level Level, msg string, args ...any) {
	holder, ok := mirror.Load().(mirrorHolder)
	if !ok || holder.fn == nil {
		return
	}
	holder.fn(ctx, level, msg, args...)
}
