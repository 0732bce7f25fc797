package eventlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/sintlab/lockbox/puzzle"
)

// BoxEvent is one recorded transition. Times are Unix milliseconds.
type BoxEvent struct {
	TimeMs int64
	Source string
	Kind   string
	Detail string
}

// EventHook records every hook invocation it sees into a Recorder table.
// Register it on the coordinator and on each puzzle.
type EventHook struct {
	sync.Mutex

	recorder Recorder
	table    string
}

// NewEventHook creates the events table and returns a hook writing into it.
func NewEventHook(recorder Recorder) *EventHook {
	h := &EventHook{
		recorder: recorder,
		table:    "box_events",
	}

	recorder.CreateTable(h.table, BoxEvent{})

	return h
}

// Func records the transition.
func (h *EventHook) Func(ctx puzzle.HookCtx) {
	source := "?"
	if n, ok := ctx.Domain.(puzzle.Named); ok {
		source = n.Name()
	}

	detail := ""
	if ctx.Detail != nil {
		detail = fmt.Sprint(ctx.Detail)
	}

	h.Lock()
	defer h.Unlock()

	h.recorder.InsertData(h.table, BoxEvent{
		TimeMs: time.Now().UnixMilli(),
		Source: source,
		Kind:   ctx.Pos.Name,
		Detail: detail,
	})
}
