package puzzle

import (
	"log"
)

// A LogHook is a hook that is responsible for recording puzzle activity.
type LogHook interface {
	Hook
}

// LogHookBase provides the common logic for all LogHooks.
type LogHookBase struct {
	*log.Logger
}

// SolveLogger is a hook that prints puzzle and coordinator transitions.
type SolveLogger struct {
	LogHookBase
}

// NewSolveLogger returns a SolveLogger that writes to the given logger.
func NewSolveLogger(logger *log.Logger) *SolveLogger {
	h := new(SolveLogger)
	h.Logger = logger
	return h
}

// Func writes the transition information into the logger.
func (h *SolveLogger) Func(ctx HookCtx) {
	name := "?"
	if n, ok := ctx.Domain.(Named); ok {
		name = n.Name()
	}

	if ctx.Detail != nil {
		h.Printf("%s: %s, %v", name, ctx.Pos.Name, ctx.Detail)
		return
	}

	h.Printf("%s: %s", name, ctx.Pos.Name)
}
