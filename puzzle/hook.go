package puzzle

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookCtx is the context that holds all the information about the site that
// a hook is triggered.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable defines an object that accepts Hooks.
type Hookable interface {
	// AcceptHook registers a hook
	AcceptHook(hook Hook)
}

// HookPosSolved triggers when a puzzle reaches its terminal solved state.
var HookPosSolved = &HookPos{Name: "Solved"}

// HookPosReset triggers when a puzzle returns to its initial state.
var HookPosReset = &HookPos{Name: "Reset"}

// HookPosRoundAdvance triggers when a multi-round puzzle moves to the next
// round.
var HookPosRoundAdvance = &HookPos{Name: "RoundAdvance"}

// HookPosBeginFailed triggers when a puzzle's hardware dependency fails to
// initialize during Begin.
var HookPosBeginFailed = &HookPos{Name: "BeginFailed"}

// HookPosLocked triggers when the coordinator commands the actuator to the
// locked position.
var HookPosLocked = &HookPos{Name: "Locked"}

// HookPosUnlocked triggers when the coordinator commands the actuator to the
// unlocked position.
var HookPosUnlocked = &HookPos{Name: "Unlocked"}

// Hook is a short piece of program that can be invoked by a hookable object.
type Hook interface {
	// Func determines what to do if hook is invoked.
	Func(ctx HookCtx)
}

// A HookableBase provides some utility function for other types that
// implement the Hookable interface.
type HookableBase struct {
	Hooks []Hook
}

// NewHookableBase creates a HookableBase object.
func NewHookableBase() *HookableBase {
	h := new(HookableBase)
	h.Hooks = make([]Hook, 0)
	return h
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.Hooks = append(h.Hooks, hook)
}

// InvokeHook triggers the registered Hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.Hooks {
		hook.Func(ctx)
	}
}
