package sim

import (
	"sync"
	"time"

	"hero-arena/server/internal/telemetry"
)

const (
	// CommandRejectQueueLimit indicates a command was dropped due to per-actor
	// queue throttling.
	CommandRejectQueueLimit = "queue_limit"
	// CommandRejectQueueFull indicates the session command buffer is saturated.
	CommandRejectQueueFull = "queue_full"
)

const (
	DefaultCommandCapacity = 1024
	DefaultPerActorLimit   = 32
)

// DefaultLoopConfig is what session runners use unless configured.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{CommandCapacity: DefaultCommandCapacity, PerActorLimit: DefaultPerActorLimit}
}

// LoopConfig tunes the command buffer in front of a match. A zero
// PerActorLimit disables per-actor throttling.
type LoopConfig struct {
	CommandCapacity int
	PerActorLimit   int
	WarningStep     int
}

// LoopHooks observe queue pressure and completed steps.
type LoopHooks struct {
	OnCommandDrop  func(reason string, cmd Command)
	OnQueueWarning func(length int)
	AfterStep      func(LoopStepResult)
}

// LoopStepResult describes one completed Advance.
type LoopStepResult struct {
	Tick     uint64
	Status   Status
	Commands []Command
	Duration time.Duration
}

// Loop stages inputs from any goroutine and applies them at the start of the
// next tick, so message handling never interleaves with a step.
type Loop struct {
	match   *Match
	buffer  *CommandBuffer
	hooks   LoopHooks
	config  LoopConfig
	logger  telemetry.Logger
	metrics telemetry.Metrics

	queueMu       sync.Mutex
	perActorCount map[string]int
	dropCounts    map[string]uint64
}

// NewLoop wraps match with a ring-buffer command queue.
func NewLoop(match *Match, cfg LoopConfig, hooks LoopHooks) *Loop {
	if match == nil {
		return nil
	}
	if cfg.CommandCapacity <= 0 {
		cfg.CommandCapacity = DefaultCommandCapacity
	}
	return &Loop{
		match:         match,
		buffer:        NewCommandBuffer(cfg.CommandCapacity, match.deps.Metrics),
		hooks:         hooks,
		config:        cfg,
		logger:        match.deps.Logger,
		metrics:       match.deps.Metrics,
		perActorCount: make(map[string]int),
		dropCounts:    make(map[string]uint64),
	}
}

func (l *Loop) Match() *Match {
	if l == nil {
		return nil
	}
	return l.match
}

// Pending reports the number of staged commands.
func (l *Loop) Pending() int {
	if l == nil {
		return 0
	}
	return l.buffer.Len()
}

// DrainCommands clears the staged command queue without advancing the match.
func (l *Loop) DrainCommands() []Command {
	if l == nil {
		return nil
	}
	return l.drainCommands()
}

// Enqueue stages a command, enforcing per-actor throttling and capacity limits.
func (l *Loop) Enqueue(cmd Command) (bool, string) {
	if l == nil {
		return false, CommandRejectQueueFull
	}
	reason := ""
	var dropCount uint64
	warnAt := 0
	l.queueMu.Lock()
	if l.config.PerActorLimit > 0 && cmd.ActorID != "" {
		count := l.perActorCount[cmd.ActorID]
		if count >= l.config.PerActorLimit {
			reason = CommandRejectQueueLimit
			dropCount = l.incrementDropLocked(cmd.ActorID)
		} else {
			l.perActorCount[cmd.ActorID] = count + 1
		}
	}
	if reason == "" {
		if !l.buffer.Push(cmd) {
			reason = CommandRejectQueueFull
			dropCount = l.incrementDropLocked(cmd.ActorID)
		} else if l.config.WarningStep > 0 {
			length := l.buffer.Len()
			if length >= l.config.WarningStep && length%l.config.WarningStep == 0 {
				warnAt = length
			}
		}
	}
	l.queueMu.Unlock()
	if reason != "" {
		l.reportDrop(reason, cmd, dropCount)
		return false, reason
	}
	if warnAt > 0 && l.hooks.OnQueueWarning != nil {
		l.hooks.OnQueueWarning(warnAt)
	}
	return true, ""
}

// Advance applies every staged command and then steps the match once.
func (l *Loop) Advance() LoopStepResult {
	if l == nil {
		return LoopStepResult{}
	}
	clock := l.match.deps.Clock
	start := clock.Now()
	commands := l.drainCommands()
	for _, cmd := range commands {
		l.apply(cmd)
	}
	l.match.Step()
	result := LoopStepResult{
		Tick:     l.match.Tick(),
		Status:   l.match.Status(),
		Commands: commands,
		Duration: clock.Now().Sub(start),
	}
	if l.hooks.AfterStep != nil {
		l.hooks.AfterStep(result)
	}
	return result
}

func (l *Loop) apply(cmd Command) {
	switch cmd.Type {
	case CommandInput:
		if cmd.Input != nil {
			l.match.HandleInput(cmd.ActorID, *cmd.Input)
		}
	}
}

func (l *Loop) drainCommands() []Command {
	l.queueMu.Lock()
	defer l.queueMu.Unlock()
	commands := l.buffer.Drain()
	if len(l.perActorCount) > 0 {
		l.perActorCount = make(map[string]int)
	}
	return commands
}

func (l *Loop) incrementDropLocked(actorID string) uint64 {
	if actorID == "" {
		return 0
	}
	count := l.dropCounts[actorID] + 1
	l.dropCounts[actorID] = count
	return count
}

func (l *Loop) reportDrop(reason string, cmd Command, count uint64) {
	if l.metrics != nil {
		l.metrics.Add("session_input_dropped_total", 1)
	}
	if l.hooks.OnCommandDrop != nil {
		l.hooks.OnCommandDrop(reason, cmd)
	}
	// Log on powers of two so a flooding client cannot flood the log.
	if count > 0 && count&(count-1) == 0 && l.logger != nil {
		l.logger.Printf(
			"[backpressure] dropping command session=%s actor=%s type=%s reason=%s count=%d limit=%d",
			l.match.ID(),
			cmd.ActorID,
			cmd.Type,
			reason,
			count,
			l.config.PerActorLimit,
		)
	}
}
