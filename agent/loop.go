package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/martinemde/convoy/llm"
)

// State is the lifecycle state of a Loop.
type State string

const (
	StateInit           State = "init"
	StateAwaitingModel  State = "awaiting_model"
	StateExecutingTools State = "executing_tools"
	StateDone           State = "done"
)

// StopReason explains why a run terminated.
type StopReason string

const (
	StopEndTurn          StopReason = "end_turn"
	StopMaxTurnsExceeded StopReason = "max_turns_exceeded"
	StopError            StopReason = "error"
)

// Config holds the per-loop configuration. It is validated at construction
// and immutable afterwards.
type Config struct {
	// Model is the model ID sent with every request.
	Model string

	// Provider routes requests to a specific registered provider. Empty
	// means client-side resolution (default provider or model catalog).
	Provider string

	// SystemPrompt is sent out of band with every request.
	SystemPrompt string

	// MaxTurns bounds provider round trips per run. Required, must be > 0.
	MaxTurns int

	// Retry overrides the retry policy for provider calls. Nil means
	// llm.DefaultRetryPolicy. Retries never appear in the history.
	Retry *llm.RetryPolicy

	// MaxTokens and Temperature pass through to the provider.
	MaxTokens   int
	Temperature *float64

	// Policy authorizes tool invocations. Nil means AllowAll.
	Policy Policy

	// ParallelTools executes each batch of tool calls concurrently.
	// Results keep request order either way.
	ParallelTools bool

	// CharLimits and LineLimits override per-tool output truncation.
	CharLimits map[string]int
	LineLimits map[string]int

	// DetectLoops injects a steering message when the recent tool calls
	// repeat; LoopWindow is how many calls to examine (default 10).
	DetectLoops bool
	LoopWindow  int

	// EventBuffer sizes the event channel (default 256).
	EventBuffer int
}

// RunResult is the outcome of one Run call. History is a snapshot of the
// full conversation, available even when the run ended in an error.
type RunResult struct {
	RunID      string
	StopReason StopReason
	State      State
	Turns      int
	Usage      llm.Usage
	History    []llm.Message
}

// Loop drives the conversation: send history to the model, execute whatever
// tool calls come back, append results, repeat. History persists across Run
// calls; the turn counter resets each run.
type Loop struct {
	client   *llm.Client
	registry *Registry
	config   Config
	history  *History
	emitter  *EventEmitter

	mu      sync.Mutex
	state   State
	running bool
}

// NewLoop creates a Loop over the given client and registry.
func NewLoop(client *llm.Client, registry *Registry, config Config) (*Loop, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if config.MaxTurns <= 0 {
		return nil, fmt.Errorf("max turns must be positive, got %d", config.MaxTurns)
	}
	if config.LoopWindow <= 0 {
		config.LoopWindow = 10
	}

	return &Loop{
		client:   client,
		registry: registry,
		config:   config,
		history:  NewHistory(),
		emitter:  NewEventEmitter(uuid.New().String(), config.EventBuffer),
		state:    StateInit,
	}, nil
}

// State returns the current loop state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// History returns a snapshot of the conversation so far.
func (l *Loop) History() []llm.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.history.Messages()
}

// Events returns the event channel for host integration.
func (l *Loop) Events() <-chan Event {
	return l.emitter.Events()
}

// Close releases the event channel. The Loop must not be used afterwards.
func (l *Loop) Close() {
	l.emitter.Close()
}

// Run processes one user input through the loop until the model ends its
// turn, the turn limit is hit, or a fatal error occurs. The returned
// RunResult is non-nil in every case; err is non-nil only when StopReason
// is StopError.
func (l *Loop) Run(ctx context.Context, input string) (*RunResult, error) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil, fmt.Errorf("run already in progress")
	}
	l.running = true
	l.state = StateInit
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	runID := uuid.New().String()
	l.emitter.SetRunID(runID)
	l.emitter.Emit(EventRunStart, map[string]interface{}{"run_id": runID})

	l.appendMessage(llm.UserMessage(input))
	l.emitter.Emit(EventUserInput, map[string]interface{}{"content": input})

	dispatcher := l.newDispatcher()

	var (
		turns int
		usage llm.Usage
	)

	finish := func(reason StopReason, err error) (*RunResult, error) {
		l.mu.Lock()
		l.state = StateDone
		snapshot := l.history.Messages()
		l.mu.Unlock()

		data := map[string]interface{}{
			"run_id":      runID,
			"stop_reason": string(reason),
			"turns":       turns,
		}
		if err != nil {
			data["error"] = err.Error()
		}
		l.emitter.Emit(EventRunEnd, data)

		return &RunResult{
			RunID:      runID,
			StopReason: reason,
			State:      StateDone,
			Turns:      turns,
			Usage:      usage,
			History:    snapshot,
		}, err
	}

	for {
		if err := ctx.Err(); err != nil {
			l.emitter.Emit(EventError, map[string]interface{}{"error": err.Error()})
			return finish(StopError, err)
		}

		if turns >= l.config.MaxTurns {
			l.emitter.Emit(EventTurnLimit, map[string]interface{}{"turns": turns})
			return finish(StopMaxTurnsExceeded, nil)
		}

		// Every tool call must be answered before the next provider call.
		if unresolved := l.unresolvedCalls(); len(unresolved) > 0 {
			err := fmt.Errorf("history has unresolved tool calls: %v", unresolved)
			return finish(StopError, err)
		}

		l.setState(StateAwaitingModel)
		req := l.buildRequest()
		l.emitter.Emit(EventModelCall, map[string]interface{}{
			"model": req.Model,
			"turn":  turns + 1,
		})

		resp, err := llm.Retry(ctx, l.retryPolicy(), func(ctx context.Context) (*llm.Response, error) {
			return l.client.Complete(ctx, req)
		})
		if err != nil {
			l.emitter.Emit(EventError, map[string]interface{}{"error": err.Error()})
			return finish(StopError, fmt.Errorf("provider call failed: %w", err))
		}

		turns++
		usage = usage.Add(resp.Usage)
		l.appendMessage(resp.Message)
		l.emitter.Emit(EventModelResponse, map[string]interface{}{
			"text":        resp.Text(),
			"stop_reason": string(resp.StopReason),
			"tool_calls":  len(resp.ToolCalls()),
		})

		calls := resp.ToolCalls()
		if len(calls) == 0 {
			return finish(StopEndTurn, nil)
		}

		l.setState(StateExecutingTools)
		results, dispatchErr := dispatcher.Dispatch(ctx, calls)

		// Results are appended even on failure so every call stays paired
		// with a result in the snapshot.
		l.appendMessage(llm.ToolResultsMessage(results))

		if dispatchErr != nil {
			l.emitter.Emit(EventError, map[string]interface{}{"error": dispatchErr.Error()})
			return finish(StopError, fmt.Errorf("tool dispatch failed: %w", dispatchErr))
		}

		if l.config.DetectLoops {
			if DetectLoop(l.History(), l.config.LoopWindow) {
				warning := fmt.Sprintf("Loop detected: the last %d tool calls follow a repeating pattern. Try a different approach.", l.config.LoopWindow)
				l.appendMessage(llm.UserMessage(warning))
				l.emitter.Emit(EventLoopDetection, map[string]interface{}{"message": warning})
			}
		}
	}
}

func (l *Loop) newDispatcher() *Dispatcher {
	opts := []DispatcherOption{
		WithParallel(l.config.ParallelTools),
		WithEmitter(l.emitter),
		WithOutputLimits(l.config.CharLimits, l.config.LineLimits),
	}
	if l.config.Policy != nil {
		opts = append(opts, WithPolicy(l.config.Policy))
	}
	return NewDispatcher(l.registry, opts...)
}

func (l *Loop) buildRequest() llm.Request {
	l.mu.Lock()
	messages := l.history.Messages()
	l.mu.Unlock()

	return llm.Request{
		Model:       l.config.Model,
		Provider:    l.config.Provider,
		System:      l.config.SystemPrompt,
		Messages:    messages,
		Tools:       l.registry.Definitions(),
		MaxTokens:   l.config.MaxTokens,
		Temperature: l.config.Temperature,
	}
}

func (l *Loop) retryPolicy() llm.RetryPolicy {
	var policy llm.RetryPolicy
	if l.config.Retry != nil {
		policy = *l.config.Retry
	} else {
		policy = llm.DefaultRetryPolicy()
	}

	userHook := policy.OnRetry
	policy.OnRetry = func(err error, attempt int, delay time.Duration) {
		l.emitter.Emit(EventRetry, map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		})
		if userHook != nil {
			userHook(err, attempt, delay)
		}
	}
	return policy
}

func (l *Loop) appendMessage(msg llm.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.history.Append(msg)
}

func (l *Loop) unresolvedCalls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.history.UnresolvedCalls()
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = s
}
