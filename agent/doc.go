// Package agent implements an orchestration loop that pairs a large
// language model with tools.
//
// The loop drives the model through repeated round trips: send the
// conversation, execute whatever tool calls come back, append the results,
// and repeat until the model finishes its turn or a configured limit stops
// it. The llm package's Client.Complete() is used directly; this package
// owns the turn loop, tool dispatch, truncation, events, and loop detection.
//
// # Architecture
//
// The package is organized around these core concepts:
//
//   - Loop: The orchestrator holding conversation state, calling the
//     provider, dispatching tool calls, and enforcing limits.
//   - History: Append-only conversation record with the tool-call pairing
//     invariant enforced before every provider call.
//   - Tool / Registry: The capability contract tools implement and the
//     read-only collection the dispatcher resolves against.
//   - Dispatcher: Executes one batch of tool calls, applying policy,
//     argument validation, and output truncation.
//   - EventEmitter: Typed event stream for host application integration.
//
// # Quick Start
//
//	client := llm.NewClient(llm.WithProvider(provider))
//	registry, _ := agent.NewRegistry(tools...)
//	loop, _ := agent.NewLoop(client, registry, agent.Config{
//	    Model:    "claude-opus-4-6",
//	    MaxTurns: 20,
//	})
//	defer loop.Close()
//
//	result, err := loop.Run(ctx, "Create a hello.py file")
package agent
