package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/martinemde/convoy/agent"
	"github.com/martinemde/convoy/llm"
	"github.com/martinemde/convoy/toolbox"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "convoy: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg.Verbose)

	client, err := buildClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	ws, err := toolbox.NewWorkspace(cfg.Workspace)
	if err != nil {
		return err
	}

	registry, err := agent.NewRegistry(toolbox.Tools(ws)...)
	if err != nil {
		return err
	}

	model := cfg.Model
	if model == "" {
		model = llm.DefaultModel(cfg.Provider)
	}

	retry := llm.DefaultRetryPolicy()
	retry.MaxRetries = cfg.MaxRetries

	loop, err := agent.NewLoop(client, registry, agent.Config{
		Model:         model,
		Provider:      cfg.Provider,
		SystemPrompt:  systemPrompt(ws.Root()),
		MaxTurns:      cfg.MaxTurns,
		Retry:         &retry,
		MaxTokens:     cfg.MaxTokens,
		ParallelTools: cfg.Parallel,
		DetectLoops:   true,
	})
	if err != nil {
		return err
	}
	defer loop.Close()

	// Drain loop events into the log so tool activity stays visible.
	go func() {
		for event := range loop.Events() {
			switch event.Kind {
			case agent.EventToolCallStart:
				logger.Info("tool call", "tool", event.Data["tool_name"])
			case agent.EventRetry:
				logger.Warn("retrying provider call", "attempt", event.Data["attempt"], "delay", event.Data["delay"])
			case agent.EventTurnLimit:
				logger.Warn("turn limit reached", "turns", event.Data["turns"])
			case agent.EventLoopDetection:
				logger.Warn("loop detected", "message", event.Data["message"])
			case agent.EventError:
				logger.Error("loop error", "error", event.Data["error"])
			default:
				logger.Debug(string(event.Kind), "data", event.Data)
			}
		}
	}()

	logger.Info("starting", "provider", cfg.Provider, "model", model, "workspace", ws.Root())
	fmt.Println("Chat with the agent. Type 'exit' or Ctrl-D to quit; Ctrl-C cancels the current run.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\u001b[94myou\u001b[0m: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		historyBefore := len(loop.History())

		// SIGINT cancels the in-flight run, not the process.
		ctx, cancel := context.WithCancel(context.Background())
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case <-sigch:
				fmt.Println("\nCancelling...")
				cancel()
			case <-ctx.Done():
			}
		}()

		result, err := loop.Run(ctx, input)
		signal.Stop(sigch)
		cancel()

		if err != nil {
			logger.Error("run failed", "error", err)
			continue
		}
		for _, text := range assistantTextSince(result.History, historyBefore) {
			fmt.Printf("[93magent[0m: %s\n", text)
		}
		logger.Debug("run complete",
			"turns", result.Turns,
			"stop_reason", string(result.StopReason),
			"input_tokens", result.Usage.InputTokens,
			"output_tokens", result.Usage.OutputTokens,
		)
	}

	fmt.Println("Goodbye.")
	return nil
}

func buildClient(cfg Config) (*llm.Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return llm.NewClient(llm.WithProvider(llm.NewAnthropicProvider())), nil
	default:
		provider, err := llm.NewGollmProvider(cfg.Provider, llm.WithModel(cfg.Model))
		if err != nil {
			return nil, err
		}
		return llm.NewClient(llm.WithProvider(provider)), nil
	}
}

// assistantTextSince collects non-empty assistant text from history[start:].
// Anchoring on the pre-run history length keeps injected user-role messages
// (loop-detection steering) from hiding earlier assistant output.
func assistantTextSince(history []llm.Message, start int) []string {
	if start < 0 || start > len(history) {
		start = 0
	}
	var texts []string
	for _, msg := range history[start:] {
		if msg.Role != llm.RoleAssistant {
			continue
		}
		if text := msg.TextContent(); text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}
