package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fastdatascience/insolvencybot/bot"
	"github.com/fastdatascience/insolvencybot/config"
	"github.com/fastdatascience/insolvencybot/llm"
	llmanthropic "github.com/fastdatascience/insolvencybot/llm/anthropic"
	llmopenai "github.com/fastdatascience/insolvencybot/llm/openai"
	"github.com/fastdatascience/insolvencybot/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	model := flag.String("model", "", "Model to use (see -list for options)")
	question := flag.String("q", "", "Ask a single question and exit")
	list := flag.Bool("list", false, "List supported models and exit")
	flag.Parse()

	if *list {
		for _, m := range llm.SupportedModels() {
			fmt.Printf("%-30s %s\n", m.ID, m.Description)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Keep structured logs out of the interactive session.
	log, err := logger.New(logger.Options{
		File:  "insolvencybot.log",
		Level: cfg.LogLevel,
		Debug: cfg.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if *model == "" {
		*model = cfg.DefaultModel
	}

	registry := llm.NewRegistry()
	if cfg.OpenAI.APIKey != "" {
		client, err := llmopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Organization)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create OpenAI client: %v\n", err)
			os.Exit(1)
		}
		registry.RegisterClient(llm.ProviderOpenAI, client)
	}
	if cfg.Anthropic.APIKey != "" {
		client, err := llmanthropic.NewClient(cfg.Anthropic.APIKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create Anthropic client: %v\n", err)
			os.Exit(1)
		}
		registry.RegisterClient(llm.ProviderAnthropic, client)
	}

	b := bot.New(registry, bot.RetryPolicy{
		MaxRetries:      cfg.Retry.MaxRetries,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
		MaxElapsedTime:  cfg.Retry.MaxElapsedTime,
	}, nil, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *question != "" {
		if !ask(ctx, b, *question, *model) {
			os.Exit(1)
		}
		return
	}

	fmt.Printf("insolvencybot (%s) - ask a UK insolvency law question, or 'quit' to exit\n", *model)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return
		}
		ask(ctx, b, line, *model)
		if ctx.Err() != nil {
			return
		}
	}
}

func ask(ctx context.Context, b *bot.Bot, question, model string) bool {
	answer, err := b.Answer(ctx, question, model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return false
	}

	fmt.Println(answer.Text)
	printRefs("Legislation", answer.Legislation)
	printRefs("Cases", answer.Cases)
	printRefs("Forms", answer.Forms)
	return true
}

func printRefs(label string, refs []string) {
	if len(refs) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", label)
	for _, ref := range refs {
		fmt.Printf("  - %s\n", ref)
	}
}
