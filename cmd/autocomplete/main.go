// Command autocomplete drives the destination autocompleter from a terminal.
// Each line read from stdin is the current content of the input box; a line
// starting with "#N" selects the Nth suggestion.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"travelenda/internal/destinations"
	"travelenda/internal/liteapi"
	"travelenda/internal/shared/config"
	"travelenda/pkg/cache"
	"travelenda/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	delay := flag.Duration("delay", destinations.DefaultDebounce, "debounce after the last keystroke")
	limit := flag.Int("limit", 8, "maximum suggestions")
	useCache := flag.Bool("cache", true, "go through the Redis-backed destination service")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	appLogger := logger.NewWithWriter(os.Stderr, cfg.LogLevel)

	fmt.Println("🧭 Destination autocomplete")
	fmt.Println("===========================")

	inventory := liteapi.NewClient(liteapi.Config{
		BaseURL:      cfg.LiteAPI.BaseURL,
		APIKey:       cfg.LiteAPI.APIKey,
		Timeout:      cfg.LiteAPI.Timeout,
		MaxRetries:   cfg.LiteAPI.MaxRetries,
		RetryBackoff: cfg.LiteAPI.RetryBackoff,
	}, nil, appLogger)

	fetch := destinations.NewFetcher(inventory, *limit)
	if *useCache {
		if client, err := connectRedis(cfg); err != nil {
			fmt.Printf("⚠️  Redis unavailable, calling the provider directly: %v\n", err)
		} else {
			defer client.Close()
			fmt.Println("✅ Redis connection: OK")
			service := destinations.NewService(inventory, cache.NewService(client), appLogger)
			fetch = destinations.ServiceFetcher(service, *limit)
		}
	}

	updates := make(chan destinations.State, 16)
	input := destinations.NewAutocompleter(fetch, *delay, func(s destinations.State) {
		select {
		case updates <- s:
		default:
		}
	})

	go func() {
		for s := range updates {
			printState(s)
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			selectSuggestion(input, strings.TrimPrefix(line, "#"))
			continue
		}
		input.Type(line)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("❌ reading input: %v", err)
	}

	// Let a pending lookup finish before exiting
	time.Sleep(*delay + cfg.LiteAPI.Timeout/10)
	input.Close()
	close(updates)
}

func connectRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func selectSuggestion(input *destinations.Autocompleter, raw string) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	suggestions := input.State().Suggestions
	if err != nil || n < 1 || n > len(suggestions) {
		fmt.Printf("   no suggestion #%s\n", raw)
		return
	}
	input.Select(suggestions[n-1])
}

func printState(s destinations.State) {
	if s.Selected != nil {
		fmt.Printf("📍 Selected: %s\n", s.Input)
		return
	}
	if !s.Open {
		fmt.Printf("   %q: no suggestions\n", s.Input)
		return
	}
	fmt.Printf("🔍 %q\n", s.Input)
	for i, d := range s.Suggestions {
		fmt.Printf("   #%d %s\n", i+1, destinations.Label(d))
	}
}
