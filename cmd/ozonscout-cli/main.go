// Command ozonscout-cli runs a single search from the terminal and
// prints the extracted products. Useful for trying out selectors and
// timing settings without standing up the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/use-agent/ozonscout/config"
	"github.com/use-agent/ozonscout/scraper"
)

func main() {
	query := flag.String("query", "мыло", "search query")
	count := flag.Int("count", 0, "max cards to extract (0 = configured default)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if *count > 0 {
		cfg.Scraper.CardLimit = *count
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	sc, err := scraper.New(cfg.Browser, cfg.Scraper)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}

	results, err := sc.DoSearch(context.Background(), sc.SearchURL(*query))
	if err != nil {
		slog.Error("search failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully found %d cards\n", len(results))
	for i, p := range results {
		fmt.Printf("%d) Link: %s/product/%s\n", i+1, cfg.Scraper.ProductOrigin, p.ProductID)
		fmt.Printf("Image: %s\n", strOrNone(p.ImageURL))
		fmt.Printf("Name: %s\n", p.ShortName)
		fmt.Printf("Article: %s\n", p.ProductID)
		fmt.Printf("Price: %s\n", strOrNone(p.Price))
		fmt.Printf("Price with card: %s\n", strOrNone(p.PriceWithCard))
		fmt.Println()
	}
}

func strOrNone(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
