// Command catalog-pull fetches the product catalog and writes it to a gzip
// snapshot file, for use as the offline fallback of the store server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/olshop/online-store/internal/source/fakestore"
)

func main() {
	var (
		url string
		out string
	)

	flag.StringVar(&url, "url", "https://fakestoreapi.com/products", "product catalog endpoint")
	flag.StringVar(&out, "out", "catalog.json.gz", "snapshot output path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, url, out); err != nil {
		slog.Error("catalog pull failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog pull completed", slog.String("out", out))
}

func run(ctx context.Context, url, out string) error {
	client := fakestore.NewClient(url)

	products, err := client.Fetch(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch catalog")
	}
	slog.Info("catalog fetched", slog.Int("products", len(products)))

	if err := fakestore.WriteSnapshot(out, products); err != nil {
		return errors.Wrapf(err, "write snapshot %s", out)
	}

	return nil
}
