package fakestore

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"

	"github.com/olshop/online-store/internal/domain/catalog"
)

// WriteSnapshot stores the product list as a gzipped JSON file, replacing
// any previous snapshot atomically.
func WriteSnapshot(path string, products []catalog.Product) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create snapshot dir")
	}

	tmp, err := os.CreateTemp(dir, ".catalog-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	zw := pgzip.NewWriter(tmp)
	if _, err := zw.Write(encodeProducts(products)); err != nil {
		zw.Close()
		tmp.Close()
		return errors.Wrap(err, "write snapshot")
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "close gzip writer")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync snapshot")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "replace snapshot")
	}
	return nil
}

// ReadSnapshot loads a previously written snapshot.
func ReadSnapshot(path string) ([]catalog.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot")
	}
	defer f.Close()

	zr, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "open gzip reader")
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}

	products, err := decodeProducts(data)
	if err != nil {
		return nil, errors.Wrap(err, "decode snapshot")
	}
	return products, nil
}
