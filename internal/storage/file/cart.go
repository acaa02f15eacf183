// Package file implements the durable slots of the application as local
// files: the cart slot and the order history log.
package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/olshop/online-store/internal/domain/cart"
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository stores the cart line sequence in a single JSON file.
// Save overwrites the whole slot (last-writer-wins, no merge, no
// versioning); Load treats a missing or malformed slot as an empty cart.
type CartRepository struct {
	path string
}

// NewCartRepository returns a CartRepository backed by the file at path.
func NewCartRepository(path string) *CartRepository {
	return &CartRepository{path: path}
}

// Save serializes the full line sequence and atomically replaces the slot.
func (r *CartRepository) Save(_ context.Context, lines []cart.Line) error {
	var e jx.Encoder
	e.ArrStart()
	for _, l := range lines {
		encodeLine(&e, l)
	}
	e.ArrEnd()

	if err := writeAtomic(r.path, e.Bytes()); err != nil {
		return errors.Wrap(err, "write cart slot")
	}
	return nil
}

// Load deserializes the slot. A missing file or any shape mismatch yields an
// empty cart and no error: malformed persisted data is treated as "no cart".
func (r *CartRepository) Load(_ context.Context) ([]cart.Line, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, nil
	}

	lines, err := decodeLines(data)
	if err != nil {
		return nil, nil
	}
	return lines, nil
}

func encodeLine(e *jx.Encoder, l cart.Line) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int(l.ID)
	e.FieldStart("title")
	e.Str(l.Title)
	e.FieldStart("price")
	e.Num(jx.Num(l.Price.String()))
	e.FieldStart("image")
	e.Str(l.Image)
	e.FieldStart("qty")
	e.Int(l.Qty)
	e.ObjEnd()
}

func decodeLines(data []byte) ([]cart.Line, error) {
	d := jx.DecodeBytes(data)

	var lines []cart.Line
	err := d.Arr(func(d *jx.Decoder) error {
		l, err := decodeLine(d)
		if err != nil {
			return err
		}
		lines = append(lines, l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func decodeLine(d *jx.Decoder) (cart.Line, error) {
	var l cart.Line
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Int()
			if err != nil {
				return err
			}
			l.ID = v
		case "title":
			v, err := d.Str()
			if err != nil {
				return err
			}
			l.Title = v
		case "price":
			n, err := d.Num()
			if err != nil {
				return err
			}
			p, err := decimal.NewFromString(strings.Trim(n.String(), `"`))
			if err != nil {
				return err
			}
			l.Price = p
		case "image":
			v, err := d.Str()
			if err != nil {
				return err
			}
			l.Image = v
		case "qty":
			v, err := d.Int()
			if err != nil {
				return err
			}
			l.Qty = v
		default:
			return d.Skip()
		}
		return nil
	})
	return l, err
}

// writeAtomic writes data to a temp file in the target directory, syncs it,
// and renames it over path so readers never observe a partial slot.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create data dir")
	}

	tmp, err := os.CreateTemp(dir, ".slot-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "replace slot")
	}
	return nil
}
