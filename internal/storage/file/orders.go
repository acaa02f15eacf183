package file

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/olshop/online-store/internal/checkout"
)

var _ checkout.Repository = (*OrderRepository)(nil)

// OrderRepository keeps the local order history as one JSON record per line,
// append-only. Records that fail to decode are skipped on read.
type OrderRepository struct {
	path string
}

// NewOrderRepository returns an OrderRepository backed by the file at path.
func NewOrderRepository(path string) *OrderRepository {
	return &OrderRepository{path: path}
}

// Append writes one order record to the end of the history log.
func (r *OrderRepository) Append(_ context.Context, o checkout.Order) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return errors.Wrap(err, "create data dir")
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "open order log")
	}
	defer f.Close()

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("created_at")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	e.FieldStart("total")
	e.Num(jx.Num(o.Total.String()))
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range o.Lines {
		encodeLine(&e, l)
	}
	e.ArrEnd()
	e.ObjEnd()

	if _, err := f.Write(append(e.Bytes(), '\n')); err != nil {
		return errors.Wrap(err, "append order")
	}
	return nil
}

// List returns every decodable order in the history, oldest first. A missing
// log is an empty history.
func (r *OrderRepository) List(_ context.Context) ([]checkout.Order, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	var orders []checkout.Order
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		o, err := decodeOrder(line)
		if err != nil {
			continue
		}
		orders = append(orders, o)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "scan order log")
	}
	return orders, nil
}

func decodeOrder(data []byte) (checkout.Order, error) {
	var o checkout.Order
	d := jx.DecodeBytes(data)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "id":
			v, err := d.Str()
			if err != nil {
				return err
			}
			o.ID = v
		case "created_at":
			v, err := d.Str()
			if err != nil {
				return err
			}
			ts, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return err
			}
			o.CreatedAt = ts
		case "total":
			n, err := d.Num()
			if err != nil {
				return err
			}
			total, err := decimal.NewFromString(strings.Trim(n.String(), `"`))
			if err != nil {
				return err
			}
			o.Total = total
		case "lines":
			return d.Arr(func(d *jx.Decoder) error {
				l, err := decodeLine(d)
				if err != nil {
					return err
				}
				o.Lines = append(o.Lines, l)
				return nil
			})
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return checkout.Order{}, err
	}
	return o, nil
}
