// Package codec maps entities to and from the flat snake_case rows the
// gateway stores. Optional fields travel as explicit nils and timestamps as
// RFC3339 strings.
package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhishek622/careerflow/internal/gateway"
)

const TimeLayout = time.RFC3339Nano

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func optInt(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func optTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return FormatTime(*p)
}

type reader struct {
	row gateway.Row
	err error
}

func (r *reader) fail(col string, v any) {
	if r.err == nil {
		r.err = fmt.Errorf("column %s: unexpected value %T(%v)", col, v, v)
	}
}

func (r *reader) str(col string) string {
	p := r.optStr(col)
	if p == nil {
		return ""
	}
	return *p
}

func (r *reader) requiredStr(col string) string {
	p := r.optStr(col)
	if p == nil {
		if r.err == nil {
			r.err = fmt.Errorf("column %s: missing", col)
		}
		return ""
	}
	return *p
}

func (r *reader) optStr(col string) *string {
	switch v := r.row[col].(type) {
	case nil:
		return nil
	case string:
		return &v
	case fmt.Stringer:
		s := v.String()
		return &s
	default:
		r.fail(col, v)
		return nil
	}
}

func (r *reader) optInt(col string) *int64 {
	var n int64
	switch v := r.row[col].(type) {
	case nil:
		return nil
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			r.fail(col, v)
			return nil
		}
		n = i
	default:
		r.fail(col, v)
		return nil
	}
	return &n
}

func (r *reader) boolean(col string) bool {
	switch v := r.row[col].(type) {
	case nil:
		return false
	case bool:
		return v
	default:
		r.fail(col, v)
		return false
	}
}

func (r *reader) optTime(col string) *time.Time {
	switch v := r.row[col].(type) {
	case nil:
		return nil
	case time.Time:
		return &v
	case string:
		t, err := time.Parse(TimeLayout, v)
		if err != nil {
			r.fail(col, v)
			return nil
		}
		return &t
	default:
		r.fail(col, v)
		return nil
	}
}

func (r *reader) time(col string) time.Time {
	p := r.optTime(col)
	if p == nil {
		if r.err == nil {
			r.err = fmt.Errorf("column %s: missing", col)
		}
		return time.Time{}
	}
	return *p
}
