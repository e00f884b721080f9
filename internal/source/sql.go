package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/netip"
	"strconv"
	"time"

	"github.com/imgajeed76/pgrid/internal/db"
	"github.com/imgajeed76/pgrid/internal/util"
	"github.com/jackc/pgx/v5/pgtype"
)

// Query runs sql against conn and converts the result.
func Query(ctx context.Context, conn *db.DB, sql string) (*Table, error) {
	rs, err := conn.QueryAll(ctx, sql)
	if err != nil {
		return nil, err
	}
	return FromResultSet("query", rs)
}

// FromResultSet converts a buffered query result. Numeric and time columns
// keep their decoded value for sorting; everything else is shown as text.
func FromResultSet(name string, rs *db.ResultSet) (*Table, error) {
	if rs == nil || len(rs.Columns) == 0 {
		return nil, fmt.Errorf("%s: %w", name, util.ErrEmptySource)
	}

	t := newTable(name, rs.Columns)
	t.Records = make([]Record, len(rs.Rows))
	for i, row := range rs.Rows {
		rec := make(Record, len(row))
		for j, v := range row {
			rec[j] = sqlValue(v)
		}
		t.Records[i] = rec
	}

	t.pad()
	t.infer()
	return t, nil
}

func sqlValue(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{Text: Null, Null: true}
	case string:
		return Value{Text: util.EscapeControl(x)}
	case []byte:
		return Value{Text: fmt.Sprintf("\\x%x", x)}
	case bool:
		return Value{Text: strconv.FormatBool(x)}
	case int16:
		return Value{Text: strconv.FormatInt(int64(x), 10), Num: float64(x)}
	case int32:
		return Value{Text: strconv.FormatInt(int64(x), 10), Num: float64(x)}
	case int64:
		return Value{Text: strconv.FormatInt(x, 10), Num: float64(x)}
	case float32:
		return Value{Text: strconv.FormatFloat(float64(x), 'f', -1, 32), Num: float64(x)}
	case float64:
		return Value{Text: strconv.FormatFloat(x, 'f', -1, 64), Num: x}
	case pgtype.Numeric:
		return numericValue(x)
	case time.Time:
		return Value{Text: x.Format("2006-01-02 15:04:05"), Time: x}
	case pgtype.Time:
		if !x.Valid {
			return Value{Text: Null, Null: true}
		}
		d := time.Duration(x.Microseconds) * time.Microsecond
		return Value{Text: time.Time{}.Add(d).Format("15:04:05")}
	case netip.Prefix:
		return Value{Text: x.String()}
	case [16]byte:
		return Value{Text: fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16])}
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err == nil {
			return Value{Text: string(b)}
		}
	}
	return Value{Text: util.EscapeControl(fmt.Sprint(v))}
}

func numericValue(n pgtype.Numeric) Value {
	if !n.Valid {
		return Value{Text: Null, Null: true}
	}
	if n.NaN {
		return Value{Text: "NaN"}
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return Value{Text: n.Int.String()}
	}

	// Render the exact decimal rather than the float.
	text := strconv.FormatFloat(f.Float64, 'f', -1, 64)
	if n.Int != nil && n.Exp <= 0 {
		r := new(big.Rat).SetFrac(n.Int, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(-n.Exp)), nil))
		text = r.FloatString(int(-n.Exp))
	}
	return Value{Text: text, Num: f.Float64}
}
