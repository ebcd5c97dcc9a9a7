// Package database exposes database/sql to script code as database.open,
// grounded directly on the teacher's internal/database.DatabaseModule
// (Connect/ExecuteQuery's sql.Open + driver-blank-import shape, rows
// scanned into generic maps), generalized here from a security-scanning
// helper into the SPEC_FULL.md §1 domain module: open/query/exec/close.
package database

import (
	"database/sql"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"emerald/internal/heap"
	"emerald/internal/module"
	"emerald/internal/nativefn"
	"emerald/internal/object"
)

func init() {
	module.RegisterNativeInit("database", New)
}

func New(h *heap.Heap, protos *object.Prototypes) *object.Object {
	mod := object.NewModule(h, protos.Module, "database", nil, true)

	nativefn.Def(h, protos, mod, "open", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if exc := nativefn.Arity(ctx, "database.open", args, 2, 2); exc != nil {
			return nil, exc
		}
		driver, exc := nativefn.Str(ctx, args, 0, "database.open")
		if exc != nil {
			return nil, exc
		}
		dsn, exc := nativefn.Str(ctx, args, 1, "database.open")
		if exc != nil {
			return nil, exc
		}
		db, err := sql.Open(driver, dsn)
		if err != nil {
			return nil, nativefn.Wrap(ctx, err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nativefn.Wrap(ctx, err)
		}
		return newHandle(ctx, db), nil
	})

	return mod
}

func newHandle(ctx object.NativeContext, db *sql.DB) *object.Object {
	h := object.New(ctx.Heap(), ctx.Protos().Object)

	nativefn.DefOn(ctx, h, "query", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if exc := nativefn.Arity(ctx, "DB.query", args, 2, 2); exc != nil {
			return nil, exc
		}
		q, exc := nativefn.Str(ctx, args, 1, "DB.query")
		if exc != nil {
			return nil, exc
		}
		rows, err := db.Query(q)
		if err != nil {
			return nil, nativefn.Wrap(ctx, err)
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return nil, nativefn.Wrap(ctx, err)
		}

		var out []*object.Object
		for rows.Next() {
			values := make([]interface{}, len(cols))
			ptrs := make([]interface{}, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return nil, nativefn.Wrap(ctx, err)
			}
			row := object.New(ctx.Heap(), ctx.Protos().Object)
			for i, col := range cols {
				_ = row.SetProperty(col, toObject(ctx, values[i]))
			}
			out = append(out, row)
		}
		return nativefn.NewArr(ctx, out), nil
	})

	nativefn.DefOn(ctx, h, "exec", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if exc := nativefn.Arity(ctx, "DB.exec", args, 2, 2); exc != nil {
			return nil, exc
		}
		q, exc := nativefn.Str(ctx, args, 1, "DB.exec")
		if exc != nil {
			return nil, exc
		}
		result, err := db.Exec(q)
		if err != nil {
			return nil, nativefn.Wrap(ctx, err)
		}
		n, _ := result.RowsAffected()
		return nativefn.NewNum(ctx, float64(n)), nil
	})

	nativefn.DefOn(ctx, h, "close", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if err := db.Close(); err != nil {
			return nil, nativefn.Wrap(ctx, err)
		}
		return ctx.Protos().NullValue, nil
	})

	return h
}

func toObject(ctx object.NativeContext, v interface{}) *object.Object {
	switch x := v.(type) {
	case nil:
		return ctx.Protos().NullValue
	case []byte:
		return nativefn.NewStr(ctx, string(x))
	case string:
		return nativefn.NewStr(ctx, x)
	case int64:
		return nativefn.NewNum(ctx, float64(x))
	case float64:
		return nativefn.NewNum(ctx, x)
	case bool:
		return nativefn.NewBool(ctx, x)
	default:
		return nativefn.NewStr(ctx, "")
	}
}
