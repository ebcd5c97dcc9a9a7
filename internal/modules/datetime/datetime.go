// Package datetime exposes stdlib time.Time to script code as a small Date
// object plus free functions, grounded on
// original_source/src/modules/datetime.cpp's Date/TimeDuration shape
// (SPEC_FULL.md §3). No third-party library is wired here because nothing
// in the example pack reaches for one to format or arithmetic on dates
// (see DESIGN.md); boost's lexical_cast/gregorian in the original are
// replaced one-for-one by stdlib time.
package datetime

import (
	"strings"
	"time"

	"emerald/internal/heap"
	"emerald/internal/module"
	"emerald/internal/nativefn"
	"emerald/internal/object"
)

func init() {
	module.RegisterNativeInit("datetime", New)
}

func New(h *heap.Heap, protos *object.Prototypes) *object.Object {
	mod := object.NewModule(h, protos.Module, "datetime", nil, true)

	nativefn.Def(h, protos, mod, "now", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		return newDate(ctx, time.Now())
	})

	nativefn.Def(h, protos, mod, "date", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if exc := nativefn.Arity(ctx, "datetime.date", args, 3, 3); exc != nil {
			return nil, exc
		}
		y, exc := nativefn.Num(ctx, args, 0, "datetime.date")
		if exc != nil {
			return nil, exc
		}
		m, exc := nativefn.Num(ctx, args, 1, "datetime.date")
		if exc != nil {
			return nil, exc
		}
		d, exc := nativefn.Num(ctx, args, 2, "datetime.date")
		if exc != nil {
			return nil, exc
		}
		return newDate(ctx, time.Date(int(y), time.Month(int(m)), int(d), 0, 0, 0, 0, time.UTC))
	})

	nativefn.Def(h, protos, mod, "format", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if exc := nativefn.Arity(ctx, "datetime.format", args, 2, 2); exc != nil {
			return nil, exc
		}
		t, exc := dateOf(ctx, args, 0, "datetime.format")
		if exc != nil {
			return nil, exc
		}
		layout, exc := nativefn.Str(ctx, args, 1, "datetime.format")
		if exc != nil {
			return nil, exc
		}
		return nativefn.NewStr(ctx, t.Format(goLayout(layout))), nil
	})

	nativefn.Def(h, protos, mod, "parse", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		if exc := nativefn.Arity(ctx, "datetime.parse", args, 2, 2); exc != nil {
			return nil, exc
		}
		layout, exc := nativefn.Str(ctx, args, 0, "datetime.parse")
		if exc != nil {
			return nil, exc
		}
		s, exc := nativefn.Str(ctx, args, 1, "datetime.parse")
		if exc != nil {
			return nil, exc
		}
		t, err := time.Parse(goLayout(layout), s)
		if err != nil {
			return nil, nativefn.Wrap(ctx, err)
		}
		return newDate(ctx, t)
	})

	return mod
}

// goLayout translates the handful of strftime-style directives the
// original's format strings used into Go's reference-time layout, leaving
// anything else untouched so a caller may also pass a native Go layout.
func goLayout(s string) string {
	r := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
	)
	return r.Replace(s)
}

// newDate builds a Date Object from t, storing the Unix timestamp plus the
// year/month/day/hour/minute/second components as plain properties —
// simpler than the original's embedded boost::gregorian::date, but the
// same read surface (Date::year/month/day/day_of_week accessors).
func newDate(ctx object.NativeContext, t time.Time) (*object.Object, *object.Object) {
	o := object.New(ctx.Heap(), ctx.Protos().Object)
	_ = o.SetProperty("unix", nativefn.NewNum(ctx, float64(t.Unix())))
	_ = o.SetProperty("year", nativefn.NewNum(ctx, float64(t.Year())))
	_ = o.SetProperty("month", nativefn.NewNum(ctx, float64(t.Month())))
	_ = o.SetProperty("day", nativefn.NewNum(ctx, float64(t.Day())))
	_ = o.SetProperty("hour", nativefn.NewNum(ctx, float64(t.Hour())))
	_ = o.SetProperty("minute", nativefn.NewNum(ctx, float64(t.Minute())))
	_ = o.SetProperty("second", nativefn.NewNum(ctx, float64(t.Second())))
	_ = o.SetProperty("weekday", nativefn.NewStr(ctx, t.Weekday().String()))
	nativefn.DefOn(ctx, o, object.MagicMethods.Str, func(_ []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		return nativefn.NewStr(ctx, t.Format("2006-01-02 15:04:05")), nil
	})
	nativefn.DefOn(ctx, o, "add_days", func(args []*object.Object, ctx object.NativeContext) (*object.Object, *object.Object) {
		n, exc := nativefn.Num(ctx, args, 1, "Date.add_days")
		if exc != nil {
			return nil, exc
		}
		return newDate(ctx, t.AddDate(0, 0, int(n)))
	})
	return o, nil
}

func dateOf(ctx object.NativeContext, args []*object.Object, i int, who string) (time.Time, *object.Object) {
	if i >= len(args) {
		return time.Time{}, ctx.Raise("type error", who+": missing Date argument")
	}
	prop, ok := args[i].GetProperty("unix")
	if !ok || prop.Kind != object.KindNumber {
		return time.Time{}, ctx.Raise("type error", who+": argument is not a Date")
	}
	return time.Unix(int64(prop.Num()), 0).UTC(), nil
}
