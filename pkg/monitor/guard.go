package monitor

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pvmon/pvmon-go/pkg/pv"
)

// DefaultExceptionLimit is the exception count at which diagnostics stop.
const DefaultExceptionLimit = 25

const unavailable = "unavailable"

// ExceptionGuard prints diagnostics for transport exceptions until a limit
// is reached, then deregisters itself and stays silent for good.
type ExceptionGuard struct {
	limit      int
	w          io.Writer
	describe   func(pv.Handle) (pv.ChannelInfo, bool)
	deregister func()

	count    int
	silenced bool
}

// NewExceptionGuard creates a guard writing to w. describe resolves channel
// details for the diagnostic block and may be nil. deregister is called once
// when the limit is reached.
func NewExceptionGuard(limit int, w io.Writer, describe func(pv.Handle) (pv.ChannelInfo, bool), deregister func()) *ExceptionGuard {
	if limit <= 0 {
		limit = DefaultExceptionLimit
	}
	return &ExceptionGuard{
		limit:      limit,
		w:          w,
		describe:   describe,
		deregister: deregister,
	}
}

// Handle counts ex and prints its diagnostics. It reports whether anything
// was printed.
func (g *ExceptionGuard) Handle(ex pv.Exception) bool {
	g.count++
	if g.silenced {
		return false
	}
	if g.count >= g.limit {
		g.silenced = true
		fmt.Fprintln(g.w, "too many exceptions, suppressing further diagnostics")
		if g.deregister != nil {
			g.deregister()
		}
		return true
	}
	g.print(ex)
	return true
}

// Count returns the number of exceptions seen, including suppressed ones.
func (g *ExceptionGuard) Count() int {
	return g.count
}

// Silenced reports whether the limit has been reached.
func (g *ExceptionGuard) Silenced() bool {
	return g.silenced
}

func (g *ExceptionGuard) print(ex pv.Exception) {
	name, ftype, count, host := unavailable, unavailable, unavailable, unavailable
	read, write, state := unavailable, unavailable, unavailable

	if ex.Handle != pv.NoHandle && g.describe != nil {
		if info, ok := g.describe(ex.Handle); ok {
			name = info.Name
			ftype = info.FieldType.String()
			count = strconv.Itoa(info.ElementCount)
			host = info.Host
			read = strconv.FormatBool(info.Access.Read)
			write = strconv.FormatBool(info.Access.Write)
			state = info.State.String()
		}
	}

	w := g.w
	fmt.Fprintln(w, "exception: -------------------------------")
	fmt.Fprintf(w, "exception: name=%s\n", name)
	fmt.Fprintf(w, "exception: type=%s\n", ftype)
	fmt.Fprintf(w, "exception: number of elements=%s\n", count)
	fmt.Fprintf(w, "exception: host name=%s\n", host)
	fmt.Fprintf(w, "exception: read access=%s\n", read)
	fmt.Fprintf(w, "exception: write access=%s\n", write)
	fmt.Fprintf(w, "exception: state=%s\n", state)
	fmt.Fprintln(w, "exception: -------------------------------")
	fmt.Fprintf(w, "exception: type=%s\n", ex.Type)
	fmt.Fprintf(w, "exception: count=%d\n", ex.Count)
	fmt.Fprintf(w, "exception: status=%s\n", ex.Status)
	if ex.Context != "" {
		fmt.Fprintf(w, "exception: context=%s\n", ex.Context)
	}
}
