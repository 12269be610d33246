package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pterm/pterm"

	"github.com/jpalmerr/noipupdater"
	"github.com/jpalmerr/noipupdater/internal/journal"
)

// consoleSink prints one line per outcome, the terminal counterpart of the
// dashboard log pane.
type consoleSink struct {
	mu     sync.Mutex
	out    io.Writer
	loc    *time.Location
	pretty bool
}

func newConsoleSink(out io.Writer, loc *time.Location, pretty bool) *consoleSink {
	return &consoleSink{out: out, loc: loc, pretty: pretty}
}

func (c *consoleSink) OnOutcome(o noipupdater.Outcome) {
	line := c.render(o)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, line)
}

func (c *consoleSink) render(o noipupdater.Outcome) string {
	if !c.pretty {
		return journal.FormatOutcome(o, c.loc) + "\n"
	}

	stamp := pterm.Gray(o.Timestamp.In(c.loc).Format(journal.TimeLayout))
	msg := fmt.Sprintf("%s %s %s", stamp, pterm.Cyan(o.Hostname), o.Result.String())
	switch o.Result.Kind {
	case noipupdater.ResultSuccess:
		return pterm.Success.Sprintln(msg)
	case noipupdater.ResultProviderError:
		return pterm.Warning.Sprintln(msg)
	default:
		return pterm.Error.Sprintln(msg)
	}
}
