package annotations

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// OutputFormatter formats events for human-readable display.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
	renderer *RelationRenderer
}

// NewOutputFormatter creates a formatter with color support detection.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stdout
	}

	// Auto-detect color support
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd()) && !color.NoColor
	}

	return &OutputFormatter{
		useColor: useColor,
		writer:   w,
		renderer: NewRelationRenderer(useColor),
	}
}

// Handle implements the Handler interface - prints events as they occur
func (f *OutputFormatter) Handle(event Event) {
	output := f.Format(event)
	if output != "" {
		fmt.Fprintln(f.writer, output)
	}
}

// Format converts an event to a human-readable string.
func (f *OutputFormatter) Format(event Event) string {
	latency := f.formatLatency(event.Latency)
	d := event.Data

	switch event.Name {
	case CompileComplete:
		return fmt.Sprintf("%s %s Compiled %s, %s and %s",
			latency,
			f.colorize("===", color.FgGreen),
			f.renderer.RenderCount("relations", intData(d, "relations.count")),
			f.renderer.RenderCount("rules", intData(d, "rules.count")),
			f.renderer.RenderCount("facts", intData(d, "facts.count")))

	case QueryInvoked:
		return fmt.Sprintf("%s Query: %s", latency, f.pattern(d))

	case QueryComplete:
		if success, _ := d["success"].(bool); !success {
			return fmt.Sprintf("%s %s Query %s failed: %v",
				latency,
				f.colorize("✗", color.FgRed),
				d["relation"],
				d["error"])
		}
		return fmt.Sprintf("%s %s Query %s done with %s.",
			latency,
			f.colorize("===", color.FgGreen),
			d["relation"],
			f.renderer.RenderCount("tuples", intData(d, "tuples.count")))

	case FactsSeeded:
		return fmt.Sprintf("%s %s Seeded %s, derived %s",
			latency,
			f.colorize("===", color.FgYellow),
			f.renderer.RenderCount("facts", intData(d, "facts.count")),
			f.renderer.RenderCount("tuples", intData(d, "derived.count")))

	case ExploreBegin:
		rules := intData(d, "rules.count")
		if rules == 0 {
			return fmt.Sprintf("%s Explore %s from store", latency, f.pattern(d))
		}
		return fmt.Sprintf("%s Explore %s through %s",
			latency,
			f.pattern(d),
			f.renderer.RenderCount("rules", rules))

	case ExploreMemoHit:
		return fmt.Sprintf("%s %s Already explored %s",
			latency,
			f.colorize("↺", color.FgYellow),
			f.pattern(d))

	case TupleDerived:
		relation, _ := d["relation"].(string)
		values, _ := d["tuple"].([]string)
		arrow := "→"
		if f.useColor {
			arrow = color.YellowString(arrow)
		}
		return fmt.Sprintf("%s %s %s", latency, arrow, f.renderer.RenderTuple(relation, values))

	case ErrorStore:
		return fmt.Sprintf("%s %s Store error on %v: %v",
			latency,
			f.colorize("✗", color.FgRed),
			d["relation"],
			d["error"])

	default:
		// Generic format for unknown events
		return fmt.Sprintf("%s %s %v", latency, event.Name, event.Data)
	}
}

func (f *OutputFormatter) pattern(d map[string]interface{}) string {
	relation, _ := d["relation"].(string)
	keys, _ := d["keys"].(map[int]string)
	return f.renderer.RenderPattern(relation, intData(d, "arity"), keys)
}

func intData(d map[string]interface{}, key string) int {
	v, _ := d[key].(int)
	return v
}

// formatLatency formats a duration as [XXXms] or [XXXµs] with color coding.
func (f *OutputFormatter) formatLatency(d time.Duration) string {
	// Use microseconds for sub-millisecond durations
	if d < time.Millisecond {
		s := fmt.Sprintf("[%dµs]", d.Microseconds())
		if !f.useColor {
			return s
		}
		return color.GreenString(s)
	}

	// Use floating-point milliseconds to preserve precision
	ms := float64(d.Microseconds()) / 1000.0
	s := fmt.Sprintf("[%.1fms]", ms)

	if !f.useColor {
		return s
	}

	switch {
	case ms < 50:
		return color.GreenString(s)
	case ms < 200:
		return color.YellowString(s)
	default:
		return color.RedString(s)
	}
}

// colorize applies color if enabled.
func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

// ConsoleHandler creates a handler that prints formatted events to stdout.
func ConsoleHandler() Handler {
	return NewOutputFormatter(os.Stdout).Handle
}

// isTerminal checks if the file descriptor is a terminal.
// Simplified: stdout and stderr are assumed to be terminals.
func isTerminal(fd uintptr) bool {
	return fd == uintptr(1) || fd == uintptr(2) // stdout or stderr
}
