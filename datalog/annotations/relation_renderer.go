package annotations

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// RelationRenderer provides pretty-printing for relation patterns and rows
type RelationRenderer struct {
	useColor bool
}

// NewRelationRenderer creates a new relation renderer
func NewRelationRenderer(useColor bool) *RelationRenderer {
	return &RelationRenderer{useColor: useColor}
}

// RenderPattern renders a relation access as name(v0, _, v2), with _ for
// unconstrained positions
func (r *RelationRenderer) RenderPattern(relation string, arity int, keys map[int]string) string {
	cols := make([]string, arity)
	for i := range cols {
		if v, ok := keys[i]; ok {
			cols[i] = v
			if r.useColor {
				cols[i] = color.CyanString(v)
			}
			continue
		}
		cols[i] = "_"
	}
	return r.render(relation, cols)
}

// RenderTuple renders a single row as name(v0, v1, ...)
func (r *RelationRenderer) RenderTuple(relation string, values []string) string {
	cols := make([]string, len(values))
	for i, v := range values {
		cols[i] = v
		if r.useColor {
			cols[i] = color.CyanString(v)
		}
	}
	return r.render(relation, cols)
}

func (r *RelationRenderer) render(relation string, cols []string) string {
	if r.useColor {
		return fmt.Sprintf("%s%s%s%s",
			color.BlueString(relation),
			color.BlueString("("),
			strings.Join(cols, ", "),
			color.BlueString(")"))
	}
	return fmt.Sprintf("%s(%s)", relation, strings.Join(cols, ", "))
}

// RenderCount formats a count with color based on size
func (r *RelationRenderer) RenderCount(label string, count int) string {
	countStr := humanize.Comma(int64(count))
	if !r.useColor {
		return fmt.Sprintf("%s %s", countStr, label)
	}

	switch {
	case count == 0:
		countStr = color.RedString(countStr)
	case count < 100:
		countStr = color.GreenString(countStr)
	case count < 10000:
		countStr = color.YellowString(countStr)
	default:
		countStr = color.RedString(countStr)
	}

	return fmt.Sprintf("%s %s", countStr, label)
}
