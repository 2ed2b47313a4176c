package executor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/wbrown/janus-dataflow/datalog"
	"github.com/wbrown/janus-dataflow/datalog/storage"
)

// TableFormatter renders query results as markdown tables
type TableFormatter struct {
	// MaxWidth is the maximum width for a column
	MaxWidth int
	// TruncateString is the string to append when truncating
	TruncateString string
}

// NewTableFormatter creates a new table formatter with default settings
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{
		MaxWidth:       50,
		TruncateString: "...",
	}
}

// FormatAtom formats the result of querying atom, one column per term
func (tf *TableFormatter) FormatAtom(atom datalog.Atom, tuples []storage.Tuple) string {
	columns := make([]string, len(atom.Terms))
	for i, term := range atom.Terms {
		columns[i] = term.String()
	}
	return tf.FormatTuples(columns, tuples)
}

// FormatTuples formats tuples as a markdown table with rows sorted
func (tf *TableFormatter) FormatTuples(columns []string, tuples []storage.Tuple) string {
	if len(tuples) == 0 {
		return fmt.Sprintf("_Columns: %v_\n\n_No rows_", columns)
	}

	sorted := make([]storage.Tuple, len(tuples))
	copy(sorted, tuples)
	sort.Slice(sorted, func(i, j int) bool {
		return compareTuples(sorted[i], sorted[j]) < 0
	})

	tableString := &strings.Builder{}

	// Create alignment array with all columns using AlignNone for simple separators
	alignment := make([]tw.Align, len(columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	table.Header(columns)
	for _, tuple := range sorted {
		row := make([]string, len(tuple))
		for j, val := range tuple {
			row[j] = tf.formatValue(val)
		}
		table.Append(row)
	}
	table.Render()

	// Add row count
	tableString.WriteString(fmt.Sprintf("\n_%s rows_\n", humanize.Comma(int64(len(tuples)))))

	return tableString.String()
}

// FormatRelations formats relation metadata as a markdown table
func (tf *TableFormatter) FormatRelations(infos []RelationInfo) string {
	tuples := make([]storage.Tuple, len(infos))
	for i, info := range infos {
		kind := "edb"
		if info.IDB {
			kind = "idb"
		}
		tuples[i] = storage.Tuple{
			info.Name,
			fmt.Sprint(info.Arity),
			kind,
			fmt.Sprint(info.Rules),
			fmt.Sprint(info.Facts),
		}
	}
	return tf.FormatTuples([]string{"relation", "arity", "kind", "rules", "facts"}, tuples)
}

// formatValue truncates long values
func (tf *TableFormatter) formatValue(val string) string {
	if tf.MaxWidth <= 0 || len(val) <= tf.MaxWidth {
		return val
	}
	cut := tf.MaxWidth - len(tf.TruncateString)
	if cut < 0 {
		cut = 0
	}
	return val[:cut] + tf.TruncateString
}

func compareTuples(a, b storage.Tuple) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// RelationString returns a markdown table of tuples
func RelationString(columns []string, tuples []storage.Tuple) string {
	return NewTableFormatter().FormatTuples(columns, tuples)
}
