package blocks

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/blockpad/internal/plugin"
)

// TableOptions configures the table tool.
type TableOptions struct {
	Rows         int  `json:"rows"`
	Cols         int  `json:"cols"`
	WithHeadings bool `json:"withHeadings"`
}

// TableData is the saved form of a table.
type TableData struct {
	WithHeadings bool       `json:"withHeadings"`
	Content      [][]string `json:"content"`
}

// Table is the grid block tool.
type Table struct{}

func (Table) options(raw any) (TableOptions, error) {
	opts, err := decodeOptions("table", raw, TableOptions{Rows: 2, Cols: 2})
	if err != nil {
		return opts, err
	}
	if opts.Rows < 1 || opts.Cols < 1 {
		return opts, fmt.Errorf("table: rows and cols must be positive, got %dx%d", opts.Rows, opts.Cols)
	}
	return opts, nil
}

func (t Table) Prepare(_ context.Context, options any) error {
	_, err := t.options(options)
	return err
}

func (t Table) NewBlock(data json.RawMessage, options any) (plugin.Block, error) {
	opts, err := t.options(options)
	if err != nil {
		return nil, err
	}
	content := make([][]string, opts.Rows)
	for i := range content {
		content[i] = make([]string, opts.Cols)
	}
	return newDataBlock(&dataBlock[TableData, TableOptions]{
		tool:  "table",
		data:  TableData{WithHeadings: opts.WithHeadings, Content: content},
		opts:  opts,
		clone: cloneTable,
		validate: func(d TableData, _ TableOptions) error {
			for i, row := range d.Content {
				if len(row) != len(d.Content[0]) {
					return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Content[0]))
				}
			}
			return nil
		},
		empty: func(d TableData, _ TableOptions) bool {
			for _, row := range d.Content {
				for _, cell := range row {
					if strings.TrimSpace(cell) != "" {
						return false
					}
				}
			}
			return true
		},
	}, data)
}

func cloneTable(d TableData) TableData {
	rows := make([][]string, len(d.Content))
	for i, row := range d.Content {
		rows[i] = append([]string{}, row...)
	}
	d.Content = rows
	return d
}
