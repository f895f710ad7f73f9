package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/joshuapare/kheapkit/heap/alloc"
	"github.com/joshuapare/kheapkit/internal/format"
)

func init() {
	rootCmd.AddCommand(newClassesCmd())
}

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "Show the allocator size classes",
		Long: `The classes command prints every bin with its cell size, how many
cells fit in one bin page and how many bytes of each page are left unused.

Example:
  kheapctl classes
  kheapctl classes --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClasses()
		},
	}
}

// ClassInfo is one row of the size-class table.
type ClassInfo struct {
	Class        int    `json:"class"`
	CellSize     uint32 `json:"cell_size"`
	CellsPerPage uint32 `json:"cells_per_page"`
	PageWaste    uint32 `json:"page_waste"`
}

func classTable() []ClassInfo {
	rows := make([]ClassInfo, 0, format.BigBin)
	for class := range format.BigBin {
		cells := alloc.CellsPerPage(class)
		rows = append(rows, ClassInfo{
			Class:        class,
			CellSize:     alloc.CellSize(class),
			CellsPerPage: cells,
			PageWaste:    format.PageSize - format.BinHeaderSize - cells*alloc.CellSize(class),
		})
	}
	return rows
}

func runClasses() error {
	rows := classTable()
	if jsonOut {
		return printJSON(rows)
	}

	printInfo("%-6s %10s %12s %10s\n", "CLASS", "CELL", "CELLS/PAGE", "WASTE")
	for _, r := range rows {
		printInfo("%-6d %10s %12d %10s\n",
			r.Class,
			humanize.IBytes(uint64(r.CellSize)),
			r.CellsPerPage,
			humanize.IBytes(uint64(r.PageWaste)),
		)
	}
	printInfo("%-6d %10s %12s %10s\n", format.BigBin,
		fmt.Sprintf("> %s", humanize.IBytes(format.LargestSmallCell)), "-", "-")
	printInfo("\nBig blocks take whole pages behind a %d-byte header.\n", format.BigHeaderSize)
	return nil
}
