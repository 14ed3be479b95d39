package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lox/blackjackrl/internal/config"
	"github.com/lox/blackjackrl/internal/store"
	"github.com/lox/blackjackrl/sdk/qlearn"
)

type DumpCmd struct {
	Store  string `help:"table location: file path (.json/.toml) or postgres:// URL"`
	Format string `help:"output format" enum:"chart,json,toml" default:"chart"`
}

func (cmd *DumpCmd) Run(ctx context.Context, cfg config.Config) error {
	st, table, err := loadTable(ctx, cmd.Store, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return dumpTable(os.Stdout, table, cmd.Format)
}

func dumpTable(w io.Writer, table *qlearn.Table, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(store.Rows(table))
	case "toml":
		return toml.NewEncoder(w).Encode(struct {
			Rows []store.Row `toml:"rows"`
		}{store.Rows(table)})
	case "chart", "":
		_, err := io.WriteString(w, strategyChart(table))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// strategyChart renders the greedy action for hard totals 4-21 against every
// dealer up card. H is hit, S is stand and . marks a state never visited.
func strategyChart(table *qlearn.Table) string {
	var b strings.Builder
	b.WriteString("     ")
	for up := 2; up <= 11; up++ {
		label := strconv.Itoa(up)
		if up == 11 {
			label = "A"
		}
		fmt.Fprintf(&b, "%3s", label)
	}
	b.WriteByte('\n')

	for total := 4; total <= 21; total++ {
		fmt.Fprintf(&b, "%4d ", total)
		for up := 2; up <= 11; up++ {
			s := qlearn.Observe(total, up, false)
			mark := "."
			if table.Has(s) {
				mark = "S"
				if table.Peek(s).Best() == qlearn.Hit {
					mark = "H"
				}
			}
			fmt.Fprintf(&b, "%3s", mark)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
