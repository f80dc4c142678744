// Package nasdaq lists tradable symbols from the NASDAQ trader directory.
package nasdaq

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	drepo "FinBot/internal/domain/repository"
	"FinBot/internal/service/provider"
)

// Directory fetches nasdaqtraded.txt once and memoises the symbol list.
type Directory struct {
	base *provider.HTTPBase

	mu      sync.Mutex
	symbols []string
}

// New takes the full file URL.
func New(fileURL string, timeout time.Duration) *Directory {
	return &Directory{base: provider.NewHTTPBase("nasdaq", fileURL, timeout)}
}

func (d *Directory) Symbols(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.symbols != nil {
		return d.symbols, nil
	}
	var body []byte
	if err := d.base.GetWithRetry(ctx, "", nil, &body); err != nil {
		return nil, err
	}
	syms, err := Parse(body)
	if err != nil {
		return nil, err
	}
	d.symbols = syms
	return syms, nil
}

// Parse reads the pipe separated directory. The header names the Symbol
// column, the last line is a file creation footer, and symbols containing
// '.' or '$' are dropped.
func Parse(b []byte) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan directory: %w", err)
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("directory is empty")
	}
	header := strings.Split(lines[0], "|")
	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), "Symbol") {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("directory has no Symbol column")
	}

	rows := lines[1 : len(lines)-1]
	out := make([]string, 0, len(rows))
	for _, line := range rows {
		parts := strings.Split(line, "|")
		if col >= len(parts) {
			continue
		}
		sym := strings.TrimSpace(parts[col])
		if sym == "" || strings.ContainsAny(sym, ".$") {
			continue
		}
		out = append(out, sym)
	}
	return out, nil
}

var _ drepo.SymbolDirectory = (*Directory)(nil)
