// Package universe reads the ticker list ranked by the top command.
package universe

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	drepo "FinBot/internal/domain/repository"
)

// File is a newline separated ticker list. Blank lines and '#' comments are
// ignored; tickers are upper-cased.
type File struct {
	path string
}

func NewFile(path string) *File { return &File{path: path} }

func (f *File) Tickers() ([]string, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open tickers file: %w", err)
	}
	defer fh.Close()

	var out []string
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, strings.ToUpper(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tickers file: %w", err)
	}
	return out, nil
}

var _ drepo.TickerUniverse = (*File)(nil)
