package inventory

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Inventories are produced by a file system traversal such as
//
//	find /root -printf '"%P";"%Tc";"%s";\n'
//
// Fields are separated by semicolons and quotes carry no meaning inside a
// field, so a path may contain commas or quote characters freely.

const separator = ";"

var ErrRead = errors.New("unable to read file system inventory")

type Entry struct {
	RelativePath string
	ModTime      string
	Size         int64
}

func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrRead, path, err)
	}
	defer f.Close()

	entries, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrRead, path, err)
	}
	return entries, nil
}

func Parse(r io.Reader) ([]Entry, error) {
	var entries []Entry

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		entries = append(entries, parseLine(line))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseLine(line string) Entry {
	fields := strings.Split(line, separator)

	var e Entry
	e.RelativePath = unwrap(fields[0])
	if len(fields) > 1 {
		e.ModTime = unwrap(fields[1])
	}
	if len(fields) > 2 {
		e.Size, _ = strconv.ParseInt(unwrap(fields[2]), 10, 64)
	}
	return e
}

// unwrap strips one pair of enclosing double quotes.
func unwrap(field string) string {
	if len(field) >= 2 && field[0] == '"' && field[len(field)-1] == '"' {
		return field[1 : len(field)-1]
	}
	return field
}
