package io

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

var ErrMalformedLine = errors.New("malformed point line")

type StandardProducer struct{}

func NewStandardProducer() *StandardProducer {
	return &StandardProducer{}
}

// Reads every point of the given files and submits a WorkUnit per point to the work channel.
// Files that cannot be read are reported on the error channel and skipped.
// Closes the work channel when all work is submitted.
func (p *StandardProducer) Produce(work chan *WorkUnit, errchan chan error, wg *sync.WaitGroup, files []string) {
	defer wg.Done()
	defer close(work)

	for _, file := range files {
		if err := p.produce(file, work); err != nil {
			errchan <- err
		}
	}
}

func (p *StandardProducer) produce(file string, work chan *WorkUnit) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		values, err := ParseLine(line)
		work <- &WorkUnit{
			File:   file,
			Line:   lineNumber,
			Values: values,
			Err:    err,
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}
	return nil
}

// Parses three numbers separated by whitespace and/or commas
func ParseLine(line string) ([3]float64, error) {
	var values [3]float64

	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	if len(fields) != len(values) {
		return values, fmt.Errorf("%w: expected %d values, found %d", ErrMalformedLine, len(values), len(fields))
	}

	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return values, fmt.Errorf("%w: %q is not a number", ErrMalformedLine, field)
		}
		values[i] = v
	}
	return values, nil
}
