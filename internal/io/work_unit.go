package io

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Contains a single point read from an input file, ready to be converted
type WorkUnit struct {
	File   string
	Line   int
	Values [3]float64

	// set when the line could not be parsed, the consumer records it without converting
	Err error
}

// Outcome of the conversion of a single WorkUnit
type Result struct {
	File   string
	Line   int
	Input  [3]float64
	Output [3]float64

	// Output holds float32 local frame values
	Local bool
	Err   error
}

// Formats the result as "file:line<TAB>a,b,c" or "file:line<TAB>error: ..."
func (r *Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s:%d\terror: %v", r.File, r.Line, r.Err)
	}

	values := make([]string, len(r.Output))
	for i, v := range r.Output {
		if r.Local {
			values[i] = decimal.NewFromFloat32(float32(v)).String()
		} else {
			values[i] = decimal.NewFromFloat(v).String()
		}
	}
	return fmt.Sprintf("%s:%d\t%s", r.File, r.Line, strings.Join(values, ","))
}
