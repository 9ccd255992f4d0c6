package parser

import "jsunit/internal/domain"

// Parser turns a file result into the failures stored for the fails viewer
// and the --failed rerun
type Parser interface {
	ParseFailure(result domain.TestResult) []domain.TestFailure
}

var _ Parser = (*StackParser)(nil)
