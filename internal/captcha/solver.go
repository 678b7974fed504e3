// Package captcha turns portal challenge images into candidate codes.
package captcha

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"studentcorner-backend/internal/components/assert"
	"studentcorner-backend/internal/components/telemetry"
)

const (
	report_solver_preprocess = "solver.preprocess"
	report_solver_ocr        = "solver.ocr"
	report_solver_normalize  = "solver.normalize"
)

var (
	ErrRecognitionFailed = errors.New("captcha: recognition failed")
	ErrWrongLength       = errors.New("captcha: recognized code has the wrong length")
)

// Solution is the outcome of a single solve attempt, Code is empty when
// Failure is set.
type Solution struct {
	Code string
	// RawText is what the OCR returned before normalization.
	RawText string
	Branch  Branch
	Failure error
}

func (s Solution) Solved() bool {
	return s.Failure == nil && s.Code != ""
}

type SolverOptions struct {
	// Length defaults to DefaultLength.
	Length int
}

type Solver struct {
	ocr    OCR
	length int
	tel    telemetry.API
}

func NewSolver(ocr OCR, opts SolverOptions, tel telemetry.API) Solver {
	assert.NotNil(ocr, "ocr")
	if opts.Length <= 0 {
		opts.Length = DefaultLength
	}
	return Solver{
		ocr:    ocr,
		length: opts.Length,
		tel:    telemetry.NewScopedAPI("captcha", tel),
	}
}

// Solve never returns an error, failures are reported through
// Solution.Failure.
func (s Solver) Solve(ctx context.Context, raw []byte) Solution {
	pre := Preprocess(raw)
	if pre.Branch == BranchPassthrough {
		s.tel.ReportWarning(report_solver_preprocess, pre.Err)
	}

	dataUri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pre.Image)
	text, err := s.ocr.ExtractText(ctx, dataUri)
	if err != nil {
		s.tel.ReportWarning(report_solver_ocr, err)
		return Solution{
			Branch:  pre.Branch,
			Failure: fmt.Errorf("%w: %w", ErrRecognitionFailed, err),
		}
	}

	code, ok := NormalizeCode(text, s.length)
	if !ok {
		s.tel.ReportWarning(report_solver_normalize, text, code)
		return Solution{
			RawText: text,
			Branch:  pre.Branch,
			Failure: fmt.Errorf("%w: got %q", ErrWrongLength, code),
		}
	}

	s.tel.ReportDebug("solved", code, pre.Branch.String())
	return Solution{Code: code, RawText: text, Branch: pre.Branch}
}
