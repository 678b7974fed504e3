// Package samples keeps labelled captcha images to measure how well the
// solver does against the portal's real challenges.
package samples

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"studentcorner-backend/internal/captcha"
	"studentcorner-backend/internal/samples/db"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("sample not found")

type Store struct {
	db     *sql.DB
	qry    *db.Queries
	makeTx db.MakeTx
}

// Open opens (and creates if needed) a sample database at path, ":memory:"
// gives a throwaway store.
func Open(path string) (Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	if path == ":memory:" {
		// every connection to :memory: is a different database
		database.SetMaxOpenConns(1)
	}
	_, err = database.Exec(db.Schema)
	if err != nil {
		database.Close()
		return Store{}, fmt.Errorf("apply schema: %w", err)
	}
	return NewStore(database), nil
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:     database,
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
	}
}

func (s Store) Close() error {
	return s.db.Close()
}

func (s Store) Add(ctx context.Context, image []byte, collectedAt time.Time) (int64, error) {
	return s.qry.CreateSample(ctx, db.CreateSampleParams{
		Image:       image,
		CollectedAt: collectedAt.Unix(),
	})
}

// Label sets the code shown on a sample, it is normalized the same way
// recognized text is.
func (s Store) Label(ctx context.Context, id int64, label string, length int) error {
	code, ok := captcha.NormalizeCode(label, length)
	if !ok {
		return fmt.Errorf("label %q is not a %d character code", label, length)
	}
	affected, err := s.qry.SetSampleLabel(ctx, db.SetSampleLabelParams{
		ID:    id,
		Label: code,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type Counts struct {
	Total    int64
	Labelled int64
}

func (s Store) Counts(ctx context.Context) (Counts, error) {
	row, err := s.qry.CountSamples(ctx)
	if err != nil {
		return Counts{}, err
	}
	return Counts(row), nil
}

type Solver interface {
	Solve(ctx context.Context, raw []byte) captcha.Solution
}

type Evaluation struct {
	SampleId int64
	Label    string
	Solution captcha.Solution
	Correct  bool
}

type EvaluationReport struct {
	Evaluations []Evaluation
	Correct     int
}

func (r EvaluationReport) Accuracy() float64 {
	if len(r.Evaluations) == 0 {
		return 0
	}
	return float64(r.Correct) / float64(len(r.Evaluations))
}

// Evaluate solves every labelled sample and records the attempts.
func (s Store) Evaluate(ctx context.Context, solver Solver) (EvaluationReport, error) {
	labelled, err := s.qry.GetLabelledSamples(ctx)
	if err != nil {
		return EvaluationReport{}, err
	}

	var report EvaluationReport
	for _, sample := range labelled {
		solution := solver.Solve(ctx, sample.Image)
		correct := solution.Solved() &&
			strings.EqualFold(solution.Code, sample.Label.String)
		if correct {
			report.Correct++
		}
		report.Evaluations = append(report.Evaluations, Evaluation{
			SampleId: sample.ID,
			Label:    sample.Label.String,
			Solution: solution,
			Correct:  correct,
		})
	}

	tx, discard, commit, err := s.makeTx()
	if err != nil {
		return report, err
	}
	defer discard()

	now := time.Now().Unix()
	for _, e := range report.Evaluations {
		err := tx.CreateAttempt(ctx, db.CreateAttemptParams{
			SampleID:    e.SampleId,
			AttemptedAt: now,
			Branch:      e.Solution.Branch.String(),
			RawText:     e.Solution.RawText,
			Code:        e.Solution.Code,
			Correct:     e.Correct,
		})
		if err != nil {
			return report, err
		}
	}
	return report, commit()
}
