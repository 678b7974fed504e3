package db

import (
	"context"
	"database/sql"
)

type CaptchaSample struct {
	ID          int64
	Image       []byte
	Label       sql.NullString
	CollectedAt int64
}

const createSample = `insert into captcha_sample(image, collected_at) values (?, ?) returning id`

type CreateSampleParams struct {
	Image       []byte
	CollectedAt int64
}

func (q *Queries) CreateSample(ctx context.Context, arg CreateSampleParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createSample, arg.Image, arg.CollectedAt)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const setSampleLabel = `update captcha_sample set label = ? where id = ?`

type SetSampleLabelParams struct {
	Label string
	ID    int64
}

func (q *Queries) SetSampleLabel(ctx context.Context, arg SetSampleLabelParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setSampleLabel, arg.Label, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getLabelledSamples = `select id, image, label, collected_at from captcha_sample
where label is not null
order by id`

func (q *Queries) GetLabelledSamples(ctx context.Context) ([]CaptchaSample, error) {
	rows, err := q.db.QueryContext(ctx, getLabelledSamples)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CaptchaSample
	for rows.Next() {
		var i CaptchaSample
		err := rows.Scan(&i.ID, &i.Image, &i.Label, &i.CollectedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countSamples = `select count(*), count(label) from captcha_sample`

type CountSamplesRow struct {
	Total    int64
	Labelled int64
}

func (q *Queries) CountSamples(ctx context.Context) (CountSamplesRow, error) {
	row := q.db.QueryRowContext(ctx, countSamples)
	var i CountSamplesRow
	err := row.Scan(&i.Total, &i.Labelled)
	return i, err
}

const createAttempt = `insert into solve_attempt(sample_id, attempted_at, branch, raw_text, code, correct)
values (?, ?, ?, ?, ?, ?)`

type CreateAttemptParams struct {
	SampleID    int64
	AttemptedAt int64
	Branch      string
	RawText     string
	Code        string
	Correct     bool
}

func (q *Queries) CreateAttempt(ctx context.Context, arg CreateAttemptParams) error {
	_, err := q.db.ExecContext(
		ctx,
		createAttempt,
		arg.SampleID,
		arg.AttemptedAt,
		arg.Branch,
		arg.RawText,
		arg.Code,
		arg.Correct,
	)
	return err
}
