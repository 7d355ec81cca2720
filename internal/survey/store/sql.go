package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"tracker/internal/platform/database"
	"tracker/internal/survey/models"
	"tracker/pkg/platform/sentinel"
	txcontext "tracker/pkg/platform/tx"
)

// SQL persists survey data in Postgres or SQLite. Statements run on the
// transaction bound to ctx when there is one.
type SQL struct {
	db *database.DB
}

func NewSQL(db *database.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) execer(ctx context.Context) txcontext.Execer {
	return txcontext.Executor(ctx, s.db.DB)
}

func (s *SQL) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.execer(ctx).ExecContext(ctx, s.db.Rebind(query), args...)
	return res, database.TranslateError(err)
}

func (s *SQL) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, s.db.Rebind(query), args...)
	return rows, database.TranslateError(err)
}

func (s *SQL) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.execer(ctx).QueryRowContext(ctx, s.db.Rebind(query), args...)
}

func (s *SQL) CreateSurvey(ctx context.Context, survey *models.Survey) error {
	if survey.ID != 0 {
		if _, err := s.exec(ctx,
			`INSERT INTO surveys (id, user_id, survey_date, status) VALUES (?, ?, ?, ?)`,
			survey.ID, survey.UserID, survey.SurveyDate, survey.Status,
		); err != nil {
			return fmt.Errorf("insert survey: %w", database.TranslateError(err))
		}
		return nil
	}
	err := s.queryRow(ctx,
		`INSERT INTO surveys (user_id, survey_date, status) VALUES (?, ?, ?) RETURNING id`,
		survey.UserID, survey.SurveyDate, survey.Status,
	).Scan(&survey.ID)
	if err != nil {
		return fmt.Errorf("insert survey: %w", database.TranslateError(err))
	}
	return nil
}

func (s *SQL) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID != 0 {
		if _, err := s.exec(ctx,
			`INSERT INTO categories (id, description, display_order) VALUES (?, ?, ?)`,
			c.ID, c.Description, c.DisplayOrder,
		); err != nil {
			return fmt.Errorf("insert category: %w", database.TranslateError(err))
		}
		return nil
	}
	err := s.queryRow(ctx,
		`INSERT INTO categories (description, display_order) VALUES (?, ?) RETURNING id`,
		c.Description, c.DisplayOrder,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert category: %w", database.TranslateError(err))
	}
	return nil
}

func (s *SQL) CreateQuestion(ctx context.Context, q *models.Question) error {
	var options any
	if len(q.Options) > 0 {
		options = string(q.Options)
	}
	if q.ID != 0 {
		if _, err := s.exec(ctx,
			`INSERT INTO questions (id, category_id, display_order, answer_type, prompt, options, validations)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			q.ID, q.CategoryID, q.DisplayOrder, q.AnswerType, q.Prompt, options, q.Validations,
		); err != nil {
			return fmt.Errorf("insert question: %w", database.TranslateError(err))
		}
		return nil
	}
	err := s.queryRow(ctx,
		`INSERT INTO questions (category_id, display_order, answer_type, prompt, options, validations)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		q.CategoryID, q.DisplayOrder, q.AnswerType, q.Prompt, options, q.Validations,
	).Scan(&q.ID)
	if err != nil {
		return fmt.Errorf("insert question: %w", database.TranslateError(err))
	}
	return nil
}

// CreateSection materializes a survey's membership in a category.
func (s *SQL) CreateSection(ctx context.Context, surveyID models.SurveyID, categoryID models.CategoryID) (models.SectionID, error) {
	var id models.SectionID
	err := s.queryRow(ctx,
		`INSERT INTO survey_sections (survey_id, category_id, took_part) VALUES (?, ?, ?) RETURNING id`,
		surveyID, categoryID, false,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert section: %w", database.TranslateError(err))
	}
	return id, nil
}

// ResetSequences moves Postgres id sequences past rows inserted with explicit ids.
func (s *SQL) ResetSequences(ctx context.Context) error {
	if s.db.Dialect != database.Postgres {
		return nil
	}
	for _, table := range []string{"surveys", "categories", "questions"} {
		q := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
			table)
		if _, err := s.exec(ctx, q); err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}
	return nil
}

func (s *SQL) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.query(ctx, `SELECT id, description, display_order FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Description, &c.DisplayOrder); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQL) ListSections(ctx context.Context, surveyID models.SurveyID) ([]models.Section, error) {
	rows, err := s.query(ctx,
		`SELECT id, survey_id, category_id, took_part FROM survey_sections WHERE survey_id = ? ORDER BY category_id`,
		surveyID)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var out []models.Section
	for rows.Next() {
		var sec models.Section
		if err := rows.Scan(&sec.ID, &sec.SurveyID, &sec.CategoryID, &sec.TookPart); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		out = append(out, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sections: %w", err)
	}
	return out, nil
}

func (s *SQL) FindQuestionsByCategories(ctx context.Context, categoryIDs []models.CategoryID) ([]models.Question, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(categoryIDs)), ", ")
	args := make([]any, len(categoryIDs))
	for i, id := range categoryIDs {
		args[i] = id
	}
	rows, err := s.query(ctx,
		`SELECT id, category_id, display_order, answer_type, prompt, options, validations
		FROM questions WHERE category_id IN (`+placeholders+`) ORDER BY id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []models.Question
	for rows.Next() {
		var (
			q       models.Question
			options sql.NullString
		)
		if err := rows.Scan(&q.ID, &q.CategoryID, &q.DisplayOrder, &q.AnswerType, &q.Prompt, &options, &q.Validations); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if options.Valid {
			q.Options = json.RawMessage(options.String)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

const surveyColumns = `SELECT id, user_id, survey_date, status, submit_date FROM surveys WHERE id = ?`

func (s *SQL) FindSurvey(ctx context.Context, id models.SurveyID) (*models.Survey, error) {
	return s.scanSurvey(s.queryRow(ctx, surveyColumns, id))
}

// LockSurvey reads the survey and, on Postgres, holds its row lock until the
// surrounding transaction ends. SQLite already serializes writers.
func (s *SQL) LockSurvey(ctx context.Context, id models.SurveyID) (*models.Survey, error) {
	query := surveyColumns
	if s.db.Dialect == database.Postgres {
		query += " FOR UPDATE"
	}
	return s.scanSurvey(s.queryRow(ctx, query, id))
}

func (s *SQL) scanSurvey(row *sql.Row) (*models.Survey, error) {
	var (
		survey     models.Survey
		submitDate sql.NullTime
	)
	err := row.Scan(&survey.ID, &survey.UserID, &survey.SurveyDate, &survey.Status, &submitDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find survey: %w", database.TranslateError(err))
	}
	if submitDate.Valid {
		t := submitDate.Time
		survey.SubmitDate = &t
	}
	return &survey, nil
}

func (s *SQL) ListAnswers(ctx context.Context, surveyID models.SurveyID) ([]models.Answer, error) {
	rows, err := s.query(ctx,
		`SELECT survey_id, question_id, section_id, answer FROM survey_answers WHERE survey_id = ? ORDER BY question_id`,
		surveyID)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var out []models.Answer
	for rows.Next() {
		var (
			a     models.Answer
			value []byte
		)
		if err := rows.Scan(&a.SurveyID, &a.QuestionID, &a.SectionID, &value); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		a.Value = json.RawMessage(value)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return out, nil
}

func (s *SQL) UpsertSection(ctx context.Context, surveyID models.SurveyID, categoryID models.CategoryID, tookPart bool) (models.SectionID, error) {
	var id models.SectionID
	err := s.queryRow(ctx,
		`INSERT INTO survey_sections (survey_id, category_id, took_part)
		VALUES (?, ?, ?)
		ON CONFLICT (survey_id, category_id) DO UPDATE SET took_part = excluded.took_part
		RETURNING id`,
		surveyID, categoryID, tookPart,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert section: %w", database.TranslateError(err))
	}
	return id, nil
}

func (s *SQL) UpsertAnswer(ctx context.Context, a models.Answer) error {
	_, err := s.exec(ctx,
		`INSERT INTO survey_answers (survey_id, question_id, section_id, answer)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (survey_id, question_id) DO UPDATE SET
			section_id = excluded.section_id,
			answer = excluded.answer`,
		a.SurveyID, a.QuestionID, a.SectionID, string(a.Value),
	)
	if err != nil {
		return fmt.Errorf("upsert answer: %w", err)
	}
	return nil
}

func (s *SQL) DeleteAnswersForSection(ctx context.Context, surveyID models.SurveyID, sectionID models.SectionID) (int64, error) {
	res, err := s.exec(ctx,
		`DELETE FROM survey_answers WHERE survey_id = ? AND section_id = ?`,
		surveyID, sectionID)
	if err != nil {
		return 0, fmt.Errorf("delete answers: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete answers: %w", err)
	}
	return n, nil
}

func (s *SQL) SetStatus(ctx context.Context, id models.SurveyID, status models.Status, submitDate *time.Time) error {
	var date sql.NullTime
	if submitDate != nil {
		date = sql.NullTime{Time: *submitDate, Valid: true}
	}
	res, err := s.exec(ctx,
		`UPDATE surveys SET status = ?, submit_date = COALESCE(?, submit_date) WHERE id = ?`,
		status, date, id)
	if err != nil {
		return fmt.Errorf("set survey status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set survey status: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
