package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tracker/internal/audit"
	"tracker/internal/survey/lock"
	"tracker/internal/survey/models"
	"tracker/internal/survey/recorder"
	"tracker/internal/survey/store"
)

func newRecorder() *recorder.Service {
	return recorder.New(store.NewSQL(db), store.NewSQLTransactor(db, cfg.Database.TxTimeout),
		recorder.WithLogger(log),
		recorder.WithLocker(lock.NewKeyed()),
		recorder.WithAuditPublisher(audit.NewPublisher(audit.NewSQLStore(db))),
	)
}

var submitCmd = &cobra.Command{
	Use:         "submit <survey-id> <submission.json|->",
	Short:       "Validate and record a submission document without going through HTTP",
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{needsDB: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		surveyID, err := models.ParseSurveyID(args[0])
		if err != nil {
			return err
		}

		var in io.Reader = cmd.InOrStdin()
		if args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("open submission: %w", err)
			}
			defer f.Close()
			in = f
		}
		var sub models.Submission
		if err := json.NewDecoder(in).Decode(&sub); err != nil {
			return fmt.Errorf("decode submission: %w", err)
		}
		if sub.SurveyID != surveyID {
			return fmt.Errorf("document is for survey %d, not %d", sub.SurveyID, surveyID)
		}

		receipt, err := newRecorder().Submit(cmd.Context(), &sub)
		if err != nil {
			var invalid *models.AnswerValidationError
			if errors.As(err, &invalid) {
				for _, item := range invalid.Items {
					fmt.Fprintf(cmd.ErrOrStderr(), "category %d question %d: %s (%s)\n",
						item.CategoryID, item.QuestionID, item.Message, item.ValidationName)
				}
			}
			return err
		}
		return printJSON(cmd.OutOrStdout(), receipt)
	},
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
