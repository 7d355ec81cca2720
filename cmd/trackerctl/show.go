package main

import (
	"github.com/spf13/cobra"

	"tracker/internal/survey/models"
)

var showCmd = &cobra.Command{
	Use:         "show <survey-id>",
	Short:       "Print the stored submission document of a survey",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{needsDB: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		surveyID, err := models.ParseSurveyID(args[0])
		if err != nil {
			return err
		}
		doc, err := newRecorder().Get(cmd.Context(), surveyID)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), doc)
	},
}
