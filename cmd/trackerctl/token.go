package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jwttoken "tracker/internal/jwt_token"
	"tracker/internal/survey/models"
)

var (
	tokenUserID int64
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <survey-id>",
	Short: "Mint a survey access token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		surveyID, err := models.ParseSurveyID(args[0])
		if err != nil {
			return err
		}
		ttl := tokenTTL
		if ttl == 0 {
			ttl = cfg.Auth.TokenTTL
		}
		svc := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
		token, err := svc.GenerateSurveyToken(int64(surveyID), tokenUserID, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64Var(&tokenUserID, "user", 0, "user id to embed in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default from auth.token_ttl)")
}
