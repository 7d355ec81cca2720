package e2e

import (
	"github.com/cucumber/godog"

	"tracker/e2e/steps/common"
	"tracker/e2e/steps/submission"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	submission.RegisterSteps(ctx, tc)
}
