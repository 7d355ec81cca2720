package common

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	GetLastStatusCode() int
	GetResponseBody() string
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers background and generic assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^the tracker is running$`, steps.trackerIsRunning)
	ctx.Step(`^the response status should be (\d+)$`, steps.responseStatusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.responseFieldShouldEqual)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) trackerIsRunning(ctx context.Context) error {
	if err := s.tc.GET("/healthz"); err != nil {
		return err
	}
	if s.tc.GetLastStatusCode() != http.StatusOK {
		return fmt.Errorf("healthz returned %d: %s", s.tc.GetLastStatusCode(), s.tc.GetResponseBody())
	}
	return nil
}

func (s *commonSteps) responseStatusShouldBe(ctx context.Context, status int) error {
	if got := s.tc.GetLastStatusCode(); got != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, got, s.tc.GetResponseBody())
	}
	return nil
}

func (s *commonSteps) responseFieldShouldEqual(ctx context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("field %q: expected %q, got %q", field, want, got)
	}
	return nil
}
