package requests

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string, headers map[string]string) error
	POST(path string, body any) error
	PATCH(path string, body any, headers map[string]string) error
	DELETE(path string, headers map[string]string) error
	LastStatus() int
	GetResponseField(field string) (any, error)
	Remember(name string) error
	Lookup(name string) (int64, error)
	DispatchedEvents() []string
}

const adminHeader = "X-Admin-Token"

// RegisterSteps registers request-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &requestSteps{tc: tc}

	ctx.Step(`^a request "([^"]*)" exists as "([^"]*)"$`, steps.requestExists)
	ctx.Step(`^I create a request for "([^"]*)"$`, steps.createRequest)
	ctx.Step(`^I fetch request "([^"]*)"$`, steps.fetchRequest)
	ctx.Step(`^I fetch request id "([^"]*)"$`, steps.fetchRawID)
	ctx.Step(`^I change the status of "([^"]*)" to "([^"]*)"$`, steps.changeStatus)
	ctx.Step(`^I force the status of "([^"]*)" to "([^"]*)" with token "([^"]*)"$`, steps.forceStatus)
	ctx.Step(`^I delete request "([^"]*)"$`, steps.deleteRequest)
	ctx.Step(`^I list requests with query "([^"]*)"$`, steps.listRequests)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be (true|false)$`, steps.fieldShouldBeBool)
	ctx.Step(`^the response field "([^"]*)" should equal (\d+)$`, steps.fieldShouldEqualNumber)
	ctx.Step(`^the event "([^"]*)" should have been dispatched (\d+) times?$`, steps.eventDispatchedTimes)
}

type requestSteps struct {
	tc TestContext
}

func (s *requestSteps) path(name string) (string, error) {
	id, err := s.tc.Lookup(name)
	if err != nil {
		return "", err
	}
	return "/api/solicitudes/" + strconv.FormatInt(id, 10), nil
}

func (s *requestSteps) requestExists(ctx context.Context, name, status string) error {
	if err := s.createRequest(ctx, name); err != nil {
		return err
	}
	if status == "pending" {
		return nil
	}
	return s.forceStatus(ctx, name, status, "")
}

func (s *requestSteps) createRequest(_ context.Context, name string) error {
	if err := s.tc.POST("/api/solicitudes", map[string]string{"document_name": name}); err != nil {
		return err
	}
	if s.tc.LastStatus() == 201 {
		return s.tc.Remember(name)
	}
	return nil
}

func (s *requestSteps) fetchRequest(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return s.tc.GET(p, nil)
}

func (s *requestSteps) fetchRawID(_ context.Context, raw string) error {
	return s.tc.GET("/api/solicitudes/"+raw, nil)
}

func (s *requestSteps) changeStatus(_ context.Context, name, status string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return s.tc.PATCH(p, map[string]string{"status": status}, nil)
}

// forceStatus uses the e2e admin token when token is empty.
func (s *requestSteps) forceStatus(_ context.Context, name, status, token string) error {
	id, err := s.tc.Lookup(name)
	if err != nil {
		return err
	}
	if token == "" {
		token = "e2e-admin-token"
	}
	return s.tc.PATCH(fmt.Sprintf("/api/admin/solicitudes/%d/status", id),
		map[string]string{"status": status},
		map[string]string{adminHeader: token})
}

func (s *requestSteps) deleteRequest(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return s.tc.DELETE(p, nil)
}

func (s *requestSteps) listRequests(_ context.Context, query string) error {
	p := "/api/solicitudes"
	if query != "" {
		p += "?" + query
	}
	return s.tc.GET(p, nil)
}

func (s *requestSteps) statusShouldBe(_ context.Context, want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *requestSteps) fieldShouldBe(_ context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("expected %s to be %q, got %q", field, want, got)
	}
	return nil
}

func (s *requestSteps) fieldShouldBeBool(_ context.Context, field, want string) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	b, ok := v.(bool)
	if !ok {
		return fmt.Errorf("%s is %T, not a boolean", field, v)
	}
	if strconv.FormatBool(b) != want {
		return fmt.Errorf("expected %s to be %s, got %t", field, want, b)
	}
	return nil
}

func (s *requestSteps) fieldShouldEqualNumber(_ context.Context, field string, want int) error {
	v, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	switch n := v.(type) {
	case float64:
		if int(n) != want {
			return fmt.Errorf("expected %s to equal %d, got %v", field, want, n)
		}
		return nil
	case []any:
		if len(n) != want {
			return fmt.Errorf("expected %s to hold %d items, got %d", field, want, len(n))
		}
		return nil
	default:
		return fmt.Errorf("%s is %T, not a number or list", field, v)
	}
}

func (s *requestSteps) eventDispatchedTimes(_ context.Context, name string, want int) error {
	names := s.tc.DispatchedEvents()
	got := 0
	for _, n := range names {
		if n == name {
			got++
		}
	}
	if got != want {
		return fmt.Errorf("expected %q dispatched %d times, got %d (all: %v)", name, want, got, names)
	}
	return nil
}
