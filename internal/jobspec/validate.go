package jobspec

import (
	"fmt"
	"regexp"

	"github.com/cockroachdb/errors"
)

// ErrInvalidRequest marks every request validation failure.
var ErrInvalidRequest = errors.New("invalid request")

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// runAtPattern requires a zero-padded hour, matching how veeamconfig
// prints the schedule time.
var runAtPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Validate checks the request before any external call is made.
// Returns nil if valid, or joined errors marked with ErrInvalidRequest.
func (r Request) Validate() error {
	var errs []error

	switch r.Type {
	case TypeJob, TypeList:
	case "":
		errs = append(errs, &ValidationError{Field: "type", Message: "is required (job or list)"})
	default:
		errs = append(errs, &ValidationError{Field: "type", Value: r.Type, Message: "must be one of: job, list"})
	}

	if r.Type == TypeJob {
		if r.Name == "" {
			errs = append(errs, &ValidationError{Field: "name", Message: "is required when type is job"})
		}
		switch r.State {
		case StatePresent, StateAbsent:
		case "":
			errs = append(errs, &ValidationError{Field: "state", Message: "is required when type is job"})
		default:
			errs = append(errs, &ValidationError{Field: "state", Value: r.State, Message: "must be one of: present, absent"})
		}
	}

	if r.State == StatePresent {
		if r.IncludeDirs == "" {
			errs = append(errs, &ValidationError{Field: "includedirs", Message: "is required when state is present"})
		}
		if r.RepoName == "" {
			errs = append(errs, &ValidationError{Field: "reponame", Message: "is required when state is present"})
		}
	}

	if (r.RunDays == nil) != (r.RunAt == nil) {
		errs = append(errs, &ValidationError{Field: "rundays/runat", Message: "must be supplied together"})
	}
	if r.RunAt != nil && !runAtPattern.MatchString(*r.RunAt) {
		errs = append(errs, &ValidationError{Field: "runat", Value: *r.RunAt, Message: "must be HH:MM with a two-digit hour"})
	}
	if r.RunDays != nil && *r.RunDays == "" {
		errs = append(errs, &ValidationError{Field: "rundays", Message: "must not be empty"})
	}

	if r.MaxPoints != nil && *r.MaxPoints < 0 {
		errs = append(errs, &ValidationError{Field: "maxpoints", Value: int(*r.MaxPoints), Message: "must not be negative"})
	}

	if len(errs) > 0 {
		return errors.Mark(errors.Join(errs...), ErrInvalidRequest)
	}
	return nil
}
