package jobspec

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Type selects what the request operates on.
type Type string

const (
	TypeJob  Type = "job"
	TypeList Type = "list"
)

// State is the desired presence of a job.
type State string

const (
	StatePresent State = "present"
	StateAbsent  State = "absent"
)

// DailySchedule is the run-days value meaning every day.
const DailySchedule = "All"

// Request is the caller's desired state for one invocation.
// Optional fields are nil when the caller did not supply them.
type Request struct {
	Type        Type    `yaml:"type"`
	State       State   `yaml:"state,omitempty"`
	Name        string  `yaml:"name,omitempty"`
	RepoName    string  `yaml:"reponame,omitempty"`
	IncludeDirs string  `yaml:"includedirs,omitempty"`
	Prefreeze   *string `yaml:"prefreeze,omitempty"`
	MaxPoints   *Points `yaml:"maxpoints,omitempty"`
	RunDays     *string `yaml:"rundays,omitempty"`
	RunAt       *string `yaml:"runat,omitempty"`
}

// Points is a retention depth. It accepts a YAML/JSON integer or a
// numeric string, since orchestrators commonly send module arguments as strings.
type Points int

func (p *Points) UnmarshalYAML(node *yaml.Node) error {
	n, err := strconv.Atoi(strings.TrimSpace(node.Value))
	if err != nil {
		return errors.Newf("maxpoints: %q is not an integer", node.Value)
	}
	*p = Points(n)
	return nil
}

func (p Points) String() string {
	return strconv.Itoa(int(p))
}

// ParseRequest decodes a request document. JSON documents are accepted
// as YAML.
func ParseRequest(data []byte) (Request, error) {
	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return Request{}, errors.Mark(errors.Wrap(err, "parse request"), ErrInvalidRequest)
	}
	return req, nil
}

// LoadRequest reads a request document from path.
func LoadRequest(path string) (Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Request{}, errors.Wrapf(err, "read request %s", path)
	}
	return ParseRequest(data)
}

// Normalize fills defaults and expands path arguments in place.
func (r *Request) Normalize() {
	if r.Type == TypeJob && r.State == "" {
		r.State = StatePresent
	}
	r.IncludeDirs = ExpandPath(r.IncludeDirs)
	if r.Prefreeze != nil {
		p := ExpandPath(*r.Prefreeze)
		r.Prefreeze = &p
	}
}

// ExpandPath expands a leading ~ and environment variables.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Daily reports whether the declared run days mean every day.
func (r Request) Daily() bool {
	return r.RunDays != nil && IsDaily(*r.RunDays)
}

// IsDaily reports whether days is the every-day sentinel.
func IsDaily(days string) bool {
	return strings.EqualFold(strings.TrimSpace(days), DailySchedule)
}

// Desired returns the declared value for an attribute key and whether
// the caller manages it at all.
func (r Request) Desired(key string) (string, bool) {
	switch key {
	case KeyRepoName:
		return r.RepoName, true
	case KeyIncludeDirs:
		return r.IncludeDirs, true
	case KeyPrefreeze:
		return deref(r.Prefreeze)
	case KeyMaxPoints:
		if r.MaxPoints == nil {
			return "", false
		}
		return r.MaxPoints.String(), true
	case KeyRunDays:
		return deref(r.RunDays)
	case KeyRunAt:
		return deref(r.RunAt)
	}
	return "", false
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}
