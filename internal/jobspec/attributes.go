package jobspec

// Attribute keys shared by desired requests and live reports.
const (
	KeyRepoName    = "reponame"
	KeyPrefreeze   = "prefreeze"
	KeyIncludeDirs = "includedirs"
	KeyMaxPoints   = "maxpoints"
	KeyRunDays     = "rundays"
	KeyRunAt       = "runat"
)

// Keys lists every attribute key in comparison order: schedule first,
// then job attributes in `job info` report order.
var Keys = []string{KeyRunDays, KeyRunAt, KeyRepoName, KeyPrefreeze, KeyIncludeDirs, KeyMaxPoints}

// IsScheduleKey reports whether key belongs to the schedule group.
func IsScheduleKey(key string) bool {
	return key == KeyRunDays || key == KeyRunAt
}

// Attributes is an attribute map that remembers insertion order.
// Setting an existing key updates the value but keeps its position.
type Attributes struct {
	keys   []string
	values map[string]string
}

// Set stores value under key.
func (a *Attributes) Set(key, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get returns the value for key and whether it was set.
func (a Attributes) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Keys returns the keys in the order they were first set.
func (a Attributes) Keys() []string {
	return append([]string(nil), a.keys...)
}

// Len returns the number of keys.
func (a Attributes) Len() int {
	return len(a.keys)
}

// Merge sets every key of other, in other's order.
func (a *Attributes) Merge(other Attributes) {
	for _, k := range other.keys {
		a.Set(k, other.values[k])
	}
}

// Map returns a copy of the attributes as a plain map.
func (a Attributes) Map() map[string]string {
	m := make(map[string]string, len(a.values))
	for k, v := range a.values {
		m[k] = v
	}
	return m
}
