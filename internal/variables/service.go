package variables

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"sync"
	"time"
)

// variablePattern matches $name, [[name]], [[name:format]], ${name} and
// ${name:format}.
var variablePattern = regexp.MustCompile(`\$(\w+)|\[\[(\w+?)(?::(\w+))?\]\]|\$\{(\w+)(?::([^\}]+))?\}`)

// Service substitutes dashboard variables into text. Variables live in
// memory and are written through to the Store when one is configured.
type Service struct {
	store *Store

	mu        sync.RWMutex
	vars      map[string]Variable
	listeners []func()
}

// NewService creates a Service. store may be nil for a memory-only service.
func NewService(store *Store) *Service {
	return &Service{
		store: store,
		vars:  make(map[string]Variable),
	}
}

// Load replaces the in-memory variables with the contents of the store.
func (s *Service) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	list, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("loading variables: %w", err)
	}

	vars := make(map[string]Variable, len(list))
	for _, v := range list {
		vars[v.Name] = v
	}

	s.mu.Lock()
	s.vars = vars
	s.mu.Unlock()
	return nil
}

// Subscribe registers fn to be called after every Set or Delete.
func (s *Service) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Set stores a variable and notifies subscribers.
func (s *Service) Set(ctx context.Context, name string, values []string) (*Variable, error) {
	if !validName(name) {
		return nil, fmt.Errorf("invalid variable name %q", name)
	}
	if values == nil {
		values = []string{}
	}
	v := Variable{Name: name, Values: values, UpdatedAt: time.Now().UTC()}

	if s.store != nil {
		if err := s.store.Put(ctx, v); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.vars[name] = v
	s.mu.Unlock()

	s.notify()
	return &v, nil
}

// Delete removes a variable. It reports whether the variable existed.
func (s *Service) Delete(ctx context.Context, name string) (bool, error) {
	if s.store != nil {
		if err := s.store.Delete(ctx, name); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	_, ok := s.vars[name]
	delete(s.vars, name)
	s.mu.Unlock()

	if ok {
		s.notify()
	}
	return ok, nil
}

// Get returns a copy of the named variable.
func (s *Service) Get(name string) (Variable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[name]
	return v, ok
}

// List returns all variables sorted by name.
func (s *Service) List() []Variable {
	s.mu.RLock()
	out := make([]Variable, 0, len(s.vars))
	for _, v := range s.vars {
		out = append(out, v)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Replace interpolates variables into text. scoped entries take precedence
// over stored variables. format applies to every reference that does not
// name its own format. References to unknown variables are left untouched.
func (s *Service) Replace(text string, scoped ScopedVars, format string) (string, error) {
	if text == "" {
		return text, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var replaceErr error
	out := variablePattern.ReplaceAllStringFunc(text, func(match string) string {
		if replaceErr != nil {
			return match
		}
		m := variablePattern.FindStringSubmatch(match)
		name, fmtName := m[1], ""
		switch {
		case m[2] != "":
			name, fmtName = m[2], m[3]
		case m[4] != "":
			name, fmtName = m[4], m[5]
		}
		if fmtName == "" {
			fmtName = format
		}

		v, ok := scoped[name]
		if !ok {
			v, ok = s.vars[name]
		}
		if !ok {
			return match
		}

		value, err := FormatValues(v.Values, fmtName)
		if err != nil {
			replaceErr = fmt.Errorf("variable %s: %w", name, err)
			return match
		}
		return value
	})
	if replaceErr != nil {
		return "", replaceErr
	}
	return out, nil
}

func (s *Service) notify() {
	s.mu.RLock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

var namePattern = regexp.MustCompile(`^\w+$`)

func validName(name string) bool {
	return namePattern.MatchString(name)
}
