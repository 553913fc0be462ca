package reward

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"grasprl/internal/nameid"
)

var (
	ErrPolicyExists   = errors.New("reward policy already registered")
	ErrPolicyNotFound = errors.New("reward policy not found")
)

var policyRegistry = struct {
	mu sync.RWMutex
	m  map[string]Policy
}{
	m: make(map[string]Policy),
}

// Register adds policy under its normalized name.
func Register(policy Policy) error {
	name := nameid.Policy(policy.Name)
	if name == "" {
		return errors.New("policy name is required")
	}
	if len(policy.Classes) == 0 {
		return fmt.Errorf("policy %s has no class parameters", name)
	}

	policyRegistry.mu.Lock()
	defer policyRegistry.mu.Unlock()

	if _, exists := policyRegistry.m[name]; exists {
		return fmt.Errorf("%w: %s", ErrPolicyExists, name)
	}
	stored := policy.Clone()
	stored.Name = name
	policyRegistry.m[name] = stored
	return nil
}

// Resolve returns a copy of the named policy; aliases are accepted.
func Resolve(name string) (Policy, error) {
	key := nameid.Policy(name)
	policyRegistry.mu.RLock()
	policy, ok := policyRegistry.m[key]
	policyRegistry.mu.RUnlock()
	if !ok {
		return Policy{}, fmt.Errorf("%w: %s", ErrPolicyNotFound, name)
	}
	return policy.Clone(), nil
}

func Names() []string {
	policyRegistry.mu.RLock()
	defer policyRegistry.mu.RUnlock()

	names := make([]string, 0, len(policyRegistry.m))
	for name := range policyRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unregister(name string) {
	policyRegistry.mu.Lock()
	delete(policyRegistry.m, nameid.Policy(name))
	policyRegistry.mu.Unlock()
}
