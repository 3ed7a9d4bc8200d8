// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package tensors

import (
	"maps"
	"slices"
)

// Scope stores tensors by name. Scopes can be nested: lookups with FindTensor fall back to the parent scope,
// while FindMutableTensor only returns tensors owned by the scope itself.
//
// A Scope is not safe for concurrent use.
type Scope struct {
	parent  *Scope
	tensors map[string]*Tensor
}

// NewScope returns an empty root scope.
func NewScope() *Scope {
	return &Scope{tensors: make(map[string]*Tensor)}
}

// NewChild returns an empty scope whose lookups fall back to s.
func (s *Scope) NewChild() *Scope {
	child := NewScope()
	child.parent = s
	return child
}

// Parent returns the parent scope, or nil for a root scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Set stores the tensor under name in this scope, replacing any previous tensor with the same name.
func (s *Scope) Set(name string, t *Tensor) {
	s.tensors[name] = t
}

// FindTensor returns the tensor stored under name in this scope or any of its ancestors.
// The tensor returned must not be modified.
func (s *Scope) FindTensor(name string) (*Tensor, bool) {
	for scope := s; scope != nil; scope = scope.parent {
		if t, found := scope.tensors[name]; found {
			return t, true
		}
	}
	return nil, false
}

// FindMutableTensor returns the tensor stored under name in this scope only: tensors of ancestor
// scopes can't be modified through a child.
func (s *Scope) FindMutableTensor(name string) (*Tensor, bool) {
	if s == nil {
		return nil, false
	}
	t, found := s.tensors[name]
	return t, found
}

// LocalNames returns the sorted names of the tensors owned by this scope.
func (s *Scope) LocalNames() []string {
	return slices.Sorted(maps.Keys(s.tensors))
}
