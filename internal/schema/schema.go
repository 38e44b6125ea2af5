// Package schema checks replication documents against the wire contract of
// the replication management service.
//
// The contract is a CUE definition embedded in the binary. It is stricter
// than the decoder in package replication: it also checks that every space
// repeats its connection id, that tasks reference the document's spaces and
// that dataset properties carry known values.
package schema

import (
	"cmp"
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/suiyueranxin/di-qa-automated-e2e-testing/internal/replication"
)

//go:embed replication.cue
var replicationCUE string

// Source returns the CUE source of the contract.
func Source() string {
	return replicationCUE
}

// Violation is one way a document breaks the contract.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

func (v Violation) String() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Validator checks documents against the compiled contract. It is safe for
// concurrent use.
type Validator struct {
	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// NewValidator compiles the embedded contract.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(replicationCUE, cue.Filename("replication.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile replication contract: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#Replication"))
	if !def.Exists() {
		return nil, fmt.Errorf("compile replication contract: #Replication not defined")
	}
	return &Validator{ctx: ctx, def: def}, nil
}

// Validate returns the violations of data, ordered by path. A valid document
// returns nil.
func (v *Validator) Validate(data []byte) []Violation {
	v.mu.Lock()
	defer v.mu.Unlock()

	doc := v.ctx.CompileBytes(data, cue.Filename("document.json"))
	if err := doc.Err(); err != nil {
		return violations(err)
	}
	return violations(v.def.Unify(doc).Validate(cue.Concrete(true)))
}

// ValidateReplication encodes r and validates the result.
func (v *Validator) ValidateReplication(r *replication.Replication) ([]Violation, error) {
	data, err := replication.Marshal(r)
	if err != nil {
		return nil, err
	}
	return v.Validate(data), nil
}

var defaultValidator = sync.OnceValues(NewValidator)

// Validate checks data with a shared Validator.
func Validate(data []byte) ([]Violation, error) {
	v, err := defaultValidator()
	if err != nil {
		return nil, err
	}
	return v.Validate(data), nil
}

func violations(err error) []Violation {
	if err == nil {
		return nil
	}

	var out []Violation
	seen := make(map[Violation]bool)
	for _, e := range errors.Errors(err) {
		format, args := e.Msg()
		viol := Violation{
			Path:    documentPath(e.Path()),
			Message: fmt.Sprintf(format, args...),
		}
		if pos := e.Position(); pos.IsValid() && pos.Filename() == "document.json" {
			viol.Line = pos.Line()
		}
		if seen[viol] {
			continue
		}
		seen[viol] = true
		out = append(out, viol)
	}
	slices.SortFunc(out, func(a, b Violation) int {
		return cmp.Or(strings.Compare(a.Path, b.Path), strings.Compare(a.Message, b.Message))
	})
	return out
}

// documentPath joins a CUE error path without the definition it was checked
// against, so #Replication.targetSpaces.0 becomes targetSpaces.0.
func documentPath(path []string) string {
	for len(path) > 0 && strings.HasPrefix(path[0], "#") {
		path = path[1:]
	}
	return strings.Join(path, ".")
}
