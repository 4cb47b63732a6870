package combine

import (
	"context"

	"github.com/sentrie-sh/aspen/ast"
	"github.com/sentrie-sh/aspen/compiler"
	"github.com/sentrie-sh/aspen/decision"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/policy"
	"github.com/sentrie-sh/aspen/value"
	"github.com/sentrie-sh/aspen/xerr"
)

// Document is anything a Set can hold as a child and anything a
// combining algorithm can ultimately be pointed at: a single policy, or
// another Set. Both *policy.CompiledPolicy and *Set satisfy it, so sets
// nest to arbitrary depth.
type Document interface {
	DocumentName() string
	Evaluate(ctx context.Context, ec *evalctx.Context) <-chan policy.Result
}

// Set is the "policy set" shape of spec line 46's CompiledPolicy: no
// entitlement of its own, and decision_expression is Algorithm folding
// the children's Results instead of a leaf expression. Target gates the
// whole set exactly the way a single policy's match_expression gates it.
type Set struct {
	Name          string
	Target        compiler.CompiledExpression
	AlgorithmName string
	Algorithm     Algorithm
	Children      []Document
}

// CompileSet lowers a policy set's own target (nil => constant true) and
// looks up its named combining algorithm, grounded on policy.Compile's
// compileTargetOrDefault split between "no target" and a real target
// expression needing compiler.CompileTarget's always-false/non-boolean/
// error checks.
func CompileSet(name string, target ast.Expression, algorithmName string, ctx *compiler.Context, children []Document) (*Set, error) {
	algo, ok := ByName(algorithmName)
	if !ok {
		return nil, xerr.ErrCompile("unknown combining algorithm: "+algorithmName, name)
	}

	compiledTarget := compiler.Constant(value.NewBoolean(true, value.NewMetadata()))
	if target != nil {
		var err error
		compiledTarget, err = compiler.CompileTarget(target, ctx)
		if err != nil {
			return nil, err
		}
	}

	s := &Set{
		Name:          name,
		Target:        compiledTarget,
		AlgorithmName: algorithmName,
		Algorithm:     algo,
		Children:      children,
	}
	if err := validateAcyclic(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Set) DocumentName() string { return s.Name }

// Evaluate resolves Target, then — while true — folds every child's
// Result stream through Algorithm via Evaluate, re-emitting the set's own
// Result (carrying its own Name, not any child's) whenever the combined
// decision changes. Structurally this is policy.CompiledPolicy.Evaluate's
// match-then-body cancel/restart shape, generalized from a single
// where-chain body to a combine.Evaluate body.
func (s *Set) Evaluate(ctx context.Context, ec *evalctx.Context) <-chan policy.Result {
	out := make(chan policy.Result)
	targetSrc := s.Target.Evaluate(ctx, ec)

	go func() {
		defer close(out)

		var bodyCancel context.CancelFunc
		defer func() {
			if bodyCancel != nil {
				bodyCancel()
			}
		}()
		var body DecisionStream

		for {
			select {
			case tv, ok := <-targetSrc:
				if !ok {
					targetSrc = nil
					if body == nil {
						return
					}
					continue
				}
				if bodyCancel != nil {
					bodyCancel()
				}
				switch {
				case tv.IsError():
					bodyCancel = nil
					body = nil
					if !sendResult(ctx, out, s.indeterminate()) {
						return
					}
				case tv.Kind() != value.KindBoolean:
					bodyCancel = nil
					body = nil
					if !sendResult(ctx, out, s.indeterminate()) {
						return
					}
				case !tv.AsBoolean():
					bodyCancel = nil
					body = nil
					if !sendResult(ctx, out, s.notApplicable()) {
						return
					}
				default:
					bodyCtx, cancel := context.WithCancel(ctx)
					bodyCancel = cancel
					body = s.evaluateChildren(bodyCtx, ec)
				}

			case d, ok := <-orNilOnNilDecision(body):
				if !ok {
					body = nil
					if targetSrc == nil {
						return
					}
					continue
				}
				if !sendResult(ctx, out, s.resultFrom(d)) {
					return
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

func (s *Set) evaluateChildren(ctx context.Context, ec *evalctx.Context) DecisionStream {
	children := make([]<-chan policy.Result, len(s.Children))
	for i, c := range s.Children {
		children[i] = c.Evaluate(ctx, ec)
	}
	return Evaluate(ctx, s.Algorithm, children)
}

func (s *Set) indeterminate() policy.Result {
	return policy.Result{Name: s.Name, Verdict: decision.Indeterminate}
}

func (s *Set) notApplicable() policy.Result {
	return policy.Result{Name: s.Name, Verdict: decision.NotApplicable}
}

func (s *Set) resultFrom(d decision.AuthorizationDecision) policy.Result {
	return policy.Result{
		Name:        s.Name,
		Verdict:     d.Decision,
		Constraints: d.Constraints,
		Transformed: d.Constraints.Resource != nil,
	}
}

func sendResult(ctx context.Context, out chan<- policy.Result, r policy.Result) bool {
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

func orNilOnNilDecision(ch DecisionStream) DecisionStream {
	if ch == nil {
		return nil
	}
	return ch
}
