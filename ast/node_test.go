package ast

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type AstTestSuite struct {
	suite.Suite
}

func TestAstTestSuite(t *testing.T) {
	suite.Run(t, new(AstTestSuite))
}

func (s *AstTestSuite) TestLiteralAndUndefined() {
	lit := NewLiteral(Position{Line: 1, Column: 1}, "hello")
	s.Implements((*Expression)(nil), lit)
	s.Equal("hello", lit.String())
	s.Equal(Position{Line: 1, Column: 1}, lit.Position())

	u := NewUndefined(Position{})
	s.Implements((*Expression)(nil), u)
	s.Equal("undefined", u.String())
}

func (s *AstTestSuite) TestSubscriptionElement() {
	for part, want := range map[SubscriptionPart]string{
		SubscriptionSubject:     "subject",
		SubscriptionAction:      "action",
		SubscriptionResource:    "resource",
		SubscriptionEnvironment: "environment",
	} {
		e := NewSubscriptionElement(Position{}, part)
		s.Equal(want, e.String())
		s.Implements((*Expression)(nil), e)
	}
}

func (s *AstTestSuite) TestBinaryOpLazyBoolean() {
	s.True(OpAnd.IsLazyBoolean())
	s.True(OpOr.IsLazyBoolean())
	s.False(OpEq.IsLazyBoolean())

	left := NewLiteral(Position{}, true)
	right := NewLiteral(Position{}, false)
	op := NewBinaryOp(Position{}, OpAnd, left, right)
	s.Equal("(true && false)", op.String())
}

func (s *AstTestSuite) TestStepAccessRendersKindAndArgs() {
	target := NewVariable(Position{}, "resource")
	step := NewStepAccess(Position{}, target, StepKey, []Expression{NewLiteral(Position{}, "owner")})
	s.Equal("resource[key:owner]", step.String())
}

func (s *AstTestSuite) TestFilterExpressionNestsCondition() {
	target := NewVariable(Position{}, "items")
	pred := NewBinaryOp(Position{}, OpGt, NewRelativeValue(Position{}), NewLiteral(Position{}, 2))
	cond := NewCondition(Position{}, pred)
	filter := NewFilterExpression(Position{}, target, cond)
	s.Equal("items[?((@ > 2))]", filter.String())
}

func (s *AstTestSuite) TestAttributeAccessWithOptionsAndHead() {
	entity := NewVariable(Position{}, "subject")
	opts := &AttributeOptionsAST{
		InitialTimeoutMs: NewLiteral(Position{}, 5000),
		Fresh:            NewLiteral(Position{}, true),
	}
	access := NewAttributeAccess(Position{}, "pip.risk_score", entity, nil, opts, true)
	s.Contains(access.String(), "initialTimeOutMs: 5000")
	s.Contains(access.String(), "fresh: true")
	s.True(access.Head)
}

func (s *AstTestSuite) TestPositionZeroValueStringsAsGenerated() {
	s.Equal("<generated>", Position{}.String())
	s.Equal("3:7", Position{Line: 3, Column: 7}.String())
}
