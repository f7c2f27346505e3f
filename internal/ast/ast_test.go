package ast

import "testing"

type spanVisitor struct{}

func (spanVisitor) VisitInteger(n *Integer) any   { return "integer:" + n.Text }
func (spanVisitor) VisitFloat(n *Float) any       { return "float:" + n.Text }
func (spanVisitor) VisitString(n *String) any     { return "string:" + n.Value }
func (spanVisitor) VisitBoolean(n *Boolean) any   { return n.Value }
func (spanVisitor) VisitNone(n *None) any         { return nil }
func (spanVisitor) VisitVariable(n *Variable) any { return n.Name }
func (spanVisitor) VisitList(n *List) any         { return len(n.Elements) }
func (spanVisitor) VisitBendy(n *Bendy) any       { return len(n.Fields) }
func (spanVisitor) VisitBinary(n *Binary) any     { return n.Op }
func (spanVisitor) VisitUnary(n *Unary) any       { return n.Op }
func (spanVisitor) VisitIndex(n *Index) any       { return "index" }
func (spanVisitor) VisitAccess(n *Access) any     { return n.Name }
func (spanVisitor) VisitCallExpr(n *CallExpr) any { return len(n.Args) }
func (spanVisitor) VisitFunction(n *Function) any { return len(n.Params) }

func TestNewSpanRoundTrips(t *testing.T) {
	pos := NewSpan(3, 9)
	start, end := pos.Span()
	if start != 3 || end != 9 {
		t.Errorf("Span() = (%d, %d), want (3, 9)", start, end)
	}
}

func TestExpressionAcceptDispatchesToMatchingVisit(t *testing.T) {
	var v spanVisitor
	cases := []struct {
		name string
		expr Expression
		want any
	}{
		{"integer", &Integer{Text: "7"}, "integer:7"},
		{"variable", &Variable{Name: "x"}, "x"},
		{"access", &Access{Name: "field"}, "field"},
		{"call", &CallExpr{Args: []Expression{&Integer{}, &Integer{}}}, 2},
	}
	for _, c := range cases {
		if got := c.expr.Accept(v); got != c.want {
			t.Errorf("%s: Accept() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIfStmtElseIsNilByDefault(t *testing.T) {
	n := &IfStmt{Cond: &Boolean{Value: true}, Then: &BlockStmt{}}
	if n.Else != nil {
		t.Errorf("Else = %v, want nil", n.Else)
	}
}
