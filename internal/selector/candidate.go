package selector

import (
	"fmt"
	"strings"
)

// Kind tags how a candidate locates its element.
type Kind int

const (
	// KindCSS is a structural selector tied to the site's markup.
	KindCSS Kind = iota
	KindTestID
	KindText
	KindAttribute
	KindRole
)

func (k Kind) String() string {
	switch k {
	case KindCSS:
		return "css"
	case KindTestID:
		return "test-id"
	case KindText:
		return "text"
	case KindAttribute:
		return "attribute"
	case KindRole:
		return "role"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Candidate is one way of finding a logical control.
type Candidate struct {
	Kind    Kind
	Expr    string
	Visible bool
}

func (c Candidate) String() string {
	return c.Expr
}

// ByCSS matches a structural selector and requires visibility.
func ByCSS(expr string) Candidate {
	return Candidate{Kind: KindCSS, Expr: expr, Visible: true}
}

// ByTestID matches elements whose data-testid contains id.
func ByTestID(id string) Candidate {
	return Candidate{Kind: KindTestID, Expr: fmt.Sprintf(`[data-testid*="%s"]`, id), Visible: true}
}

// ByText matches tag elements containing text.
func ByText(tag, text string) Candidate {
	return Candidate{Kind: KindText, Expr: fmt.Sprintf(`%s:has-text("%s")`, tag, text), Visible: true}
}

// ByAttribute matches tag elements whose attr contains value, case-insensitively.
func ByAttribute(tag, attr, value string) Candidate {
	return Candidate{Kind: KindAttribute, Expr: fmt.Sprintf(`%s[%s*="%s" i]`, tag, attr, value), Visible: true}
}

// ByRole matches the accessible role and name.
func ByRole(role, name string) Candidate {
	return Candidate{Kind: KindRole, Expr: fmt.Sprintf(`role=%s[name="%s"]`, role, name), Visible: true}
}

// Any drops the visibility requirement.
func (c Candidate) Any() Candidate {
	c.Visible = false
	return c
}

// Candidates is an ordered list for one UI role, most specific first.
type Candidates struct {
	Role string
	List []Candidate
}

func NewCandidates(role string, list ...Candidate) Candidates {
	return Candidates{Role: role, List: list}
}

// AnyVisibility returns a copy of the list with every visibility requirement
// dropped.
func (c Candidates) AnyVisibility() Candidates {
	out := Candidates{Role: c.Role, List: make([]Candidate, len(c.List))}
	for i, cand := range c.List {
		out.List[i] = cand.Any()
	}
	return out
}

func (c Candidates) String() string {
	exprs := make([]string, len(c.List))
	for i, cand := range c.List {
		exprs[i] = cand.Expr
	}
	return c.Role + "[" + strings.Join(exprs, ", ") + "]"
}
