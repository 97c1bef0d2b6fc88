package e2e

import (
	"fmt"
	"strings"
)

// Clause is one benefit clause of the test policy. Signature appears in no other clause.
type Clause struct {
	Signature string
	Amount    int
}

// Text is the clause as it appears in the policy.
func (c Clause) Text() string {
	return fmt.Sprintf("The %s allowance is %d dollars per claim.", c.Signature, c.Amount)
}

// Question asks for the clause's allowance.
func (c Clause) Question() string {
	return fmt.Sprintf("What is the %s allowance?", c.Signature)
}

// Policy is a synthetic policy document together with the clauses it contains.
type Policy struct {
	Clauses []Clause
}

var signatures = []string{
	"ambulance", "cataract", "dialysis", "physiotherapy", "maternity", "dental",
	"optical", "vaccination", "hospice", "prosthesis", "chemotherapy", "hearing",
}

// BuildPolicy returns a policy with n clauses, n capped at the number of signatures.
func BuildPolicy(n int) *Policy {
	if n > len(signatures) {
		n = len(signatures)
	}
	p := &Policy{Clauses: make([]Clause, n)}
	for i := 0; i < n; i++ {
		p.Clauses[i] = Clause{Signature: signatures[i], Amount: 100 * (i + 1)}
	}
	return p
}

// Text renders the policy with one clause per line.
func (p *Policy) Text() string {
	lines := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		lines[i] = c.Text()
	}
	return strings.Join(lines, "\n")
}

// Questions returns one question per clause, in clause order.
func (p *Policy) Questions() []string {
	out := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		out[i] = c.Question()
	}
	return out
}
