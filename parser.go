// parser.go — recursive-descent parser for dice notation.
//
// Grammar (low to high precedence):
//
//	expr           := comparison
//	comparison     := additive ( ('>' | '<' | '=' | '>=' | '<=') additive )?
//	additive       := multiplicative ( ('+' | '-') multiplicative )*
//	multiplicative := unary ( ('*' | '/') unary )*
//	unary          := '-' unary | primary
//	primary        := NUMBER | '(' expr ')' | diceterm
//	diceterm       := NUMBER? 'd' (NUMBER | '%') augmentation*
//	augmentation   := ('d'|'k') qualifier? NUMBER
//	                | ('d'|'k')? ('h'|'l') NUMBER?
//	                | 'n' NUMBER
//	                | 'r' qualifier? NUMBER ('x' NUMBER)?
//	qualifier      := '>' | '<'
//
// Comparisons are non-associative: chaining two of them without parentheses
// is a parse error. The parser performs only syntactic validation. The
// augmentation chain after a dice term is collected as a raw token run on
// the DiceGroup node and is not interpreted here; malformed augmentation
// *syntax* (a stray 'x', a dangling qualifier) fails with *ParseError while
// invalid augmentation *semantics* (second tally, missing argument) are
// deferred to resolve.go so the two error classes stay distinguishable.
//
// Failure policy: any unexpected token fails immediately with a *ParseError
// naming the expected token class and the token found. No recovery, no
// partial trees.
package dicemind

import "fmt"

// Parse tokenizes and parses a complete dice expression.
func Parse(src string) (Expression, error) {
	toks, err := NewLexer(src).Scan()
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses a token stream produced by (*Lexer).Scan.
func ParseTokens(toks []Token) (Expression, error) {
	p := &parser{toks: toks}
	expr, err := p.comparison()
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, p.errExpected("end of input")
	}
	return expr, nil
}

// ParseError reports a grammar violation: the token class the parser
// expected and the token it found, at the found token's byte offset.
type ParseError struct {
	Pos      int
	Expected string
	Found    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("PARSE ERROR at %d: expected %s, found %s", e.Pos, e.Expected, e.Found)
}

type parser struct {
	toks []Token
	i    int
}

func (p *parser) atEnd() bool { return p.peek().Type == EOF }

func (p *parser) peek() Token {
	if p.i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i]
}

func (p *parser) prev() Token { return p.toks[p.i-1] }

func (p *parser) match(tt ...TokenType) bool {
	for _, t := range tt {
		if p.peek().Type == t {
			p.i++
			return true
		}
	}
	return false
}

func (p *parser) errExpected(what string) error {
	g := p.peek()
	found := g.Type.String()
	if g.Type == INTEGER {
		found = fmt.Sprintf("number %d", g.Literal)
	}
	return &ParseError{Pos: g.Pos, Expected: what, Found: found}
}

func comparisonOp(tt TokenType) (BinaryOperator, bool) {
	switch tt {
	case GREATER:
		return OpGreater, true
	case LESS:
		return OpLess, true
	case EQUALS:
		return OpEquals, true
	case GREATER_EQ:
		return OpGreaterEq, true
	case LESS_EQ:
		return OpLessEq, true
	}
	return 0, false
}

// comparison := additive ( cmp additive )?
//
// Non-associative: a second comparison operator at the same level is an
// immediate error rather than a silent reassociation.
func (p *parser) comparison() (Expression, error) {
	lhs, err := p.additive()
	if err != nil {
		return nil, err
	}
	op, ok := comparisonOp(p.peek().Type)
	if !ok {
		return lhs, nil
	}
	p.i++
	opPos := p.prev().Pos
	rhs, err := p.additive()
	if err != nil {
		return nil, err
	}
	if _, chained := comparisonOp(p.peek().Type); chained {
		return nil, p.errExpected("end of comparison (parenthesize to nest comparisons)")
	}
	return &BinaryOp{Operator: op, LHS: lhs, RHS: rhs, pos: opPos}, nil
}

func (p *parser) additive() (Expression, error) {
	lhs, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.match(PLUS, MINUS) {
		op := OpAdd
		if p.prev().Type == MINUS {
			op = OpSubtract
		}
		opPos := p.prev().Pos
		rhs, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryOp{Operator: op, LHS: lhs, RHS: rhs, pos: opPos}
	}
	return lhs, nil
}

func (p *parser) multiplicative() (Expression, error) {
	lhs, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.match(MULT, DIV) {
		op := OpMultiply
		if p.prev().Type == DIV {
			op = OpDivide
		}
		opPos := p.prev().Pos
		rhs, err := p.unary()
		if err != nil {
			return nil, err
		}
		lhs = &BinaryOp{Operator: op, LHS: lhs, RHS: rhs, pos: opPos}
	}
	return lhs, nil
}

func (p *parser) unary() (Expression, error) {
	if p.match(MINUS) {
		opPos := p.prev().Pos
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryNeg{Operand: operand, pos: opPos}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Expression, error) {
	switch {
	case p.match(LROUND):
		inner, err := p.comparison()
		if err != nil {
			return nil, err
		}
		if !p.match(RROUND) {
			return nil, p.errExpected("')'")
		}
		return inner, nil

	case p.match(INTEGER):
		n := p.prev().Literal
		if p.peek().Type == DIE {
			return p.diceTerm(n)
		}
		return &Number{Value: n}, nil

	case p.peek().Type == DIE:
		// Count omitted, defaults to 1.
		return p.diceTerm(1)
	}
	return nil, p.errExpected("number, '(' or dice term")
}

// diceTerm parses "'d' (NUMBER | '%') augmentation*" after the optional
// count has already been consumed.
func (p *parser) diceTerm(count int64) (Expression, error) {
	if !p.match(DIE) {
		return nil, p.errExpected("'d'")
	}
	group := &DiceGroup{Count: count, pos: p.prev().Pos}

	switch {
	case p.match(INTEGER):
		group.Sides = p.prev().Literal
	case p.match(PERCENT):
		group.Percentile = true
	default:
		return nil, p.errExpected("number of sides or '%'")
	}

	raw, err := p.collectAugmentations()
	if err != nil {
		return nil, err
	}
	group.Raw = raw
	return group, nil
}

// collectAugmentations consumes the postfix augmentation token run without
// interpreting it. Shape rules only: a qualifier may follow 'd', 'k' or 'r';
// an integer may follow any letter or qualifier; an 'x'-prefixed integer may
// follow a reroll argument. Anything else ends the chain.
func (p *parser) collectAugmentations() ([]Token, error) {
	var raw []Token
	for {
		letter := p.peek()
		switch letter.Type {
		case DIE, KEEP, HIGH, LOW, TALLY, REROLL:
		default:
			return raw, nil
		}
		p.i++
		raw = append(raw, letter)

		if letter.Type == DIE || letter.Type == KEEP || letter.Type == REROLL {
			if p.match(GREATER, LESS) {
				raw = append(raw, p.prev())
			}
		}
		if p.match(INTEGER) {
			raw = append(raw, p.prev())
		}
		if letter.Type == REROLL && p.peek().Type == REPEAT {
			p.i++
			raw = append(raw, p.prev())
			if !p.match(INTEGER) {
				return nil, p.errExpected("repeat limit after 'x'")
			}
			raw = append(raw, p.prev())
		}
	}
}
