package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/avast/epstats/pkg/apierrors"
	"github.com/avast/epstats/pkg/goal"
)

// Parse parses a single nominator or denominator expression and returns its
// expression tree, or an *apierrors.ParseError
// on any non-matching input, unknown function, unknown agg_type, or duplicate
// dimension predicate inside one goalref.
func Parse(input string) (*Node, error) {
	p := &parser{src: []rune(input), raw: input}
	p.skipSpace()
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.atEnd() {
		return nil, p.errorf("unexpected trailing input at position %d", p.pos)
	}
	return node, nil
}

type parser struct {
	src []rune
	raw string
	pos int
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return apierrors.NewParseError(fmt.Sprintf(format, args...), p.raw)
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() rune {
	if p.atEnd() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(offset int) rune {
	idx := p.pos + offset
	if idx < 0 || idx >= len(p.src) {
		return 0
	}
	return p.src[idx]
}

func (p *parser) advance() rune {
	r := p.peek()
	p.pos++
	return r
}

func (p *parser) skipSpace() {
	for !p.atEnd() && p.peek() == ' ' {
		p.pos++
	}
}

func (p *parser) expect(ch rune) error {
	p.skipSpace()
	if p.peek() != ch {
		return p.errorf("expected %q at position %d", ch, p.pos)
	}
	p.pos++
	return nil
}

// expr := term (('+' | '-' | '~') term)*
func (p *parser) parseExpr() (*Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '+', '-', '~':
			op := BinOp(p.advance())
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = Bin(op, left, right)
		default:
			return left, nil
		}
	}
}

// term := factor (('*' | '/') factor)*
func (p *parser) parseTerm() (*Node, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		switch p.peek() {
		case '*', '/':
			op := BinOp(p.advance())
			right, err := p.parseFactor()
			if err != nil {
				return nil, err
			}
			left = Bin(op, left, right)
		default:
			return left, nil
		}
	}
}

// factor := number | goalref | '(' expr ')'
func (p *parser) parseFactor() (*Node, error) {
	p.skipSpace()
	switch {
	case p.atEnd():
		return nil, p.errorf("unexpected end of input")
	case p.peek() == '(':
		p.pos++
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return node, nil
	case p.peek() == '-' || isDigit(p.peek()):
		return p.parseNumber()
	case isLetter(p.peek()):
		return p.parseGoalRef()
	default:
		return nil, p.errorf("unexpected character %q at position %d", p.peek(), p.pos)
	}
}

// number := ['-'] digit+
func (p *parser) parseNumber() (*Node, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	digitsStart := p.pos
	for !p.atEnd() && isDigit(p.peek()) {
		p.pos++
	}
	if p.pos == digitsStart {
		return nil, p.errorf("malformed number at position %d", start)
	}
	text := string(p.src[start:p.pos])
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.errorf("malformed number %q: %v", text, err)
	}
	return Lit(v), nil
}

// goalref := func '(' unit_type '.' agg_type '.' goal_name [ '(' preds ')' ] ')'
func (p *parser) parseGoalRef() (*Node, error) {
	fnStart := p.pos
	fnName := p.readWhile(isLetter)
	if fnName == "" {
		return nil, p.errorf("expected function name at position %d", fnStart)
	}
	fn := goal.Func(fnName)
	if !goal.ValidFunc(fn) {
		return nil, p.errorf("unknown function %q", fnName)
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}

	p.skipSpace()
	unitStart := p.pos
	unitType := p.readWhile(func(r rune) bool { return isLetter(r) || r == '_' })
	if unitType == "" {
		return nil, p.errorf("expected unit_type at position %d", unitStart)
	}
	if err := p.expect('.'); err != nil {
		return nil, err
	}

	p.skipSpace()
	aggStart := p.pos
	aggType := p.readWhile(isLetter)
	if aggType == "" {
		return nil, p.errorf("expected agg_type at position %d", aggStart)
	}
	if !goal.ValidAggType(aggType) {
		return nil, p.errorf("unknown agg_type %q", aggType)
	}
	if err := p.expect('.'); err != nil {
		return nil, err
	}

	p.skipSpace()
	goalStart := p.pos
	goalName := p.readWhile(isAlnumOrUnderscore)
	if goalName == "" {
		return nil, p.errorf("expected goal_name at position %d", goalStart)
	}

	predicates := map[string]goal.Predicate{}
	order := []string(nil)
	p.skipSpace()
	if p.peek() == '(' {
		p.pos++
		var err error
		predicates, order, err = p.parsePredicates()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
	}

	if err := p.expect(')'); err != nil {
		return nil, err
	}

	return Leaf(goal.New(fn, unitType, aggType, goalName, predicates, order)), nil
}

// preds := pred (',' pred)*
func (p *parser) parsePredicates() (map[string]goal.Predicate, []string, error) {
	predicates := map[string]goal.Predicate{}
	order := []string{}
	for {
		name, pred, err := p.parsePredicate()
		if err != nil {
			return nil, nil, err
		}
		if _, dup := predicates[name]; dup {
			return nil, nil, p.errorf("duplicate dimension %q in predicate list", name)
		}
		predicates[name] = pred
		order = append(order, name)

		p.skipSpace()
		if p.peek() == ',' {
			p.pos++
			p.skipSpace()
			continue
		}
		return predicates, order, nil
	}
}

// pred := dimension_name op literal
func (p *parser) parsePredicate() (string, goal.Predicate, error) {
	p.skipSpace()
	nameStart := p.pos
	name := p.readWhile(isAlnumOrUnderscore)
	if name == "" {
		return "", goal.Predicate{}, p.errorf("expected dimension name at position %d", nameStart)
	}

	op, err := p.parseOp()
	if err != nil {
		return "", goal.Predicate{}, err
	}

	literalStart := p.pos
	literal := p.readWhile(isLiteralRune)
	_ = literalStart

	return name, goal.Predicate{Op: op, Literal: literal}, nil
}

// op := '=' | '!=' | '<' | '<=' | '>' | '>=' | '=^'
func (p *parser) parseOp() (goal.Op, error) {
	p.skipSpace()
	two := string([]rune{p.peek(), p.peekAt(1)})
	switch two {
	case "!=":
		p.pos += 2
		return goal.OpNeq, nil
	case "<=":
		p.pos += 2
		return goal.OpLte, nil
	case ">=":
		p.pos += 2
		return goal.OpGte, nil
	case "=^":
		p.pos += 2
		return goal.OpPrefix, nil
	}
	switch p.peek() {
	case '=':
		p.pos++
		return goal.OpEq, nil
	case '<':
		p.pos++
		return goal.OpLt, nil
	case '>':
		p.pos++
		return goal.OpGt, nil
	default:
		return "", p.errorf("expected comparison operator at position %d", p.pos)
	}
}

// readWhile consumes and returns the longest run of runes satisfying pred.
func (p *parser) readWhile(pred func(rune) bool) string {
	start := p.pos
	for !p.atEnd() && pred(p.peek()) {
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isAlnumOrUnderscore(r rune) bool {
	return isLetter(r) || isDigit(r) || r == '_'
}

// isLiteralRune matches the dimension-predicate literal charset:
// alphanumerics and "_ - . % / | " and space.
func isLiteralRune(r rune) bool {
	if isLetter(r) || isDigit(r) {
		return true
	}
	return strings.ContainsRune("_-.%/| ", r)
}
