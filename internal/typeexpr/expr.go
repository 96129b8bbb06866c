package typeexpr

import (
	"strings"

	"github.com/pkg/errors"
)

type Kind int

const (
	Named Kind = iota
	Array
	Union
)

// Expr is a parsed type expression.
type Expr struct {
	Kind    Kind
	Name    string // Named
	Elem    *Expr  // Array
	Members []Expr // Union
}

func (e Expr) String() string {
	switch e.Kind {
	case Array:
		elem := e.Elem.String()
		if e.Elem.Kind == Union {
			elem = "(" + elem + ")"
		}
		return elem + "[]"
	case Union:
		parts := make([]string, len(e.Members))
		for i, m := range e.Members {
			parts[i] = m.String()
		}
		return strings.Join(parts, " | ")
	default:
		return e.Name
	}
}

// Parse reads an expression such as "(number | string)[]" or "InputFile | string".
//
//	union   = postfix { "|" postfix }
//	postfix = primary { "[]" }
//	primary = "(" union ")" | name | quoted
func Parse(expr string) (Expr, error) {
	p := &parser{src: expr}
	e, err := p.union()
	if err != nil {
		return Expr{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Expr{}, errors.Errorf("unexpected %q at offset %d in %q", p.src[p.pos:], p.pos, expr)
	}
	return e, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) union() (Expr, error) {
	first, err := p.postfix()
	if err != nil {
		return Expr{}, err
	}
	members := []Expr{first}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != '|' {
			break
		}
		p.pos++
		next, err := p.postfix()
		if err != nil {
			return Expr{}, err
		}
		members = append(members, next)
	}
	if len(members) == 1 {
		return first, nil
	}
	return Expr{Kind: Union, Members: members}, nil
}

func (p *parser) postfix() (Expr, error) {
	e, err := p.primary()
	if err != nil {
		return Expr{}, err
	}
	for strings.HasPrefix(p.src[p.pos:], "[]") {
		p.pos += 2
		elem := e
		e = Expr{Kind: Array, Elem: &elem}
	}
	return e, nil
}

func (p *parser) primary() (Expr, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return Expr{}, errors.Errorf("unexpected end of %q", p.src)
	}
	switch c := p.src[p.pos]; c {
	case '(':
		p.pos++
		e, err := p.union()
		if err != nil {
			return Expr{}, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return Expr{}, errors.Errorf("missing ')' in %q", p.src)
		}
		p.pos++
		return e, nil
	case '"', '\'':
		end := strings.IndexByte(p.src[p.pos+1:], c)
		if end < 0 {
			return Expr{}, errors.Errorf("unterminated literal in %q", p.src)
		}
		name := p.src[p.pos : p.pos+end+2]
		p.pos += end + 2
		return Expr{Kind: Named, Name: name}, nil
	}
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(" |()[]", rune(p.src[p.pos])) {
		p.pos++
	}
	if start == p.pos {
		return Expr{}, errors.Errorf("expected a type name at offset %d in %q", start, p.src)
	}
	return Expr{Kind: Named, Name: p.src[start:p.pos]}, nil
}
