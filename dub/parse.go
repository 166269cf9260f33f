// Package dub parses the command language of the juno shell. A command is
// an identifier followed by arguments: identifiers, note names, numbers,
// double quoted strings, or a match expression introduced by a single quote.
package dub

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrSyntax = errors.New("syntax error")

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (MatchExpr) isNode()  {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string

// MatchExpr selects steps of a bar, e.g. '1,3 for the first and third beat
// or '*/2 for every offbeat eighth note.
type MatchExpr struct {
	matchers []matchItem
}

func Parse(input string) (Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return Command{}, err
	}
	p := parser{tokens: tokens}
	return p.parse()
}

type parser struct {
	pos    int
	tokens []token
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.typ != typeEOF {
		p.pos++
	}
	return t
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	name := p.next()
	if name.typ != typeIdentifier && name.typ != typeNote {
		return cmd, unexpected(name)
	}
	cmd.Name = Identifier(name.text)
	for p.peek().typ != typeEOF {
		arg, err := p.arg(p.next())
		if err != nil {
			return cmd, err
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

func (p *parser) arg(t token) (Node, error) {
	switch t.typ {
	case typeIdentifier:
		return Identifier(t.text), nil
	case typeNote:
		n, _ := NoteNumber(t.text)
		return Note{Name: t.text, Number: n}, nil
	case typeString:
		return String(t.text[1 : len(t.text)-1]), nil
	case typeFloat:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return Float(f), nil
	case typeInt:
		return p.integer(t)
	case typeQuote:
		return p.matchExpr()
	}
	return nil, unexpected(t)
}

func (p *parser) integer(t token) (Int, error) {
	if t.typ != typeInt {
		return 0, unexpected(t)
	}
	n, err := strconv.Atoi(t.text)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return Int(n), nil
}

// matchExpr parses the rest of the input as a match expression. Items are
// separated by one or more slashes, each slash moving one division finer.
func (p *parser) matchExpr() (MatchExpr, error) {
	var expr MatchExpr
	level := 0
	for {
		m, err := p.matcher()
		if err != nil {
			return expr, err
		}
		expr.matchers = append(expr.matchers, matchItem{level: level, matcher: m})

		if p.peek().typ == typeEOF {
			return expr, nil
		}
		if t := p.next(); t.typ != typeSlash {
			return expr, unexpected(t)
		}
		level++
		for p.peek().typ == typeSlash {
			p.next()
			level++
		}
	}
}

func (p *parser) matcher() (matcher, error) {
	t := p.next()
	if t.typ == typeAsterisk {
		return matchAll, nil
	}
	first, err := p.integer(t)
	if err != nil {
		return nil, err
	}
	if p.peek().typ == typeColon {
		p.next()
		end, err := p.integer(p.next())
		if err != nil {
			return nil, err
		}
		return rangeMatch{start: int(first), end: int(end)}, nil
	}
	list := listMatch{int(first)}
	for p.peek().typ == typeComma {
		p.next()
		n, err := p.integer(p.next())
		if err != nil {
			return nil, err
		}
		list = append(list, int(n))
	}
	return list, nil
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("%w: unexpected end of input", ErrSyntax)
	}
	return fmt.Errorf("%w: unexpected token %q at position %d", ErrSyntax, t.text, t.pos)
}
