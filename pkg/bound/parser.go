package bound

import "strings"

// Parser turns a token stream into a List.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse tokenizes and parses a bound-list string in one step.
func Parse(input, file string) (*List, error) {
	tokens, err := NewLexer(input, file).Tokenize()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// NewParser creates a parser over a token stream produced by the Lexer.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses the full bound list: one or more '+'-joined bounds
// followed by an optional '; scope' qualifier and EOF.
func (p *Parser) Parse() (*List, error) {
	if p.peek().Type == TokenEOF {
		return nil, NewParseError(p.peek().Pos, "empty bound list: at least one capability bound is required")
	}

	list := &List{nodeBase: nodeBase{pos: p.peek().Pos}}

	for {
		b, err := p.parseBound()
		if err != nil {
			return nil, err
		}
		list.Bounds = append(list.Bounds, b)

		if p.peek().Type != TokenPlus {
			break
		}
		plus := p.next()
		if t := p.peek().Type; t == TokenEOF || t == TokenSemi {
			return nil, NewParseError(plus.Pos, "dangling '+': expected capability bound after separator")
		}
	}

	if p.peek().Type == TokenSemi {
		semi := p.next()
		tok := p.next()
		if tok.Type != TokenIdent {
			return nil, NewParseError(semi.Pos, "expected scope name after ';'")
		}
		list.Scope = &Scope{nodeBase: nodeBase{pos: tok.Pos}, Name: tok.Value}
	}

	if tok := p.next(); tok.Type != TokenEOF {
		return nil, NewParseErrorf(tok.Pos, "unexpected %q after bound list", tok.Value)
	}

	return list, nil
}

// parseBound parses one capability bound: a dotted identifier path with
// optional type arguments.
func (p *Parser) parseBound() (*Bound, error) {
	tok := p.next()
	if tok.Type != TokenIdent {
		return nil, NewParseErrorf(tok.Pos, "expected capability name, found %q", tokenText(tok))
	}

	b := &Bound{nodeBase: nodeBase{pos: tok.Pos}, Path: []string{tok.Value}}

	for p.peek().Type == TokenDot {
		dot := p.next()
		seg := p.next()
		if seg.Type != TokenIdent {
			return nil, NewParseError(dot.Pos, "dotted capability path must not end in '.'")
		}
		b.Path = append(b.Path, seg.Value)
	}

	if p.peek().Type == TokenArgs {
		args := p.next()
		parsed, err := splitArgs(args)
		if err != nil {
			return nil, err
		}
		b.Args = parsed
	}

	return b, nil
}

// splitArgs splits a type-argument block on top-level commas. Each
// argument is kept verbatim; brackets are already balanced by the lexer.
func splitArgs(tok Token) ([]*Arg, error) {
	if tok.Value == "" {
		return nil, NewParseError(tok.Pos, "empty type argument list")
	}

	var args []*Arg
	depth := 0
	start := 0
	s := tok.Value

	flush := func(end int) error {
		text := strings.TrimSpace(s[start:end])
		if text == "" {
			return NewParseError(tok.Pos, "missing type argument before ','")
		}
		args = append(args, &Arg{nodeBase: nodeBase{pos: tok.Pos}, Text: text})
		return nil
	}

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case ',':
			if depth == 0 {
				if err := flush(i); err != nil {
					return nil, err
				}
				start = i + 1
			}
		}
	}
	if strings.TrimSpace(s[start:]) == "" {
		return nil, NewParseError(tok.Pos, "dangling ',' in type argument list")
	}
	if err := flush(len(s)); err != nil {
		return nil, err
	}

	return args, nil
}

func tokenText(tok Token) string {
	if tok.Type == TokenEOF {
		return "end of input"
	}
	return tok.Value
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// next consumes and returns the current token.
func (p *Parser) next() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}
