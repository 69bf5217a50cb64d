package bound

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for bound-list token types.
const (
	TokenIdent TokenType = iota // Identifier (one path segment)
	TokenDot                    // .
	TokenPlus                   // +
	TokenSemi                   // ;
	TokenArgs                   // Type-argument block content (between [ and ])
	TokenEOF                    // End of input
)

func (t TokenType) String() string {
	switch t {
	case TokenIdent:
		return "IDENT"
	case TokenDot:
		return "DOT"
	case TokenPlus:
		return "PLUS"
	case TokenSemi:
		return "SEMI"
	case TokenArgs:
		return "ARGS"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Type  TokenType
	Value string
	Pos   Position
}

// Lexer tokenizes a bound-list string.
type Lexer struct {
	input    string
	file     string
	pos      int // current position in input
	line     int // current line number (1-based)
	col      int // current column number (1-based)
	lastLine int // line at start of current token
	lastCol  int // column at start of current token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input, file string) *Lexer {
	return &Lexer{
		input: input,
		file:  file,
		pos:   0,
		line:  1,
		col:   1,
	}
}

// Tokenize converts the input into a slice of tokens.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token

	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}

	return tokens, nil
}

// nextToken returns the next token from the input.
func (l *Lexer) nextToken() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.position()}, nil
	}

	l.markStart()
	r := l.peek()

	switch {
	case r == '.':
		l.advance()
		return Token{Type: TokenDot, Value: ".", Pos: l.startPosition()}, nil
	case r == '+':
		l.advance()
		return Token{Type: TokenPlus, Value: "+", Pos: l.startPosition()}, nil
	case r == ';':
		l.advance()
		return Token{Type: TokenSemi, Value: ";", Pos: l.startPosition()}, nil
	case r == '[':
		return l.scanArgs('[', ']')
	case r == '<':
		return l.scanArgs('<', '>')
	case r == ']' || r == '>':
		return Token{}, NewLexErrorf(l.position(), "unbalanced '%c' in bound list", r)
	case isIdentStart(r):
		return l.scanIdent()
	default:
		return Token{}, NewLexErrorf(l.position(), "unexpected character %q in bound list", r)
	}
}

// scanIdent scans an identifier (one segment of a dotted path).
func (l *Lexer) scanIdent() (Token, error) {
	start := l.pos
	for l.pos < len(l.input) && isIdentPart(l.peek()) {
		l.advance()
	}
	return Token{
		Type:  TokenIdent,
		Value: l.input[start:l.pos],
		Pos:   l.startPosition(),
	}, nil
}

// scanArgs scans a balanced type-argument block and returns its inner
// text. The angle form is normalized to the bracket form so downstream
// consumers only ever see brackets. A '<' immediately followed by '-'
// is a channel arrow, not a delimiter.
func (l *Lexer) scanArgs(open, close rune) (Token, error) {
	l.advance() // consume opening delimiter

	start := l.pos
	depth := 0

	for l.pos < len(l.input) {
		r := l.peek()
		switch {
		case r == open && !l.channelArrow():
			depth++
		case r == close:
			if depth == 0 {
				inner := l.input[start:l.pos]
				l.advance() // consume closing delimiter
				if open == '<' {
					inner = normalizeAngles(inner)
				}
				return Token{
					Type:  TokenArgs,
					Value: strings.TrimSpace(inner),
					Pos:   l.startPosition(),
				}, nil
			}
			depth--
		}
		l.advance()
	}

	return Token{}, NewLexErrorf(l.startPosition(), "unbalanced type arguments: missing '%c'", close)
}

// channelArrow reports whether the current position starts a "<-".
func (l *Lexer) channelArrow() bool {
	return strings.HasPrefix(l.input[l.pos:], "<-")
}

// normalizeAngles rewrites nested angle delimiters to brackets,
// leaving channel arrows untouched.
func normalizeAngles(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '<' && !strings.HasPrefix(s[i:], "<-"):
			b.WriteByte('[')
		case s[i] == '>':
			b.WriteByte(']')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// Helper methods

// peek returns the current rune without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// advance moves to the next rune, updating position tracking.
func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// skipWhitespace skips whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// markStart records the start position for the current token.
func (l *Lexer) markStart() {
	l.lastLine = l.line
	l.lastCol = l.col
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{File: l.file, Line: l.line, Column: l.col}
}

// startPosition returns the position where the current token started.
func (l *Lexer) startPosition() Position {
	return Position{File: l.file, Line: l.lastLine, Column: l.lastCol}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
