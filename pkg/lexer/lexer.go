// Package lexer implements the Cookbook language tokenizer.
package lexer

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"

	"github.com/thomasrohde/cookbook/pkg/ast"
	"github.com/thomasrohde/cookbook/pkg/diagnostics"
)

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
	fold     cases.Caser
	diags    []diagnostics.Diagnostic
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
		fold:     cases.Fold(),
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) peekRune() rune {
	if s.atEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
	return r
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else if utf8.RuneStart(ch) {
		s.col++
	}
	return ch
}

func (s *scanner) advanceRune() {
	_, size := utf8.DecodeRuneInString(s.source[s.pos:])
	for i := 0; i < size; i++ {
		s.advance()
	}
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			s.advance()
		case ch == '#' || (ch == '/' && s.peekAt(1) == '/'):
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		case ch == '/' && s.peekAt(1) == '*':
			s.advance()
			s.advance()
			for !s.atEnd() && !(s.peek() == '*' && s.peekAt(1) == '/') {
				s.advance()
			}
			if !s.atEnd() {
				s.advance() // '*'
				s.advance() // '/'
			}
		default:
			return
		}
	}
}

func isLetter(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func (s *scanner) scanString() (Token, bool) {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	s.advance() // consume opening "

	for !s.atEnd() && s.peek() != '"' {
		s.advance()
	}
	if s.atEnd() {
		s.warn(startLine, startCol, "Unterminated string.")
		return Token{}, false
	}
	s.advance() // consume closing "

	lexeme := s.source[startPos:s.pos]
	return Token{
		Type:    TokString,
		Lexeme:  lexeme,
		Literal: lexeme[1 : len(lexeme)-1],
		Span:    s.span(startLine, startCol),
	}, true
}

func (s *scanner) scanNumber() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	// Optional fractional part; a trailing '.' is not consumed.
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		s.advance()
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	text := s.source[startPos:s.pos]
	value, _ := strconv.ParseFloat(text, 64)
	return Token{
		Type:    TokNumber,
		Lexeme:  text,
		Literal: value,
		Span:    s.span(startLine, startCol),
	}
}

func (s *scanner) scanWord() string {
	startPos := s.pos
	for !s.atEnd() {
		r := s.peekRune()
		if !isLetter(r) && !unicode.IsDigit(r) {
			break
		}
		s.advanceRune()
	}
	return s.source[startPos:s.pos]
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	word := s.scanWord()
	folded := s.fold.String(word)

	// Two-word keywords ("take away", "check if"): read the next word on the
	// same line and keep it only if the pair is a keyword.
	if s.peek() == ' ' || s.peek() == '\t' {
		savedPos, savedLine, savedCol := s.pos, s.line, s.col
		for s.peek() == ' ' || s.peek() == '\t' {
			s.advance()
		}
		next := ""
		if isLetter(s.peekRune()) {
			next = s.scanWord()
		}
		if next != "" {
			pair := folded + " " + s.fold.String(next)
			if _, ok := keywords[pair]; ok {
				folded = pair
			} else {
				s.pos, s.line, s.col = savedPos, savedLine, savedCol
			}
		} else {
			s.pos, s.line, s.col = savedPos, savedLine, savedCol
		}
	}

	lexeme := s.source[startPos:s.pos]
	if tokType, ok := keywords[folded]; ok {
		return Token{
			Type:   tokType,
			Lexeme: lexeme,
			Span:   s.span(startLine, startCol),
		}
	}

	return Token{
		Type:   TokIdent,
		Lexeme: lexeme,
		Span:   s.span(startLine, startCol),
	}
}

func (s *scanner) warn(line, col int, msg string) {
	s.diags = append(s.diags, diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	))
}

func (s *scanner) simple(typ TokenType, width int) Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	for i := 0; i < width; i++ {
		s.advance()
	}
	return Token{Type: typ, Lexeme: s.source[startPos:s.pos], Span: s.span(startLine, startCol)}
}

// nextToken returns the next token. ok is false when the scanner consumed
// input without producing a token (an unexpected character or an
// unterminated string), in which case a diagnostic has been recorded.
func (s *scanner) nextToken() (tok Token, ok bool) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{
			Type:   TokEOF,
			Lexeme: "",
			Span:   s.span(s.line, s.col),
		}, true
	}

	ch := s.peek()
	switch ch {
	case '(':
		return s.simple(TokLParen, 1), true
	case ')':
		return s.simple(TokRParen, 1), true
	case '{':
		return s.simple(TokLBrace, 1), true
	case '}':
		return s.simple(TokRBrace, 1), true
	case ';':
		return s.simple(TokSemicolon, 1), true
	case ',':
		return s.simple(TokComma, 1), true
	case '>':
		return s.simple(TokGreater, 1), true
	case '<':
		return s.simple(TokLess, 1), true
	case '=':
		if s.peekAt(1) == '=' {
			return s.simple(TokEqEq, 2), true
		}
	case '"':
		return s.scanString()
	}

	if isDigit(ch) {
		return s.scanNumber(), true
	}

	r := s.peekRune()
	if isLetter(r) {
		return s.scanIdentOrKeyword(), true
	}

	startLine, startCol := s.line, s.col
	s.advanceRune()
	s.warn(startLine, startCol, fmt.Sprintf("Unexpected character '%c'.", r))
	return Token{}, false
}

// Tokenize breaks source code into a slice of tokens terminated by an EOF
// token. Problems are reported as E_LEX diagnostics; scanning always runs
// to the end of the input.
func Tokenize(source, filename string) ([]Token, []diagnostics.Diagnostic) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, ok := s.nextToken()
		if !ok {
			continue
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, s.diags
}
