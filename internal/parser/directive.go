package parser

import (
	"os"
	"path/filepath"

	"github.com/kolkov/gawk-core/internal/ast"
	"github.com/kolkov/gawk-core/internal/lexer"
	"github.com/kolkov/gawk-core/internal/token"
)

// parseDirective parses an @-prefixed preprocessor directive: @include or
// @namespace. The leading '@' (AT) token is current when this is called.
func (p *Parser) parseDirective(prog *ast.Program) {
	p.next() // consume '@'

	if p.tok.Type != token.NAME {
		p.errorf("expected directive name after @")
		return
	}
	name := p.tok.Value
	directive := token.LookupDirective(name)
	p.next()

	switch directive {
	case token.INCLUDE:
		p.parseIncludeDirective(prog)
	case token.NAMESPACE:
		p.parseNamespaceDirective()
	default:
		p.errorf("unknown directive @%s", name)
	}
}

// parseNamespaceDirective handles "@namespace name" or "@namespace "name"",
// switching the namespace under which subsequent top-level names are
// qualified until the next @namespace directive or end of file.
func (p *Parser) parseNamespaceDirective() {
	var name string
	switch p.tok.Type {
	case token.NAME:
		name = p.tok.Value
		p.next()
	case token.STRING:
		name = p.tok.Value
		p.next()
	default:
		p.errorf("expected namespace name after @namespace")
		return
	}
	p.namespace = name
}

// parseIncludeDirective handles "@include "path"", splicing the named
// file's top-level items into prog in place, the way gawk's own
// preprocessor inlines included source. Already-visited files (by resolved
// absolute path) are silently skipped, matching gawk's #pragma-once-style
// cycle protection rather than erroring on diamond includes.
func (p *Parser) parseIncludeDirective(prog *ast.Program) {
	if p.tok.Type != token.STRING {
		p.errorf("expected file path string after @include")
		return
	}
	relPath := p.tok.Value
	p.next()

	dir := p.includeDir
	path := relPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, relPath)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		p.errorf("cannot resolve @include path %q: %v", relPath, err)
		return
	}

	if p.includeVisited == nil {
		p.includeVisited = make(map[string]bool)
	}
	if p.includeVisited[abs] {
		return // already included somewhere in this graph; silent no-op
	}
	p.includeVisited[abs] = true

	src, err := os.ReadFile(abs)
	if err != nil {
		p.errorf("@include %q: %v", relPath, err)
		return
	}

	sub := &Parser{
		lexer:          lexer.New(src),
		includeDir:     filepath.Dir(abs),
		includeVisited: p.includeVisited, // shared, so cycles are caught globally
		namespace:      p.namespace,      // each file starts from the including context
	}
	sub.next()
	subProg := sub.parseProgram()
	for _, e := range sub.errors {
		p.errors = append(p.errors, e)
	}

	prog.Begin = append(prog.Begin, subProg.Begin...)
	prog.BeginFile = append(prog.BeginFile, subProg.BeginFile...)
	prog.Rules = append(prog.Rules, subProg.Rules...)
	prog.EndFile = append(prog.EndFile, subProg.EndFile...)
	prog.EndBlocks = append(prog.EndBlocks, subProg.EndBlocks...)
	prog.Functions = append(prog.Functions, subProg.Functions...)
}
