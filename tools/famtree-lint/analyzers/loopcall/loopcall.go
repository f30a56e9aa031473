// Package loopcall detects row store round trips inside loops.
package loopcall

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer detects row store calls inside loops.
// Every call is a network round trip to the hosted backend.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "detects row store calls inside loops",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// rowStoreMethods are the RowStore and SchemaManager method names.
var rowStoreMethods = map[string]bool{
	"ListRelationshipTypes": true,
	"ListFamilyMembers":     true,
	"ListRelationships":     true,
	"ListMemberships":       true,
	"InsertFamilyMember":    true,
	"UpdateFamilyMember":    true,
	"InsertRelationship":    true,
	"UpdateRelationship":    true,
	"InsertMembership":      true,
	"EnsureSchema":          true,
	"SeedRelationshipTypes": true,
}

// exemptDirective on the line before a loop silences it.
const exemptDirective = "//famtree:loopcall-ok"

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	exempt := exemptLines(pass)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		pos := pass.Fset.Position(n.Pos())
		if exempt[lineKey{pos.Filename, pos.Line - 1}] {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Closures run later, not once per iteration.
			if _, ok := n.(*ast.FuncLit); ok {
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			methodName := sel.Sel.Name
			if !rowStoreMethods[methodName] || isPackage(pass, sel.X) {
				return true
			}

			pass.Reportf(call.Pos(),
				"row store round trip: %s called inside loop - load once or batch",
				methodName)
			return true
		})
	})

	return nil, nil
}

type lineKey struct {
	file string
	line int
}

func exemptLines(pass *analysis.Pass) map[lineKey]bool {
	lines := make(map[lineKey]bool)
	for _, f := range pass.Files {
		for _, group := range f.Comments {
			for _, c := range group.List {
				if c.Text != exemptDirective {
					continue
				}
				pos := pass.Fset.Position(c.Pos())
				lines[lineKey{pos.Filename, pos.Line}] = true
			}
		}
	}
	return lines
}

// isPackage reports whether x names an imported package.
func isPackage(pass *analysis.Pass, x ast.Expr) bool {
	ident, ok := x.(*ast.Ident)
	if !ok {
		return false
	}
	_, ok = pass.TypesInfo.Uses[ident].(*types.PkgName)
	return ok
}
