// Package noosexit запрещает завершение процесса из функции main пакета main
// в обход отложенных вызовов: os.Exit и log.Fatal*.
package noosexit

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "noosexit",
	Doc:  "запрещает прямое использование os.Exit и log.Fatal в функции main пакета main",
	Run:  run,
}

func run(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil
	}

	for _, file := range pass.Files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Name.Name != "main" || fn.Recv != nil || fn.Body == nil {
				continue
			}

			ast.Inspect(fn.Body, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}

				sel, ok := call.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}

				pkg, ok := sel.X.(*ast.Ident)
				if !ok {
					return true
				}

				pkgName, ok := pass.TypesInfo.Uses[pkg].(*types.PkgName)
				if !ok {
					return true
				}

				switch path := pkgName.Imported().Path(); {
				case path == "os" && sel.Sel.Name == "Exit":
					pass.Reportf(call.Pos(), "использование os.Exit в main запрещено, используйте return из main")
				case path == "log" && strings.HasPrefix(sel.Sel.Name, "Fatal"):
					pass.Reportf(call.Pos(), "использование log.%s в main запрещено, отложенные вызовы не выполнятся", sel.Sel.Name)
				}

				return true
			})
		}
	}
	return nil, nil
}
