package main

import (
	"bytes"
	"fmt"
	"go/token"
	"hash/fnv"
	"strconv"

	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/dstutil"
)

const tracerImport = `"alma.local/evmfuzz/tracer"`

// VarInfo locates the variable a CID samples.
type VarInfo struct {
	CID         uint64
	PackageName string
	FuncName    string
	BlockID     int
	VarName     string
	Location    string
}

// envParam returns the name of the first *vm.Env parameter of fn, or "".
func envParam(fn *dst.FuncDecl, pkg string) string {
	for _, field := range fn.Type.Params.List {
		star, ok := field.Type.(*dst.StarExpr)
		if !ok || len(field.Names) == 0 {
			continue
		}
		switch t := star.X.(type) {
		case *dst.SelectorExpr:
			if x, ok := t.X.(*dst.Ident); ok && x.Name == "vm" && t.Sel.Name == "Env" {
				return field.Names[0].Name
			}
		case *dst.Ident:
			if pkg == "vm" && t.Name == "Env" {
				return field.Names[0].Name
			}
		}
	}
	return ""
}

// instrument inserts env.Record(cid, tracer.ToScalar(v)) after every
// assignment statement inside functions that receive a *vm.Env.
func instrument(src []byte, path string) ([]byte, map[string]VarInfo, error) {
	f, err := decorator.Parse(src)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	vars := make(map[string]VarInfo)
	packageName := f.Name.Name
	var currentFunc, envName string
	blockCounter := 0

	dstutil.Apply(f, func(c *dstutil.Cursor) bool {
		switch n := c.Node().(type) {
		case *dst.FuncDecl:
			currentFunc = n.Name.Name
			envName = envParam(n, packageName)
			blockCounter = 0
		case *dst.BlockStmt, *dst.CaseClause, *dst.CommClause:
			blockCounter++
		}
		return true
	}, func(c *dstutil.Cursor) bool {
		switch n := c.Node().(type) {
		case *dst.FuncDecl:
			envName = ""
		case *dst.AssignStmt:
			if envName == "" || c.Index() < 0 {
				return true
			}
			for _, lhs := range n.Lhs {
				ident, ok := lhs.(*dst.Ident)
				if !ok || ident.Name == "_" || ident.Name == envName {
					continue
				}

				h := fnv.New64a()
				h.Write([]byte(packageName))
				h.Write([]byte(currentFunc))
				h.Write([]byte(strconv.Itoa(blockCounter)))
				h.Write([]byte(ident.Name))
				cid := h.Sum64()
				cidStr := strconv.FormatUint(cid, 10)

				vars[cidStr] = VarInfo{
					CID:         cid,
					PackageName: packageName,
					FuncName:    currentFunc,
					BlockID:     blockCounter,
					VarName:     ident.Name,
					Location:    path,
				}
				c.InsertAfter(recordStmt(envName, cidStr, ident.Name))
			}
		}
		return true
	})

	if len(vars) > 0 && packageName != "tracer" && !hasImport(f, tracerImport) {
		f.Decls = append([]dst.Decl{&dst.GenDecl{
			Tok: token.IMPORT,
			Specs: []dst.Spec{
				&dst.ImportSpec{Path: &dst.BasicLit{Kind: token.STRING, Value: tracerImport}},
			},
		}}, f.Decls...)
	}

	var buf bytes.Buffer
	if err := decorator.Fprint(&buf, f); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), vars, nil
}

func recordStmt(env, cid, name string) *dst.ExprStmt {
	return &dst.ExprStmt{
		X: &dst.CallExpr{
			Fun: &dst.SelectorExpr{
				X:   &dst.Ident{Name: env},
				Sel: &dst.Ident{Name: "Record"},
			},
			Args: []dst.Expr{
				&dst.BasicLit{Kind: token.INT, Value: cid},
				&dst.CallExpr{
					Fun: &dst.SelectorExpr{
						X:   &dst.Ident{Name: "tracer"},
						Sel: &dst.Ident{Name: "ToScalar"},
					},
					Args: []dst.Expr{&dst.Ident{Name: name}},
				},
			},
		},
	}
}

func hasImport(f *dst.File, path string) bool {
	for _, imp := range f.Imports {
		if imp.Path != nil && imp.Path.Value == path {
			return true
		}
	}
	return false
}
