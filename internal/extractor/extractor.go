package extractor

import (
	"strings"

	"github.com/dshills/docanno-mcp/internal/annotation"
	"github.com/dshills/docanno-mcp/pkg/types"
)

// Source supplies declarations of one package. *parser.Catalog implements it.
type Source interface {
	Function(name string) (types.Declaration, bool)
	Type(name string) (types.Declaration, bool)
	Method(typeName, method string) (types.Declaration, bool)
	Field(typeName, field string) (types.Declaration, bool)
	Parent(typeName string) (string, bool)
}

// Extractor parses the annotations of declarations looked up in a Source
type Extractor struct {
	src Source
}

// New creates an Extractor reading from src
func New(src Source) *Extractor {
	return &Extractor{src: src}
}

// FromFunction extracts the annotations of a package-level function
func (e *Extractor) FromFunction(name string) (annotation.Result, error) {
	decl, ok := e.src.Function(name)
	if !ok {
		return annotation.Result{}, types.FunctionNotFound(name)
	}
	return parseDoc(decl.DocComment, decl.HasDoc), nil
}

// FromType extracts the annotations of a type. With withParents the doc
// comments of every embedded ancestor are prepended, root first.
func (e *Extractor) FromType(name string, withParents bool) (annotation.Result, error) {
	decl, ok := e.src.Type(name)
	if !ok {
		return annotation.Result{}, types.ClassNotFound(name)
	}

	doc, has := decl.DocComment, decl.HasDoc
	if withParents {
		doc, has = e.typeParents(name, doc, has)
	}
	return parseDoc(doc, has), nil
}

// typeParents prepends the doc text of every embedded ancestor of name
func (e *Extractor) typeParents(name, doc string, has bool) (string, bool) {
	seen := map[string]bool{name: true}
	cur := name
	for {
		parent, ok := e.src.Parent(cur)
		if !ok || seen[parent] {
			return doc, has
		}
		seen[parent] = true
		if pdecl, ok := e.src.Type(parent); ok {
			doc, has = prependDoc(pdecl, doc, has)
		}
		cur = parent
	}
}

// FromMethod extracts the annotations of a method. typeName may be empty
// when method is qualified as "T::m" or "T.m". Methods promoted through
// embedding resolve to the type that declares them.
//
// With withParents the walk continues from the declaring type upward and
// stops at the first ancestor that has no such method.
func (e *Extractor) FromMethod(method, typeName string, withParents bool) (annotation.Result, error) {
	if typeName == "" {
		qualified := method
		var ok bool
		typeName, method, ok = splitQualified(qualified)
		if !ok {
			return annotation.Result{}, types.MethodNotFound(qualified)
		}
	}

	owner, decl, ok := e.resolveMethod(typeName, method)
	if !ok {
		return annotation.Result{}, types.MethodNotFound(typeName + "::" + method)
	}

	doc, has := decl.DocComment, decl.HasDoc
	if withParents {
		doc, has = e.methodParents(owner, method, doc, has)
	}
	return parseDoc(doc, has), nil
}

// methodParents prepends the doc text of method as declared by the
// ancestors of owner, stopping at the first ancestor without it
func (e *Extractor) methodParents(owner, method, doc string, has bool) (string, bool) {
	seen := map[string]bool{owner: true}
	cur := owner
	for {
		parent, ok := e.src.Parent(cur)
		if !ok || seen[parent] {
			return doc, has
		}
		pOwner, pdecl, ok := e.resolveMethod(parent, method)
		if !ok || seen[pOwner] {
			return doc, has
		}
		seen[parent] = true
		seen[pOwner] = true
		doc, has = prependDoc(pdecl, doc, has)
		cur = pOwner
	}
}

// FromProperty extracts the annotations of a struct field, following
// embedding for promoted fields. An empty typeName takes the owner from a
// qualified field name.
func (e *Extractor) FromProperty(typeName, field string) (annotation.Result, error) {
	if typeName == "" {
		typeName, field, _ = splitQualified(field)
	}

	seen := make(map[string]bool)
	cur := typeName
	for !seen[cur] {
		seen[cur] = true
		if _, ok := e.src.Type(cur); !ok {
			break
		}
		if decl, ok := e.src.Field(cur, field); ok {
			return parseDoc(decl.DocComment, decl.HasDoc), nil
		}
		parent, ok := e.src.Parent(cur)
		if !ok {
			break
		}
		cur = parent
	}
	return annotation.Result{}, types.PropertyNotFound(typeName, field)
}

// Declaration extracts the annotations of an already located declaration.
// Its own doc text is always the starting point, so a declaration repeated
// across build-tagged files keeps its own annotations. Types and methods
// honour withParents; only the ancestors come from the Source.
func (e *Extractor) Declaration(decl types.Declaration, withParents bool) annotation.Result {
	doc, has := decl.DocComment, decl.HasDoc
	if withParents {
		switch decl.Kind {
		case types.KindType:
			doc, has = e.typeParents(decl.Name, doc, has)
		case types.KindMethod:
			doc, has = e.methodParents(decl.Owner, decl.Name, doc, has)
		}
	}
	return parseDoc(doc, has)
}

// resolveMethod finds the type that declares method, starting at typeName
// and following embedded parents
func (e *Extractor) resolveMethod(typeName, method string) (string, types.Declaration, bool) {
	seen := make(map[string]bool)
	cur := typeName
	for !seen[cur] {
		seen[cur] = true
		if _, ok := e.src.Type(cur); !ok {
			break
		}
		if decl, ok := e.src.Method(cur, method); ok {
			return cur, decl, true
		}
		parent, ok := e.src.Parent(cur)
		if !ok {
			break
		}
		cur = parent
	}

	// Methods on a type whose declaration lives outside the catalog
	if decl, ok := e.src.Method(typeName, method); ok {
		return typeName, decl, true
	}
	return "", types.Declaration{}, false
}

// prependDoc places the parent's doc text ahead of what was gathered so far.
// Parents without doc text contribute nothing.
func prependDoc(parent types.Declaration, doc string, has bool) (string, bool) {
	if !parent.HasDoc || parent.DocComment == "" {
		return doc, has
	}
	if !has {
		return parent.DocComment, true
	}
	return parent.DocComment + doc, true
}

func splitQualified(name string) (string, string, bool) {
	if typeName, method, ok := strings.Cut(name, "::"); ok {
		return typeName, method, typeName != "" && method != ""
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i+1:], i > 0 && i < len(name)-1
	}
	return "", name, false
}

func parseDoc(doc string, has bool) annotation.Result {
	if !has {
		return annotation.Result{}
	}
	return annotation.Parse(doc)
}
