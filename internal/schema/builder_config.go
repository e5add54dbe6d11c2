package schema

import (
	"sort"

	"github.com/fluxweld/gatewing/internal/config"
)

// BuildFromConfig builds an executable Schema directly from a validated
// config.Config.
func BuildFromConfig(c *config.Config) (*Schema, error) {
	s := &Schema{
		QueryType:        c.Root.Query,
		MutationType:     c.Root.Mutation,
		SubscriptionType: c.Root.Subscription,
		Types:            map[string]*Type{},
		Directives:       map[string]*Directive{},
	}
	s.Types[stringType.Name] = stringType
	s.Types[intType.Name] = intType
	s.Types[floatType.Name] = floatType
	s.Types[booleanType.Name] = booleanType
	s.Types[idType.Name] = idType
	s.Types[jsonType.Name] = jsonType
	s.Types[emptyType.Name] = emptyType
	s.Types[dateType.Name] = dateType
	s.Types[bytesType.Name] = bytesType
	s.Directives[includeDirective.Name] = includeDirective
	s.Directives[skipDirective.Name] = skipDirective

	for name, t := range c.Types {
		s.Types[name] = buildConfigObject(t)
	}
	for name, e := range c.Enums {
		s.Types[name] = buildConfigEnum(e)
	}
	for name, u := range c.Unions {
		s.Types[name] = buildConfigUnion(u)
	}
	return s, nil
}

func buildConfigObject(t *config.Type) *Type {
	out := &Type{
		Name:        t.Name,
		Kind:        TypeKindObject,
		Description: t.Description,
		Interfaces:  append([]string(nil), t.Interfaces...),
	}
	if t.Kind == config.KindInterface {
		out.Kind = TypeKindInterface
	}
	names := make([]string, 0, len(t.Fields))
	for name := range t.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := t.Fields[name]
		out.Fields = append(out.Fields, &Field{
			Name: f.Name,
			Type: parseTypeRef(f.Type),
		})
	}
	return out
}

func buildConfigEnum(e *config.Enum) *Type {
	out := &Type{Name: e.Name, Kind: TypeKindEnum}
	for _, v := range e.Values {
		out.EnumValues = append(out.EnumValues, &EnumValue{Name: v})
	}
	return out
}

func buildConfigUnion(u *config.Union) *Type {
	return &Type{Name: u.Name, Kind: TypeKindUnion, PossibleTypes: append([]string(nil), u.Types...)}
}

// parseTypeRef turns a GraphQL type-expression string ("[User!]!") into a
// TypeRef tree.
func parseTypeRef(expr string) *TypeRef {
	if len(expr) > 0 && expr[len(expr)-1] == '!' {
		return NonNullType(parseTypeRef(expr[:len(expr)-1]))
	}
	if len(expr) > 1 && expr[0] == '[' && expr[len(expr)-1] == ']' {
		return ListType(parseTypeRef(expr[1 : len(expr)-1]))
	}
	return NamedType(expr)
}
