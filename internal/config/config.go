// Package config implements the gateway's user-facing Config model: the
// declarative description of types, enums, unions, the root schema, and
// upstream/server settings that internal/blueprint compiles into a
// Blueprint. Config files are read as YAML only (LoadYAML, LoadAll); there
// is no SDL or JSON decoder.
package config

import "github.com/fluxweld/gatewing/internal/valid"

// Config is the root of one gateway definition. Multiple Configs — one per
// federated source — are combined with MergeRight before compilation.
type Config struct {
	Types    map[string]*Type    `json:"types"`
	Enums    map[string]*Enum    `json:"enums"`
	Unions   map[string]*Union   `json:"unions"`
	Root     RootSchema          `json:"root"`
	Upstream *Upstream           `json:"upstream,omitempty"`
	Server   *Server             `json:"server,omitempty"`
}

// RootSchema names the operation root types.
type RootSchema struct {
	Query        string `json:"query,omitempty"`
	Mutation     string `json:"mutation,omitempty"`
	Subscription string `json:"subscription,omitempty"`
}

// Type is one GraphQL object/interface/input type.
type Type struct {
	Name        string            `json:"name"`
	Kind        TypeKind          `json:"kind"`
	Description string            `json:"description,omitempty"`
	Fields      map[string]*Field `json:"fields"`
	Interfaces  []string          `json:"interfaces,omitempty"`

	// Entity is set by transform.EntityResolver for object types carrying
	// a non-null "id" field, marking them eligible for by-id lookup.
	Entity bool `json:"-"`
}

type TypeKind string

const (
	KindObject    TypeKind = "OBJECT"
	KindInterface TypeKind = "INTERFACE"
	KindInput     TypeKind = "INPUT"
)

// Field is one type's field, including at most one resolver directive.
type Field struct {
	Name      string            `json:"name"`
	Type      string            `json:"type"`
	Args      map[string]string `json:"args,omitempty"`
	Resolver  *Resolver         `json:"resolver,omitempty"`
	CacheSpec *CacheSpec        `json:"cache,omitempty"`
	Protected *ProtectSpec      `json:"protected,omitempty"`
}

// Resolver is the tagged union of @http/@grpc/@graphQL/@expr/@call/@modify.
type Resolver struct {
	Http    *HttpResolver    `json:"http,omitempty"`
	Grpc    *GrpcResolver    `json:"grpc,omitempty"`
	GraphQL *GraphQLResolver `json:"graphQL,omitempty"`
	Expr    *ExprResolver    `json:"expr,omitempty"`
	Call    *CallResolver    `json:"call,omitempty"`
	Modify  *ModifyResolver  `json:"modify,omitempty"`
}

type HttpResolver struct {
	Method     string            `json:"method"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers,omitempty"`
	Query      map[string]string `json:"query,omitempty"`
	Body       string            `json:"body,omitempty"`
	ResultPath string            `json:"resultPath,omitempty"`
}

type GrpcResolver struct {
	Endpoint string `json:"endpoint"`
	Method   string `json:"method"`
	Body     string `json:"body,omitempty"`
}

type GraphQLResolver struct {
	Endpoint   string `json:"endpoint"`
	Query      string `json:"query"`
	ResultPath string `json:"resultPath,omitempty"`
}

type ExprResolver struct {
	Expression string `json:"expression"`
}

type CallResolver struct {
	FieldPath string `json:"fieldPath"`
}

type ModifyResolver struct {
	Of       *Resolver `json:"of"`
	Pipeline []string  `json:"pipeline"`
}

type CacheSpec struct {
	MaxAge int  `json:"maxAge"`
	Public bool `json:"public"`
}

type ProtectSpec struct {
	Scopes []string `json:"scopes,omitempty"`
}

type Enum struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type Union struct {
	Name  string   `json:"name"`
	Types []string `json:"types"`
}

// Upstream describes shared transport defaults (connection pool sizing,
// timeouts) applied when a resolver's own config doesn't override them.
type Upstream struct {
	HTTPTimeoutMS int `json:"httpTimeoutMs,omitempty"`
	GRPCTimeoutMS int `json:"grpcTimeoutMs,omitempty"`
	MaxConnsPerEndpoint int `json:"maxConnsPerEndpoint,omitempty"`
}

// Server describes inbound surface options (CORS, GraphiQL).
type Server struct {
	GraphQLPath string   `json:"graphqlPath,omitempty"`
	CORSOrigins []string `json:"corsOrigins,omitempty"`
	GraphiQL    bool     `json:"graphiql,omitempty"`
}

// IsScalar reports whether name is one of the built-in scalars.
func (c *Config) IsScalar(name string) bool {
	switch name {
	case "String", "Int", "Float", "Boolean", "ID", "JSON", "Empty", "Date", "Bytes":
		return true
	default:
		return false
	}
}

func (c *Config) FindType(name string) (*Type, bool) {
	t, ok := c.Types[name]
	return t, ok
}

func (c *Config) FindUnion(name string) (*Union, bool) {
	u, ok := c.Unions[name]
	return u, ok
}

func (c *Config) FindEnum(name string) (*Enum, bool) {
	e, ok := c.Enums[name]
	return e, ok
}

// InterfacesTypesMap returns, for each interface name, the object type
// names that implement it.
func (c *Config) InterfacesTypesMap() map[string][]string {
	out := map[string][]string{}
	for name, t := range c.Types {
		for _, iface := range t.Interfaces {
			out[iface] = append(out[iface], name)
		}
	}
	return out
}

// Validate performs structural checks accumulated via valid.Valid: every
// field's declared type must resolve to a known Type/Enum/Union/scalar,
// and every interface a type claims to implement must exist.
func (c *Config) Validate() valid.Valid[*Config] {
	var causes []valid.Cause
	for typeName, t := range c.Types {
		for _, iface := range t.Interfaces {
			if _, ok := c.Types[iface]; !ok {
				causes = append(causes, valid.Cause{
					Message: "implements unknown interface " + iface,
					Path:    []string{typeName},
				})
			}
		}
		for fieldName, f := range t.Fields {
			if !c.typeNameKnown(baseTypeName(f.Type)) {
				causes = append(causes, valid.Cause{
					Message: "field has unknown type " + f.Type,
					Path:    []string{typeName, fieldName},
				})
			}
		}
	}
	return valid.FromSlice(c, causes)
}

func (c *Config) typeNameKnown(name string) bool {
	if c.IsScalar(name) {
		return true
	}
	if _, ok := c.Types[name]; ok {
		return true
	}
	if _, ok := c.Enums[name]; ok {
		return true
	}
	if _, ok := c.Unions[name]; ok {
		return true
	}
	return false
}

// baseTypeName strips GraphQL list/non-null wrappers ([Foo!]! -> Foo).
func baseTypeName(t string) string {
	start, end := 0, len(t)
	for start < end && (t[start] == '[' ) {
		start++
	}
	for end > start && (t[end-1] == ']' || t[end-1] == '!') {
		end--
	}
	return t[start:end]
}
