// Package protodesc resolves "service/Method" targets to a
// protoreflect.MethodDescriptor for @grpc dispatch. It is the lookup half
// of the teacher's internal/protoreg.Registry; the proto-file-rendering
// half (protoreg.Render) is not carried forward — see DESIGN.md's "Dropped
// teacher code" entry — because this gateway dispatches against upstream
// services whose .proto files already exist, rather than generating new
// ones from GraphQL SDL.
package protodesc

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// Registry resolves "pkg.Service/Method" targets against a set of loaded
// file descriptors, using the global protoregistry.GlobalFiles the way the
// teacher's protoreg package populates one from a compiled descriptor set.
type Registry struct {
	files *protoregistry.Files
}

// New wraps files for lookup. Passing nil falls back to the global
// registry, useful for descriptors registered via generated/linked code.
func New(files *protoregistry.Files) *Registry {
	if files == nil {
		files = protoregistry.GlobalFiles
	}
	return &Registry{files: files}
}

// Resolve looks up "pkg.Service/Method" and returns its MethodDescriptor.
func (r *Registry) Resolve(target string) (protoreflect.MethodDescriptor, error) {
	parts := strings.SplitN(target, "/", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("protodesc: malformed target %q, expected Service/Method", target)
	}
	serviceName, methodName := parts[0], parts[1]

	var found protoreflect.MethodDescriptor
	r.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		svcs := fd.Services()
		for i := 0; i < svcs.Len(); i++ {
			svc := svcs.Get(i)
			if string(svc.FullName()) != serviceName && string(svc.Name()) != serviceName {
				continue
			}
			if m := svc.Methods().ByName(protoreflect.Name(methodName)); m != nil {
				found = m
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("protodesc: method %q not found", target)
	}
	return found, nil
}
