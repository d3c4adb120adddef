package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tracegraph/internal/ir"
)

// yamlSource is the layout of a YAML declaration file:
//
//	relations:
//	  - forward: implements
//	    reverse: implemented-by
//	  - forward: external
//	items:
//	  - id: REQ-1
//	    content: The system shall trace.
//	    attributes: {status: approved}
//	    relations:
//	      implements: [DES-1]
type yamlSource struct {
	Relations []ir.RelationDecl `yaml:"relations"`
	Items     []yaml.Node       `yaml:"items"`
}

// CompileYAML parses a YAML declaration file. source names the file and is
// used for diagnostics and the default document of its items.
//
// Unlike CUE sources, where equal labels unify, every list entry is its own
// declaration: an id listed twice is returned twice.
func CompileYAML(data []byte, source string) ([]ir.RelationDecl, []ir.ItemDecl, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var src yamlSource
	if err := dec.Decode(&src); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%s: %w", source, err)
	}

	items := make([]ir.ItemDecl, 0, len(src.Items))
	for i := range src.Items {
		node := &src.Items[i]
		var decl ir.ItemDecl
		if err := decodeStrict(node, &decl); err != nil {
			return nil, nil, fmt.Errorf("%s:%d: items[%d]: %w", source, node.Line, i, err)
		}
		decl.Source = source
		decl.Line = node.Line
		if decl.Document == "" {
			decl.Document = documentName(source)
		}
		items = append(items, decl)
	}
	return src.Relations, items, nil
}

// decodeStrict decodes node into v, rejecting unknown fields. Node.Decode
// does not honour the KnownFields setting of the decoder that produced node.
func decodeStrict(node *yaml.Node, v any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(v)
}
