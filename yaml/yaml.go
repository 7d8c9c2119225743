// Package yaml provides a YAML codec implementation.
//
// Marshal lowers fastpack values onto YAML nodes so that *fastpack.Map keeps
// its key order. ParseDocument goes the other way and reads a YAML (or JSON)
// document into fastpack values with mapping order preserved.
package yaml

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/zoobzio/fastpack"
)

// yamlCodec implements fastpack.Codec for YAML.
type yamlCodec struct{}

// New returns a YAML codec.
func New() fastpack.Codec {
	return &yamlCodec{}
}

// ContentType returns the MIME type for YAML.
func (c *yamlCodec) ContentType() string {
	return "application/yaml"
}

// Marshal encodes v as YAML.
func (c *yamlCodec) Marshal(v any) ([]byte, error) {
	node, err := Lower(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(node)
}

// Unmarshal decodes YAML data into v. A *any target receives ordered
// fastpack values from ParseDocument.
func (c *yamlCodec) Unmarshal(data []byte, v any) error {
	if target, ok := v.(*any); ok {
		parsed, err := ParseDocument(data)
		if err != nil {
			return err
		}
		*target = parsed
		return nil
	}
	return yaml.Unmarshal(data, v)
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// Lower converts a fastpack value into a YAML node tree.
func Lower(v any) (*yaml.Node, error) {
	switch v := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case *fastpack.Map:
		if v == nil {
			return scalar("!!null", "null"), nil
		}
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for k, val := range v.All() {
			kn, err := Lower(k)
			if err != nil {
				return nil, err
			}
			vn, err := Lower(val)
			if err != nil {
				return nil, fmt.Errorf("key %v: %w", k, err)
			}
			node.Content = append(node.Content, kn, vn)
		}
		return node, nil
	case []any:
		return sequence(v)
	case fastpack.Tuple:
		return sequence(v)
	case *fastpack.Set:
		return sequence(v.Values())
	case *fastpack.FrozenSet:
		return sequence(v.Values())
	case *big.Int:
		if v == nil {
			return scalar("!!null", "null"), nil
		}
		return scalar("!!int", v.String()), nil
	case *apd.Decimal:
		if v == nil {
			return scalar("!!null", "null"), nil
		}
		return scalar("!!str", v.String()), nil
	case uuid.UUID:
		return scalar("!!str", v.String()), nil
	case time.Time:
		return scalar("!!timestamp", v.Format(time.RFC3339Nano)), nil
	case []byte:
		return scalar("!!binary", base64.StdEncoding.EncodeToString(v)), nil
	case fastpack.Record:
		return record(v)
	case *fastpack.Record:
		if v == nil {
			return scalar("!!null", "null"), nil
		}
		return record(*v)
	}

	node := &yaml.Node{}
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	return node, nil
}

func sequence(items []any) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for i, item := range items {
		n, err := Lower(item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		node.Content = append(node.Content, n)
	}
	return node, nil
}

func record(r fastpack.Record) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	node.Content = append(node.Content,
		scalar("!!str", fastpack.MarkerName), scalar("!!str", r.ID.Name),
		scalar("!!str", fastpack.MarkerNamespace), scalar("!!str", r.ID.Namespace),
	)
	for _, f := range r.Fields {
		vn, err := Lower(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		node.Content = append(node.Content, scalar("!!str", f.Name), vn)
	}
	return node, nil
}

// ParseDocument reads a single YAML or JSON document into fastpack values.
// Mappings become *fastpack.Map in document order, sequences become []any,
// integers that overflow int64 become *big.Int and !!binary scalars become
// []byte. An empty document yields nil.
func ParseDocument(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return convert(doc.Content[0])
}

func convert(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return convert(n.Content[0])
	case yaml.AliasNode:
		return convert(n.Alias)
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := convert(c)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.MappingNode:
		m := fastpack.NewMap(len(n.Content) / 2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].ShortTag() == "!!merge" {
				if err := merge(m, n.Content[i+1]); err != nil {
					return nil, err
				}
				continue
			}
			k, err := convert(n.Content[i])
			if err != nil {
				return nil, err
			}
			v, err := convert(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(k, v)
		}
		return m, nil
	case yaml.ScalarNode:
		return convertScalar(n)
	}
	return nil, fmt.Errorf("yaml: unsupported node kind %d at line %d", n.Kind, n.Line)
}

// merge applies a "<<" merge key. Keys already present win.
func merge(m *fastpack.Map, n *yaml.Node) error {
	v, err := convert(n)
	if err != nil {
		return err
	}
	sources := []any{v}
	if seq, ok := v.([]any); ok {
		sources = seq
	}
	for _, src := range sources {
		sm, ok := src.(*fastpack.Map)
		if !ok {
			return fmt.Errorf("yaml: line %d: merge value is not a mapping", n.Line)
		}
		for k, val := range sm.All() {
			if !m.Has(k) {
				m.Set(k, val)
			}
		}
	}
	return nil
}

func convertScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return i, nil
		}
		if b, ok := new(big.Int).SetString(n.Value, 0); ok {
			return b, nil
		}
	case "!!float":
		// Plain integers too wide for int64 resolve as floats.
		if b, ok := new(big.Int).SetString(n.Value, 10); ok {
			return b, nil
		}
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, err
		}
		return t, nil
	case "!!binary":
		b, err := base64.StdEncoding.DecodeString(n.Value)
		if err != nil {
			return nil, fmt.Errorf("yaml: line %d: %w", n.Line, err)
		}
		return b, nil
	case "!!str":
		return n.Value, nil
	}

	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	}
	return v, nil
}
