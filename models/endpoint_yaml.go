package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML implements custom YAML unmarshaling for Endpoint
// Templates may be written either as JSON text or as inline YAML structures;
// structures are converted to JSON text with their key order preserved.
func (e *Endpoint) UnmarshalYAML(value *yaml.Node) error {
	var temp struct {
		Method           string    `yaml:"method"`
		Path             string    `yaml:"path"`
		Description      string    `yaml:"description"`
		RequestTemplate  yaml.Node `yaml:"request_template"`
		ResponseTemplate yaml.Node `yaml:"response_template"`
		ErrorTemplate    yaml.Node `yaml:"error_template"`
	}

	if err := value.Decode(&temp); err != nil {
		return err
	}

	e.Method = temp.Method
	e.Path = temp.Path
	e.Description = temp.Description

	templates := []struct {
		name   string
		node   *yaml.Node
		target *string
	}{
		{"request_template", &temp.RequestTemplate, &e.RequestTemplate},
		{"response_template", &temp.ResponseTemplate, &e.ResponseTemplate},
		{"error_template", &temp.ErrorTemplate, &e.ErrorTemplate},
	}

	for _, t := range templates {
		text, err := templateText(t.node)
		if err != nil {
			return fmt.Errorf("failed to convert %s of %s: %w", t.name, temp.Path, err)
		}
		*t.target = text
	}

	return nil
}

func templateText(node *yaml.Node) (string, error) {
	// Zero node: key was absent
	if node.Kind == 0 {
		return "", nil
	}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!str" {
		return node.Value, nil
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// writeJSON renders a YAML node as JSON, walking mappings in document order
func writeJSON(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSON(buf, node.Content[0])
	case yaml.AliasNode:
		return writeJSON(buf, node.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(node.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, node.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.ScalarNode:
		var v interface{}
		if err := node.Decode(&v); err != nil {
			return err
		}
		out, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(out)
		return nil
	}
	return fmt.Errorf("unsupported yaml node kind %d", node.Kind)
}
