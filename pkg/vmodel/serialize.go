package vmodel

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Serialize encodes cfg as YAML with the section order production, parent,
// comet, fragment, grid, etc.
func Serialize(cfg *Configuration) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("error marshaling configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("error marshaling configuration: %w", err)
	}
	return buf.Bytes(), nil
}

// Deserialize parses data into an untyped mapping without any coercion.
// An empty document yields an empty mapping.
func Deserialize(data []byte) (Mapping, error) {
	var raw Mapping
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedDocumentError{Err: err}
	}
	if raw == nil {
		raw = Mapping{}
	}
	return raw, nil
}

// Write serializes cfg to path, creating parent directories as needed and
// replacing any existing file.
func Write(path string, cfg *Configuration) (err error) {
	data, err := Serialize(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("error closing config file: %w", cerr)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Read loads path and deserializes it.
func Read(path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	raw, err := Deserialize(data)
	if err != nil {
		var malformed *MalformedDocumentError
		if errors.As(err, &malformed) {
			malformed.Source = path
		}
		return nil, err
	}
	return raw, nil
}

// Load reads and validates the configuration file at path.
func Load(path string, req Request) (*Configuration, error) {
	raw, err := Read(path)
	if err != nil {
		return nil, err
	}
	return Validate(raw, req)
}

// MarshalYAML writes params only for a set variation kind, with the
// kind's own key set.
func (p Production) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	if err := appendPair(node, "base_q", p.BaseQ); err != nil {
		return nil, err
	}

	var kind interface{}
	if p.TimeVariation.Kind != VariationNone {
		kind = string(p.TimeVariation.Kind)
	}
	if err := appendPair(node, "time_variation_type", kind); err != nil {
		return nil, err
	}

	if params := p.TimeVariation.params(); len(params) > 0 {
		paramsNode := &yaml.Node{Kind: yaml.MappingNode}
		for _, pv := range params {
			if err := appendPair(paramsNode, pv.key, pv.value); err != nil {
				return nil, err
			}
		}
		node.Content = append(node.Content, keyNode("params"), paramsNode)
	}

	return node, nil
}

// MarshalYAML writes the transform method as null when none is applied.
func (c Comet) MarshalYAML() (interface{}, error) {
	var method *string
	if c.TransformMethod != TransformNone {
		m := string(c.TransformMethod)
		method = &m
	}

	return struct {
		Name             string  `yaml:"name"`
		Rh               float64 `yaml:"rh"`
		Delta            string  `yaml:"delta"`
		TransformMethod  *string `yaml:"transform_method"`
		TransformApplied bool    `yaml:"transform_applied"`
	}{
		Name:             c.Name,
		Rh:               c.Rh,
		Delta:            c.Delta,
		TransformMethod:  method,
		TransformApplied: method != nil,
	}, nil
}

func keyNode(key string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
}

func appendPair(node *yaml.Node, key string, value interface{}) error {
	var v yaml.Node
	if err := v.Encode(value); err != nil {
		return fmt.Errorf("error encoding %s: %w", key, err)
	}
	node.Content = append(node.Content, keyNode(key), &v)
	return nil
}
