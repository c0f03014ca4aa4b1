package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

var (
	ErrUnsupportedFormat  = errors.New("descriptor: unsupported format")
	ErrIncompatible       = errors.New("descriptor: incompatible format version")
	ErrDuplicateBlock     = errors.New("descriptor: duplicate block name")
	ErrUnknownRef         = errors.New("descriptor: reference to unknown block")
	ErrInvalidDescriptor  = errors.New("descriptor: invalid descriptor")
	ErrInvalidTerminalUse = errors.New("descriptor: terminal method cannot start a block")
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

func Marshal(d *Descriptor, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(d); err != nil {
			return nil, err
		}
		if err := encoder.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(d, "", "  ")
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// Unmarshal decodes and validates a descriptor.
func Unmarshal(data []byte, format Format) (*Descriptor, error) {
	var d Descriptor

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, err
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}

	return &d, nil
}

func Load(path string) (*Descriptor, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	d, err := Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return d, nil
}

func Save(d *Descriptor, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	data, err := Marshal(d, format)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the version, the package path and the block tree: block
// names are unique, references resolve, and value-returning methods do not
// open blocks.
func (d *Descriptor) Validate() error {
	if !semver.IsValid(d.Version) || semver.Major(d.Version) != semver.Major(FormatVersion) {
		return fmt.Errorf("%w: %q (want %s)", ErrIncompatible, d.Version, semver.Major(FormatVersion))
	}

	if err := module.CheckImportPath(d.Package); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDescriptor, err)
	}

	if d.Root == nil || d.Root.Name == "" || d.Start == "" {
		return fmt.Errorf("%w: missing root block or start method", ErrInvalidDescriptor)
	}

	names := make(map[string]bool)
	var refs []string
	err := d.Root.Walk(func(b *Block) error {
		if names[b.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateBlock, b.Name)
		}
		names[b.Name] = true

		for _, m := range b.Methods {
			if m.Terminal() && m.Starts() != "" {
				return fmt.Errorf("%w: %s", ErrInvalidTerminalUse, MethodID(b.Name, m.ID))
			}
			if m.Ref != "" {
				refs = append(refs, m.Ref)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	for _, ref := range refs {
		if !names[ref] {
			return fmt.Errorf("%w: %s", ErrUnknownRef, ref)
		}
	}

	return nil
}
