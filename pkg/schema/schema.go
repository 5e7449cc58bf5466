// Package schema parses and validates the field schemas that describe
// a runtime library's parameter shape, used by the library registry
// to check emitted fragments before they are packaged.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/asaskevich/govalidator"
)

// FieldKind enumerates the field kinds a schema can describe.
type FieldKind string

const (
	KindText            FieldKind = "text"
	KindNumber          FieldKind = "number"
	KindBoolean         FieldKind = "boolean"
	KindLibraryRef      FieldKind = "library-reference"
	KindGroup           FieldKind = "group"
	KindList            FieldKind = "list"
	KindSelect          FieldKind = "select"
	KindImage           FieldKind = "image"
	KindAudio           FieldKind = "audio"
	KindVideo           FieldKind = "video"
	KindFile            FieldKind = "file"
)

// libraryRefPattern matches "<machine-name> <major>.<minor>", e.g.
// "H5P.AdvancedText 1.1".
const libraryRefPattern = `^[A-Za-z][A-Za-z0-9.]* [0-9]+\.[0-9]+$`

// Field describes one parameter field within a schema.
type Field struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"type"`
	Required bool      `json:"required,omitempty"`

	// Number bounds, inclusive. Nil means unbounded.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// Options is the closed set of legal values for a select field.
	Options []string `json:"options,omitempty"`

	// Fields describes the members of a group field.
	Fields []Field `json:"fields,omitempty"`

	// Item describes the element shape of a list field.
	Item *Field `json:"item,omitempty"`
}

// Schema is the parameter shape accepted by one runtime library.
type Schema struct {
	MachineName string  `json:"machineName"`
	Fields      []Field `json:"fields"`
}

// Parse decodes a schema document (a library's semantics.json-shaped
// field list, already narrowed to the subset spec uses).
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	return &s, nil
}

// ValidationError reports one schema violation at a dotted field path.
type ValidationError struct {
	Path    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Errors is a collection of ValidationError, itself an error.
type Errors []ValidationError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "no errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", e[0].Error(), len(e)-1)
}

// Validate checks value (a decoded params object) against schema and
// returns every violation found, with dotted-path error reporting.
// Unknown children of a group are not errors: they are returned in the
// separate warnings collection so callers can decide to ignore them.
func Validate(value map[string]any, s *Schema) (errs Errors, warnings Errors) {
	return validateFields("", value, s.Fields)
}

func validateFields(prefix string, value map[string]any, fields []Field) (errs Errors, warnings Errors) {
	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f.Name] = true
		path := joinPath(prefix, f.Name)
		raw, present := value[f.Name]

		if !present {
			if f.Required {
				errs = append(errs, ValidationError{Path: path, Message: "required field is missing"})
			}
			continue
		}

		fieldErrs, fieldWarnings := validateField(path, raw, f)
		errs = append(errs, fieldErrs...)
		warnings = append(warnings, fieldWarnings...)
	}

	for key := range value {
		if !known[key] {
			warnings = append(warnings, ValidationError{
				Path:    joinPath(prefix, key),
				Message: "unknown field not declared in schema",
			})
		}
	}

	return errs, warnings
}

func validateField(path string, raw any, f Field) (errs Errors, warnings Errors) {
	switch f.Kind {
	case KindText, KindLibraryRef:
		s, ok := raw.(string)
		if !ok {
			return Errors{{Path: path, Message: "expected a string"}}, nil
		}
		if f.Kind == KindLibraryRef && !govalidator.IsMatch(s, libraryRefPattern) {
			return Errors{{Path: path, Message: fmt.Sprintf("%q is not a valid library reference (want \"name major.minor\")", s)}}, nil
		}
		return nil, nil

	case KindNumber:
		n, ok := toFloat(raw)
		if !ok {
			return Errors{{Path: path, Message: "expected a number"}}, nil
		}
		if f.Min != nil && n < *f.Min {
			return Errors{{Path: path, Message: fmt.Sprintf("%v is below minimum %v", n, *f.Min)}}, nil
		}
		if f.Max != nil && n > *f.Max {
			return Errors{{Path: path, Message: fmt.Sprintf("%v is above maximum %v", n, *f.Max)}}, nil
		}
		return nil, nil

	case KindBoolean:
		if _, ok := raw.(bool); !ok {
			return Errors{{Path: path, Message: "expected a boolean"}}, nil
		}
		return nil, nil

	case KindSelect:
		s, ok := raw.(string)
		if !ok {
			return Errors{{Path: path, Message: "expected a string"}}, nil
		}
		if !govalidator.IsIn(s, f.Options...) {
			return Errors{{Path: path, Message: fmt.Sprintf("%q is not one of %v", s, f.Options)}}, nil
		}
		return nil, nil

	case KindImage, KindAudio, KindVideo, KindFile:
		obj, ok := raw.(map[string]any)
		if !ok {
			return Errors{{Path: path, Message: "expected a media reference object"}}, nil
		}
		if p, _ := obj["path"].(string); p == "" {
			return Errors{{Path: path, Message: "media reference is missing a path"}}, nil
		}
		return nil, nil

	case KindGroup:
		obj, ok := raw.(map[string]any)
		if !ok {
			return Errors{{Path: path, Message: "expected an object"}}, nil
		}
		return validateFields(path, obj, f.Fields)

	case KindList:
		items, ok := raw.([]any)
		if !ok {
			return Errors{{Path: path, Message: "expected a list"}}, nil
		}
		if f.Item == nil {
			return nil, nil
		}
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if f.Item.Kind == KindGroup {
				obj, ok := item.(map[string]any)
				if !ok {
					errs = append(errs, ValidationError{Path: itemPath, Message: "expected an object"})
					continue
				}
				e, w := validateFields(itemPath, obj, f.Item.Fields)
				errs = append(errs, e...)
				warnings = append(warnings, w...)
				continue
			}
			e, w := validateField(itemPath, item, *f.Item)
			errs = append(errs, e...)
			warnings = append(warnings, w...)
		}
		return errs, warnings

	default:
		return Errors{{Path: path, Message: fmt.Sprintf("unknown field kind %q", f.Kind)}}, nil
	}
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
