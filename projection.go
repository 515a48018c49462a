package vikasyatra

import "reflect"

// Presence decides whether a source value is copied by a Field.
type Presence int

const (
	// Present copies any non-null value.
	Present Presence = iota
	// Truthy skips null, false, zero and the empty string.
	Truthy
	// NonEmpty requires a non-empty list or string.
	NonEmpty
)

// Field is one allowlisted key of a Projection.
type Field struct {
	Name string
	As   string
	When Presence
	// Object projects a nested object. The result is attached only if at
	// least one sub-field survives.
	Object Projection
	// Each projects every element of a list value.
	Each Projection
	// Keep filters list elements before Limit is applied.
	Keep func(Document) bool
	// Limit caps the list length. Zero means no cap.
	Limit int
	// Tail makes Limit keep the last elements that survive Keep instead
	// of the first ones.
	Tail bool
}

// Projection copies only allowlisted fields out of a source document. No
// defaults are ever written: a field is in the output only when the source
// satisfies its presence rule.
type Projection []Field

// Apply projects src. A nil src yields an empty, non-nil document.
func (p Projection) Apply(src Document) Document {
	out := Document{}
	for _, f := range p {
		v, ok := src[f.Name]
		if !ok || !f.When.accepts(v) {
			continue
		}
		name := f.Name
		if f.As != "" {
			name = f.As
		}
		switch {
		case f.Object != nil:
			nested, isDoc := v.(map[string]any)
			if !isDoc {
				continue
			}
			if sub := f.Object.Apply(nested); len(sub) > 0 {
				out[name] = sub
			}
		case f.Each != nil || f.Keep != nil || f.Limit > 0:
			list, isList := v.([]any)
			if !isList {
				if f.When == NonEmpty {
					continue
				}
				out[name] = v
				continue
			}
			projected := f.projectList(list)
			if f.When == NonEmpty && len(projected) == 0 {
				continue
			}
			out[name] = projected
		default:
			out[name] = v
		}
	}
	return out
}

func (f Field) projectList(list []any) []any {
	out := make([]any, 0, len(list))
	for _, item := range list {
		if !f.Tail && f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		doc, isDoc := item.(map[string]any)
		if f.Keep != nil && (!isDoc || !f.Keep(doc)) {
			continue
		}
		if f.Each != nil {
			if !isDoc {
				continue
			}
			out = append(out, f.Each.Apply(doc))
			continue
		}
		out = append(out, item)
	}
	if f.Tail && f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

func (p Presence) accepts(v any) bool {
	switch p {
	case Present:
		return v != nil
	case Truthy:
		return truthy(v)
	case NonEmpty:
		switch t := v.(type) {
		case []any:
			return len(t) > 0
		case string:
			return t != ""
		}
		if v == nil {
			return false
		}
		rv := reflect.ValueOf(v)
		return (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Len() > 0
	}
	return false
}

// truthy follows the usual dynamic-language notion: null, false, 0 and ""
// are falsy, everything else (including empty lists and objects) is truthy.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	}
	return true
}
