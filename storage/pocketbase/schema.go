package pocketbase

import (
	"github.com/whenitsdone1/capstone2024/core/milestone"
)

type (
	schemaField struct {
		ID       string                 `json:"id,omitempty"`
		Name     string                 `json:"name"`
		Type     string                 `json:"type"`
		Required bool                   `json:"required"`
		Unique   bool                   `json:"unique"`
		Options  map[string]interface{} `json:"options"`
	}

	collectionSchema struct {
		ID       string        `json:"id,omitempty"`
		Name     string        `json:"name"`
		Type     string        `json:"type"`
		Schema   []schemaField `json:"schema"`
		ListRule *string       `json:"listRule"`
		ViewRule *string       `json:"viewRule"`
	}
)

// newCollectionSchema builds a "base" collection; rules stay nil (admin only).
// ids maps field names to their existing backend ids.
func newCollectionSchema(c milestone.Collection, ids map[string]string) collectionSchema {
	flds := make([]schemaField, 0, len(c.Schema))
	for _, f := range c.Schema {
		sf := toSchemaField(f)
		sf.ID = ids[f.Name]
		flds = append(flds, sf)
	}
	return collectionSchema{Name: c.Name, Type: "base", Schema: flds}
}

func toSchemaField(f milestone.FieldSpec) schemaField {
	sf := schemaField{Name: f.Name, Type: string(f.Kind), Required: f.Required, Options: map[string]interface{}{}}
	switch f.Kind {
	case milestone.KindDate, milestone.KindDateTime:
		sf.Type = "date"
		sf.Options["min"] = nil
		sf.Options["max"] = nil
		sf.Options["enableTime"] = f.Kind == milestone.KindDateTime
	case milestone.KindText:
		sf.Options["min"] = intOrNil(f.Options.Min)
		sf.Options["max"] = intOrNil(f.Options.Max)
		if f.Options.Pattern != "" {
			sf.Options["pattern"] = f.Options.Pattern
		} else {
			sf.Options["pattern"] = nil
		}
	case milestone.KindSelect:
		sf.Options["values"] = f.Options.Values
		maxSelect := f.Options.MaxSelect
		if maxSelect == 0 {
			maxSelect = 1
		}
		sf.Options["maxSelect"] = maxSelect
		if f.Options.Default != "" {
			sf.Options["default"] = f.Options.Default
		}
	}
	return sf
}

func intOrNil(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func (cs collectionSchema) toCollection() milestone.Collection {
	c := milestone.Collection{ID: cs.ID, Name: cs.Name}
	for _, sf := range cs.Schema {
		kind := milestone.FieldKind(sf.Type)
		if sf.Type == "date" {
			if enabled, _ := sf.Options["enableTime"].(bool); enabled {
				kind = milestone.KindDateTime
			}
		}
		c.Schema = append(c.Schema, milestone.FieldSpec{Name: sf.Name, Kind: kind, Required: sf.Required})
	}
	return c
}
