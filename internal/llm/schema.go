package llm

import "sort"

// SchemaType es el tipo JSON de un nodo del schema.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
	TypeNumber  SchemaType = "number"
	TypeBoolean SchemaType = "boolean"
	TypeArray   SchemaType = "array"
)

// Schema describe la respuesta estructurada que se le pide al proveedor.
// Es un subconjunto de JSON Schema que ambos proveedores entienden.
type Schema struct {
	Type        SchemaType
	Description string
	Enum        []string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
}

// PropertyNames devuelve las propiedades ordenadas, para salidas deterministas.
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllRequired indica si todas las propiedades (recursivamente) son obligatorias.
// El modo strict de OpenAI lo exige.
func (s *Schema) AllRequired() bool {
	if s == nil {
		return true
	}
	if s.Type == TypeObject {
		required := make(map[string]bool, len(s.Required))
		for _, r := range s.Required {
			required[r] = true
		}
		for name, prop := range s.Properties {
			if !required[name] || !prop.AllRequired() {
				return false
			}
		}
	}
	if s.Items != nil {
		return s.Items.AllRequired()
	}
	return true
}

// JSONSchema serializa el schema al formato JSON Schema estandar.
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = append([]string(nil), s.Enum...)
	}
	if s.Type == TypeObject {
		props := make(map[string]any, len(s.Properties))
		for _, name := range s.PropertyNames() {
			props[name] = s.Properties[name].JSONSchema()
		}
		out["properties"] = props
		out["additionalProperties"] = false
		if len(s.Required) > 0 {
			out["required"] = append([]string(nil), s.Required...)
		}
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	return out
}
