package tool

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ReflectSchema derives a tool input schema from the struct T. Fields without
// omitempty are required; descriptions and enums come from jsonschema tags.
func ReflectSchema[T any]() map[string]interface{} {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}

	var v T
	raw, err := json.Marshal(r.Reflect(&v))
	if err != nil {
		panic("tool: reflect schema: " + err.Error())
	}

	var schema map[string]interface{}
	if err := json.Unmarshal(raw, &schema); err != nil {
		panic("tool: decode schema: " + err.Error())
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	delete(schema, "additionalProperties")

	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]interface{}{}
	}
	if _, ok := schema["required"]; !ok {
		schema["required"] = []interface{}{}
	}
	return schema
}
