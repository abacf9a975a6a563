package behavior

import "github.com/invopop/jsonschema"

// AuthoringSchema builds the JSON schema for the YAML authoring format, for
// editor validation of external config directories.
func AuthoringSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(new(Config))
	schema.Title = "Agent Behavior Config"
	schema.Description = "Validates authored policy state machines loaded by the behavior library"
	return schema
}
