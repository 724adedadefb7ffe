package artifact

import (
	"bytes"
	"embed"
	"fmt"
	"path"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var (
	//go:embed schema/*.json
	schemaFS embed.FS

	schemas = map[string]*jsonschema.Schema{}
)

func init() {
	for _, name := range []string{
		SelectedVarsFile,
		WoeMappingsFile,
		CoefficientsFile,
		InterceptFile,
		ScoreParamsFile,
		VersionFile,
	} {
		schemas[name] = mustCompileSchema(name)
	}
}

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile(path.Join("schema", name))
	if err != nil {
		panic(fmt.Sprintf("failed to read embedded schema %s: %v", name, err))
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded schema %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add schema %s: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile schema %s: %v", name, err))
	}
	return sch
}

// validateDocument checks raw against the schema of the named document.
func validateDocument(name string, raw []byte) error {
	sch, ok := schemas[name]
	if !ok {
		return fmt.Errorf("no schema for %s", name)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := sch.Validate(inst); err != nil {
		return err
	}
	return nil
}
