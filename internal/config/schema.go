package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"
)

// validateSchema unifies the YAML document with the embedded CUE schema
// and collects every violation. Uses the CUE SDK's Go API directly (not a
// CLI subprocess).
func validateSchema(data []byte) []error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; this only fires on a build defect.
		return []error{&Error{Code: ErrCodeSchema, Message: fmt.Sprintf("compile schema: %v", err)}}
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return []error{&Error{Code: ErrCodeSchema, Message: fmt.Sprintf("lookup #Config: %v", err)}}
	}

	file, err := cueyaml.Extract("config.yaml", data)
	if err != nil {
		return []error{&Error{Code: ErrCodeDecode, Message: fmt.Sprintf("parse yaml: %v", err)}}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return []error{&Error{Code: ErrCodeDecode, Message: fmt.Sprintf("build document: %v", err)}}
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return collectCUEErrors(err)
	}
	return nil
}

// collectCUEErrors converts a CUE error list into per-field Errors.
func collectCUEErrors(err error) []error {
	var out []error
	for _, e := range cueerrors.Errors(err) {
		field := ""
		if path := e.Path(); len(path) > 0 {
			for i, p := range path {
				if i > 0 {
					field += "."
				}
				field += p
			}
		}
		out = append(out, &Error{
			Code:    ErrCodeSchema,
			Field:   field,
			Message: e.Error(),
		})
	}
	if len(out) == 0 {
		out = append(out, &Error{Code: ErrCodeSchema, Message: err.Error()})
	}
	return out
}
