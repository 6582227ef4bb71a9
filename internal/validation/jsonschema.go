package validation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/vetassist/pkg/schema"
)

// CodeSchemaViolation marks issues found by the JSON Schema stage.
const CodeSchemaViolation = "SCHEMA_VIOLATION"

const schemaBaseURL = "https://vetassist.dev/schemas/"

//go:embed schemas/*.json
var schemaFS embed.FS

// JSONSchemaValidator checks diagnosis results and rule sets against the
// embedded Draft 2020-12 schemas. It is safe for concurrent use.
type JSONSchemaValidator struct {
	resultSchema  *jsonschema.Schema
	ruleSetSchema *jsonschema.Schema
}

func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	files, err := fs.Glob(schemaFS, "schemas/*.json")
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		raw, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, err
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		url := schemaBaseURL + file[len("schemas/"):]
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("register %s: %w", url, err)
		}
	}

	v := &JSONSchemaValidator{}
	for name, dst := range map[string]**jsonschema.Schema{
		"diagnosis-result.json": &v.resultSchema,
		"rule-set.json":         &v.ruleSetSchema,
	} {
		if *dst, err = c.Compile(schemaBaseURL + name); err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
	}
	return v, nil
}

// ValidateResult checks engine output. Every violation is listed in the
// error details under "issues".
func (v *JSONSchemaValidator) ValidateResult(result *schema.DiagnosisResult) error {
	if result == nil {
		return schema.NewError(schema.ErrCodeValidation, "diagnosis result is nil")
	}
	return v.check(v.resultSchema, result).Err()
}

// ValidateRuleSet checks rule-set structure only. RuleSetValidator adds the
// semantic checks.
func (v *JSONSchemaValidator) ValidateRuleSet(rs *schema.RuleSet) error {
	if rs == nil {
		return schema.NewError(schema.ErrCodeValidation, "rule set is nil")
	}
	return v.CheckRuleSet(rs).Err()
}

// CheckRuleSet reports each schema violation of rs as an issue located by
// its JSON pointer, e.g. "/rules/0/language".
func (v *JSONSchemaValidator) CheckRuleSet(rs *schema.RuleSet) *schema.ValidationResult {
	return v.check(v.ruleSetSchema, rs)
}

func (v *JSONSchemaValidator) check(s *jsonschema.Schema, value any) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	// The validator wants json.Number for numbers, so go through JSON.
	raw, err := json.Marshal(value)
	if err != nil {
		result.Errorf("/", CodeSchemaViolation, "encode %T: %v", value, err)
		return result
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		result.Errorf("/", CodeSchemaViolation, "decode %T: %v", value, err)
		return result
	}

	err = s.Validate(doc)
	verr, ok := err.(*jsonschema.ValidationError)
	switch {
	case err == nil:
	case !ok:
		result.Errorf("/", CodeSchemaViolation, "%v", err)
	default:
		addLeaves(result, *verr.DetailedOutput())
	}
	return result
}

// addLeaves records the leaf units of a detailed output tree. Inner units
// only say that some child failed.
func addLeaves(result *schema.ValidationResult, unit jsonschema.OutputUnit) {
	if len(unit.Errors) == 0 {
		if unit.Error == nil {
			return
		}
		loc := unit.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		result.Errorf(loc, CodeSchemaViolation, "%s", unit.Error.String())
		return
	}
	for _, child := range unit.Errors {
		addLeaves(result, child)
	}
}

var _ Validator = (*JSONSchemaValidator)(nil)
