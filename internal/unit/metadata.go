package unit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/ZviBaratz/gnome-extension-reviewer/internal/version"
)

// Metadata is the parsed metadata.json of an extension.
type Metadata struct {
	UUID           string   `json:"uuid" validate:"required,extuuid"`
	Name           string   `json:"name" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	ShellVersion   []string `json:"shell-version" validate:"required,min=1,dive,shellversion"`
	SessionModes   []string `json:"session-modes,omitempty" validate:"omitempty,dive,oneof=user unlock-dialog"`
	SettingsSchema string   `json:"settings-schema,omitempty"`
	GettextDomain  string   `json:"gettext-domain,omitempty"`
	VersionName    string   `json:"version-name,omitempty" validate:"omitempty,max=16"`
	URL            string   `json:"url,omitempty" validate:"omitempty,url"`

	raw []byte
}

// ParseMetadata decodes metadata.json, remembering the raw bytes for
// line lookups.
func ParseMetadata(data []byte) (Metadata, error) {
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return Metadata{}, fmt.Errorf("metadata.json: %w", err)
	}
	md.raw = data
	return md, nil
}

// VersionRange returns the lowest and highest declared shell versions.
func (m Metadata) VersionRange() (lo, hi string, ok bool) {
	if len(m.ShellVersion) == 0 {
		return "", "", false
	}
	vs := append([]string(nil), m.ShellVersion...)
	sort.Slice(vs, func(i, j int) bool { return version.Compare(vs[i], vs[j]) < 0 })
	return vs[0], vs[len(vs)-1], true
}

// HasSessionMode reports whether mode is declared.
func (m Metadata) HasSessionMode(mode string) bool {
	for _, s := range m.SessionModes {
		if s == mode {
			return true
		}
	}
	return false
}

// KeyLine returns the 1-based line on which a top-level key appears in the
// raw metadata, or 1.
func (m Metadata) KeyLine(key string) int {
	idx := bytes.Index(m.raw, []byte(`"`+key+`"`))
	if idx < 0 {
		return 1
	}
	return bytes.Count(m.raw[:idx], []byte("\n")) + 1
}

// FieldProblem is one failed metadata constraint.
type FieldProblem struct {
	Key  string
	Line int
	Tag  string
	Text string
}

var (
	uuidPattern    = regexp.MustCompile(`^[-a-zA-Z0-9._]+@[-a-zA-Z0-9._]+$`)
	versionPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("extuuid", func(fl validator.FieldLevel) bool {
			return uuidPattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("shellversion", func(fl validator.FieldLevel) bool {
			return versionPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate checks the metadata record and returns every failed constraint.
func (m Metadata) Validate() []FieldProblem {
	err := validatorInstance().Struct(m)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldProblem{{Key: "metadata", Line: 1, Tag: "invalid", Text: err.Error()}}
	}

	var out []FieldProblem
	for _, fe := range verrs {
		key := fe.Field()
		if i := strings.IndexByte(key, '['); i >= 0 {
			key = key[:i]
		}
		out = append(out, FieldProblem{
			Key:  key,
			Line: m.KeyLine(key),
			Tag:  fe.Tag(),
			Text: describe(fe),
		})
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", fe.Field())
	case "min":
		return fmt.Sprintf("%q must not be empty", fe.Field())
	case "extuuid":
		return fmt.Sprintf("uuid %q must look like name@domain", fe.Value())
	case "shellversion":
		return fmt.Sprintf("shell-version entry %q must be MAJOR or MAJOR.MINOR", fe.Value())
	case "oneof":
		return fmt.Sprintf("session mode %q is not one of user, unlock-dialog", fe.Value())
	case "max":
		return fmt.Sprintf("%q is longer than %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%q failed %s", fe.Field(), fe.Tag())
}
