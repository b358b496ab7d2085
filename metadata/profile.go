package metadata

import (
	"bytes"
	_ "embed" // profile schema
	"encoding/json"
	"io"
	"io/ioutil"
	"sort"
	"sync"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/pattern"
	"github.com/pkg/errors"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaID = "inmemory://bagit-profile.json"

// Serialization policies
const (
	SerializationRequired  = "required"
	SerializationOptional  = "optional"
	SerializationForbidden = "forbidden"
)

//go:embed profile_schema.json
var profileSchema []byte

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// Profile is a parsed BagIt profile.  Regular expressions are compiled, and
// every optional section has its default applied.
type Profile struct {
	Source     string            // Location the profile was loaded from, if any
	Identifier string            // BagIt-Profile-Identifier from BagIt-Profile-Info
	Info       map[string]string // All of BagIt-Profile-Info

	BagInfo map[string]TagRule

	ManifestsRequired    []bagval.Algorithm
	ManifestsAllowed     []bagval.Algorithm // Empty means any
	TagManifestsRequired []bagval.Algorithm
	TagManifestsAllowed  []bagval.Algorithm // Empty means any
	TagFilesRequired     []string

	AllowFetch         bool
	FetchRequired      bool
	Serialization      string
	AcceptBagItVersion []string // Empty means any

	// RequiredDirs are payload directories that must exist, as declared
	RequiredDirs []string

	// AllowedDirs are the directory rules payload files must be placed in.
	// When the profile does not declare Payload-Folders-Allowed, this is the
	// catch-all rule and AllowedDeclared is false.
	AllowedDirs     []pattern.Rule
	AllowedDeclared bool
}

// TagRule constrains the values of a single bag-info tag
type TagRule struct {
	Required   bool
	Repeatable bool
	Values     []string      // Allowed values, empty means any
	Constraint *pattern.Rule // From description; every value must match it entirely
}

// Allowed tells whether a value is one of the rule's allowed values
func (t TagRule) Allowed(value string) bool {
	if len(t.Values) == 0 {
		return true
	}
	for _, v := range t.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Tags lists the tags constrained by Bag-Info, sorted
func (p *Profile) Tags() []string {
	tags := make([]string, 0, len(p.BagInfo))
	for tag := range p.BagInfo {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

type rawTagRule struct {
	Required    bool     `json:"required"`
	Repeatable  *bool    `json:"repeatable"`
	Values      []string `json:"values"`
	Description *string  `json:"description"`
}

type rawProfile struct {
	Info                   map[string]interface{} `json:"BagIt-Profile-Info"`
	BagInfo                map[string]rawTagRule  `json:"Bag-Info"`
	ManifestsRequired      []string               `json:"Manifests-Required"`
	ManifestsAllowed       []string               `json:"Manifests-Allowed"`
	TagManifestsRequired   []string               `json:"Tag-Manifests-Required"`
	TagManifestsAllowed    []string               `json:"Tag-Manifests-Allowed"`
	TagFilesRequired       []string               `json:"Tag-Files-Required"`
	AllowFetch             *bool                  `json:"Allow-Fetch.txt"`
	FetchRequired          bool                   `json:"Fetch.txt-Required"`
	Serialization          string                 `json:"Serialization"`
	AcceptBagItVersion     []string               `json:"Accept-BagIt-Version"`
	PayloadFoldersRequired []string               `json:"Payload-Folders-Required"`
	PayloadFoldersAllowed  *[]json.RawMessage     `json:"Payload-Folders-Allowed"`
}

type regexEntry struct {
	Regex string `json:"regex"`
}

// ParseProfile reads a BagIt profile JSON document.  A document that is not
// a well formed profile, or contains an invalid regular expression, is a
// configuration error.
func ParseProfile(r io.Reader) (*Profile, error) {
	body, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not read profile")
	}

	if err := validateShape(body); err != nil {
		return nil, err
	}

	var raw rawProfile
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, bagval.Configf("could not decode profile: %s", err)
	}

	return raw.convert()
}

func validateShape(body []byte) error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if compileErr = compiler.AddResource(schemaID, bytes.NewReader(profileSchema)); compileErr != nil {
			return
		}
		compiled, compileErr = compiler.Compile(schemaID)
	})
	if compileErr != nil {
		return errors.Wrap(compileErr, "could not compile profile schema")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return bagval.Configf("profile is not valid JSON: %s", err)
	}

	if err := compiled.Validate(doc); err != nil {
		return bagval.Configf("profile is malformed: %s", err)
	}
	return nil
}

func (raw *rawProfile) convert() (*Profile, error) {
	p := &Profile{
		Info:                 map[string]string{},
		BagInfo:              map[string]TagRule{},
		ManifestsRequired:    algorithms(raw.ManifestsRequired),
		ManifestsAllowed:     algorithms(raw.ManifestsAllowed),
		TagManifestsRequired: algorithms(raw.TagManifestsRequired),
		TagManifestsAllowed:  algorithms(raw.TagManifestsAllowed),
		TagFilesRequired:     raw.TagFilesRequired,
		AllowFetch:           raw.AllowFetch == nil || *raw.AllowFetch,
		FetchRequired:        raw.FetchRequired,
		Serialization:        raw.Serialization,
		AcceptBagItVersion:   raw.AcceptBagItVersion,
		RequiredDirs:         raw.PayloadFoldersRequired,
	}

	if p.Serialization == "" {
		p.Serialization = SerializationOptional
	}

	for k, v := range raw.Info {
		if s, ok := v.(string); ok {
			p.Info[k] = s
		}
	}
	p.Identifier = p.Info[ProfileIdentifierTag]

	for tag, rule := range raw.BagInfo {
		converted := TagRule{
			Required:   rule.Required,
			Repeatable: rule.Repeatable == nil || *rule.Repeatable,
			Values:     rule.Values,
		}
		if rule.Description != nil {
			c, err := pattern.NewRegex(*rule.Description)
			if err != nil {
				return nil, errors.Wrapf(err, "bad description of Bag-Info tag %s", tag)
			}
			converted.Constraint = &c
		}
		p.BagInfo[tag] = converted
	}

	if raw.PayloadFoldersAllowed == nil {
		p.AllowedDirs = pattern.AllowAll()
		return p, nil
	}

	p.AllowedDeclared = true
	for _, entry := range *raw.PayloadFoldersAllowed {
		rule, err := allowedRule(entry)
		if err != nil {
			return nil, err
		}
		p.AllowedDirs = append(p.AllowedDirs, rule)
	}

	return p, nil
}

// allowedRule converts a Payload-Folders-Allowed entry, which is either a
// literal directory or an object holding a directory regex
func allowedRule(entry json.RawMessage) (pattern.Rule, error) {
	var literal string
	if err := json.Unmarshal(entry, &literal); err == nil {
		return pattern.DirLiteral(literal), nil
	}

	var re regexEntry
	if err := json.Unmarshal(entry, &re); err != nil {
		return pattern.Rule{}, bagval.Configf("bad Payload-Folders-Allowed entry %s", string(entry))
	}
	rule, err := pattern.DirRegex(re.Regex)
	if err != nil {
		return pattern.Rule{}, errors.Wrap(err, "bad Payload-Folders-Allowed entry")
	}
	return rule, nil
}

func algorithms(names []string) []bagval.Algorithm {
	if len(names) == 0 {
		return nil
	}
	algs := make([]bagval.Algorithm, 0, len(names))
	for _, n := range names {
		algs = append(algs, bagval.Algorithm(n))
	}
	return algs
}
