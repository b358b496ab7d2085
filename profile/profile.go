// Package profile checks bags for conformance with a BagIt profile.
//
// Conformance has two parts.  The tag part covers what the standard BagIt
// profile format describes: bag-info.txt rules, required manifests and tag
// files, fetch.txt, accepted BagIt versions and serialization.  bag-info.txt
// rules are extended by a "description" regular expression which every value
// of the tag must match entirely.  The structure part covers the payload
// directory: required directories must exist; files may only be placed in
// allowed directories; no two payload files may differ only in the
// capitalization of their paths.
//
// All checks are always performed, so that a report lists every problem of a
// bag at once.
package profile

import (
	"strings"
	"time"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/metadata"
	"go.uber.org/zap"
)

// Validator checks bags against a single profile
type Validator struct {
	// IgnoreTagCase compares bag-info tag names case insensitively
	IgnoreTagCase bool

	// Logger receives operational logs, may be nil
	Logger *zap.Logger

	profile     *metadata.Profile
	consistency *bagval.Report
}

// New creates a validator for the given profile.  The profile's own
// consistency is checked once, here, and its findings are included in the
// report of every bag.
func New(p *metadata.Profile) *Validator {
	return &Validator{
		profile:     p,
		consistency: CheckConsistency(p),
	}
}

// Profile is the profile bags are checked against
func (v *Validator) Profile() *metadata.Profile {
	return v.profile
}

// ValidateBag checks a bag against the profile.  The report is always
// returned.  The error is a *bagval.ValidationError if the bag does not
// conform, or some other error if the bag's payload could not be read.
func (v *Validator) ValidateBag(bag *bagval.Bag) (*bagval.Report, error) {
	log := v.logger().With(zap.String("bag", bag.Root))
	start := time.Now()

	r := bagval.NewReport(bagval.ProfileValidator)

	v.validateSerialization(r)

	if v.validateTags(r, bag) {
		r.Logf(bagval.Info, "Bag conforms to profile (%s).", v.source())
	} else {
		r.Logf(bagval.Info, "Bag does not conform to profile (%s).", v.source())
	}

	if err := v.validateStructure(r, bag); err != nil {
		return r, err
	}

	log.Debug("profile validation done",
		zap.Bool("ok", r.OK()),
		zap.Duration("took", time.Since(start)))

	return r, bagval.Verdict(bagval.ProfileConformance, r)
}

// Bags on disk are never serialized
func (v *Validator) validateSerialization(r *bagval.Report) {
	if v.profile.Serialization == metadata.SerializationRequired {
		r.Log(bagval.Info, "Serialization is not ok.")
		r.Log(bagval.Error, "Serialization is not ok.")
		return
	}
	r.Log(bagval.Info, "Payload serialization is ok.")
}

func (v *Validator) validateTags(r *bagval.Report, bag *bagval.Bag) bool {
	checks := []bool{
		v.validateBagInfo(r, bag),
		v.validateManifests(r, bag),
		v.validateTagFiles(r, bag),
		v.validateFetch(r, bag),
		v.validateVersion(r, bag),
	}

	for _, ok := range checks {
		if !ok {
			return false
		}
	}
	return true
}

func (v *Validator) validateBagInfo(r *bagval.Report, bag *bagval.Bag) bool {
	p := v.profile
	ok := true
	fail := func(format string, args ...interface{}) {
		ok = false
		r.Logf(bagval.Error, format, args...)
	}

	if len(p.BagInfo) > 0 && !bag.HasBagInfo {
		fail("%s is not present.", metadata.BagInfoFile)
	}

	tags := bag.Tags
	normalize := func(tag string) string { return tag }
	if v.IgnoreTagCase {
		tags = tags.Folded()
		normalize = strings.ToLower
	}

	if p.Identifier != "" {
		values := tags.Get(normalize(metadata.ProfileIdentifierTag))
		switch {
		case len(values) == 0:
			fail("Required '%s' tag is not in %s.", metadata.ProfileIdentifierTag, metadata.BagInfoFile)
		case values[0] != p.Identifier:
			r.Logf(bagval.Warning, "%s '%s' does not match the profile identifier '%s'.",
				metadata.ProfileIdentifierTag, values[0], p.Identifier)
		}
	}

	for _, tag := range p.Tags() {
		rule := p.BagInfo[tag]
		values := tags.Get(normalize(tag))

		if len(values) == 0 {
			if rule.Required {
				fail("Required tag %s is not present in %s.", tag, metadata.BagInfoFile)
			}
			continue
		}

		for _, value := range values {
			if !rule.Allowed(value) {
				fail("Required tag %s is present in %s but does not have an allowed value ('%s').",
					tag, metadata.BagInfoFile, value)
			}
		}

		if !rule.Repeatable && len(values) > 1 {
			fail("%s MUST NOT be repeated.", tag)
		}

		if rule.Constraint == nil {
			continue
		}
		for _, value := range values {
			if !rule.Constraint.MatchFull(value) {
				fail("Description Tag %s is present in %s but its value is not allowed: ('%s').",
					tag, metadata.BagInfoFile, value)
			}
		}
	}

	return ok
}

func (v *Validator) validateManifests(r *bagval.Report, bag *bagval.Bag) bool {
	p := v.profile

	ok := requireAlgorithms(r, "manifest", p.ManifestsRequired, bag.Manifests)
	ok = allowAlgorithms(r, "Manifest", p.ManifestsAllowed, bag.Algorithms()) && ok
	ok = requireAlgorithms(r, "tag manifest", p.TagManifestsRequired, bag.TagManifests) && ok
	ok = allowAlgorithms(r, "Tag manifest", p.TagManifestsAllowed, bag.TagAlgorithms()) && ok

	return ok
}

func requireAlgorithms(r *bagval.Report, what string, required []bagval.Algorithm, present map[bagval.Algorithm]bagval.Manifest) bool {
	ok := true
	for _, alg := range required {
		if _, found := present[alg]; !found {
			ok = false
			r.Logf(bagval.Error, "Required %s type '%s' is not present in Bag.", what, alg)
		}
	}
	return ok
}

func allowAlgorithms(r *bagval.Report, what string, allowed, present []bagval.Algorithm) bool {
	if len(allowed) == 0 {
		return true
	}

	ok := true
	for _, alg := range present {
		if !containsAlgorithm(allowed, alg) {
			ok = false
			r.Logf(bagval.Error, "%s type '%s' is present in Bag but not allowed by profile.", what, alg)
		}
	}
	return ok
}

func containsAlgorithm(algs []bagval.Algorithm, alg bagval.Algorithm) bool {
	for _, a := range algs {
		if a == alg {
			return true
		}
	}
	return false
}

func (v *Validator) validateTagFiles(r *bagval.Report, bag *bagval.Bag) bool {
	ok := true
	for _, f := range v.profile.TagFilesRequired {
		if !bag.HasTagFile(f) {
			ok = false
			r.Logf(bagval.Error, "Required tag file '%s' is not present in Bag.", f)
		}
	}
	return ok
}

func (v *Validator) validateFetch(r *bagval.Report, bag *bagval.Bag) bool {
	switch {
	case bag.HasFetch && !v.profile.AllowFetch:
		r.Logf(bagval.Error, "%s is present but is not allowed.", metadata.FetchFile)
		return false
	case !bag.HasFetch && v.profile.FetchRequired:
		r.Logf(bagval.Error, "%s is required but is not present.", metadata.FetchFile)
		return false
	}
	return true
}

func (v *Validator) validateVersion(r *bagval.Report, bag *bagval.Bag) bool {
	accepted := v.profile.AcceptBagItVersion
	if len(accepted) == 0 {
		return true
	}

	for _, version := range accepted {
		if version == bag.Version {
			return true
		}
	}

	r.Logf(bagval.Error, "Bag version '%s' is not in the list of accepted versions (%s).",
		bag.Version, strings.Join(accepted, ", "))
	return false
}

func (v *Validator) source() string {
	if v.profile.Source != "" {
		return v.profile.Source
	}
	if v.profile.Identifier != "" {
		return v.profile.Identifier
	}
	return "unnamed profile"
}

func (v *Validator) logger() *zap.Logger {
	if v.Logger == nil {
		return zap.NewNop()
	}
	return v.Logger
}
