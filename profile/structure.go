package profile

import (
	"os"
	"path/filepath"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/drivers/fs"
	"github.com/birkland/bagval/fspath"
	"github.com/birkland/bagval/metadata"
	"github.com/birkland/bagval/pattern"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
)

// CheckConsistency checks a profile for required payload directories that
// payload files could never be placed in, because they are not allowed.
// This depends on the profile alone, not on any bag.
func CheckConsistency(p *metadata.Profile) *bagval.Report {
	r := bagval.NewReport(bagval.StructureValidator)

	for _, dir := range p.RequiredDirs {
		if !pattern.Matches(fspath.AsDir(dir), p.AllowedDirs, false) {
			r.Logf(bagval.Error, "Required payload directory '%s' not listed in Payload-Folders-Allowed.", dir)
		}
	}

	return r
}

func (v *Validator) validateStructure(r *bagval.Report, bag *bagval.Bag) error {
	files, err := fs.Payload(bag.Root)
	if err != nil {
		return errors.Wrapf(err, "could not list payload of %s", bag.Root)
	}

	dirsOK := v.consistency.OK()
	r.Merge(v.consistency)
	dirsOK = v.validateRequiredDirs(r, bag) && dirsOK

	if dirsOK {
		r.LogAs(bagval.StructureValidator, bagval.Info,
			"Bag's payload's root directories conform to profile ("+v.source()+").")
	} else {
		r.LogAs(bagval.StructureValidator, bagval.Info,
			"Bag's payload's root directories do not conform to profile ("+v.source()+").")
	}

	if v.validatePlacement(r, files) {
		r.LogAs(bagval.StructureValidator, bagval.Info, "Bag's payload directory structure conforms to profile.")
	} else {
		r.LogAs(bagval.StructureValidator, bagval.Info, "Bag's payload directory structure does not conform to profile.")
	}

	if validateCapitalization(r, files) {
		r.LogAs(bagval.StructureValidator, bagval.Info, "Bag's payload filenames' capitalization is fine.")
	} else {
		r.LogAs(bagval.StructureValidator, bagval.Info, "Bag's payload filenames' capitalization is problematic.")
	}

	return nil
}

func (v *Validator) validateRequiredDirs(r *bagval.Report, bag *bagval.Bag) bool {
	ok := true
	for _, dir := range v.profile.RequiredDirs {
		info, err := os.Stat(filepath.Join(bag.PayloadRoot, filepath.FromSlash(dir)))
		if err != nil || !info.IsDir() {
			ok = false
			r.LogAs(bagval.StructureValidator, bagval.Error,
				"Required payload directory '"+dir+"' is not present in Bag.")
		}
	}
	return ok
}

// Every payload file must lie within an allowed directory.  Allowed rules are
// matched as prefixes, literals included.
func (v *Validator) validatePlacement(r *bagval.Report, files []fs.File) bool {
	if !v.profile.AllowedDeclared {
		return true
	}

	ok := true
	for _, f := range files {
		if !pattern.Matches(f.Path, v.profile.AllowedDirs, true) {
			ok = false
			r.LogAs(bagval.StructureValidator, bagval.Error,
				"File '"+bagPath(f)+"' found in illegal location of payload directory.")
		}
	}
	return ok
}

// Files are visited in sorted order; each collision names the later file
// first and the first seen file second.
func validateCapitalization(r *bagval.Report, files []fs.File) bool {
	fold := cases.Fold()
	seen := make(map[string]string, len(files))

	ok := true
	for _, f := range files {
		path := bagPath(f)
		key := fold.String(path)
		if first, collides := seen[key]; collides {
			ok = false
			r.LogAs(bagval.StructureValidator, bagval.Error,
				"File '"+path+"' and '"+first+"' only differ in their capitalization.")
			continue
		}
		seen[key] = path
	}
	return ok
}

func bagPath(f fs.File) string {
	return bagval.PayloadDir + "/" + f.Path
}
