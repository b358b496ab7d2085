// Package integrity verifies that a bag's files match its manifests.
//
// A bag is intact if its payload is complete (every manifested file exists,
// and every payload file is manifested), its Payload-Oxum, if any, matches the
// payload's size, and every file's digests match those listed for it in every
// manifest.  Tag manifests are verified in the same way for the files they
// list.  Digests are computed in parallel, but diagnostics are always
// reported in path order.
package integrity

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/drivers/fs"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Verifier checks bag completeness and checksums
type Verifier struct {
	Workers int         // Files digested concurrently, NumCPU when < 1
	Logger  *zap.Logger // May be nil
}

type job struct {
	index    int
	path     string
	expected map[bagval.Algorithm]bagval.Digest
}

// ValidateBag verifies a bag's payload and tag files against its manifests.
// The report is always returned.  The error is a *bagval.ValidationError if
// the bag is not intact, or some other error if verification could not be
// carried out at all.
func (v *Verifier) ValidateBag(ctx context.Context, bag *bagval.Bag) (*bagval.Report, error) {
	log := v.logger().With(zap.String("bag", bag.Root))
	start := time.Now()

	r := bagval.NewReport(bagval.IntegrityValidator)

	files, err := fs.Payload(bag.Root)
	if err != nil {
		return r, errors.Wrapf(err, "could not list payload of %s", bag.Root)
	}

	onDisk := make(map[string]bool, len(files))
	var size int64
	for _, f := range files {
		onDisk[bagval.PayloadDir+"/"+f.Path] = true
		size += f.Size
	}

	warnUnsupported(r, bag)
	ok := checkOxum(r, bag, int64(len(files)), size)

	if len(bag.Manifests) == 0 {
		ok = false
		r.Log(bagval.Error, "No manifest files found")
	}

	entries := supported(bag.Entries())
	ok = checkCompleteness(r, entries, onDisk) && ok

	checked, err := v.checkDigests(ctx, r, bag.Root, entries)
	if err != nil {
		return r, err
	}
	ok = checked && ok

	tagEntries := supported(bag.TagEntries())
	tagFiles := make(map[string]bool, len(bag.TagFiles))
	for _, f := range bag.TagFiles {
		tagFiles[f] = true
	}
	ok = checkTagCompleteness(r, tagEntries, tagFiles) && ok

	checked, err = v.checkDigests(ctx, r, bag.Root, tagEntries)
	if err != nil {
		return r, err
	}
	ok = checked && ok

	if ok {
		r.Log(bagval.Info, "Bag's payload checksums conform to manifest information.")
	} else {
		r.Log(bagval.Info, "Bag's payload checksums do not conform to manifest information or missing files.")
	}

	log.Debug("integrity validation done",
		zap.Int("files", len(files)),
		zap.Bool("ok", r.OK()),
		zap.Duration("took", time.Since(start)))

	return r, bagval.Verdict(bagval.ManifestIntegrity, r)
}

// Manifests of unknown algorithms cannot be verified, but do not make a bag
// invalid
func warnUnsupported(r *bagval.Report, bag *bagval.Bag) {
	for _, alg := range append(bag.Algorithms(), bag.TagAlgorithms()...) {
		if !IsSupported(alg) {
			r.Logf(bagval.Warning, "Unsupported manifest algorithm '%s', its checksums are not verified", alg)
		}
	}
}

func checkOxum(r *bagval.Report, bag *bagval.Bag, files, size int64) bool {
	if bag.Oxum == nil {
		return true
	}
	if bag.Oxum.Files == files && bag.Oxum.Bytes == size {
		return true
	}

	r.Logf(bagval.Error, "Payload-Oxum validation failed. Expected %d files and %d bytes but found %d files and %d bytes",
		bag.Oxum.Files, bag.Oxum.Bytes, files, size)
	return false
}

func checkCompleteness(r *bagval.Report, entries map[string]map[bagval.Algorithm]bagval.Digest, onDisk map[string]bool) bool {
	ok := true

	for _, path := range sortedPaths(entries) {
		if !onDisk[path] {
			ok = false
			r.Logf(bagval.Error, "%s exists in manifest but was not found on filesystem", path)
		}
	}

	disk := make([]string, 0, len(onDisk))
	for path := range onDisk {
		disk = append(disk, path)
	}
	sort.Strings(disk)

	for _, path := range disk {
		if _, manifested := entries[path]; !manifested {
			ok = false
			r.Logf(bagval.Error, "%s exists on filesystem but is not in the manifest", path)
		}
	}

	return ok
}

// Tag manifests need not list every tag file
func checkTagCompleteness(r *bagval.Report, entries map[string]map[bagval.Algorithm]bagval.Digest, present map[string]bool) bool {
	ok := true
	for _, path := range sortedPaths(entries) {
		if !present[path] {
			ok = false
			r.Logf(bagval.Error, "%s exists in manifest but was not found on filesystem", path)
		}
	}
	return ok
}

// checkDigests digests every listed file on a pool of workers.  Results are
// collected per file and logged in path order afterwards.
func (v *Verifier) checkDigests(ctx context.Context, r *bagval.Report, root string, entries map[string]map[bagval.Algorithm]bagval.Digest) (bool, error) {
	paths := sortedPaths(entries)
	results := make([]*bagval.Report, len(paths))

	q := make(chan job)
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < v.workers(); i++ {
		g.Go(func() error {
			for j := range q {
				results[j.index] = verifyEntry(root, j.path, j.expected)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(q)
		for i, path := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case q <- job{index: i, path: path, expected: entries[path]}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return false, errors.Wrap(err, "checksum verification interrupted")
	}

	ok := true
	for _, res := range results {
		ok = res.OK() && ok
		r.Merge(res)
	}
	return ok, nil
}

func verifyEntry(root, path string, expected map[bagval.Algorithm]bagval.Digest) *bagval.Report {
	r := bagval.NewReport(bagval.IntegrityValidator)

	algs := make([]bagval.Algorithm, 0, len(expected))
	for alg := range expected {
		algs = append(algs, alg)
	}
	sort.Slice(algs, func(i, j int) bool { return algs[i] < algs[j] })

	found, err := Digests(filepath.Join(root, filepath.FromSlash(path)), algs...)
	if err != nil {
		for _, alg := range algs {
			r.Logf(bagval.Error, "%s %s validation failed: expected=\"%s\" found=\"%s\"",
				path, alg, expected[alg], errors.Cause(err))
		}
		return r
	}

	for _, alg := range algs {
		if found[alg] != expected[alg] {
			r.Logf(bagval.Error, "%s %s validation failed: expected=\"%s\" found=\"%s\"",
				path, alg, expected[alg], found[alg])
		}
	}
	return r
}

// supported drops digests of unsupported algorithms, keeping every path
func supported(entries map[string]map[bagval.Algorithm]bagval.Digest) map[string]map[bagval.Algorithm]bagval.Digest {
	for _, digests := range entries {
		for alg := range digests {
			if !IsSupported(alg) {
				delete(digests, alg)
			}
		}
	}
	return entries
}

func sortedPaths(entries map[string]map[bagval.Algorithm]bagval.Digest) []string {
	paths := make([]string, 0, len(entries))
	for path := range entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func (v *Verifier) workers() int {
	if v.Workers < 1 {
		return runtime.NumCPU()
	}
	return v.Workers
}

func (v *Verifier) logger() *zap.Logger {
	if v.Logger == nil {
		return zap.NewNop()
	}
	return v.Logger
}
