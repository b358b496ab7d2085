// Package validator runs all validation components on a bag.
//
// A Validator is built once from a Config, loading the profile and setting up
// plugins, and may then validate any number of bags.  For each bag, profile
// conformance, payload integrity and file formats are validated concurrently.
// A bag is valid if every component that ran found it valid.
package validator

import (
	"context"
	"time"

	"github.com/birkland/bagval"
	"github.com/birkland/bagval/drivers/fs"
	"github.com/birkland/bagval/format"
	"github.com/birkland/bagval/format/identify"
	"github.com/birkland/bagval/integrity"
	"github.com/birkland/bagval/metadata"
	"github.com/birkland/bagval/profile"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Validator validates bags with a fixed setup
type Validator struct {
	profile   *profile.Validator
	integrity *integrity.Verifier
	format    *format.Engine
	log       *zap.Logger
}

// Result is the outcome of validating one bag
type Result struct {
	ID  string // Run id, included in operational logs
	Bag string

	// Reports of every component that ran, by component name
	Reports map[string]*bagval.Report

	// Report is the merged report of all components
	Report *bagval.Report
}

// Valid tells whether no component found any errors
func (r *Result) Valid() bool {
	return r.Report.OK()
}

type component struct {
	name string
	run  func(ctx context.Context, bag *bagval.Bag) (*bagval.Report, error)
}

type outcome struct {
	report *bagval.Report
	err    error
}

// New sets up a validator.  Configuration problems, including a profile that
// cannot be loaded, are returned as *bagval.ConfigError.
func New(ctx context.Context, cfg Config) (*Validator, error) {
	v := &Validator{log: cfg.Logger}
	if v.log == nil {
		v.log = zap.NewNop()
	}

	if !cfg.SkipProfile && cfg.Profile != "" {
		p, err := metadata.LoadProfile(ctx, cfg.Profile)
		if err != nil {
			return nil, errors.Wrap(err, "could not load profile")
		}
		v.profile = profile.New(p)
		v.profile.IgnoreTagCase = cfg.IgnoreTagCase
		v.profile.Logger = v.log
	}

	if !cfg.SkipIntegrity {
		v.integrity = &integrity.Verifier{Workers: cfg.Workers, Logger: v.log}
	}

	if !cfg.SkipFormat && len(cfg.Plugins) > 0 {
		engine, err := newEngine(cfg, v.log)
		if err != nil {
			return nil, err
		}
		v.format = engine
	}

	return v, nil
}

func newEngine(cfg Config, log *zap.Logger) (*format.Engine, error) {
	var id format.Identifier
	switch cfg.Identifier {
	case "", MagicIdentifier:
		id = identify.Magic{}
	case FidoIdentifier:
		id = identify.Fido{App: cfg.Fido}
	default:
		return nil, bagval.Configf("unknown file type identifier '%s', expected %s or %s",
			cfg.Identifier, MagicIdentifier, FidoIdentifier)
	}

	engine := &format.Engine{
		Identifier:        id,
		PluginConcurrency: cfg.PluginConcurrency,
		Timeout:           time.Duration(cfg.PluginTimeout),
		Workers:           cfg.Workers,
		Logger:            log,
	}

	for _, c := range cfg.Plugins {
		d, err := newDescriptor(c)
		if err != nil {
			return nil, err
		}
		engine.Plugins = append(engine.Plugins, d)
	}
	return engine, nil
}

// Components lists the names of the components that are run, in report order
func (v *Validator) Components() []string {
	var names []string
	for _, c := range v.components() {
		names = append(names, c.name)
	}
	return names
}

func (v *Validator) components() []component {
	var c []component
	if v.profile != nil {
		c = append(c, component{bagval.ProfileValidator, func(_ context.Context, bag *bagval.Bag) (*bagval.Report, error) {
			return v.profile.ValidateBag(bag)
		}})
	}
	if v.integrity != nil {
		c = append(c, component{bagval.IntegrityValidator, v.integrity.ValidateBag})
	}
	if v.format != nil {
		c = append(c, component{bagval.FormatValidator, v.format.ValidateBag})
	}
	return c
}

// Run validates the bag at the given path.  The result is always returned,
// and holds the diagnostics of every component.  The error is nil if the bag
// is valid, the first component's *bagval.ValidationError if it is not, or a
// *fs.BagError if the bag could not be read at all.  Any other error means
// validation could not be carried out.
func (v *Validator) Run(ctx context.Context, path string) (*Result, error) {
	res := &Result{
		ID:      uuid.New().String(),
		Bag:     path,
		Reports: map[string]*bagval.Report{},
		Report:  bagval.NewReport(bagval.BagReader),
	}
	log := v.log.With(zap.String("run", res.ID), zap.String("bag", path))
	start := time.Now()

	log.Info("validation started", zap.Strings("components", v.Components()))

	bag, err := fs.Open(path)
	if err != nil {
		reader := res.Report
		switch {
		case fs.IsBagError(err, fs.BagMissing):
			reader.Logf(bagval.Error, "Directory does not contain required file '%s'.", metadata.BagitFile)
		case fs.IsBagError(err, fs.BagMalformed):
			reader.Logf(bagval.Error, "Bag could not be read: %s", errors.Cause(err).(*fs.BagError).Err)
		default:
			return res, errors.Wrapf(err, "could not open bag %s", path)
		}
		res.Reports[bagval.BagReader] = reader
		log.Info("validation done", zap.Bool("valid", false), zap.Error(err))
		return res, err
	}

	components := v.components()
	outcomes := make([]outcome, len(components))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range components {
		i, c := i, c
		g.Go(func() error {
			cstart := time.Now()
			report, err := c.run(gctx, bag)
			outcomes[i] = outcome{report: report, err: err}

			log.Debug("component done",
				zap.String("component", c.name),
				zap.Bool("ok", err == nil),
				zap.Duration("took", time.Since(cstart)))

			if err != nil && !isValidationError(err) {
				return errors.Wrapf(err, "%s failed", c.name)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return res, err
	}

	var verdict error
	for i, c := range components {
		o := outcomes[i]
		res.Reports[c.name] = o.report
		res.Report.Merge(o.report)
		if verdict == nil && o.err != nil {
			verdict = o.err
		}
	}

	log.Info("validation done",
		zap.Bool("valid", verdict == nil),
		zap.Int("errors", len(res.Report.Pick(bagval.Error))),
		zap.Duration("took", time.Since(start)))

	return res, verdict
}

// IsInvalid tells whether an error returned by Run means that the bag is
// invalid or not a bag, rather than that validation could not be carried out
func IsInvalid(err error) bool {
	_, isBag := errors.Cause(err).(*fs.BagError)
	return isBag || isValidationError(err)
}

func isValidationError(err error) bool {
	_, ok := errors.Cause(err).(*bagval.ValidationError)
	return ok
}
