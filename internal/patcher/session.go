// Package patcher rewrites the coin display methods of a game executable so
// they call the rupee replacement functions instead.
//
// A Session moves through Unloaded, Loaded, Verified, Patched and Serialized.
// The executable on disk changes only in Commit, through an atomic rename, so
// any failure before that leaves it byte for byte as it was.
package patcher

import (
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/dcrodman/rupeepatch/internal/image"
)

type State int

const (
	Unloaded State = iota
	Loaded
	Verified
	Patched
	Serialized
)

var stateNames = [...]string{"unloaded", "loaded", "verified", "patched", "serialized"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Options configure a patch run.
type Options struct {
	ExePath    string
	BackupPath string
	Variant    Variant
	Marker     image.Marker
	// HookType is the type holding the replacement functions.
	HookType string
	// AppDir holds RequiredFiles, which are copied next to the executable after commit.
	AppDir        string
	RequiredFiles []string
	// Supported is the version range accepted for Variant. Force skips the check.
	Supported VersionRange
	Force     bool
	// Descriptors defaults to Descriptors().
	Descriptors []Descriptor
	Logger      *zap.SugaredLogger
}

// Result summarizes a finished patch run.
type Result struct {
	Module        string
	Version       string
	Variant       Variant
	Descriptors   []string
	BackupCreated bool
}

type Session struct {
	opts     Options
	log      *zap.SugaredLogger
	registry *Registry
	state    State
	module   *image.Module
	result   Result
}

func NewSession(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Descriptors == nil {
		opts.Descriptors = Descriptors()
	}
	if opts.BackupPath == "" {
		opts.BackupPath = opts.ExePath + ".bak"
	}
	return &Session{
		opts:     opts,
		log:      opts.Logger,
		registry: DefaultRegistry(opts.HookType),
		result:   Result{Variant: opts.Variant},
	}
}

func (s *Session) State() State { return s.state }

// Module returns the in-memory module once loaded.
func (s *Session) Module() *image.Module { return s.module }

func (s *Session) expect(want State) error {
	if s.state != want {
		return errors.Wrapf(ErrInvalidState, "session is %s, want %s", s.state, want)
	}
	return nil
}

// abort discards the in-memory module after a failed step.
func (s *Session) abort(err error) error {
	s.module = nil
	s.state = Unloaded
	return err
}

// Load backs the executable up if no backup exists yet and reads it.
func (s *Session) Load() error {
	if err := s.expect(Unloaded); err != nil {
		return err
	}
	created, err := ensureBackup(s.opts.ExePath, s.opts.BackupPath)
	if err != nil {
		return errors.Wrap(err, "backing up executable")
	}
	if created {
		s.log.Infof("backed up %s to %s", s.opts.ExePath, s.opts.BackupPath)
	}
	s.result.BackupCreated = created

	m, err := image.Load(s.opts.ExePath)
	if err != nil {
		if errors.Is(err, image.ErrBadImage) {
			return err
		}
		return ioError(err, "reading executable")
	}
	s.module = m
	s.result.Module, s.result.Version = m.Name, m.Version
	s.state = Loaded
	s.log.Debugw("loaded executable", "path", s.opts.ExePath, "module", m.Name, "version", m.Version)
	return nil
}

// Verify refuses an executable that is already patched or, unless forced, one
// whose version is outside the supported range.
func (s *Session) Verify() error {
	if err := s.expect(Loaded); err != nil {
		return err
	}
	if image.IsPatched(s.module, s.opts.Marker) {
		return s.abort(errors.Wrapf(ErrAlreadyPatched, "%s", s.opts.ExePath))
	}
	if err := s.opts.Supported.Check(s.module.Version); err != nil {
		if !s.opts.Force {
			return s.abort(errors.Wrapf(err, "%s build", s.opts.Variant))
		}
		s.log.Warnf("patching unsupported version: %v", err)
	}
	s.state = Verified
	return nil
}

// Apply runs every descriptor in order and marks the module patched. The
// first failure aborts the run with nothing written.
func (s *Session) Apply() error {
	if err := s.expect(Verified); err != nil {
		return err
	}
	for _, d := range s.opts.Descriptors {
		s.log.Debugf("patching %s", d.Name)
		if err := d.Apply(s.module, s.opts.Variant, s.registry, s.log); err != nil {
			return s.abort(err)
		}
		s.result.Descriptors = append(s.result.Descriptors, d.Name)
	}
	if err := image.MarkPatched(s.module, s.opts.Marker); err != nil {
		return s.abort(err)
	}
	s.module.LargeAddressAware = true
	s.state = Patched
	return nil
}

// Commit writes the patched module over the executable and copies the
// required files next to it.
func (s *Session) Commit() error {
	if err := s.expect(Patched); err != nil {
		return err
	}
	if err := image.Save(s.module, s.opts.ExePath); err != nil {
		return ioError(err, "writing %s", s.opts.ExePath)
	}
	s.state = Serialized
	s.log.Infof("patched %s", s.opts.ExePath)

	if len(s.opts.RequiredFiles) > 0 {
		if err := copyRequiredFiles(s.opts.AppDir, filepath.Dir(s.opts.ExePath), s.opts.RequiredFiles); err != nil {
			return err
		}
	}
	return nil
}

// Result returns what the session has done so far.
func (s *Session) Result() Result { return s.result }

// Patch runs a whole session.
func Patch(opts Options) (Result, error) {
	s := NewSession(opts)
	for _, step := range []func() error{s.Load, s.Verify, s.Apply, s.Commit} {
		if err := step(); err != nil {
			return s.Result(), err
		}
	}
	return s.Result(), nil
}

// RestoreAndPatch restores the executable from its backup and patches the
// restored copy.
func RestoreAndPatch(opts Options) (Result, error) {
	if opts.BackupPath == "" {
		opts.BackupPath = opts.ExePath + ".bak"
	}
	if err := Restore(RestoreOptions{ExePath: opts.ExePath, BackupPath: opts.BackupPath}); err != nil {
		return Result{Variant: opts.Variant}, err
	}
	return Patch(opts)
}
