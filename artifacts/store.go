// Package artifacts stores compiled circuits and Groth16 keys on disk, one
// set of files per circuit shape, optionally fetching them from S3.
package artifacts

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	cae "github.com/mynextid/zk-age/circuits/age-eligibility"
	"github.com/mynextid/zk-age/common"
	"github.com/mynextid/zk-age/protocol"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	ExtCS           = ".ccs"
	ExtProvingKey   = ".pk"
	ExtVerifyingKey = ".vk"
	ExtSolidity     = ".sol"
)

// Fetcher downloads a missing artifact file into dst.
type Fetcher interface {
	Fetch(ctx context.Context, name, dst string) error
}

// Store lays out artifacts as <dir>/<shape-name>.{ccs,pk,vk}.
type Store struct {
	Dir     string
	Fetcher Fetcher // optional
	Logger  *slog.Logger
}

func NewStore(dir string, fetcher Fetcher, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{Dir: dir, Fetcher: fetcher, Logger: logger}
}

func (s *Store) Path(shape cae.Shape, ext string) string {
	return filepath.Join(s.Dir, shape.Name()+ext)
}

// Exists reports whether all three artifacts of shape are on disk.
func (s *Store) Exists(shape cae.Shape) bool {
	for _, ext := range []string{ExtCS, ExtProvingKey, ExtVerifyingKey} {
		if !common.FileExists(s.Path(shape, ext)) {
			return false
		}
	}
	return true
}

// Save writes the constraint system and both keys of kp.
func (s *Store) Save(kp *protocol.KeyPair) error {
	shape := kp.ProvingKey.Shape
	if err := common.EnsureDir(s.Dir); err != nil {
		return errors.Wrap(err, "creating artifacts directory")
	}
	if err := common.WriteToFile(s.Path(shape, ExtCS), kp.ProvingKey.CS); err != nil {
		return errors.Wrap(err, "saving constraint system")
	}
	if err := common.WriteToFile(s.Path(shape, ExtProvingKey), kp.ProvingKey.PK); err != nil {
		return errors.Wrap(err, "saving proving key")
	}
	if err := common.WriteToFile(s.Path(shape, ExtVerifyingKey), kp.VerifyingKey.VK); err != nil {
		return errors.Wrap(err, "saving verifying key")
	}
	s.Logger.Info("artifacts saved", "shape", shape.Name(), "dir", s.Dir)
	return nil
}

// Load reads the three artifacts of shape in parallel, fetching missing
// files first when a Fetcher is configured.
func (s *Store) Load(ctx context.Context, shape cae.Shape) (*protocol.KeyPair, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if err := s.fetchMissing(ctx, shape, ExtCS, ExtProvingKey, ExtVerifyingKey); err != nil {
		return nil, err
	}

	start := time.Now()
	ccs := groth16.NewCS(shape.Curve)
	pk := groth16.NewProvingKey(shape.Curve)
	vk := groth16.NewVerifyingKey(shape.Curve)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(common.ReadFromFile(s.Path(shape, ExtCS), ccs), "reading constraint system")
	})
	g.Go(func() error {
		return errors.Wrap(common.ReadFromFile(s.Path(shape, ExtProvingKey), pk), "reading proving key")
	})
	g.Go(func() error {
		return errors.Wrap(common.ReadFromFile(s.Path(shape, ExtVerifyingKey), vk), "reading verifying key")
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(err, "loading %s", shape.Name())
	}

	kp, err := protocol.NewKeyPair(shape, ccs, pk, vk)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", shape.Name())
	}
	s.Logger.Info("artifacts loaded", "shape", shape.Name(), "constraints", ccs.GetNbConstraints(), "took", time.Since(start))
	return kp, nil
}

// LoadVerifyingKey reads only the verifying key of shape.
func (s *Store) LoadVerifyingKey(ctx context.Context, shape cae.Shape) (*protocol.VerifyingKey, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if err := s.fetchMissing(ctx, shape, ExtVerifyingKey); err != nil {
		return nil, err
	}
	vk := groth16.NewVerifyingKey(shape.Curve)
	if err := common.ReadFromFile(s.Path(shape, ExtVerifyingKey), vk); err != nil {
		return nil, errors.Wrap(err, "reading verifying key")
	}
	verifyingKey, err := protocol.NewVerifyingKey(shape, vk)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", shape.Name())
	}
	return verifyingKey, nil
}

// LoadOrSetup loads the artifacts of shape, running the setup and saving
// its output when they are missing or force is set.
func (s *Store) LoadOrSetup(ctx context.Context, shape cae.Shape, force bool) (*protocol.KeyPair, error) {
	if !force {
		if s.Exists(shape) || s.Fetcher != nil {
			kp, err := s.Load(ctx, shape)
			if err == nil {
				return kp, nil
			}
			if s.Exists(shape) {
				return nil, err
			}
			s.Logger.Warn("fetching artifacts failed, running setup", "shape", shape.Name(), "error", err)
		}
	}

	s.Logger.Info("running setup", "shape", shape.Name())
	start := time.Now()
	kp, err := protocol.Setup(shape)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("setup completed", "shape", shape.Name(), "constraints", kp.ProvingKey.CS.GetNbConstraints(), "took", time.Since(start))
	if err := s.Save(kp); err != nil {
		return nil, err
	}
	return kp, nil
}

// Shapes lists the shapes with a verifying key in the store directory.
func (s *Store) Shapes() ([]cae.Shape, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "listing artifacts")
	}
	var shapes []cae.Shape
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), ExtVerifyingKey)
		if e.IsDir() || !ok {
			continue
		}
		shape, err := cae.ParseShapeName(name)
		if err != nil {
			s.Logger.Debug("skipping unknown artifact", "file", e.Name())
			continue
		}
		shapes = append(shapes, shape)
	}
	sort.Slice(shapes, func(i, j int) bool { return shapes[i].Name() < shapes[j].Name() })
	return shapes, nil
}

func (s *Store) fetchMissing(ctx context.Context, shape cae.Shape, exts ...string) error {
	for _, ext := range exts {
		path := s.Path(shape, ext)
		if common.FileExists(path) {
			continue
		}
		if s.Fetcher == nil {
			return errors.Errorf("artifact %s not found", path)
		}
		if err := common.EnsureDir(s.Dir); err != nil {
			return errors.Wrap(err, "creating artifacts directory")
		}
		s.Logger.Info("fetching artifact", "file", filepath.Base(path))
		if err := s.Fetcher.Fetch(ctx, filepath.Base(path), path); err != nil {
			return errors.Wrapf(err, "fetching %s", filepath.Base(path))
		}
	}
	return nil
}
