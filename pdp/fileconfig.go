package pdp

import (
	"context"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/sentrie-sh/aspen/combine"
	"github.com/sentrie-sh/aspen/evalctx"
	"github.com/sentrie-sh/aspen/value"
)

// fileConfig is the TOML-serializable subset of CompiledPDPConfiguration
// (§6's CompiledPDPConfiguration has a broker/retrieval-point shape that
// has no meaningful file representation; those are supplied at
// construction instead and carried over into every reload).
type fileConfig struct {
	PDPID           string            `toml:"pdp_id"`
	ConfigurationID string            `toml:"configuration_id"`
	Algorithm       string            `toml:"algorithm"`
	Variables       map[string]string `toml:"variables"`
}

// FileConfigSource watches a single TOML file and re-parses it on every
// change, grounded on vishprometa-agent-warden's mdloader.Watcher
// (fsnotify over a directory, invalidate-and-reload on write) narrowed to
// one file. github.com/pelletier/go-toml/v2 decodes the file's static
// shape; FunctionBroker, AttributeBroker and RetrievalPoint are supplied
// once at construction and carried unchanged into every reloaded
// configuration, since none of those are representable in a TOML file.
type FileConfigSource struct {
	path            string
	functionBroker  evalctx.FunctionBroker
	attributeBroker evalctx.AttributeBroker
	retrievalPoint  RetrievalPoint
	logger          *zap.Logger
}

// NewFileConfigSource builds a config source over the TOML file at path,
// wiring fb/ab/rp into every configuration it produces.
func NewFileConfigSource(path string, fb evalctx.FunctionBroker, ab evalctx.AttributeBroker, rp RetrievalPoint, logger *zap.Logger) *FileConfigSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileConfigSource{
		path:            path,
		functionBroker:  fb,
		attributeBroker: ab,
		retrievalPoint:  rp,
		logger:          logger.With(zap.String("component", "pdp.FileConfigSource")),
	}
}

// Configurations implements ConfigSource: the file is loaded once
// immediately, then reloaded on every fsnotify write/create event until
// ctx is done. A parse failure logs a warning and emits nil rather than
// terminating the stream, so a transient bad write (e.g. a half-finished
// save) doesn't permanently stall the PDP on a config that will fix
// itself on the next write.
func (s *FileConfigSource) Configurations(ctx context.Context, pdpID string) <-chan *CompiledPDPConfiguration {
	out := make(chan *CompiledPDPConfiguration)

	go func() {
		defer close(out)

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			s.logger.Error("starting file watcher", zap.Error(err))
			return
		}
		defer watcher.Close()
		if err := watcher.Add(s.path); err != nil {
			s.logger.Error("watching configuration file", zap.String("path", s.path), zap.Error(err))
			return
		}

		if !s.emit(ctx, out) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				if !s.emit(ctx, out) {
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("configuration watcher error", zap.Error(err))
			}
		}
	}()

	return out
}

func (s *FileConfigSource) emit(ctx context.Context, out chan<- *CompiledPDPConfiguration) bool {
	cfg, err := s.load()
	if err != nil {
		s.logger.Warn("reloading configuration", zap.String("path", s.path), zap.Error(err))
		cfg = nil
	}
	select {
	case out <- cfg:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *FileConfigSource) load() (*CompiledPDPConfiguration, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return nil, err
	}

	algo, ok := combine.ByName(fc.Algorithm)
	if !ok {
		return nil, &unknownAlgorithmError{name: fc.Algorithm}
	}

	vars := make(map[string]value.Value, len(fc.Variables))
	for k, v := range fc.Variables {
		vars[k] = value.NewText(v, value.NewMetadata())
	}

	return &CompiledPDPConfiguration{
		PDPID:           fc.PDPID,
		ConfigurationID: fc.ConfigurationID,
		AlgorithmName:   fc.Algorithm,
		Algorithm:       algo,
		Variables:       vars,
		FunctionBroker:  s.functionBroker,
		AttributeBroker: s.attributeBroker,
		RetrievalPoint:  s.retrievalPoint,
	}, nil
}

type unknownAlgorithmError struct{ name string }

func (e *unknownAlgorithmError) Error() string {
	return "pdp: unknown combining algorithm in configuration: " + e.name
}
