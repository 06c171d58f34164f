// Package daemon wires the cache, upstream client, and tool registry together
// and serves tool invocations over a line-delimited JSON loop on stdio. The
// transport is deliberately thin; everything interesting happens behind the
// registry boundary.
package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/harun/promethica/internal/config"
	"github.com/harun/promethica/pkg/bio"
	"github.com/harun/promethica/pkg/cache"
	"github.com/harun/promethica/pkg/tool"
	"github.com/harun/promethica/pkg/upstream"
)

// Daemon is the long-running server process.
type Daemon struct {
	cfg        *config.Config
	configPath string
	runID      string
	log        zerolog.Logger

	store    *cache.Cache
	registry *tool.Registry
	cron     *cron.Cron
	watcher  *configWatcher
}

// New builds the component graph from configuration.
func New(cfg *config.Config, configPath string, logger zerolog.Logger) (*Daemon, error) {
	store := cache.New(cfg.Cache.Capacity, cfg.Cache.TTL())

	client := upstream.NewClient(logger,
		upstream.WithTimeout(cfg.Upstream.Timeout()),
		upstream.WithUserAgent(cfg.Upstream.UserAgent),
	)

	registry := tool.NewRegistry(logger, tool.WithInvocationTimeout(cfg.Invocation.Timeout()))

	svc := bio.NewService(client, store, bio.Registries{
		Protein:       cfg.Upstream.ProteinBaseURL,
		Pathway:       cfg.Upstream.PathwayBaseURL,
		Structure:     cfg.Upstream.StructureBaseURL,
		StructureData: cfg.Upstream.StructureDataBaseURL,
		Ontology:      cfg.Upstream.OntologyBaseURL,
	}, logger)
	if err := svc.Register(registry); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return &Daemon{
		cfg:        cfg,
		configPath: configPath,
		runID:      uuid.NewString(),
		log:        logger.With().Str("component", "daemon").Logger(),
		store:      store,
		registry:   registry,
		cron:       cron.New(),
	}, nil
}

// Registry exposes the tool catalog, mainly for the CLI.
func (d *Daemon) Registry() *tool.Registry {
	return d.registry
}

// Run serves invocations from stdin until EOF or context cancellation.
func (d *Daemon) Run(ctx context.Context) error {
	d.log.Info().
		Str("run_id", d.runID).
		Int("tools", len(d.registry.List())).
		Msg("Daemon starting")

	if schedule := d.cfg.Maintenance.CacheSweepSchedule; schedule != "" {
		if _, err := d.cron.AddFunc(schedule, d.sweepCache); err != nil {
			return fmt.Errorf("failed to schedule cache sweep: %w", err)
		}
		d.cron.Start()
		defer d.cron.Stop()
	}

	if d.configPath != "" {
		watcher, err := newConfigWatcher(d.configPath, d.log)
		if err != nil {
			d.log.Warn().Err(err).Msg("Config watcher unavailable, continuing without hot reload")
		} else {
			d.watcher = watcher
			d.watcher.Start()
			defer d.watcher.Stop()
		}
	}

	return d.serve(ctx, os.Stdin, os.Stdout)
}

func (d *Daemon) sweepCache() {
	removed := d.store.Sweep()
	d.log.Debug().Int("removed", removed).Int("remaining", d.store.Len()).Msg("Cache sweep completed")
}

type request struct {
	ID     string                 `json:"id"`
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type response struct {
	ID      string      `json:"id,omitempty"`
	Success bool        `json:"success"`
	Output  interface{} `json:"output,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// serve reads one JSON request per line and answers with one JSON response
// per line. Requests are dispatched concurrently; a write mutex keeps
// responses whole.
func (d *Daemon) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	encoder := json.NewEncoder(out)
	var writeMu sync.Mutex
	var wg sync.WaitGroup

	respond := func(resp response) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := encoder.Encode(resp); err != nil {
			d.log.Error().Err(err).Msg("Failed to write response")
		}
	}

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := make([]byte, len(scanner.Bytes()))
			copy(line, scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("Daemon stopping")
			wg.Wait()
			return ctx.Err()

		case line, ok := <-lines:
			if !ok {
				wg.Wait()
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("stdin read failed: %w", err)
					}
				default:
				}
				d.log.Info().Msg("Input closed, daemon exiting")
				return nil
			}
			if len(line) == 0 {
				continue
			}

			var req request
			if err := json.Unmarshal(line, &req); err != nil {
				respond(response{Success: false, Error: "Error: malformed request: " + err.Error()})
				continue
			}

			wg.Add(1)
			go func(req request) {
				defer wg.Done()
				result := d.registry.Execute(ctx, req.Tool, req.Params)
				resp := response{ID: req.ID, Success: result.Success, Output: result.Output}
				if !result.Success {
					resp.Error = "Error: " + result.Error
				}
				respond(resp)
			}(req)
		}
	}
}
