package run

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aryankumar/shardexec/internal/util"
)

// PlanUnit is one physical statement of a plan: the SQL to run on one shard
type PlanUnit struct {
	Shard string `yaml:"shard" json:"shard"`
	SQL   string `yaml:"sql" json:"sql"`
}

// planDocument is one YAML document of a plan file. Units list per-shard SQL;
// a top-level sql is broadcast to shards, or to the target shards when
// shards is empty.
type planDocument struct {
	SQL    string     `yaml:"sql"`
	Shards []string   `yaml:"shards"`
	Units  []PlanUnit `yaml:"units"`
}

// BroadcastPlan runs the same SQL on every shard
func BroadcastPlan(shards []string, sql string) []PlanUnit {
	plan := make([]PlanUnit, len(shards))
	for i, name := range shards {
		plan[i] = PlanUnit{Shard: name, SQL: sql}
	}
	return plan
}

// LoadPlan reads the units of a plan file, or of every .yaml/.yml file in a
// directory. targets are the shards a bare top-level sql is broadcast to.
func LoadPlan(path string, recursive bool, targets []string) ([]PlanUnit, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat plan: %w", err)
	}

	var plan []PlanUnit
	if info.IsDir() {
		plan, err = loadPlanDir(path, recursive, targets)
	} else {
		plan, err = loadPlanFile(path, targets)
	}
	if err != nil {
		return nil, err
	}

	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: no units found in %s", util.ErrInvalidPlan, path)
	}
	return plan, nil
}

func loadPlanDir(dir string, recursive bool, targets []string) ([]PlanUnit, error) {
	var plan []PlanUnit

	walkFunc := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		units, err := loadPlanFile(path, targets)
		if err != nil {
			return err
		}
		plan = append(plan, units...)
		return nil
	}

	// filepath.Walk visits files in lexical order, which fixes unit order
	if err := filepath.Walk(dir, walkFunc); err != nil {
		return nil, fmt.Errorf("failed to walk plan directory: %w", err)
	}
	return plan, nil
}

// loadPlanFile decodes a multi-document YAML plan
func loadPlanFile(path string, targets []string) ([]PlanUnit, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan: %w", err)
	}
	defer file.Close()

	plan, err := decodePlan(file, targets)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("loaded plan file", "path", path, "units", len(plan))
	return plan, nil
}

func decodePlan(r io.Reader, targets []string) ([]PlanUnit, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var plan []PlanUnit
	for doc := 1; ; doc++ {
		var d planDocument
		err := decoder.Decode(&d)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: document %d: %w", util.ErrInvalidPlan, doc, err)
		}

		units, err := d.expand(targets)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", doc, err)
		}
		plan = append(plan, units...)
	}
	return plan, nil
}

func (d planDocument) expand(targets []string) ([]PlanUnit, error) {
	units := make([]PlanUnit, 0, len(d.Units)+len(targets))
	for i, u := range d.Units {
		u.Shard = strings.TrimSpace(u.Shard)
		u.SQL = strings.TrimSpace(u.SQL)
		if u.Shard == "" || u.SQL == "" {
			return nil, fmt.Errorf("%w: unit %d needs both shard and sql", util.ErrInvalidPlan, i+1)
		}
		units = append(units, u)
	}

	sql := strings.TrimSpace(d.SQL)
	switch {
	case sql == "" && len(d.Shards) > 0:
		return nil, fmt.Errorf("%w: shards given without sql", util.ErrInvalidPlan)
	case sql == "":
	case len(d.Shards) > 0:
		units = append(units, BroadcastPlan(d.Shards, sql)...)
	default:
		units = append(units, BroadcastPlan(targets, sql)...)
	}
	return units, nil
}

// shardNames returns the distinct shards of a plan in first-use order
func shardNames(plan []PlanUnit) []string {
	seen := make(map[string]bool, len(plan))
	names := make([]string, 0, len(plan))
	for _, u := range plan {
		if !seen[u.Shard] {
			seen[u.Shard] = true
			names = append(names, u.Shard)
		}
	}
	return names
}
