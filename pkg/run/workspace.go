// Package run provides the explicit run context of a pipeline invocation: a
// file-backed workspace holding the named maps (edge graph, site tables)
// that stages read and write.
//
// A workspace replaces what the original tooling kept in a global GIS
// session. It is single-writer: only one pipeline invocation may operate on
// a workspace at a time, and callers serialize concurrent use. Re-running a
// stage overwrites its named outputs; a failed stage leaves previously
// persisted maps untouched.
package run

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/openfluvial/streamnet/pkg/errors"
	"github.com/openfluvial/streamnet/pkg/network"
	"github.com/openfluvial/streamnet/pkg/observability"
	"github.com/openfluvial/streamnet/pkg/sites"
)

const registryFile = "workspace.json"

// Workspace is a directory of named JSON maps plus a registry file carrying
// the workspace id and map inventory.
type Workspace struct {
	dir string
	reg registry
}

type registry struct {
	ID   string   `json:"id"`
	Maps []string `json:"maps"`
}

// Init creates a new workspace in dir, creating the directory if needed.
// Initializing over an existing workspace is an error; use Open.
func Init(dir string) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "create workspace directory %q", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, registryFile)); err == nil {
		return nil, errors.New(errors.ErrCodeArgument, "workspace already initialized in %q", dir)
	}
	ws := &Workspace{dir: dir, reg: registry{ID: uuid.NewString()}}
	if err := ws.writeRegistry(); err != nil {
		return nil, err
	}
	return ws, nil
}

// Open loads an existing workspace from dir.
func Open(dir string) (*Workspace, error) {
	data, err := os.ReadFile(filepath.Join(dir, registryFile))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodePrerequisite,
			"no workspace in %q; run init first", dir)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read workspace registry")
	}
	ws := &Workspace{dir: dir}
	if err := json.Unmarshal(data, &ws.reg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "parse workspace registry in %q", dir)
	}
	return ws, nil
}

// ID returns the workspace's unique id.
func (ws *Workspace) ID() string { return ws.reg.ID }

// Path returns the workspace directory.
func (ws *Workspace) Path() string { return ws.dir }

// List returns the names of all persisted maps, sorted.
func (ws *Workspace) List() []string {
	return slices.Clone(ws.reg.Maps)
}

// Has reports whether a named map exists.
func (ws *Workspace) Has(name string) bool {
	return slices.Contains(ws.reg.Maps, name)
}

// SaveGraph persists the graph under the given map name, overwriting any
// previous content. Lengths and distances are rounded to two decimals by the
// graph's persistence encoding.
func (ws *Workspace) SaveGraph(ctx context.Context, name string, g *network.Graph) error {
	return ws.save(ctx, name, g.ToDoc())
}

// LoadGraph restores the graph persisted under the given map name. A missing
// map is a PREREQUISITE_MISSING error naming it.
func (ws *Workspace) LoadGraph(ctx context.Context, name string) (*network.Graph, error) {
	var doc network.Doc
	if err := ws.load(ctx, name, &doc); err != nil {
		return nil, err
	}
	g, err := network.FromDoc(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "map %q holds an inconsistent graph", name)
	}
	return g, nil
}

// SaveSites persists the site table under the given map name.
func (ws *Workspace) SaveSites(ctx context.Context, name string, tbl *sites.Table) error {
	return ws.save(ctx, name, tbl)
}

// LoadSites restores the site table persisted under the given map name.
func (ws *Workspace) LoadSites(ctx context.Context, name string) (*sites.Table, error) {
	tbl := &sites.Table{}
	if err := ws.load(ctx, name, tbl); err != nil {
		return nil, err
	}
	return tbl, nil
}

// Copy duplicates a named map under another name, used to retain the
// untouched original of a point set (the <name>_o convention) or an
// unfiltered edge graph before restriction.
func (ws *Workspace) Copy(ctx context.Context, src, dst string) error {
	if err := validName(dst); err != nil {
		return err
	}
	data, err := ws.read(ctx, src)
	if err != nil {
		return err
	}
	return ws.write(ctx, dst, data)
}

// Delete removes a named map. Deleting an absent map is a no-op.
func (ws *Workspace) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(ws.mapPath(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeIO, err, "delete map %q", name)
	}
	ws.reg.Maps = slices.DeleteFunc(ws.reg.Maps, func(m string) bool { return m == name })
	return ws.writeRegistry()
}

func (ws *Workspace) save(ctx context.Context, name string, v any) error {
	if err := validName(name); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "encode map %q", name)
	}
	return ws.write(ctx, name, data)
}

func (ws *Workspace) load(ctx context.Context, name string, v any) error {
	data, err := ws.read(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "decode map %q", name)
	}
	return nil
}

func (ws *Workspace) write(ctx context.Context, name string, data []byte) error {
	if err := os.WriteFile(ws.mapPath(name), data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "save map %q", name)
	}
	if !slices.Contains(ws.reg.Maps, name) {
		ws.reg.Maps = append(ws.reg.Maps, name)
		slices.Sort(ws.reg.Maps)
		if err := ws.writeRegistry(); err != nil {
			return err
		}
	}
	observability.Store().OnMapSaved(ctx, name, len(data))
	return nil
}

func (ws *Workspace) read(ctx context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(ws.mapPath(name))
	if os.IsNotExist(err) {
		observability.Store().OnMapMissing(ctx, name)
		return nil, errors.New(errors.ErrCodePrerequisite,
			"map %q not found in workspace; run the producing stage first", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "read map %q", name)
	}
	observability.Store().OnMapLoaded(ctx, name)
	return data, nil
}

func (ws *Workspace) mapPath(name string) string {
	return filepath.Join(ws.dir, name+".json")
}

func (ws *Workspace) writeRegistry() error {
	data, err := json.MarshalIndent(ws.reg, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "encode workspace registry")
	}
	if err := os.WriteFile(filepath.Join(ws.dir, registryFile), data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write workspace registry")
	}
	return nil
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "workspace" {
		return errors.New(errors.ErrCodeArgument, "invalid map name %q", name)
	}
	return nil
}
