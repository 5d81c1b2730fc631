// Package relocate runs a project relocation end to end: validate, plan, move
// the files, then repair references and solutions.
package relocate

import (
	"context"
	"fmt"
	"strings"

	"github.com/aidanlsb/projmv/internal/fsutil"
	"github.com/aidanlsb/projmv/internal/mover"
	"github.com/aidanlsb/projmv/internal/paths"
	"github.com/aidanlsb/projmv/internal/relocation"
	"github.com/aidanlsb/projmv/internal/repair"
	"github.com/aidanlsb/projmv/internal/scan"
)

// Journal records the progress of runs. Implementations must not block the
// run on failure; errors are logged and otherwise ignored.
type Journal interface {
	Start(root, project, target string) (int64, error)
	Transition(id int64, state string) error
	RecordChange(id int64, kind, file, oldValue, newValue string) error
	Finish(id int64, state, message string) error
}

// Runner executes relocations. The zero value moves with plain renames and
// logs nothing.
type Runner struct {
	// Mover is tried first for every move. Defaults to mover.Filesystem.
	Mover mover.Mover
	// Fallback handles recoverable Mover outcomes. Defaults to mover.Filesystem.
	Fallback mover.Mover
	Sink     repair.Sink
	Journal  Journal
	Scan     scan.Options
}

// MoveStep describes one executed move.
type MoveStep struct {
	Kind string `json:"kind"`
	From string `json:"from"`
	To   string `json:"to"`
	Via  string `json:"via"`
}

// Result is the outcome of Run. On failure it holds whatever was done before
// the failing step.
type Result struct {
	Plan         *relocation.Plan `json:"-"`
	State        State            `json:"-"`
	Moves        []MoveStep       `json:"moves"`
	Changes      []repair.Change  `json:"changes"`
	Warnings     []repair.Warning `json:"warnings,omitempty"`
	FilesWritten []string         `json:"files_written"`
}

// MoveError is a move that failed for a reason no fallback can handle.
type MoveError struct {
	Kind   string
	Src    string
	Dst    string
	Mover  string
	Result mover.Result
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s %s -> %s (%s): %s", e.Kind, e.Src, e.Dst, e.Mover, e.Result.Error())
}

func (e *MoveError) Unwrap() error { return e.Result.Err }

type run struct {
	r      *Runner
	sink   repair.Sink
	id     int64
	result *Result
}

// Run relocates req.Project. Nothing is retried: after a failure the tree is
// left as the failing step found it.
func (r *Runner) Run(ctx context.Context, req relocation.Request) (*Result, error) {
	rn := &run{r: r, sink: r.Sink, result: &Result{State: StateValidated}}
	if rn.sink == nil {
		rn.sink = repair.Discard
	}

	if err := validateRequest(&req); err != nil {
		rn.result.State = StateFailed
		return rn.result, err
	}
	rn.start(req)

	plan, err := relocation.Create(req)
	if err != nil {
		return rn.fail(err)
	}
	rn.result.Plan = plan
	if err := validatePlan(plan); err != nil {
		return rn.fail(err)
	}
	rn.enter(StatePlanned, pairs(plan.Describe())...)

	if err := rn.move(ctx, plan); err != nil {
		return rn.fail(err)
	}
	rn.enter(StateMoved)

	if err := ctx.Err(); err != nil {
		return rn.fail(err)
	}
	found, err := scan.Tree(ctx, plan.Root, r.Scan)
	if err != nil {
		return rn.fail(fmt.Errorf("scan %s: %w", plan.Root, err))
	}

	refs, err := repair.References(plan, found.Descriptors, rn.sink)
	rn.absorb(refs)
	if err != nil {
		return rn.fail(err)
	}
	rn.enter(StateReferencesRepaired, "descriptors", len(found.Descriptors), "changed", len(refs.FilesWritten))

	if err := ctx.Err(); err != nil {
		return rn.fail(err)
	}
	sln, err := repair.Manifests(plan, found.Manifests, rn.sink)
	rn.absorb(sln)
	if err != nil {
		return rn.fail(err)
	}
	rn.enter(StateManifestsRepaired, "manifests", len(found.Manifests), "changed", len(sln.FilesWritten))

	rn.enter(StateDone)
	rn.finish(StateDone, "")
	return rn.result, nil
}

// Prepare validates req and computes its plan without touching the tree.
func Prepare(req relocation.Request) (*relocation.Plan, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	plan, err := relocation.Create(req)
	if err != nil {
		return nil, err
	}
	if err := validatePlan(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func validateRequest(req *relocation.Request) error {
	if strings.TrimSpace(req.Root) == "" {
		req.Root = "."
	}
	if !fsutil.DirExists(req.Root) {
		return &relocation.ValidationError{Field: "root", Value: req.Root, Reason: "directory not found"}
	}
	if strings.ContainsAny(req.Target, `/\`) {
		return &relocation.ValidationError{Field: "target", Value: req.Target, Reason: "should not be a path, just a name"}
	}
	if strings.TrimSpace(req.Project) == "" {
		return &relocation.ValidationError{Field: "project", Reason: "a descriptor path is required"}
	}
	full := req.Project
	if !paths.IsRooted(full) {
		full = paths.ToOS(req.Root, full)
	}
	if !fsutil.FileExists(full) {
		return &relocation.ValidationError{Field: "project", Value: req.Project, Reason: "file not found"}
	}
	return nil
}

func validatePlan(plan *relocation.Plan) error {
	if plan.SourcePath == plan.TargetPath {
		return &relocation.ValidationError{Field: "target", Value: plan.TargetName, Reason: "project is already at " + plan.TargetPath}
	}
	if plan.NestsTarget() {
		return &relocation.ValidationError{Field: "target", Value: plan.TargetPath, Reason: "cannot move a project directory into itself"}
	}
	if fsutil.FileExists(plan.TargetFullPath()) {
		return &relocation.ValidationError{Field: "target", Value: plan.TargetPath, Reason: "already exists"}
	}
	return nil
}

func (rn *run) move(ctx context.Context, plan *relocation.Plan) error {
	if err := rn.moveOne(ctx, "file", plan.SourcePath, plan.TargetPath); err != nil {
		return err
	}
	if plan.SameDirectory() {
		return nil
	}
	return rn.moveOne(ctx, "dir", plan.SourceDir(), plan.TargetDir())
}

func (rn *run) moveOne(ctx context.Context, kind, from, to string) error {
	primary := rn.r.Mover
	if primary == nil {
		primary = mover.Filesystem{}
	}
	fallback := rn.r.Fallback
	if fallback == nil {
		fallback = mover.Filesystem{}
	}

	src := paths.ToOS(rn.result.Plan.Root, from)
	dst := paths.ToOS(rn.result.Plan.Root, to)
	do := func(m mover.Mover) mover.Result {
		if kind == "file" {
			return m.MoveFile(ctx, src, dst)
		}
		return m.MoveDir(ctx, src, dst)
	}

	used := primary
	res := do(primary)
	if res.Recoverable() && fallback.Name() != primary.Name() {
		rn.sink.Debug("falling back", "kind", kind, "from", from, "mover", fallback.Name(), "reason", res.Outcome, "detail", res.Detail)
		used = fallback
		res = do(fallback)
	}
	if !res.OK() {
		return &MoveError{Kind: kind, Src: from, Dst: to, Mover: used.Name(), Result: res}
	}

	rn.result.Moves = append(rn.result.Moves, MoveStep{Kind: kind, From: from, To: to, Via: used.Name()})
	rn.sink.Info("moved "+kind, "from", from, "to", to, "via", used.Name())
	return nil
}

func (rn *run) absorb(rep *repair.Report) {
	if rep == nil {
		return
	}
	rn.result.Changes = append(rn.result.Changes, rep.Changes...)
	rn.result.Warnings = append(rn.result.Warnings, rep.Warnings...)
	rn.result.FilesWritten = append(rn.result.FilesWritten, rep.FilesWritten...)
	if rn.r.Journal == nil || rn.id == 0 {
		return
	}
	for _, c := range rep.Changes {
		if err := rn.r.Journal.RecordChange(rn.id, c.Kind, c.File, c.Old, c.New); err != nil {
			rn.sink.Warn("history: record change", "err", err)
		}
	}
}

func (rn *run) start(req relocation.Request) {
	if rn.r.Journal == nil {
		return
	}
	id, err := rn.r.Journal.Start(req.Root, req.Project, req.Target)
	if err != nil {
		rn.sink.Warn("history: start run", "err", err)
		return
	}
	rn.id = id
	rn.transition(StateValidated)
}

func (rn *run) enter(s State, keyvals ...interface{}) {
	rn.result.State = s
	rn.sink.Debug("state "+s.String(), keyvals...)
	rn.transition(s)
}

func (rn *run) transition(s State) {
	if rn.r.Journal == nil || rn.id == 0 {
		return
	}
	if err := rn.r.Journal.Transition(rn.id, s.String()); err != nil {
		rn.sink.Warn("history: transition", "err", err)
	}
}

func pairs(kv []string) []interface{} {
	out := make([]interface{}, len(kv))
	for i, p := range kv {
		out[i] = p
	}
	return out
}

func (rn *run) fail(err error) (*Result, error) {
	from := rn.result.State
	rn.result.State = StateFailed
	rn.sink.Debug("state failed", "from", from, "err", err)
	rn.finish(StateFailed, err.Error())
	return rn.result, err
}

func (rn *run) finish(s State, message string) {
	if rn.r.Journal == nil || rn.id == 0 {
		return
	}
	if err := rn.r.Journal.Finish(rn.id, s.String(), message); err != nil {
		rn.sink.Warn("history: finish run", "err", err)
	}
}
