package workload

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/agutierrez/benchgo/internal/codespec"
)

func init() {
	Register("group", "create", groupCreateTask)
	Register("group", "delete", groupDeleteTask)
	Register("group", "join", groupJoinTask)
	Register("group", "leave", groupLeaveTask)
}

// groupRegistry is a tiny in-memory named-group store, used to give the
// init/done hook-pairing scenario (spec.md §8 scenario 4) a concrete,
// stateful builtin: an init hook creates a group, a done hook deletes
// it, and each runner invocation joins then leaves it. Supplements the
// distilled spec with the create_group/join/leave semantics the
// original erlperf test suite exercises but spec.md only alludes to.
var groupRegistry sync.Map // name -> *group

type group struct {
	members  sync.Map // member id -> struct{}
	creates  atomic.Int64
	deletes  atomic.Int64
	joins    atomic.Int64
	leaves   atomic.Int64
}

// Stats is the observable counter set for one currently existing named
// group.
type Stats struct {
	Creates, Deletes, Joins, Leaves int64
}

// GroupStats returns the current counters for name, or the zero value
// if no group of that name exists (never created, or already deleted:
// delete removes the group together with its counters).
func GroupStats(name string) Stats {
	v, ok := groupRegistry.Load(name)
	if !ok {
		return Stats{}
	}
	g := v.(*group)
	return Stats{
		Creates: g.creates.Load(),
		Deletes: g.deletes.Load(),
		Joins:   g.joins.Load(),
		Leaves:  g.leaves.Load(),
	}
}

func groupCreateTask(_ context.Context, args codespec.Args) (any, error) {
	name := args["name"]
	if name == "" {
		return nil, errBadArg("name", "group name required")
	}
	g := &group{}
	g.creates.Add(1)
	groupRegistry.Store(name, g)
	return nil, nil
}

func groupDeleteTask(_ context.Context, args codespec.Args) (any, error) {
	name := args["name"]
	v, ok := groupRegistry.Load(name)
	if !ok {
		return nil, errBadArg("name", "no such group: "+name)
	}
	g := v.(*group)
	g.deletes.Add(1)
	groupRegistry.Delete(name)
	return nil, nil
}

func groupJoinTask(_ context.Context, args codespec.Args) (any, error) {
	name := args["name"]
	v, ok := groupRegistry.Load(name)
	if !ok {
		return nil, errBadArg("name", "no such group: "+name)
	}
	g := v.(*group)
	g.members.Store(args["member"], struct{}{})
	g.joins.Add(1)
	return nil, nil
}

func groupLeaveTask(_ context.Context, args codespec.Args) (any, error) {
	name := args["name"]
	v, ok := groupRegistry.Load(name)
	if !ok {
		return nil, errBadArg("name", "no such group: "+name)
	}
	g := v.(*group)
	g.members.Delete(args["member"])
	g.leaves.Add(1)
	return nil, nil
}
