package job

import "sort"

// Registry is an insertion-ordered pid→Job map: a plain Go map gives O(1)
// wait-dispatch by pid, and a parallel slice of pids preserves insertion
// order for reproducible `jobs` listings (spec.md §3/§9).
type Registry struct {
	byPid map[int]*Job
	order []int
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byPid: make(map[int]*Job)}
}

// Insert adds j to the registry, keyed by j.Pid, preserving insertion
// order. Inserting a pid that is already present replaces its Job in
// place without disturbing its position.
func (r *Registry) Insert(j *Job) {
	if _, exists := r.byPid[j.Pid]; !exists {
		r.order = append(r.order, j.Pid)
	}
	r.byPid[j.Pid] = j
}

// Remove drops the job with the given pid, if present.
func (r *Registry) Remove(pid int) {
	if _, ok := r.byPid[pid]; !ok {
		return
	}
	delete(r.byPid, pid)
	for i, p := range r.order {
		if p == pid {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// LookupByPid returns the job with the given pid, or nil if none exists.
func (r *Registry) LookupByPid(pid int) *Job {
	return r.byPid[pid]
}

// LookupByJobID returns the job with the given user-facing job id, or nil.
func (r *Registry) LookupByJobID(id int) *Job {
	for _, pid := range r.order {
		if j := r.byPid[pid]; j.JobID == id {
			return j
		}
	}
	return nil
}

// IterInOrder returns every tracked job, in insertion order.
func (r *Registry) IterInOrder() []*Job {
	jobs := make([]*Job, 0, len(r.order))
	for _, pid := range r.order {
		jobs = append(jobs, r.byPid[pid])
	}
	return jobs
}

// Len reports how many jobs are currently tracked.
func (r *Registry) Len() int {
	return len(r.order)
}

// FindLastJobID returns the maximum job id currently present, or 0 if the
// registry is empty — the next job allocated should use FindLastJobID()+1
// (spec.md §3/§9).
func (r *Registry) FindLastJobID() int {
	max := 0
	for _, j := range r.byPid {
		if j.JobID > max {
			max = j.JobID
		}
	}
	return max
}

// LastInserted returns the most recently inserted job still tracked (the
// registry's last element), or nil if empty. Used as the default target
// for `disown` with no arguments (see DESIGN.md's resolution of spec.md
// §9's open question on disown's default).
func (r *Registry) LastInserted() *Job {
	if len(r.order) == 0 {
		return nil
	}
	return r.byPid[r.order[len(r.order)-1]]
}

// HighestJobID returns the job with the largest job id, or nil if empty —
// the default target for fg/bg with no argument (spec.md §9: "source picks
// highest id").
func (r *Registry) HighestJobID() *Job {
	var best *Job
	for _, j := range r.byPid {
		if best == nil || j.JobID > best.JobID {
			best = j
		}
	}
	return best
}

// PidsByPgid returns, in ascending pid order, every tracked pid sharing the
// given process group — used when signaling or waiting on a whole
// pipeline.
func (r *Registry) PidsByPgid(pgid int) []int {
	var pids []int
	for _, pid := range r.order {
		if r.byPid[pid].Pgid == pgid {
			pids = append(pids, pid)
		}
	}
	sort.Ints(pids)
	return pids
}
