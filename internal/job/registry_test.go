package job

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryPreservesInsertionOrder(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Job{JobID: 1, Pid: 100, Pgid: 100})
	r.Insert(&Job{JobID: 2, Pid: 200, Pgid: 200})
	r.Insert(&Job{JobID: 3, Pid: 50, Pgid: 50})

	got := r.IterInOrder()
	require.Len(t, got, 3)
	require.Equal(t, 100, got[0].Pid)
	require.Equal(t, 200, got[1].Pid)
	require.Equal(t, 50, got[2].Pid)
}

func TestFindLastJobIDEmptyIsZero(t *testing.T) {
	r := NewRegistry()
	require.Equal(t, 0, r.FindLastJobID())
}

func TestFindLastJobIDTracksMax(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Job{JobID: 1, Pid: 1})
	r.Insert(&Job{JobID: 5, Pid: 2})
	r.Insert(&Job{JobID: 3, Pid: 3})
	require.Equal(t, 5, r.FindLastJobID())
}

func TestRemoveDropsFromOrderAndMap(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Job{JobID: 1, Pid: 10})
	r.Insert(&Job{JobID: 2, Pid: 20})
	r.Remove(10)

	require.Nil(t, r.LookupByPid(10))
	require.Len(t, r.IterInOrder(), 1)
}

func TestHighestJobIDPicksMax(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Job{JobID: 2, Pid: 1})
	r.Insert(&Job{JobID: 7, Pid: 2})
	require.Equal(t, 7, r.HighestJobID().JobID)
}

func TestLastInsertedReturnsMostRecent(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Job{JobID: 1, Pid: 1})
	r.Insert(&Job{JobID: 2, Pid: 2})
	require.Equal(t, 2, r.LastInserted().JobID)
}

func TestPidsByPgidFiltersAndSorts(t *testing.T) {
	r := NewRegistry()
	r.Insert(&Job{JobID: 1, Pid: 30, Pgid: 10})
	r.Insert(&Job{JobID: 2, Pid: 10, Pgid: 10})
	r.Insert(&Job{JobID: 3, Pid: 20, Pgid: 99})

	pids := r.PidsByPgid(10)
	require.Equal(t, []int{10, 30}, pids)
}
