package usecases

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/domain/storage"
	apperrors "allocmgr/internal/shared/errors"
)

// memStore is the shared in-memory backing for the fake repositories. The
// fake transaction manager snapshots it so rollback semantics can be
// asserted.
type memStore struct {
	nextAllocID uint
	nextUserID  uint
	allocs      map[uint]*allocation.Allocation
	users       map[uint]*allocation.User
	projects    map[uint]*allocation.ProjectRef
}

func newMemStore() *memStore {
	return &memStore{
		nextAllocID: 1,
		nextUserID:  1,
		allocs:      make(map[uint]*allocation.Allocation),
		users:       make(map[uint]*allocation.User),
		projects:    make(map[uint]*allocation.ProjectRef),
	}
}

func (s *memStore) snapshot() *memStore {
	cp := newMemStore()
	cp.nextAllocID = s.nextAllocID
	cp.nextUserID = s.nextUserID
	for k, v := range s.allocs {
		cp.allocs[k] = v
	}
	for k, v := range s.users {
		cp.users[k] = v
	}
	for k, v := range s.projects {
		cp.projects[k] = v
	}
	return cp
}

func (s *memStore) restore(from *memStore) {
	s.nextAllocID = from.nextAllocID
	s.nextUserID = from.nextUserID
	s.allocs = from.allocs
	s.users = from.users
	s.projects = from.projects
}

// fakeTxManager runs the function directly and restores the store snapshot
// when it fails, mirroring a real rollback.
type fakeTxManager struct {
	store *memStore
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

type fakeAllocRepo struct {
	store *memStore
}

func (r *fakeAllocRepo) Create(_ context.Context, a *allocation.Allocation) error {
	a.SetID(r.store.nextAllocID)
	r.store.nextAllocID++
	r.store.allocs[a.ID()] = a
	return nil
}

func (r *fakeAllocRepo) GetByID(_ context.Context, id uint) (*allocation.Allocation, error) {
	a, ok := r.store.allocs[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("allocation %d not found", id))
	}
	return a, nil
}

func (r *fakeAllocRepo) UpdateStatus(_ context.Context, id uint, status allocation.Status) error {
	a, ok := r.store.allocs[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("allocation %d not found", id))
	}
	return a.TransitionTo(status)
}

func (r *fakeAllocRepo) ListByStatus(_ context.Context, statuses ...allocation.Status) ([]*allocation.Allocation, error) {
	var out []*allocation.Allocation
	for _, a := range r.store.allocs {
		for _, s := range statuses {
			if a.Status() == s {
				out = append(out, a)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (r *fakeAllocRepo) ListWithEndDate(_ context.Context) ([]*allocation.Allocation, error) {
	var out []*allocation.Allocation
	for _, a := range r.store.allocs {
		if a.EndDate() != nil {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (r *fakeAllocRepo) AssignedGIDs(_ context.Context) ([]int, error) {
	var gids []int
	for _, a := range r.store.allocs {
		v, ok, err := a.Attribute(allocation.AttributeGID)
		if err != nil {
			return nil, err
		}
		if ok {
			gid, err := strconv.Atoi(v)
			if err != nil {
				return nil, err
			}
			gids = append(gids, gid)
		}
	}
	return gids, nil
}

func (r *fakeAllocRepo) ShortnameExists(_ context.Context, shortname string) (bool, error) {
	for _, a := range r.store.allocs {
		v, ok, err := a.Attribute(allocation.AttributeShortname)
		if err != nil {
			return false, err
		}
		if ok && v == shortname {
			return true, nil
		}
	}
	return false, nil
}

type fakeUserRepo struct {
	store *memStore
}

func (r *fakeUserRepo) Create(_ context.Context, u *allocation.User) error {
	for _, existing := range r.store.users {
		if existing.AllocationID() == u.AllocationID() && existing.Username() == u.Username() {
			return apperrors.NewConflictError("membership already exists")
		}
	}
	u.SetID(r.store.nextUserID)
	r.store.nextUserID++
	r.store.users[u.ID()] = u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uint) (*allocation.User, error) {
	u, ok := r.store.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("membership %d not found", id))
	}
	return u, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *allocation.User) error {
	if _, ok := r.store.users[u.ID()]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("membership %d not found", u.ID()))
	}
	r.store.users[u.ID()] = u
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.store.users[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("membership %d not found", id))
	}
	delete(r.store.users, id)
	return nil
}

func (r *fakeUserRepo) ListByAllocation(_ context.Context, allocationID uint, statuses ...allocation.UserStatus) ([]*allocation.User, error) {
	var out []*allocation.User
	for _, u := range r.store.users {
		if u.AllocationID() != allocationID {
			continue
		}
		if len(statuses) == 0 {
			out = append(out, u)
			continue
		}
		for _, s := range statuses {
			if u.Status() == s {
				out = append(out, u)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username() < out[j].Username() })
	return out, nil
}

func (r *fakeUserRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, u := range r.store.users {
		if u.Expiration() != nil && u.Expiration().Before(now) {
			delete(r.store.users, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeProjectRepo struct {
	store *memStore
}

func (r *fakeProjectRepo) GetByID(_ context.Context, id uint) (*allocation.ProjectRef, error) {
	p, ok := r.store.projects[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("project %d not found", id))
	}
	return p, nil
}

// fakeDirectory records every directory call and simulates group state.
type fakeDirectory struct {
	groups  map[string][]string
	deleted []string

	failCreateGroup error
	failAddMember   error
	failRemove      error
	memberErr       error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{groups: make(map[string][]string)}
}

func (d *fakeDirectory) CreateGroup(_ context.Context, name string, _ int) error {
	if d.failCreateGroup != nil {
		return d.failCreateGroup
	}
	if _, ok := d.groups[name]; ok {
		return apperrors.NewConflictError("group exists")
	}
	d.groups[name] = nil
	return nil
}

func (d *fakeDirectory) DeleteGroup(_ context.Context, name string, allowMissing bool) error {
	if _, ok := d.groups[name]; !ok {
		if allowMissing {
			return nil
		}
		return apperrors.NewNotFoundError("group not found")
	}
	delete(d.groups, name)
	d.deleted = append(d.deleted, name)
	return nil
}

func (d *fakeDirectory) AddMember(_ context.Context, group, username string, allowAlreadyPresent bool) error {
	if d.failAddMember != nil {
		return d.failAddMember
	}
	members, ok := d.groups[group]
	if !ok {
		return apperrors.NewNotFoundError("group not found")
	}
	for _, m := range members {
		if m == username {
			if allowAlreadyPresent {
				return nil
			}
			return apperrors.NewExternalError("already a member")
		}
	}
	d.groups[group] = append(members, username)
	return nil
}

func (d *fakeDirectory) RemoveMember(_ context.Context, group, username string, allowMissing bool) error {
	if d.failRemove != nil {
		return d.failRemove
	}
	members, ok := d.groups[group]
	if !ok {
		if allowMissing {
			return nil
		}
		return apperrors.NewNotFoundError("group not found")
	}
	for i, m := range members {
		if m == username {
			d.groups[group] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	if allowMissing {
		return nil
	}
	return apperrors.NewExternalError("not a member")
}

func (d *fakeDirectory) GroupMembers(_ context.Context, group string) ([]string, error) {
	if d.memberErr != nil {
		return nil, d.memberErr
	}
	return d.groups[group], nil
}

type filesetCall struct {
	path       storage.FilesetPath
	owner      string
	gid        int
	blockQuota string
}

type fakeFilesystem struct {
	calls []filesetCall
	fail  error
}

func (f *fakeFilesystem) ProvisionFileset(_ context.Context, fp storage.FilesetPath, owner string, gid int, blockQuota string) error {
	if f.fail != nil {
		return f.fail
	}
	f.calls = append(f.calls, filesetCall{path: fp, owner: owner, gid: gid, blockQuota: blockQuota})
	return nil
}

type expiryCall struct {
	to    string
	title string
	stage allocation.NotificationStage
	days  int
}

type fakeNotifier struct {
	expiries      []expiryCall
	reports       [][]allocation.Discrepancy
	failExpiry    error
}

func (n *fakeNotifier) SendExpiryNotification(to, projectTitle string, stage allocation.NotificationStage, days int, _ time.Time) error {
	if n.failExpiry != nil {
		return n.failExpiry
	}
	n.expiries = append(n.expiries, expiryCall{to: to, title: projectTitle, stage: stage, days: days})
	return nil
}

func (n *fakeNotifier) SendDiscrepancyReport(discrepancies []allocation.Discrepancy) error {
	n.reports = append(n.reports, discrepancies)
	return nil
}
