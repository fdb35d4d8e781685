package usecases

import (
	"context"
	"time"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/domain/storage"
)

// DirectoryService wraps the group-membership directory operations the use
// cases need. The idempotency flags make "already there" and "already gone"
// count as success.
type DirectoryService interface {
	CreateGroup(ctx context.Context, name string, gid int) error
	DeleteGroup(ctx context.Context, name string, allowMissing bool) error
	AddMember(ctx context.Context, group, username string, allowAlreadyPresent bool) error
	RemoveMember(ctx context.Context, group, username string, allowMissing bool) error
	GroupMembers(ctx context.Context, group string) ([]string, error)
}

// FilesystemService provisions an allocation's fileset and quotas.
type FilesystemService interface {
	ProvisionFileset(ctx context.Context, fp storage.FilesetPath, owner string, gid int, blockQuota string) error
}

// NotificationService sends the lifecycle and reconciliation emails.
type NotificationService interface {
	SendExpiryNotification(to, projectTitle string, stage allocation.NotificationStage, days int, endDate time.Time) error
	SendDiscrepancyReport(discrepancies []allocation.Discrepancy) error
}

// TransactionManager scopes a function to one database transaction carried
// through the context.
type TransactionManager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
