package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"allocmgr/internal/domain/allocation"
	"allocmgr/internal/domain/storage"
	"allocmgr/internal/shared/config"
	"allocmgr/internal/shared/errors"
	"allocmgr/internal/shared/logger"
	"allocmgr/internal/shared/saga"
)

var shortnameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,30}[a-z0-9]$`)

type ProvisionAllocationCommand struct {
	ProjectID     uint
	Shortname     string
	StorageTB     int
	StartDate     time.Time
	EndDate       *time.Time
	Justification string
}

type ProvisionAllocationResult struct {
	AllocationID uint
	Shortname    string
	GID          int
	GroupName    string
	FilesetPath  string
}

// ProvisionAllocationUseCase creates an allocation with its attributes, PI
// membership, directory group and fileset as one logical transaction. The
// database writes roll back on any failure; the directory group is the one
// external resource created mid-flight and is compensated by deletion when
// fileset provisioning fails.
type ProvisionAllocationUseCase struct {
	allocRepo   allocation.Repository
	userRepo    allocation.UserRepository
	projectRepo allocation.ProjectRepository
	txManager   TransactionManager
	directory   DirectoryService
	filesystem  FilesystemService
	allocCfg    *config.AllocationConfig
	fsCfg       *config.FilesystemConfig
	dirEnabled  bool
	fsEnabled   bool
	logger      logger.Interface
}

func NewProvisionAllocationUseCase(
	allocRepo allocation.Repository,
	userRepo allocation.UserRepository,
	projectRepo allocation.ProjectRepository,
	txManager TransactionManager,
	directory DirectoryService,
	filesystem FilesystemService,
	allocCfg *config.AllocationConfig,
	fsCfg *config.FilesystemConfig,
	dirEnabled, fsEnabled bool,
	logger logger.Interface,
) *ProvisionAllocationUseCase {
	return &ProvisionAllocationUseCase{
		allocRepo:   allocRepo,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
		directory:   directory,
		filesystem:  filesystem,
		allocCfg:    allocCfg,
		fsCfg:       fsCfg,
		dirEnabled:  dirEnabled,
		fsEnabled:   fsEnabled,
		logger:      logger,
	}
}

func (uc *ProvisionAllocationUseCase) Execute(ctx context.Context, cmd ProvisionAllocationCommand) (*ProvisionAllocationResult, error) {
	uc.logger.Infow("executing provision allocation use case",
		"project_id", cmd.ProjectID, "shortname", cmd.Shortname)

	if err := uc.validateCommand(cmd); err != nil {
		uc.logger.Errorw("invalid provision allocation command", "error", err)
		return nil, err
	}

	project, err := uc.projectRepo.GetByID(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}

	groupName := uc.allocCfg.ShortnamePrefix + cmd.Shortname

	var result *ProvisionAllocationResult
	err = uc.txManager.RunInTransaction(ctx, func(txCtx context.Context) error {
		r, err := uc.provision(txCtx, cmd, project, groupName)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("allocation provisioned",
		"allocation_id", result.AllocationID,
		"shortname", result.Shortname,
		"gid", result.GID,
	)
	return result, nil
}

func (uc *ProvisionAllocationUseCase) provision(
	ctx context.Context,
	cmd ProvisionAllocationCommand,
	project *allocation.ProjectRef,
	groupName string,
) (*ProvisionAllocationResult, error) {
	exists, err := uc.allocRepo.ShortnameExists(ctx, cmd.Shortname)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewConflictError(fmt.Sprintf("shortname %q is already in use", cmd.Shortname))
	}

	gid, err := uc.nextGID(ctx)
	if err != nil {
		return nil, err
	}

	fp, err := storage.NewFilesetPath(
		uc.fsCfg.MountPath,
		uc.fsCfg.Name,
		uc.fsCfg.TopLevelDir,
		project.Faculty,
		project.Department,
		groupName,
		cmd.Shortname,
	)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	alloc, err := allocation.NewAllocation(*project, cmd.StartDate, cmd.EndDate, cmd.Justification)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	attrs := []allocation.Attribute{
		{Type: allocation.AttributeShortname, Value: cmd.Shortname},
		{Type: allocation.AttributeGID, Value: strconv.Itoa(gid)},
		{Type: allocation.AttributeStorageQuota, Value: strconv.Itoa(cmd.StorageTB), Usage: 0},
		{Type: allocation.AttributeFilesQuota, Value: uc.fsCfg.FilesQuota, Usage: 0},
		{Type: allocation.AttributeFilesystemLocation, Value: fp.Absolute()},
	}
	for _, attr := range attrs {
		if err := alloc.SetAttribute(attr); err != nil {
			return nil, errors.NewInternalError(err.Error())
		}
	}

	if err := uc.allocRepo.Create(ctx, alloc); err != nil {
		return nil, err
	}

	pi, err := allocation.NewUser(alloc.ID(), project.PIUsername, project.PIEmail, nil)
	if err != nil {
		return nil, errors.NewInternalError(err.Error())
	}
	if err := uc.userRepo.Create(ctx, pi); err != nil {
		return nil, err
	}

	if err := uc.provisionExternal(ctx, groupName, gid, fp, project.PIUsername, cmd.StorageTB); err != nil {
		return nil, err
	}

	return &ProvisionAllocationResult{
		AllocationID: alloc.ID(),
		Shortname:    cmd.Shortname,
		GID:          gid,
		GroupName:    groupName,
		FilesetPath:  fp.Absolute(),
	}, nil
}

// provisionExternal creates the directory group and the fileset. The group
// is deleted again, tolerating "already absent", when any later step fails;
// the returned error then rolls the surrounding transaction back.
func (uc *ProvisionAllocationUseCase) provisionExternal(
	ctx context.Context,
	groupName string,
	gid int,
	fp storage.FilesetPath,
	piUsername string,
	storageTB int,
) error {
	s := saga.New(uc.logger)

	if uc.dirEnabled {
		s.AddStep(saga.Step{
			Name: "create directory group",
			Action: func(ctx context.Context) error {
				return uc.directory.CreateGroup(ctx, groupName, gid)
			},
			Compensate: func(ctx context.Context) error {
				return uc.directory.DeleteGroup(ctx, groupName, true)
			},
		})
		s.AddStep(saga.Step{
			Name: "add principal investigator to directory group",
			Action: func(ctx context.Context) error {
				return uc.directory.AddMember(ctx, groupName, piUsername, true)
			},
		})
	}

	if uc.fsEnabled {
		s.AddStep(saga.Step{
			Name: "provision fileset",
			Action: func(ctx context.Context) error {
				blockQuota := fmt.Sprintf("%dT", storageTB)
				return uc.filesystem.ProvisionFileset(ctx, fp, piUsername, gid, blockQuota)
			},
		})
	}

	return s.Execute(ctx)
}

func (uc *ProvisionAllocationUseCase) nextGID(ctx context.Context) (int, error) {
	assigned, err := uc.allocRepo.AssignedGIDs(ctx)
	if err != nil {
		return 0, err
	}

	ranges := make([]allocation.GIDRange, len(uc.allocCfg.GIDRanges))
	for i, r := range uc.allocCfg.GIDRanges {
		ranges[i] = allocation.GIDRange{Start: r.Start, Stop: r.Stop}
	}

	gid, err := allocation.NextGID(assigned, ranges)
	if err != nil {
		return 0, errors.NewConflictError(err.Error())
	}
	return gid, nil
}

func (uc *ProvisionAllocationUseCase) validateCommand(cmd ProvisionAllocationCommand) error {
	if cmd.ProjectID == 0 {
		return errors.NewValidationError("project ID is required")
	}
	if !shortnameRe.MatchString(cmd.Shortname) {
		return errors.NewValidationError(
			"shortname must be 3-32 lowercase letters, digits or hyphens, starting and ending with a letter or digit")
	}
	if cmd.StorageTB < uc.allocCfg.MinStorageTB || cmd.StorageTB > uc.allocCfg.MaxStorageTB {
		return errors.NewValidationError(fmt.Sprintf(
			"storage size must be between %d and %d TB", uc.allocCfg.MinStorageTB, uc.allocCfg.MaxStorageTB))
	}
	if cmd.Justification == "" {
		return errors.NewValidationError("justification is required")
	}
	if cmd.EndDate != nil && cmd.EndDate.Before(cmd.StartDate) {
		return errors.NewValidationError("end date precedes start date")
	}
	return nil
}
