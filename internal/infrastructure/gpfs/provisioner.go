package gpfs

import (
	"context"
	"errors"
	"fmt"

	"allocmgr/internal/domain/storage"
	"allocmgr/internal/shared/config"
	"allocmgr/internal/shared/logger"
)

// API is the subset of control-plane operations the provisioner needs.
type API interface {
	CreateDirectory(ctx context.Context, fileset, relativePath, permissions string) error
	SetACL(ctx context.Context, fileset, relativePath string, acl ACL) error
	CreateFileset(ctx context.Context, name, owner, group, absolutePath, permissions, parentFileset string) error
	SetQuota(ctx context.Context, fileset, blockQuota, filesQuota string) error
}

// FilesetProvisioner creates the directory hierarchy and fileset for one
// allocation: intermediates under the faculty fileset first, then the
// fileset itself, its ACL, and its quotas.
type FilesetProvisioner struct {
	api           API
	netbiosDomain string
	cfg           *config.FilesystemConfig
	logger        logger.Interface
}

func NewFilesetProvisioner(api API, netbiosDomain string, cfg *config.FilesystemConfig, log logger.Interface) *FilesetProvisioner {
	return &FilesetProvisioner{
		api:           api,
		netbiosDomain: netbiosDomain,
		cfg:           cfg,
		logger:        log,
	}
}

// ProvisionFileset runs the full workflow. Pre-existing intermediate
// directories are left untouched; the fileset ACL is always applied because
// the fileset itself is freshly created.
func (p *FilesetProvisioner) ProvisionFileset(ctx context.Context, fp storage.FilesetPath, owner string, gid int, blockQuota string) error {
	parentACL := ACL{
		Owner: p.cfg.ParentOwnerACL,
		Group: p.cfg.ParentGroupACL,
		Other: p.cfg.ParentOtherACL,
	}
	filesetACL := ACL{
		Owner: p.cfg.FilesetOwnerACL,
		Group: p.cfg.FilesetGroupACL,
		Other: p.cfg.FilesetOtherACL,
	}

	faculty := fp.FacultyFileset()
	for _, dir := range fp.Intermediates() {
		err := p.api.CreateDirectory(ctx, faculty, dir, p.cfg.ParentPOSIX)
		if errors.Is(err, ErrDirectoryExists) {
			p.logger.Debugw("intermediate directory already exists, leaving permissions untouched",
				"fileset", faculty, "directory", dir)
			continue
		}
		if err != nil {
			return err
		}
		if err := p.api.SetACL(ctx, faculty, dir, parentACL); err != nil {
			return err
		}
	}

	group := fmt.Sprintf("%s\\%d", p.netbiosDomain, gid)
	if err := p.api.CreateFileset(ctx, fp.FilesetName, owner, group, fp.Absolute(), p.cfg.FilesetPOSIX, faculty); err != nil {
		return err
	}

	filesetDir := fp.Intermediates()[len(fp.Intermediates())-1] + "/" + fp.FilesetName
	if err := p.api.SetACL(ctx, faculty, filesetDir, filesetACL); err != nil {
		return err
	}

	if err := p.api.SetQuota(ctx, fp.FilesetName, blockQuota, p.cfg.FilesQuota); err != nil {
		return err
	}

	p.logger.Infow("fileset provisioned",
		"fileset", fp.FilesetName,
		"path", fp.Absolute(),
		"block_quota", blockQuota,
		"files_quota", p.cfg.FilesQuota,
	)
	return nil
}
