// Package storage models the filesystem layout of research-group filesets:
// where an allocation's data lives on disk and which intermediate
// directories must exist before the fileset can be created.
package storage

import (
	"fmt"
	"path"
)

// FilesetPath is the full decomposition of an allocation's location on the
// distributed filesystem. Faculty and department segments come from the
// owning project; group and fileset name come from the allocation shortname.
type FilesetPath struct {
	MountPath   string
	Filesystem  string
	TopLevelDir string
	Faculty     string
	Department  string
	Group       string
	FilesetName string
}

// NewFilesetPath validates the decomposition. Every segment is required;
// the control-plane API rejects empty path components with opaque errors,
// so we fail early here instead.
func NewFilesetPath(mountPath, filesystem, topLevelDir, faculty, department, group, filesetName string) (FilesetPath, error) {
	fp := FilesetPath{
		MountPath:   mountPath,
		Filesystem:  filesystem,
		TopLevelDir: topLevelDir,
		Faculty:     faculty,
		Department:  department,
		Group:       group,
		FilesetName: filesetName,
	}
	for _, seg := range []struct {
		name, value string
	}{
		{"mount path", mountPath},
		{"filesystem name", filesystem},
		{"top level directory", topLevelDir},
		{"faculty", faculty},
		{"department", department},
		{"group", group},
		{"fileset name", filesetName},
	} {
		if seg.value == "" {
			return FilesetPath{}, fmt.Errorf("fileset path %s is empty", seg.name)
		}
	}
	return fp, nil
}

// Absolute returns the full on-disk path of the fileset.
func (p FilesetPath) Absolute() string {
	return path.Join(p.MountPath, p.Filesystem, p.TopLevelDir, p.Faculty, p.Department, p.Group, p.FilesetName)
}

// FacultyFileset is the name of the pre-existing faculty-level fileset the
// intermediate directories are created under.
func (p FilesetPath) FacultyFileset() string {
	return p.Faculty
}

// Intermediates lists the directories that must exist below the faculty
// fileset before the group fileset can be created, shallowest first,
// relative to the faculty directory.
func (p FilesetPath) Intermediates() []string {
	return []string{
		p.Department,
		path.Join(p.Department, p.Group),
	}
}
