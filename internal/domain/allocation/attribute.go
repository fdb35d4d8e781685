package allocation

// AttributeType names a typed key-value attribute attached to an allocation.
// GID and Shortname are globally unique across allocations; the quota types
// carry a zero-initialized usage counter alongside their value.
type AttributeType string

const (
	AttributeGID                AttributeType = "GID"
	AttributeShortname          AttributeType = "Shortname"
	AttributeStorageQuota       AttributeType = "Storage Quota (TB)"
	AttributeFilesQuota         AttributeType = "Files Quota"
	AttributeFilesystemLocation AttributeType = "Filesystem Location"
)

// IsGloballyUnique reports whether the attribute value must be unique
// across all allocations, not just within one.
func (t AttributeType) IsGloballyUnique() bool {
	return t == AttributeGID || t == AttributeShortname
}

// HasUsage reports whether the attribute carries a usage counter.
func (t AttributeType) HasUsage() bool {
	return t == AttributeStorageQuota || t == AttributeFilesQuota
}

// Attribute is one typed key-value pair on an allocation.
type Attribute struct {
	Type  AttributeType
	Value string
	// Usage is meaningful only for quota attributes; zero-initialized at
	// provisioning time and updated by external usage collectors.
	Usage int64
}
