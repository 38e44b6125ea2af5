package replication

// Role distinguishes the source and the target space of a replication.
type Role string

const (
	RoleSource Role = "src"
	RoleTarget Role = "tgt"
)

// SpaceName derives the name of a space from its replication, connection and role.
func SpaceName(replicationName, connectionID string, role Role) string {
	return replicationName + "_" + connectionID + "_" + string(role)
}

// Space is a named reference to a connection and a container within it.
//
// connectionType and ccmConnectionType are nil until resolved through the
// connection management. They are written as null on the wire while unresolved.
type Space struct {
	name              string
	connectionID      string
	container         string
	connectionType    *string
	ccmConnectionType *string
	properties        map[string]string
}

// NewSpace creates a space with no resolved connection type and no dataset properties.
func NewSpace(name, connectionID, container string) *Space {
	return &Space{
		name:         name,
		connectionID: connectionID,
		container:    container,
	}
}

func (s *Space) Name() string         { return s.name }
func (s *Space) ConnectionID() string { return s.connectionID }
func (s *Space) Container() string    { return s.container }

// ConnectionType returns the resolved connection type and whether it is set.
func (s *Space) ConnectionType() (string, bool) {
	if s.connectionType == nil {
		return "", false
	}
	return *s.connectionType, true
}

// CCMConnectionType returns the resolved CCM connection type and whether it is set.
func (s *Space) CCMConnectionType() (string, bool) {
	if s.ccmConnectionType == nil {
		return "", false
	}
	return *s.ccmConnectionType, true
}

// SetConnectionTypes records the types resolved for the space's connection.
func (s *Space) SetConnectionTypes(connectionType, ccmConnectionType string) {
	s.connectionType = &connectionType
	s.ccmConnectionType = &ccmConnectionType
}

// Property returns the dataset property stored under key.
func (s *Space) Property(key SpaceProperty) (string, bool) {
	if s.properties == nil {
		return "", false
	}
	v, ok := s.properties[string(key)]
	return v, ok
}

// SetProperty stores a dataset property, allocating the property bag on first use.
func (s *Space) SetProperty(key SpaceProperty, value string) {
	if s.properties == nil {
		s.properties = make(map[string]string)
	}
	s.properties[string(key)] = value
}

// ClearProperty removes a dataset property. Removing the last property drops
// the bag so the space goes back to having no dataset properties.
func (s *Space) ClearProperty(key SpaceProperty) {
	if s.properties == nil {
		return
	}
	delete(s.properties, string(key))
	if len(s.properties) == 0 {
		s.properties = nil
	}
}

// DatasetProperties returns a copy of the property bag, or nil if no property is set.
func (s *Space) DatasetProperties() map[string]string {
	if s.properties == nil {
		return nil
	}
	out := make(map[string]string, len(s.properties))
	for k, v := range s.properties {
		out[k] = v
	}
	return out
}

// TargetSpace is a Space with typed setters for file-like target properties.
//
// Compression only applies to PARQUET; delimiter and header only apply to CSV.
// The setters do not check the active file type.
type TargetSpace struct {
	Space
}

// NewTargetSpace creates a target space with no dataset properties.
func NewTargetSpace(name, connectionID, container string) *TargetSpace {
	return &TargetSpace{Space: *NewSpace(name, connectionID, container)}
}

func (s *TargetSpace) SetGroupDeltaBy(v GroupDeltaBy) {
	s.SetProperty(PropertyGroupDeltaBy, string(v))
}

func (s *TargetSpace) SetFileType(v FileType) {
	s.SetProperty(PropertyFileType, string(v))
}

func (s *TargetSpace) SetFileCompression(v FileCompression) {
	s.SetProperty(PropertyFileCompression, string(v))
}

func (s *TargetSpace) SetFileDelimiter(v FileDelimiter) {
	s.SetProperty(PropertyFileDelimiter, string(v))
}

// SetFileHeader stores "true" or "false"; the service expects a string.
func (s *TargetSpace) SetFileHeader(include bool) {
	value := "false"
	if include {
		value = "true"
	}
	s.SetProperty(PropertyFileHeader, value)
}
