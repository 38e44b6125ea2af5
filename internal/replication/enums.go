package replication

import "fmt"

// Version identifies the replication topology.
type Version string

// VersionOneSourceOneTarget is the only topology the service supports.
const VersionOneSourceOneTarget Version = "ONE_SOURCE_ONE_TARGET"

// LoadType selects how a task transfers data. The constant values are the wire values.
type LoadType string

const (
	// LoadTypeInitial transfers the current content once.
	LoadTypeInitial LoadType = "INITIAL"

	// LoadTypeInitialAndDelta transfers the current content and keeps
	// replicating changes afterwards.
	LoadTypeInitialAndDelta LoadType = "REPLICATE"
)

// ParseLoadType maps a wire value or constant name to a LoadType.
func ParseLoadType(s string) (LoadType, error) {
	switch s {
	case "INITIAL":
		return LoadTypeInitial, nil
	case "REPLICATE", "INITIAL_AND_DELTA":
		return LoadTypeInitialAndDelta, nil
	}
	return "", fmt.Errorf("unknown load type %q", s)
}

// SpaceProperty is the wire key of a dataset property.
type SpaceProperty string

const (
	PropertyGroupDeltaBy    SpaceProperty = "groupDeltaFilesBy"
	PropertyFileType        SpaceProperty = "format"
	PropertyFileCompression SpaceProperty = "compression"
	PropertyFileHeader      SpaceProperty = "isHeaderIncluded"
	PropertyFileDelimiter   SpaceProperty = "columnDelimiter"
)

// GroupDeltaBy controls how delta files are grouped in file-like targets.
type GroupDeltaBy string

const (
	GroupDeltaByDate GroupDeltaBy = "DATE"
	GroupDeltaByHour GroupDeltaBy = "HOUR"
	GroupDeltaByNone GroupDeltaBy = "NONE"
)

// ParseGroupDeltaBy maps a wire value to a GroupDeltaBy.
func ParseGroupDeltaBy(s string) (GroupDeltaBy, error) {
	switch v := GroupDeltaBy(s); v {
	case GroupDeltaByDate, GroupDeltaByHour, GroupDeltaByNone:
		return v, nil
	}
	return "", fmt.Errorf("unknown group delta by %q", s)
}

// FileType is the file format written to file-like targets.
type FileType string

const (
	FileTypeParquet FileType = "PARQUET"
	FileTypeCSV     FileType = "CSV"
)

// ParseFileType maps a wire value to a FileType.
func ParseFileType(s string) (FileType, error) {
	switch v := FileType(s); v {
	case FileTypeParquet, FileTypeCSV:
		return v, nil
	}
	return "", fmt.Errorf("unknown file type %q", s)
}

// FileCompression applies to PARQUET targets.
type FileCompression string

const (
	CompressionNone   FileCompression = "NONE"
	CompressionGzip   FileCompression = "GZIP"
	CompressionSnappy FileCompression = "SNAPPY"
)

// ParseFileCompression maps a wire value to a FileCompression.
func ParseFileCompression(s string) (FileCompression, error) {
	switch v := FileCompression(s); v {
	case CompressionNone, CompressionGzip, CompressionSnappy:
		return v, nil
	}
	return "", fmt.Errorf("unknown file compression %q", s)
}

// FileDelimiter applies to CSV targets.
type FileDelimiter string

const (
	DelimiterComma     FileDelimiter = "COMMA"
	DelimiterColon     FileDelimiter = "COLON"
	DelimiterPipe      FileDelimiter = "PIPE"
	DelimiterSemicolon FileDelimiter = "SEMICOLON"
	DelimiterTab       FileDelimiter = "TAB"
)

// ParseFileDelimiter maps a wire value to a FileDelimiter.
func ParseFileDelimiter(s string) (FileDelimiter, error) {
	switch v := FileDelimiter(s); v {
	case DelimiterComma, DelimiterColon, DelimiterPipe, DelimiterSemicolon, DelimiterTab:
		return v, nil
	}
	return "", fmt.Errorf("unknown file delimiter %q", s)
}

// FilterOperator is the comparison of a task filter. The constant values are
// the wire values written to "comparison".
type FilterOperator string

// OperatorEquals matches rows whose field equals the operand.
const OperatorEquals FilterOperator = "="

// RequiresSecondOperand reports whether the operator takes a range.
// No operator does yet; BETWEEN will.
func (o FilterOperator) RequiresSecondOperand() bool {
	return false
}

// ParseFilterOperator maps a wire value or constant name to a FilterOperator.
func ParseFilterOperator(s string) (FilterOperator, error) {
	switch s {
	case "=", "EQUALS":
		return OperatorEquals, nil
	}
	return "", fmt.Errorf("unknown filter operator %q", s)
}
