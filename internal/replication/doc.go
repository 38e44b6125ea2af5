// Package replication models replication definitions for the RMS designtime API.
//
// A Replication is the building plan for a replication flow. It owns:
//   - Source space: connection + container the data is read from
//   - Target space: connection + container the data is written to, plus
//     optional dataset properties for file-like targets
//   - Tasks: one source dataset to target dataset transfer each
//
// # Naming
//
// Space and task names are derived from the replication name:
//
//	{replication}_{connectionId}_src
//	{replication}_{connectionId}_tgt
//	{replication}_{sourceDataset}_{6 random [a-z0-9]}
//
// Tasks reference spaces by name, not by pointer. Use Replication.SpaceByName
// to resolve a reference.
//
// # Wire Format
//
// Marshal and Unmarshal convert to and from the JSON document consumed by the
// RMS service and stored in the repository. The document always carries
// exactly one entry in sourceSpaces and targetSpaces; an unset space is
// written as a placeholder with empty strings. datasetProperties is omitted
// unless at least one property is set, so "{}" never appears on the wire.
//
// Round-trip: Unmarshal(Marshal(r)) reproduces r for replications whose
// spaces are both unset or both populated.
package replication
