// Package harness runs replication flow scenarios end to end.
//
// # Scenario Format
//
// Scenarios are YAML files. Unknown keys are rejected:
//
//	name: abap-cds-to-hc-small
//	description: Replication of Small CDS View to HANA DB
//	replication: abap-cds-to-hc-small   # defaults to name
//	source: {connection: CIT_S4, container: /CDS}
//	target:
//	  connection: CIT_HANA
//	  container: /RMS_CIT_TARGET
//	  fileType: PARQUET                 # optional dataset properties
//	tasks:
//	  - source: DHE2E_CDS_WS_LS
//	    loadType: INITIAL_AND_DELTA
//	    filters:
//	      - {field: MANDT, operator: "=", value: "100"}
//	run: true
//	undeploy: true
//	expect:
//	  deploy: COMPLETED                 # unset operations expect COMPLETED
//	assertions:
//	  - type: trace_order
//	    steps: [save, deploy, undeploy]
//	  - type: document_field
//	    field: targetSpaces.0.datasetProperties.format
//	    equals: PARQUET
//
// # Steps
//
// A run creates the replication, resolves both spaces through connection
// management, adds the tasks and saves the document. The document is read
// back and compared in canonical form, then validated against the schema
// contract. The flow is deployed and polled while busy, optionally run or
// resumed, and optionally undeployed.
//
// Each step appends one TraceEvent. Change request steps record the final
// change request status; other steps record OK or FAILED. The first failing
// step ends the run, except that undeploy still runs once a flow exists.
//
// # Determinism
//
// Traces carry no run ids, task names or timestamps, so a trace can be
// compared against a golden file and hashed for the run ledger.
package harness
