package service

// Background job types dispatched on the shared queue.
const (
	JobTypeSnapshotRefresh = "snapshot_refresh"
	JobTypeBACSync         = "bac_sync"
	JobTypeExportCleanup   = "export_cleanup"
)
