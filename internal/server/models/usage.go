package models

// StorageUsage is a point-in-time view of an owner's quota. UsedBytes is
// always freshly summed from live file entries.
type StorageUsage struct {
	UsedBytes      int64
	LimitBytes     int64
	RemainingBytes int64
	// Percentage is round(used/limit*100) and may exceed 100.
	Percentage int

	UsedHuman  string
	LimitHuman string
}
