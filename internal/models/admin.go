package models

// Page is the backend's paginated envelope.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// DashboardStats is returned by GET /admin/dashboard/stats.
type DashboardStats struct {
	TotalUsers          int64      `json:"totalUsers"`
	ActiveUsers         int64      `json:"activeUsers"`
	AdminUsers          int64      `json:"adminUsers"`
	TotalProperties     int64      `json:"totalProperties"`
	AvailableProperties int64      `json:"availableProperties"`
	SoldProperties      int64      `json:"soldProperties"`
	TotalInquiries      int64      `json:"totalInquiries"`
	PendingInquiries    int64      `json:"pendingInquiries"`
	RecentUsers         []User     `json:"recentUsers"`
	RecentProperties    []Property `json:"recentProperties"`
}

// SystemInfo is returned by GET /admin/system/info.
type SystemInfo struct {
	ServerTime      Timestamp `json:"serverTime"`
	TotalUsers      int64     `json:"totalUsers"`
	TotalProperties int64     `json:"totalProperties"`
	TotalInquiries  int64     `json:"totalInquiries"`
	Version         string    `json:"version"`
}
