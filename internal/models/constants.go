package models

const (
	StatusPending      = "pending"
	StatusActive       = "active"
	StatusEndRequested = "end_requested"
	StatusEnded        = "ended"
	StatusCancelled    = "cancelled"
)

const (
	// OccupancyCacheTTL время жизни кэша занятости в Redis
	OccupancyCacheTTL = 60 // секунд

	// ActionRateLimit количество действий пользователя в окне
	ActionRateLimit = 30

	// ActionRateWindow окно ограничения частоты действий
	ActionRateWindow = 60 // секунд

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000

	// DefaultNearbyRadiusKm радиус поиска по умолчанию
	DefaultNearbyRadiusKm = 5.0

	// DefaultExportRangeMonths количество месяцев для экспорта по умолчанию
	DefaultExportRangeMonthsBefore = 1
	DefaultExportRangeMonthsAfter  = 1
)
